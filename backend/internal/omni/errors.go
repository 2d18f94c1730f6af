package omni

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/openai/openai-go/v3"
)

// Kind groups failures so callers can choose what to tell the user.
type Kind string

const (
	KindConfig      Kind = "config"
	KindAuth        Kind = "auth"
	KindRateLimited Kind = "rate_limited"
	KindTimeout     Kind = "timeout"
	KindNetwork     Kind = "network"
	KindTransport   Kind = "transport"
)

var ErrMissingCredential = errors.New("api credential is not configured")

// Error is a recognition failure raised before or while reading the stream.
type Error struct {
	Kind   Kind
	Status int
	Err    error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("omni %s error (status %d): %v", e.Kind, e.Status, e.Err)
	}
	return fmt.Sprintf("omni %s error: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of err, or "" when err did not come from this package.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func classify(err error) *Error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return &Error{Kind: kindForStatus(apiErr.StatusCode), Status: apiErr.StatusCode, Err: err}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &Error{Kind: KindTimeout, Err: err}
	}

	var (
		opErr  *net.OpError
		dnsErr *net.DNSError
	)
	if errors.As(err, &opErr) || errors.As(err, &dnsErr) {
		return &Error{Kind: KindNetwork, Err: err}
	}
	return &Error{Kind: KindTransport, Err: err}
}

func kindForStatus(status int) Kind {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return KindAuth
	case http.StatusTooManyRequests:
		return KindRateLimited
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return KindTimeout
	default:
		return KindTransport
	}
}
