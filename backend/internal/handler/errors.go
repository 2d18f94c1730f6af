package handler

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/kdduha/omni-reader/internal/models"
	"github.com/kdduha/omni-reader/internal/omni"
	"github.com/kdduha/omni-reader/internal/playback"
	"github.com/kdduha/omni-reader/internal/service"
)

// errors raised outside the model client get their own kinds on the wire
const (
	kindInvalid       omni.Kind = "invalid_request"
	kindNothingToPlay omni.Kind = "nothing_to_play"
	kindNoAudio       omni.Kind = "no_audio"
	kindCanceled      omni.Kind = "canceled"
	kindInternal      omni.Kind = "internal"
)

func kindOf(err error) omni.Kind {
	switch {
	case errors.Is(err, playback.ErrNothingToPlay):
		return kindNothingToPlay
	case errors.Is(err, service.ErrNoAudio):
		return kindNoAudio
	case errors.Is(err, service.ErrInvalidImage):
		return kindInvalid
	}
	if k := omni.KindOf(err); k != "" {
		return k
	}
	if errors.Is(err, context.Canceled) {
		return kindCanceled
	}
	return kindInternal
}

func statusFor(err error) int {
	switch kindOf(err) {
	case kindInvalid:
		return http.StatusBadRequest
	case kindNothingToPlay, kindNoAudio:
		return http.StatusUnprocessableEntity
	case kindCanceled:
		return http.StatusConflict
	case omni.KindAuth:
		return http.StatusUnauthorized
	case omni.KindRateLimited:
		return http.StatusTooManyRequests
	case omni.KindTimeout:
		return http.StatusGatewayTimeout
	case omni.KindNetwork, omni.KindTransport:
		return http.StatusBadGateway
	case omni.KindConfig:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func errorResponse(err error) models.ErrorResponse {
	return models.ErrorResponse{Error: err.Error(), Kind: string(kindOf(err))}
}

func writeError(logger *log.Logger, w http.ResponseWriter, err error) {
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		logger.Printf("service error: %v\n", err)
	}
	writeJSON(w, code, errorResponse(err))
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	data, err := sonic.Marshal(v)
	if err != nil {
		http.Error(w, "failed to encode: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(data)
}
