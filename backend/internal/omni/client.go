package omni

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/kdduha/omni-reader/internal/config"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
)

// CredentialSource hands out the API key for each call.
type CredentialSource interface {
	APIKey(ctx context.Context) (string, error)
}

// StaticCredential is a fixed API key.
type StaticCredential string

func (s StaticCredential) APIKey(context.Context) (string, error) {
	return string(s), nil
}

// Request is one image recognition call.
type Request struct {
	ImageBase64 string
	ImageFormat string
	Prompt      string
	Voice       string
	Temperature *float64
	MaxTokens   *int
}

// Client talks to an OpenAI compatible omni model endpoint.
type Client struct {
	logger      *log.Logger
	client      openai.Client
	credentials CredentialSource
	model       string
}

// NewClient builds a client with retries disabled; retry policy is up to the caller.
func NewClient(logger *log.Logger, cfg config.OpenAIConfig, credentials CredentialSource, opts ...option.RequestOption) *Client {
	base := []option.RequestOption{
		option.WithBaseURL(strings.TrimRight(cfg.BaseURL, "/") + "/"),
		option.WithMaxRetries(0),
	}
	if cfg.Timeout > 0 {
		base = append(base, option.WithRequestTimeout(cfg.Timeout))
	}
	return &Client{
		logger:      logger,
		client:      openai.NewClient(append(base, opts...)...),
		credentials: credentials,
		model:       cfg.Model,
	}
}

// Recognize streams req to the model and accumulates the text and PCM audio.
// observe, when set, sees each fragment as it is applied.
func (c *Client) Recognize(ctx context.Context, req Request, observe Observer) (*Accumulated, Stats, error) {
	apiKey, err := c.apiKey(ctx)
	if err != nil {
		return nil, Stats{}, err
	}

	var raw *http.Response
	start := time.Now()
	err = c.client.Post(ctx, "chat/completions", c.buildParams(req), &raw,
		option.WithAPIKey(apiKey),
		option.WithHeader("Accept", "text/event-stream"),
		option.WithJSONSet("stream", true),
		// DashScope voices are outside the OpenAI voice enum.
		option.WithJSONSet("audio", map[string]string{"voice": req.Voice, "format": "wav"}),
	)
	if err != nil {
		e := classify(err)
		c.logger.Printf("omni request failed: kind=%s status=%d\n", e.Kind, e.Status)
		return nil, Stats{}, e
	}
	defer raw.Body.Close()

	acc, stats, err := Accumulate(raw.Body, observe)
	if err != nil {
		c.logger.Printf("omni stream interrupted after %d fragments: %v\n", stats.Applied, err)
		return nil, stats, err
	}

	c.logger.Printf("omni stream finished in %s: fragments=%d skipped=%d text=%d audio=%d\n",
		time.Since(start).Round(time.Millisecond), stats.Applied, stats.Skipped, len(acc.Text), len(acc.Audio))
	return acc, stats, nil
}

func (c *Client) apiKey(ctx context.Context) (string, error) {
	if c.credentials == nil {
		return "", &Error{Kind: KindConfig, Err: ErrMissingCredential}
	}
	key, err := c.credentials.APIKey(ctx)
	if err != nil {
		return "", &Error{Kind: KindConfig, Err: fmt.Errorf("%w: %v", ErrMissingCredential, err)}
	}
	if strings.TrimSpace(key) == "" {
		return "", &Error{Kind: KindConfig, Err: ErrMissingCredential}
	}
	return key, nil
}

func (c *Client) buildParams(req Request) openai.ChatCompletionNewParams {
	imageURL := fmt.Sprintf("data:image/%s;base64,%s", req.ImageFormat, req.ImageBase64)

	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
				openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
					URL: imageURL,
				}),
				openai.TextContentPart(req.Prompt),
			}),
		},
		Modalities: []string{"text", "audio"},
		StreamOptions: openai.ChatCompletionStreamOptionsParam{
			IncludeUsage: openai.Bool(true),
		},
	}

	if req.MaxTokens != nil {
		params.MaxCompletionTokens = openai.Int(int64(*req.MaxTokens))
	}
	if req.Temperature != nil {
		params.Temperature = openai.Float(*req.Temperature)
	}
	return params
}
