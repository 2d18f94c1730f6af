package models

import (
	"fmt"
	"strings"
)

// MaxImageBytes bounds the decoded image size.
const MaxImageBytes = 10 * 1024 * 1024

const (
	FormatPNG  = "png"
	FormatJPEG = "jpeg"
	FormatJPG  = "jpg"
	FormatWEBP = "webp"
	FormatPDF  = "pdf"
)

// RecognizeRequest represents request for recognize endpoints
type RecognizeRequest struct {
	ImageBase64 string   `json:"image_base64" validate:"required" example:"iVBORw0KGgoAAAANSUhEUgAA..."`
	ImageFormat string   `json:"image_format" example:"png"`
	Language    Language `json:"language" example:"zh"`
	Dialect     Dialect  `json:"dialect,omitempty" example:"cantonese"`
	Prompt      string   `json:"prompt,omitempty" example:"Read the dosage instructions"`

	// Optional generation parameters
	Generation *GenerationParams `json:"generation,omitempty"`
}

// Normalize fills defaults in place. Call before Validate.
func (r *RecognizeRequest) Normalize(defaultLanguage Language) {
	r.ImageFormat = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(r.ImageFormat), "."))
	if r.ImageFormat == "" {
		r.ImageFormat = FormatPNG
	}
	if r.Language == "" {
		r.Language = defaultLanguage
	}
	if strings.TrimSpace(r.Prompt) == "" {
		r.Prompt = r.Language.DefaultPrompt()
	}
}

func (r RecognizeRequest) Validate() error {
	if r.ImageBase64 == "" {
		return fmt.Errorf("image_base64 is empty")
	}
	// base64 expands 3 bytes into 4 characters
	if size := len(r.ImageBase64) * 3 / 4; size > MaxImageBytes {
		return fmt.Errorf("image is too large: %d bytes, limit %d", size, MaxImageBytes)
	}
	switch r.ImageFormat {
	case FormatPNG, FormatJPEG, FormatJPG, FormatWEBP, FormatPDF:
	default:
		return fmt.Errorf("unsupported image_format {%s}", r.ImageFormat)
	}
	if !r.Language.Supported() {
		return fmt.Errorf("unsupported language {%s}", r.Language)
	}
	if r.Dialect != "" && !r.Language.SupportsDialect(r.Dialect) {
		return fmt.Errorf("dialect {%s} is not available for language {%s}", r.Dialect, r.Language)
	}
	return nil
}

// Voice is the model voice for this request.
func (r RecognizeRequest) Voice() string {
	return Voice(r.Language, r.Dialect)
}

// SpeechTag is the fallback synthesizer language tag for this request.
func (r RecognizeRequest) SpeechTag() string {
	return SpeechTag(r.Language, r.Dialect)
}

// GenerationParams holds optional OpenAI-like generation parameters
type GenerationParams struct {
	Temperature *float64 `json:"temperature,omitempty" example:"0.7"`
	MaxTokens   *int     `json:"max_tokens,omitempty" example:"512"`
}

// Usage mirrors the token usage record of the last stream fragment.
type Usage struct {
	PromptTokens     int64 `json:"prompt_tokens"`
	CompletionTokens int64 `json:"completion_tokens"`
	TotalTokens      int64 `json:"total_tokens"`
}

type RecognizeResponse struct {
	Text string `json:"text"`
	// AudioBase64 is a WAV container, or the raw payload when AudioValid is false.
	AudioBase64 string `json:"audio_base64,omitempty"`
	AudioValid  bool   `json:"audio_valid"`
	AudioBytes  int    `json:"audio_bytes"`
	Cached      bool   `json:"cached,omitempty"`
	Usage       *Usage `json:"usage,omitempty"`
}

type StreamChunk struct {
	Delta  string             `json:"delta,omitempty"`
	Result *RecognizeResponse `json:"result,omitempty"`
	Done   bool               `json:"done,omitempty"`
	Err    error              `json:"-"`
}

type PlaybackStatus struct {
	ID        string `json:"id,omitempty"`
	State     string `json:"state" example:"playing"`
	Mode      string `json:"mode,omitempty" example:"container"`
	StartedAt string `json:"started_at,omitempty"`
	LastError string `json:"last_error,omitempty"`
}

type PlaybackResponse struct {
	Text   string         `json:"text"`
	Status PlaybackStatus `json:"status"`
	// Container is the WAV that was handed to the player, if any.
	Container []byte `json:"-"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}
