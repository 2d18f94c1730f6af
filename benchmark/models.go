package main

import "time"

type RecognizeRequest struct {
	ImageBase64 string `json:"image_base64"`
	ImageFormat string `json:"image_format"`
	Language    string `json:"language,omitempty"`
	Dialect     string `json:"dialect,omitempty"`

	Generation *GenerationParams `json:"generation,omitempty"`
}

type GenerationParams struct {
	Temperature *float64 `json:"temperature"`
	MaxTokens   *int     `json:"max_tokens"`
}

type Result struct {
	Text       string `json:"text"`
	AudioValid bool   `json:"audio_valid"`
	AudioBytes int    `json:"audio_bytes"`
	Cached     bool   `json:"cached"`
}

type Chunk struct {
	Delta  string  `json:"delta"`
	Result *Result `json:"result"`
	Done   bool    `json:"done"`
}

type BenchResult struct {
	File       string
	Format     string
	Language   string
	FirstDelta time.Duration
	Duration   time.Duration
	Runes      int
	AudioBytes int
	Err        error
	Size       int64
}

type Agg struct {
	Count      int
	Total      time.Duration
	FirstDelta time.Duration
	TotalBytes int64
	AudioBytes int64
}
