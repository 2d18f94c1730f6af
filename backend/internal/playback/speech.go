package playback

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// CredentialSource hands out the API key for each call.
type CredentialSource interface {
	APIKey(ctx context.Context) (string, error)
}

// OpenAISpeaker renders text with the Audio Speech API and plays the result
// through a Player.
type OpenAISpeaker struct {
	client      openai.Client
	credentials CredentialSource
	player      Player
	model       string
	voice       string
	speed       float64
	path        string
}

func NewOpenAISpeaker(client openai.Client, credentials CredentialSource, player Player, model, voice string, speed float64, dir string) *OpenAISpeaker {
	if dir == "" {
		dir = os.TempDir()
	}
	return &OpenAISpeaker{
		client:      client,
		credentials: credentials,
		player:      player,
		model:       model,
		voice:       voice,
		speed:       speed,
		path:        filepath.Join(dir, "omni-reader-speech.wav"),
	}
}

func (s *OpenAISpeaker) Speak(ctx context.Context, text, _ string) (Handle, error) {
	key, err := s.credentials.APIKey(ctx)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(key) == "" {
		return nil, errors.New("speech: api credential is not configured")
	}

	params := openai.AudioSpeechNewParams{
		Model:          openai.SpeechModel(s.model),
		Input:          text,
		Voice:          openai.AudioSpeechNewParamsVoice(s.voice),
		ResponseFormat: openai.AudioSpeechNewParamsResponseFormat("wav"),
	}
	if s.speed > 0 {
		params.Speed = openai.Float(s.speed)
	}

	resp, err := s.client.Audio.Speech.New(ctx, params, option.WithAPIKey(key))
	if err != nil {
		return nil, fmt.Errorf("speech request: %w", err)
	}
	defer resp.Body.Close()

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read speech audio: %w", err)
	}
	if err := os.WriteFile(s.path, audio, 0o600); err != nil {
		return nil, fmt.Errorf("write speech audio: %w", err)
	}
	return s.player.Play(ctx, s.path)
}
