package playback

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/kdduha/omni-reader/internal/wav"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticKey string

func (k staticKey) APIKey(context.Context) (string, error) { return string(k), nil }

func TestOpenAISpeakerRendersAndPlays(t *testing.T) {
	clip := wav.Encode([]byte{0, 0, 1, 0})

	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/audio/speech", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		raw, _ := io.ReadAll(r.Body)
		assert.NoError(t, sonic.Unmarshal(raw, &body))
		w.Header().Set("Content-Type", "audio/wav")
		_, _ = w.Write(clip)
	}))
	t.Cleanup(srv.Close)

	client := openai.NewClient(option.WithBaseURL(srv.URL+"/"), option.WithMaxRetries(0))
	player := &fakePlayer{tracker: &liveTracker{}}
	speaker := NewOpenAISpeaker(client, staticKey("secret"), player, "tts-1", "alloy", 0.8, t.TempDir())

	h, err := speaker.Speak(context.Background(), "take two tablets", "en-US")
	require.NoError(t, err)
	require.NotNil(t, h)

	assert.Equal(t, "take two tablets", body["input"])
	assert.Equal(t, "alloy", body["voice"])
	assert.Equal(t, "wav", body["response_format"])
	assert.InDelta(t, 0.8, body["speed"], 1e-9)

	require.Len(t, player.data, 1)
	assert.Equal(t, clip, player.data[0])
	saved, err := os.ReadFile(player.paths[0])
	require.NoError(t, err)
	assert.Equal(t, clip, saved)
}

func TestOpenAISpeakerRequiresCredential(t *testing.T) {
	client := openai.NewClient(option.WithBaseURL("http://127.0.0.1:1/"), option.WithMaxRetries(0))
	player := &fakePlayer{tracker: &liveTracker{}}
	speaker := NewOpenAISpeaker(client, staticKey(" "), player, "tts-1", "alloy", 1, t.TempDir())

	_, err := speaker.Speak(context.Background(), "text", "en-US")
	assert.Error(t, err)
	assert.Zero(t, player.calls)
}
