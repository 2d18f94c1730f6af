package playback

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kdduha/omni-reader/internal/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clip.wav")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestExecPlayerRejectsUndecodableFile(t *testing.T) {
	path := writeFile(t, []byte("definitely not a wav file, just some text padding it out"))

	_, err := ExecPlayer{Command: []string{"true"}}.Play(context.Background(), path)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestExecPlayerRunsCommandToCompletion(t *testing.T) {
	path := writeFile(t, wav.Encode(make([]byte, 4800)))

	h, err := ExecPlayer{Command: []string{"true"}}.Play(context.Background(), path)
	require.NoError(t, err)

	select {
	case <-h.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("player did not finish")
	}
	assert.NoError(t, h.Release())
}

func TestExecPlayerRequiresCommand(t *testing.T) {
	_, err := ExecPlayer{}.Play(context.Background(), "missing.wav")
	assert.Error(t, err)
}

func TestProcessHandleStopKillsProcess(t *testing.T) {
	h, err := startProcess("sleep", "30")
	require.NoError(t, err)

	require.NoError(t, h.Stop())
	select {
	case <-h.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("process was not killed")
	}
	assert.NoError(t, h.Release())
	assert.NoError(t, h.Stop())
}

func TestExecSpeakerArguments(t *testing.T) {
	h, err := ExecSpeaker{Command: []string{"true"}, Rate: 0.8, Pitch: 1}.Speak(context.Background(), "hello", "zh-HK")
	require.NoError(t, err)

	ph := h.(*processHandle)
	assert.Equal(t, []string{"true", "-v", "yue", "-s", "140", "-p", "50", "hello"}, ph.cmd.Args)
	assert.NoError(t, h.Release())
}

func TestEspeakVoice(t *testing.T) {
	assert.Equal(t, "cmn", espeakVoice("zh-CN"))
	assert.Equal(t, "yue", espeakVoice("zh-HK"))
	assert.Equal(t, "en-us", espeakVoice("en-US"))
	assert.Equal(t, "fr", espeakVoice("FR"))
}
