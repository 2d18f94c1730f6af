package playback

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	gowav "github.com/go-audio/wav"
)

// processHandle is a running player or synthesizer process.
type processHandle struct {
	cmd      *exec.Cmd
	done     chan struct{}
	stopOnce sync.Once
	stopErr  error
}

func startProcess(name string, args ...string) (*processHandle, error) {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	h := &processHandle{cmd: cmd, done: make(chan struct{})}
	go func() {
		_ = cmd.Wait()
		close(h.done)
	}()
	return h, nil
}

func (h *processHandle) Done() <-chan struct{} {
	return h.done
}

func (h *processHandle) Stop() error {
	h.stopOnce.Do(func() {
		select {
		case <-h.done:
			return
		default:
		}
		if err := h.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
			h.stopErr = err
		}
	})
	return h.stopErr
}

// Release waits for the process to be reaped.
func (h *processHandle) Release() error {
	err := h.Stop()
	<-h.done
	return err
}

// ExecPlayer plays wav files with an external command such as "aplay -q".
type ExecPlayer struct {
	Command []string
}

func (p ExecPlayer) Play(ctx context.Context, path string) (Handle, error) {
	if len(p.Command) == 0 {
		return nil, errors.New("player command is not configured")
	}
	if err := probe(path); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	args := append(append([]string{}, p.Command[1:]...), path)
	return startProcess(p.Command[0], args...)
}

// probe rejects files a wav decoder cannot make sense of.
func probe(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if !gowav.NewDecoder(f).IsValidFile() {
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	return nil
}

// ExecSpeaker reads text with a local synthesizer compatible with espeak-ng flags.
type ExecSpeaker struct {
	Command []string
	// Rate and Pitch are relative to the synthesizer defaults, 1.0 means unchanged.
	Rate  float64
	Pitch float64
}

const (
	espeakDefaultWPM   = 175
	espeakDefaultPitch = 50
)

func (s ExecSpeaker) Speak(ctx context.Context, text, lang string) (Handle, error) {
	if len(s.Command) == 0 {
		return nil, errors.New("speech command is not configured")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	args := append([]string{}, s.Command[1:]...)
	args = append(args,
		"-v", espeakVoice(lang),
		"-s", strconv.Itoa(scale(espeakDefaultWPM, s.Rate)),
		"-p", strconv.Itoa(min(scale(espeakDefaultPitch, s.Pitch), 99)),
		text,
	)
	return startProcess(s.Command[0], args...)
}

func scale(base int, factor float64) int {
	if factor <= 0 {
		return base
	}
	return int(float64(base) * factor)
}

func espeakVoice(lang string) string {
	switch strings.ToLower(lang) {
	case "zh-hk", "yue":
		return "yue"
	case "zh", "zh-cn":
		return "cmn"
	case "en", "en-us":
		return "en-us"
	default:
		return strings.ToLower(lang)
	}
}
