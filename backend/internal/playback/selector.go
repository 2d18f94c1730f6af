package playback

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kdduha/omni-reader/internal/wav"
)

var (
	ErrNothingToPlay     = errors.New("nothing to play")
	ErrUnsupportedFormat = errors.New("unsupported audio format")
)

type State string

const (
	StateIdle                State = "idle"
	StateAttemptingContainer State = "attempting_container"
	StateFallingBackToSpeech State = "falling_back_to_speech"
	StatePlaying             State = "playing"
	StateFailed              State = "failed"
)

type Mode string

const (
	ModeContainer Mode = "container"
	ModeSpeech    Mode = "speech"
)

// Handle is one started playback.
type Handle interface {
	// Done is closed when playback ends on its own or after Stop.
	Done() <-chan struct{}
	Stop() error
	Release() error
}

// Player plays a local audio file. ctx bounds startup only.
type Player interface {
	Play(ctx context.Context, path string) (Handle, error)
}

// Speaker reads text aloud. ctx bounds startup only.
type Speaker interface {
	Speak(ctx context.Context, text, lang string) (Handle, error)
}

type Status struct {
	// ID identifies the playback while it is playing.
	ID        string
	State     State
	Mode      Mode
	StartedAt time.Time
	Err       error
}

// Selector owns the single playback handle of the process and picks between
// the wav container and speech synthesis.
type Selector struct {
	logger  *log.Logger
	player  Player
	speaker Speaker
	path    string

	// playMu serializes Play; mu guards the fields below it.
	playMu sync.Mutex
	mu     sync.Mutex

	state     State
	mode      Mode
	current   Handle
	gen       uint64
	id        string
	startedAt time.Time
	lastErr   error
	cancel    context.CancelFunc
}

// NewSelector writes containers to a single file under dir, overwritten on
// every attempt. An empty dir means os.TempDir.
func NewSelector(logger *log.Logger, player Player, speaker Speaker, dir string) *Selector {
	if dir == "" {
		dir = os.TempDir()
	}
	return &Selector{
		logger:  logger,
		player:  player,
		speaker: speaker,
		path:    filepath.Join(dir, "omni-reader-playback.wav"),
		state:   StateIdle,
	}
}

// Path is the scoped temporary container file.
func (s *Selector) Path() string {
	return s.path
}

// Play stops whatever is playing and starts text/audio. audio is raw mono
// PCM16 at 24 kHz. It returns once playback has started.
func (s *Selector) Play(ctx context.Context, text string, audio []byte, lang string) (Status, error) {
	s.playMu.Lock()
	defer s.playMu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	if err := s.releaseLocked(); err != nil {
		s.logger.Printf("playback: release previous handle: %v\n", err)
	}
	s.cancel = cancel
	s.lastErr = nil
	s.mu.Unlock()

	var (
		h            Handle
		mode         Mode
		containerErr error
	)

	if len(audio) > 0 {
		s.setState(StateAttemptingContainer)
		h, containerErr = s.playContainer(ctx, audio)
		if containerErr != nil {
			if err := ctx.Err(); err != nil {
				return s.abort(err)
			}
			s.logger.Printf("playback: container path failed, falling back to speech: %v\n", containerErr)
		} else {
			mode = ModeContainer
		}
	}

	if h == nil {
		s.setState(StateFallingBackToSpeech)
		if strings.TrimSpace(text) == "" {
			return s.fail(errors.Join(ErrNothingToPlay, containerErr))
		}
		var err error
		h, err = s.speaker.Speak(ctx, text, lang)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return s.abort(ctxErr)
			}
			return s.fail(fmt.Errorf("speech synthesis: %w", err))
		}
		mode = ModeSpeech
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancel = nil

	if err := ctx.Err(); err != nil {
		// Stop arrived while starting.
		stopAndRelease(h)
		s.state, s.mode = StateIdle, ""
		return s.statusLocked(), err
	}

	s.gen++
	s.current = h
	s.state = StatePlaying
	s.mode = mode
	s.id = uuid.NewString()
	s.startedAt = time.Now()
	go s.watch(h, s.gen)

	return s.statusLocked(), nil
}

func (s *Selector) playContainer(ctx context.Context, audio []byte) (Handle, error) {
	if err := os.WriteFile(s.path, wav.Encode(audio), 0o600); err != nil {
		return nil, fmt.Errorf("write container: %w", err)
	}
	h, err := s.player.Play(ctx, s.path)
	if err != nil {
		return nil, fmt.Errorf("start player: %w", err)
	}
	return h, nil
}

// Stop aborts the current playback, if any, and returns to idle.
func (s *Selector) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}
	err := s.releaseLocked()
	s.state, s.mode = StateIdle, ""
	return err
}

func (s *Selector) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statusLocked()
}

// Wait blocks until the current playback ends or ctx is done.
func (s *Selector) Wait(ctx context.Context) error {
	s.mu.Lock()
	h := s.current
	s.mu.Unlock()
	if h == nil {
		return nil
	}

	select {
	case <-h.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Selector) statusLocked() Status {
	st := Status{State: s.state, Mode: s.mode, Err: s.lastErr}
	if s.state == StatePlaying {
		st.ID = s.id
		st.StartedAt = s.startedAt
	}
	return st
}

func (s *Selector) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

func (s *Selector) fail(err error) (Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancel = nil
	if relErr := s.releaseLocked(); relErr != nil {
		s.logger.Printf("playback: release on failure: %v\n", relErr)
	}
	s.state, s.mode = StateFailed, ""
	s.lastErr = err
	return s.statusLocked(), err
}

// abort returns to idle after Stop, or the caller, cancelled a starting
// playback. Nothing is recorded as an error.
func (s *Selector) abort(err error) (Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancel = nil
	if relErr := s.releaseLocked(); relErr != nil {
		s.logger.Printf("playback: release on abort: %v\n", relErr)
	}
	s.state, s.mode = StateIdle, ""
	return s.statusLocked(), err
}

// releaseLocked stops and releases the current handle exactly once.
func (s *Selector) releaseLocked() error {
	h := s.current
	if h == nil {
		return nil
	}
	s.current = nil
	s.gen++
	return stopAndRelease(h)
}

func (s *Selector) watch(h Handle, gen uint64) {
	<-h.Done()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen || s.current == nil {
		return
	}
	s.current = nil
	if err := h.Release(); err != nil {
		s.logger.Printf("playback: release after completion: %v\n", err)
	}
	s.state, s.mode = StateIdle, ""
}

func stopAndRelease(h Handle) error {
	return errors.Join(h.Stop(), h.Release())
}
