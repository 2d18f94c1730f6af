package playback

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/kdduha/omni-reader/internal/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHandle struct {
	name     string
	tracker  *liveTracker
	done     chan struct{}
	once     sync.Once
	mu       sync.Mutex
	stops    int
	releases int
}

func (h *fakeHandle) Done() <-chan struct{} { return h.done }

func (h *fakeHandle) finish() {
	h.once.Do(func() { close(h.done) })
}

func (h *fakeHandle) Stop() error {
	h.mu.Lock()
	h.stops++
	h.mu.Unlock()
	h.finish()
	return nil
}

func (h *fakeHandle) Release() error {
	h.mu.Lock()
	h.releases++
	first := h.releases == 1
	h.mu.Unlock()
	if first {
		h.tracker.release()
	}
	return nil
}

func (h *fakeHandle) counts() (int, int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stops, h.releases
}

// liveTracker counts handles that were started and not yet released.
type liveTracker struct {
	mu      sync.Mutex
	live    int
	maxLive int
}

func (t *liveTracker) acquire() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.live++
	if t.live > t.maxLive {
		t.maxLive = t.live
	}
}

func (t *liveTracker) release() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.live--
}

func (t *liveTracker) snapshot() (int, int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.live, t.maxLive
}

type fakePlayer struct {
	tracker *liveTracker
	err     error
	calls   int
	paths   []string
	handles []*fakeHandle
	data    [][]byte
}

func (p *fakePlayer) Play(_ context.Context, path string) (Handle, error) {
	p.calls++
	p.paths = append(p.paths, path)
	raw, _ := os.ReadFile(path)
	p.data = append(p.data, raw)
	if p.err != nil {
		return nil, p.err
	}
	p.tracker.acquire()
	h := &fakeHandle{name: "container", tracker: p.tracker, done: make(chan struct{})}
	p.handles = append(p.handles, h)
	return h, nil
}

type fakeSpeaker struct {
	tracker *liveTracker
	err     error
	calls   int
	texts   []string
	langs   []string
	handles []*fakeHandle
}

func (s *fakeSpeaker) Speak(_ context.Context, text, lang string) (Handle, error) {
	s.calls++
	s.texts = append(s.texts, text)
	s.langs = append(s.langs, lang)
	if s.err != nil {
		return nil, s.err
	}
	s.tracker.acquire()
	h := &fakeHandle{name: "speech", tracker: s.tracker, done: make(chan struct{})}
	s.handles = append(s.handles, h)
	return h, nil
}

func newTestSelector(t *testing.T) (*Selector, *fakePlayer, *fakeSpeaker, *liveTracker) {
	t.Helper()
	tracker := &liveTracker{}
	player := &fakePlayer{tracker: tracker}
	speaker := &fakeSpeaker{tracker: tracker}
	sel := NewSelector(log.New(io.Discard, "", 0), player, speaker, t.TempDir())
	return sel, player, speaker, tracker
}

func TestPlayContainerPath(t *testing.T) {
	sel, player, speaker, _ := newTestSelector(t)
	pcm := []byte{1, 2, 3, 4}

	st, err := sel.Play(context.Background(), "summary", pcm, "zh-CN")
	require.NoError(t, err)

	assert.Equal(t, StatePlaying, st.State)
	assert.Equal(t, ModeContainer, st.Mode)
	assert.False(t, st.StartedAt.IsZero())
	assert.Len(t, st.ID, 36)
	assert.Equal(t, 1, player.calls)
	assert.Zero(t, speaker.calls)

	require.Len(t, player.data, 1)
	assert.Equal(t, wav.Encode(pcm), player.data[0])
	assert.Equal(t, sel.Path(), player.paths[0])
}

func TestPlayEmptyAudioGoesStraightToSpeech(t *testing.T) {
	sel, player, speaker, _ := newTestSelector(t)

	st, err := sel.Play(context.Background(), "summary", nil, "en-US")
	require.NoError(t, err)

	assert.Equal(t, StatePlaying, st.State)
	assert.Equal(t, ModeSpeech, st.Mode)
	assert.Zero(t, player.calls)
	_, statErr := os.Stat(sel.Path())
	assert.True(t, os.IsNotExist(statErr), "no container should be written")
	assert.Equal(t, []string{"summary"}, speaker.texts)
	assert.Equal(t, []string{"en-US"}, speaker.langs)
}

func TestPlayFallsBackAfterOneFailedContainerAttempt(t *testing.T) {
	sel, player, speaker, _ := newTestSelector(t)
	player.err = ErrUnsupportedFormat

	st, err := sel.Play(context.Background(), "summary", []byte{0xff}, "zh-CN")
	require.NoError(t, err)

	assert.Equal(t, StatePlaying, st.State)
	assert.Equal(t, ModeSpeech, st.Mode)
	assert.Equal(t, 1, player.calls)
	assert.Equal(t, 1, speaker.calls)
}

func TestPlayNothingToPlay(t *testing.T) {
	sel, player, speaker, tracker := newTestSelector(t)

	st, err := sel.Play(context.Background(), "  ", nil, "zh-CN")
	require.ErrorIs(t, err, ErrNothingToPlay)

	assert.Equal(t, StateFailed, st.State)
	assert.ErrorIs(t, st.Err, ErrNothingToPlay)
	assert.Zero(t, player.calls)
	assert.Zero(t, speaker.calls)
	live, _ := tracker.snapshot()
	assert.Zero(t, live)
}

func TestPlayNothingToPlayAfterContainerFailure(t *testing.T) {
	sel, player, _, tracker := newTestSelector(t)
	player.err = ErrUnsupportedFormat

	st, err := sel.Play(context.Background(), "", []byte{1, 2}, "zh-CN")
	require.ErrorIs(t, err, ErrNothingToPlay)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
	assert.Equal(t, StateFailed, st.State)
	assert.Equal(t, 1, player.calls)
	live, _ := tracker.snapshot()
	assert.Zero(t, live)
}

func TestPlaySpeechFailure(t *testing.T) {
	sel, player, speaker, _ := newTestSelector(t)
	player.err = ErrUnsupportedFormat
	speaker.err = errors.New("no synthesizer")

	st, err := sel.Play(context.Background(), "summary", []byte{1, 2}, "zh-CN")
	require.Error(t, err)
	assert.Equal(t, StateFailed, st.State)
	assert.Equal(t, 1, player.calls)
	assert.Equal(t, 1, speaker.calls)
}

func TestPlayFailureReleasesPreviousHandle(t *testing.T) {
	sel, _, _, tracker := newTestSelector(t)

	_, err := sel.Play(context.Background(), "first", []byte{1, 2}, "zh-CN")
	require.NoError(t, err)

	_, err = sel.Play(context.Background(), "", nil, "zh-CN")
	require.ErrorIs(t, err, ErrNothingToPlay)

	live, _ := tracker.snapshot()
	assert.Zero(t, live)
}

func TestNewPlayStopsPreviousHandleExactlyOnce(t *testing.T) {
	sel, player, speaker, tracker := newTestSelector(t)

	st1, err := sel.Play(context.Background(), "first", []byte{1, 2}, "zh-CN")
	require.NoError(t, err)
	first := player.handles[0]

	st2, err := sel.Play(context.Background(), "second", nil, "zh-CN")
	require.NoError(t, err)
	assert.NotEqual(t, st1.ID, st2.ID)

	stops, releases := first.counts()
	assert.Equal(t, 1, stops)
	assert.Equal(t, 1, releases)
	require.Len(t, speaker.handles, 1)

	// let the watcher of the first handle observe Done
	time.Sleep(20 * time.Millisecond)
	stops, releases = first.counts()
	assert.Equal(t, 1, stops)
	assert.Equal(t, 1, releases)

	live, maxLive := tracker.snapshot()
	assert.Equal(t, 1, live)
	assert.Equal(t, 1, maxLive)
	assert.Equal(t, StatePlaying, sel.Status().State)
	assert.Equal(t, ModeSpeech, sel.Status().Mode)
}

func TestStopIsSafeWhenIdle(t *testing.T) {
	sel, _, _, _ := newTestSelector(t)

	require.NoError(t, sel.Stop())
	require.NoError(t, sel.Stop())
	assert.Equal(t, StateIdle, sel.Status().State)
}

func TestStopReleasesCurrentHandle(t *testing.T) {
	sel, player, _, tracker := newTestSelector(t)

	_, err := sel.Play(context.Background(), "text", []byte{1, 2}, "zh-CN")
	require.NoError(t, err)

	require.NoError(t, sel.Stop())
	require.NoError(t, sel.Stop())
	assert.Empty(t, sel.Status().ID)

	stops, releases := player.handles[0].counts()
	assert.Equal(t, 1, stops)
	assert.Equal(t, 1, releases)
	assert.Equal(t, StateIdle, sel.Status().State)
	live, _ := tracker.snapshot()
	assert.Zero(t, live)
}

func TestCompletionReturnsToIdle(t *testing.T) {
	sel, player, _, tracker := newTestSelector(t)

	_, err := sel.Play(context.Background(), "text", []byte{1, 2}, "zh-CN")
	require.NoError(t, err)

	h := player.handles[0]
	h.finish()
	require.NoError(t, sel.Wait(context.Background()))

	require.Eventually(t, func() bool {
		return sel.Status().State == StateIdle
	}, time.Second, 5*time.Millisecond)

	stops, releases := h.counts()
	assert.Zero(t, stops)
	assert.Equal(t, 1, releases)
	live, _ := tracker.snapshot()
	assert.Zero(t, live)
}

func TestPlayCanceledWhileStartingReleasesHandle(t *testing.T) {
	sel, player, _, tracker := newTestSelector(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	st, err := sel.Play(ctx, "text", []byte{1, 2}, "zh-CN")
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateIdle, st.State)
	require.Len(t, player.handles, 1)
	stops, releases := player.handles[0].counts()
	assert.Equal(t, 1, stops)
	assert.Equal(t, 1, releases)
	live, _ := tracker.snapshot()
	assert.Zero(t, live)
}

func TestWaitWithoutPlayback(t *testing.T) {
	sel, _, _, _ := newTestSelector(t)
	assert.NoError(t, sel.Wait(context.Background()))
}

// blockingPlayer and blockingSpeaker stay in startup until ctx is done.
type blockingPlayer struct {
	entered chan struct{}
}

func (p *blockingPlayer) Play(ctx context.Context, _ string) (Handle, error) {
	close(p.entered)
	<-ctx.Done()
	return nil, ctx.Err()
}

type blockingSpeaker struct {
	entered chan struct{}
}

func (s *blockingSpeaker) Speak(ctx context.Context, _, _ string) (Handle, error) {
	close(s.entered)
	<-ctx.Done()
	return nil, ctx.Err()
}

type playResult struct {
	st  Status
	err error
}

func playAsync(sel *Selector, text string, audio []byte) <-chan playResult {
	out := make(chan playResult, 1)
	go func() {
		st, err := sel.Play(context.Background(), text, audio, "zh-CN")
		out <- playResult{st: st, err: err}
	}()
	return out
}

func awaitPlay(t *testing.T, ch <-chan playResult) playResult {
	t.Helper()
	select {
	case res := <-ch:
		return res
	case <-time.After(time.Second):
		t.Fatal("Play did not return after Stop")
		return playResult{}
	}
}

func TestStopDuringContainerStartupAborts(t *testing.T) {
	tracker := &liveTracker{}
	player := &blockingPlayer{entered: make(chan struct{})}
	speaker := &fakeSpeaker{tracker: tracker}
	sel := NewSelector(log.New(io.Discard, "", 0), player, speaker, t.TempDir())

	result := playAsync(sel, "summary", []byte{1, 2})
	<-player.entered
	assert.Equal(t, StateAttemptingContainer, sel.Status().State)

	require.NoError(t, sel.Stop())
	res := awaitPlay(t, result)

	require.ErrorIs(t, res.err, context.Canceled)
	assert.Equal(t, StateIdle, res.st.State)
	assert.NoError(t, res.st.Err)
	assert.Equal(t, StateIdle, sel.Status().State)
	assert.NoError(t, sel.Status().Err)
	assert.Zero(t, speaker.calls)
	live, _ := tracker.snapshot()
	assert.Zero(t, live)
}

func TestStopDuringContainerStartupWithoutTextAborts(t *testing.T) {
	tracker := &liveTracker{}
	player := &blockingPlayer{entered: make(chan struct{})}
	speaker := &fakeSpeaker{tracker: tracker}
	sel := NewSelector(log.New(io.Discard, "", 0), player, speaker, t.TempDir())

	result := playAsync(sel, "", []byte{1, 2})
	<-player.entered
	require.NoError(t, sel.Stop())
	res := awaitPlay(t, result)

	require.ErrorIs(t, res.err, context.Canceled)
	assert.NotErrorIs(t, res.err, ErrNothingToPlay)
	assert.Equal(t, StateIdle, sel.Status().State)
	assert.Zero(t, speaker.calls)
}

func TestStopDuringSpeechStartupAborts(t *testing.T) {
	tracker := &liveTracker{}
	player := &fakePlayer{tracker: tracker}
	speaker := &blockingSpeaker{entered: make(chan struct{})}
	sel := NewSelector(log.New(io.Discard, "", 0), player, speaker, t.TempDir())

	result := playAsync(sel, "summary", nil)
	<-speaker.entered
	assert.Equal(t, StateFallingBackToSpeech, sel.Status().State)

	require.NoError(t, sel.Stop())
	res := awaitPlay(t, result)

	require.ErrorIs(t, res.err, context.Canceled)
	assert.Equal(t, StateIdle, res.st.State)
	assert.Equal(t, StateIdle, sel.Status().State)
	assert.NoError(t, sel.Status().Err)
	assert.Zero(t, player.calls)
	live, _ := tracker.snapshot()
	assert.Zero(t, live)
}
