package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/base64x"
	"github.com/kdduha/omni-reader/internal/config"
	"github.com/kdduha/omni-reader/internal/metrics"
	"github.com/kdduha/omni-reader/internal/models"
	"github.com/kdduha/omni-reader/internal/omni"
	"github.com/kdduha/omni-reader/internal/playback"
	"github.com/kdduha/omni-reader/internal/wav"
)

type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
}

type recognizer interface {
	Recognize(ctx context.Context, req omni.Request, observe omni.Observer) (*omni.Accumulated, omni.Stats, error)
}

type selector interface {
	Play(ctx context.Context, text string, audio []byte, lang string) (playback.Status, error)
	Stop() error
	Status() playback.Status
	Wait(ctx context.Context) error
}

// entry is what gets cached and turned into responses. Audio stays raw PCM.
type entry struct {
	Text           string        `json:"text"`
	AudioPCMBase64 string        `json:"audio_pcm_base64"`
	Usage          *models.Usage `json:"usage,omitempty"`
}

type ReaderService struct {
	logger     *log.Logger
	recognizer recognizer
	selector   selector
	cache      Cache
	pdfDPI     float64
}

func NewReaderService(logger *log.Logger, recognizer recognizer, selector selector, cfg config.ReaderConfig) *ReaderService {
	return &ReaderService{
		logger:     logger,
		recognizer: recognizer,
		selector:   selector,
		pdfDPI:     cfg.PDFDPI,
	}
}

func (s *ReaderService) SetCacheClient(cache Cache) {
	s.cache = cache
}

// Send recognizes the image and returns the text with a wav container.
func (s *ReaderService) Send(ctx context.Context, req *models.RecognizeRequest) (*models.RecognizeResponse, error) {
	e, cached, err := s.recognize(ctx, req, nil)
	if err != nil {
		return nil, err
	}
	resp := e.response()
	resp.Cached = cached
	return resp, nil
}

// Audio returns only the wav container.
func (s *ReaderService) Audio(ctx context.Context, req *models.RecognizeRequest) ([]byte, error) {
	e, _, err := s.recognize(ctx, req, nil)
	if err != nil {
		return nil, err
	}
	pcm := e.pcm()
	if len(pcm) == 0 {
		return nil, ErrNoAudio
	}
	return wav.Encode(pcm), nil
}

func (s *ReaderService) SendStream(
	ctx context.Context,
	req *models.RecognizeRequest,
) (<-chan models.StreamChunk, error) {
	ch := make(chan models.StreamChunk, 1)

	go func() {
		defer close(ch)

		sendOrStop := func(msg models.StreamChunk) bool {
			select {
			case ch <- msg:
				return true
			case <-ctx.Done():
				return false
			}
		}

		sendNonBlocking := func(msg models.StreamChunk) {
			select {
			case ch <- msg:
			default:
			}
		}

		streaming := true
		observe := func(f omni.Fragment) {
			if !streaming || f.Text == "" {
				return
			}
			streaming = sendOrStop(models.StreamChunk{Delta: f.Text})
		}

		e, cached, err := s.recognize(ctx, req, observe)
		if err != nil {
			sendNonBlocking(models.StreamChunk{Err: err})
			return
		}
		if !streaming {
			return
		}

		if cached && e.Text != "" {
			if !sendOrStop(models.StreamChunk{Delta: e.Text}) {
				return
			}
		}

		resp := e.response()
		resp.Cached = cached
		sendOrStop(models.StreamChunk{Result: resp, Done: true})
	}()

	return ch, nil
}

// Play recognizes the image and plays the result on this device.
func (s *ReaderService) Play(ctx context.Context, req *models.RecognizeRequest) (*models.PlaybackResponse, error) {
	e, _, err := s.recognize(ctx, req, nil)
	if err != nil {
		return nil, err
	}

	pcm := e.pcm()
	st, err := s.selector.Play(ctx, e.Text, pcm, req.SpeechTag())
	metrics.PlaybackTotal(string(st.State), string(st.Mode))
	if err != nil {
		return nil, err
	}

	resp := &models.PlaybackResponse{Text: e.Text, Status: statusModel(st)}
	if len(pcm) > 0 {
		resp.Container = wav.Encode(pcm)
	}
	return resp, nil
}

func (s *ReaderService) StopPlayback() error {
	return s.selector.Stop()
}

func (s *ReaderService) PlaybackStatus() models.PlaybackStatus {
	return statusModel(s.selector.Status())
}

// WaitPlayback blocks until the current playback ends.
func (s *ReaderService) WaitPlayback(ctx context.Context) error {
	return s.selector.Wait(ctx)
}

func (s *ReaderService) recognize(ctx context.Context, req *models.RecognizeRequest, observe omni.Observer) (*entry, bool, error) {
	key := getCacheKey(req)
	if e, ok := s.fromCache(ctx, key); ok {
		return e, true, nil
	}

	omniReq, err := s.buildOmniReq(req)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %w", ErrInvalidImage, err)
	}

	start := time.Now()
	acc, stats, err := s.recognizer.Recognize(ctx, omniReq, observe)
	metrics.StreamFragments(stats.Applied, stats.Skipped)
	if err != nil {
		metrics.RecognizeTotal(statusError, string(omni.KindOf(err)))
		metrics.RecognizeDuration(statusError, time.Since(start))
		return nil, false, err
	}

	status := statusOK
	if acc.Empty() {
		status = statusEmpty
		s.logger.Println("model returned neither text nor audio")
	}
	metrics.RecognizeTotal(status, "")
	metrics.RecognizeDuration(status, time.Since(start))

	e := &entry{
		Text:           acc.Text,
		AudioPCMBase64: base64x.StdEncoding.EncodeToString(acc.Audio),
		Usage:          acc.Usage,
	}
	if !acc.Empty() {
		s.toCache(ctx, key, e)
	}
	return e, false, nil
}

func (s *ReaderService) fromCache(ctx context.Context, key string) (*entry, bool) {
	if s.cache == nil {
		return nil, false
	}
	raw, found, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Printf("cache get error: %v\n", err)
	}
	metrics.CacheLookup(found)
	if !found {
		return nil, false
	}

	var e entry
	if err := sonic.Unmarshal(raw, &e); err != nil {
		s.logger.Printf("cache entry is corrupted: %v\n", err)
		return nil, false
	}
	s.logger.Println("served from cache")
	return &e, true
}

func (s *ReaderService) toCache(ctx context.Context, key string, e *entry) {
	if s.cache == nil {
		return
	}
	raw, err := sonic.Marshal(e)
	if err != nil {
		s.logger.Printf("failed to encode cache entry: %v\n", err)
		return
	}
	if err := s.cache.Set(ctx, key, raw); err != nil {
		s.logger.Printf("failed to set cache: %v\n", err)
	}
}

// pcm decodes the cached audio. An undecodable payload yields no audio, which
// sends playback down the speech path.
func (e *entry) pcm() []byte {
	pcm, err := base64x.StdEncoding.DecodeString(e.AudioPCMBase64)
	if err != nil {
		return nil
	}
	return pcm
}

func (e *entry) response() *models.RecognizeResponse {
	resp := &models.RecognizeResponse{Text: e.Text, Usage: e.Usage}
	if e.AudioPCMBase64 == "" {
		return resp
	}
	resp.AudioBase64, resp.AudioValid = wav.EncodeBase64(e.AudioPCMBase64)
	resp.AudioBytes = len(e.pcm())
	return resp
}

func statusModel(st playback.Status) models.PlaybackStatus {
	out := models.PlaybackStatus{
		ID:    st.ID,
		State: string(st.State),
		Mode:  string(st.Mode),
	}
	if !st.StartedAt.IsZero() {
		out.StartedAt = st.StartedAt.UTC().Format(time.RFC3339)
	}
	if st.Err != nil {
		out.LastError = st.Err.Error()
	}
	return out
}
