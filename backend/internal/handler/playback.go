package handler

import (
	"context"
	"log"
	"net/http"

	"github.com/kdduha/omni-reader/internal/models"
)

type playbackService interface {
	Play(ctx context.Context, req *models.RecognizeRequest) (*models.PlaybackResponse, error)
	StopPlayback() error
	PlaybackStatus() models.PlaybackStatus
}

// PlaybackHandler drives the speaker of the machine the server runs on.
type PlaybackHandler struct {
	logger          *log.Logger
	playback        playbackService
	defaultLanguage models.Language
}

func NewPlaybackHandler(logger *log.Logger, playback playbackService, defaultLanguage models.Language) *PlaybackHandler {
	return &PlaybackHandler{
		logger:          logger,
		playback:        playback,
		defaultLanguage: defaultLanguage,
	}
}

// Play godoc
// @Summary Read a document aloud on the device
// @Description Recognize the image and play the summary, falling back to local speech synthesis when the audio cannot be played.
// @Tags playback
// @Accept json
// @Produce json
// @Param request body models.RecognizeRequest true "Recognize request"
// @Success 200 {object} models.PlaybackResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Failure 422 {object} models.ErrorResponse
// @Router /playback [post]
func (h *PlaybackHandler) Play(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRequest(w, r.Body, h.defaultLanguage)
	if !ok {
		return
	}

	resp, err := h.playback.Play(r.Context(), req)
	if err != nil {
		writeError(h.logger, w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Stop godoc
// @Summary Stop playback
// @Tags playback
// @Produce json
// @Success 200 {object} models.PlaybackStatus
// @Router /playback [delete]
func (h *PlaybackHandler) Stop(w http.ResponseWriter, r *http.Request) {
	if err := h.playback.StopPlayback(); err != nil {
		h.logger.Printf("stop playback: %v\n", err)
	}
	writeJSON(w, http.StatusOK, h.playback.PlaybackStatus())
}

// Status godoc
// @Summary Playback status
// @Tags playback
// @Produce json
// @Success 200 {object} models.PlaybackStatus
// @Router /playback [get]
func (h *PlaybackHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.playback.PlaybackStatus())
}
