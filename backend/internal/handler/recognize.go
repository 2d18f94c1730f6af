package handler

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"github.com/kdduha/omni-reader/internal/models"
	"github.com/kdduha/omni-reader/internal/wav"
)

type readerService interface {
	Send(ctx context.Context, req *models.RecognizeRequest) (*models.RecognizeResponse, error)
	SendStream(ctx context.Context, req *models.RecognizeRequest) (<-chan models.StreamChunk, error)
	Audio(ctx context.Context, req *models.RecognizeRequest) ([]byte, error)
}

type RecognizeHandler struct {
	logger          *log.Logger
	service         readerService
	defaultLanguage models.Language
	upgrader        websocket.Upgrader
}

func NewRecognizeHandler(logger *log.Logger, service readerService, defaultLanguage models.Language) *RecognizeHandler {
	return &RecognizeHandler{
		logger:          logger,
		service:         service,
		defaultLanguage: defaultLanguage,
	}
}

// AllowOrigins admits websocket clients from origins besides the server's own.
// Without it only same-origin and non-browser clients can connect.
func (h *RecognizeHandler) AllowOrigins(origins []string) {
	if len(origins) == 0 {
		return
	}
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[strings.ToLower(strings.TrimRight(o, "/"))] = struct{}{}
	}
	h.upgrader.CheckOrigin = func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if _, ok := allowed[strings.ToLower(origin)]; ok {
			return true
		}
		u, err := url.Parse(origin)
		return err == nil && strings.EqualFold(u.Host, r.Host)
	}
}

// Recognize godoc
// @Summary Read a photographed document
// @Description Recognize the text in an image and return a short spoken summary. Image is sent as base64 string in JSON.
// @Tags recognize
// @Accept json
// @Produce json
// @Param request body models.RecognizeRequest true "Recognize request"
// @Success 200 {object} models.RecognizeResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 429 {object} models.ErrorResponse
// @Failure 502 {object} models.ErrorResponse
// @Failure 503 {object} models.ErrorResponse
// @Failure 504 {object} models.ErrorResponse
// @Router /recognize [post]
func (h *RecognizeHandler) Recognize(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRequest(w, r.Body, h.defaultLanguage)
	if !ok {
		return
	}

	resp, err := h.service.Send(r.Context(), req)
	if err != nil {
		writeError(h.logger, w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// RecognizeStream godoc
// @Summary Stream recognition
// @Description Stream summary text as it arrives, then the complete result with audio.
// @Tags recognize
// @Accept json
// @Produce text/event-stream
// @Param request body models.RecognizeRequest true "Recognize request"
// @Success 200 {object} models.StreamChunk "Stream of chunks (SSE)"
// @Failure 400 {object} models.ErrorResponse
// @Router /recognize/stream [post]
func (h *RecognizeHandler) RecognizeStream(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRequest(w, r.Body, h.defaultLanguage)
	if !ok {
		return
	}

	stream, err := h.service.SendStream(r.Context(), req)
	if err != nil {
		writeError(h.logger, w, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher := http.NewResponseController(w)

	for chunk := range stream {
		if chunk.Err != nil {
			data, _ := sonic.Marshal(errorResponse(chunk.Err))
			fmt.Fprintf(w, "event: error\ndata: %s\n\n", data)
			_ = flusher.Flush()
			return
		}

		data, err := sonic.Marshal(chunk)
		if err != nil {
			fmt.Fprintf(w, "event: error\ndata: marshal error %v\n\n", err)
			_ = flusher.Flush()
			return
		}

		fmt.Fprintf(w, "event: message\ndata: %s\n\n", data)
		_ = flusher.Flush()

		if chunk.Done {
			fmt.Fprintf(w, "event: done\ndata: {}\n\n")
			_ = flusher.Flush()
			return
		}
	}
}

// RecognizeWS godoc
// @Summary Stream recognition over websocket
// @Description The client sends one RecognizeRequest as a text message and receives StreamChunk messages until done or an ErrorResponse.
// @Tags recognize
// @Success 101 {object} models.StreamChunk
// @Router /recognize/ws [get]
func (h *RecognizeHandler) RecognizeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Printf("websocket upgrade error: %v\n", err)
		return
	}
	defer conn.Close()

	typ, raw, err := conn.ReadMessage()
	if err != nil {
		h.logger.Printf("websocket read error: %v\n", err)
		return
	}
	if typ != websocket.TextMessage {
		h.closeWS(conn, websocket.CloseUnsupportedData, "expected a text message")
		return
	}

	var req models.RecognizeRequest
	if err := sonic.Unmarshal(raw, &req); err != nil {
		h.writeWS(conn, models.ErrorResponse{Error: fmt.Sprintf("invalid JSON: %s", err), Kind: string(kindInvalid)})
		h.closeWS(conn, websocket.CloseInvalidFramePayloadData, "invalid request")
		return
	}
	req.Normalize(h.defaultLanguage)
	if err := req.Validate(); err != nil {
		h.writeWS(conn, models.ErrorResponse{Error: fmt.Sprintf("request validation failed: %s", err), Kind: string(kindInvalid)})
		h.closeWS(conn, websocket.ClosePolicyViolation, "invalid request")
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// a read error means the peer went away
	go func() {
		for {
			if _, _, err := conn.NextReader(); err != nil {
				cancel()
				return
			}
		}
	}()

	stream, err := h.service.SendStream(ctx, &req)
	if err != nil {
		h.writeWS(conn, errorResponse(err))
		return
	}

	for chunk := range stream {
		if chunk.Err != nil {
			h.writeWS(conn, errorResponse(chunk.Err))
			h.closeWS(conn, websocket.CloseInternalServerErr, string(kindOf(chunk.Err)))
			return
		}
		if !h.writeWS(conn, chunk) {
			return
		}
		if chunk.Done {
			h.closeWS(conn, websocket.CloseNormalClosure, "done")
			return
		}
	}
}

// RecognizeAudio godoc
// @Summary Read a document as a WAV file
// @Description Recognize the image and return only the spoken summary as audio/wav.
// @Tags recognize
// @Accept json
// @Produce audio/wav
// @Param request body models.RecognizeRequest true "Recognize request"
// @Success 200 {file} binary
// @Failure 400 {object} models.ErrorResponse
// @Failure 422 {object} models.ErrorResponse
// @Router /recognize/audio [post]
func (h *RecognizeHandler) RecognizeAudio(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRequest(w, r.Body, h.defaultLanguage)
	if !ok {
		return
	}

	container, err := h.service.Audio(r.Context(), req)
	if err != nil {
		writeError(h.logger, w, err)
		return
	}

	header, err := wav.ParseHeader(container)
	if err != nil {
		writeError(h.logger, w, err)
		return
	}

	w.Header().Set("Content-Type", "audio/wav")
	w.Header().Set("Content-Length", fmt.Sprint(len(container)))
	w.Header().Set("X-Audio-Duration", fmt.Sprintf("%.3f", wav.Duration(header).Seconds()))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(container); err != nil {
		h.logger.Printf("failed to write audio: %v\n", err)
	}
}

func decodeRequest(w http.ResponseWriter, body io.Reader, defaultLanguage models.Language) (*models.RecognizeRequest, bool) {
	var req models.RecognizeRequest
	if err := sonic.ConfigDefault.NewDecoder(body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: fmt.Sprintf("invalid JSON: %s", err), Kind: string(kindInvalid)})
		return nil, false
	}

	req.Normalize(defaultLanguage)
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: fmt.Sprintf("request validation failed: %s", err), Kind: string(kindInvalid)})
		return nil, false
	}
	return &req, true
}

func (h *RecognizeHandler) writeWS(conn *websocket.Conn, v any) bool {
	data, err := sonic.Marshal(v)
	if err != nil {
		h.logger.Printf("websocket marshal error: %v\n", err)
		return false
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		h.logger.Printf("websocket write error: %v\n", err)
		return false
	}
	return true
}

func (h *RecognizeHandler) closeWS(conn *websocket.Conn, code int, reason string) {
	msg := websocket.FormatCloseMessage(code, reason)
	if err := conn.WriteMessage(websocket.CloseMessage, msg); err != nil {
		h.logger.Printf("websocket close error: %v\n", err)
	}
}
