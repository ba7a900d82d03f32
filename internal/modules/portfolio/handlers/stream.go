package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/aristath/advisor/internal/domain"
	"github.com/aristath/advisor/internal/modules/portfolio"
)

const (
	streamWriteTimeout = 5 * time.Second
	streamReadTimeout  = 30 * time.Second
	streamReadLimit    = 64 << 10
)

// Stream message types
const (
	MessageEvent   = "event"
	MessageOutcome = "outcome"
	MessageError   = "error"
)

// StreamMessage is one frame sent on the run stream
type StreamMessage struct {
	Type    string             `json:"type"`
	Event   *portfolio.Event   `json:"event,omitempty"`
	Outcome *portfolio.Outcome `json:"outcome,omitempty"`
	Error   string             `json:"error,omitempty"`
	Field   string             `json:"field,omitempty"`
}

// HandleStream upgrades to a websocket, reads one RecommendationRequest, then
// streams run events followed by the outcome or an error.
func (h *Handler) HandleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: []string{"*"}})
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to accept websocket")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "unexpected close")
	conn.SetReadLimit(streamReadLimit)

	ctx := r.Context()

	readCtx, cancel := context.WithTimeout(ctx, streamReadTimeout)
	var body RecommendationRequest
	err = wsjson.Read(readCtx, conn, &body)
	cancel()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to read stream request")
		conn.Close(websocket.StatusUnsupportedData, "expected a recommendation request")
		return
	}

	req, err := body.ToDomain(h.defaultCurrency)
	if err != nil {
		h.sendError(ctx, conn, err)
		conn.Close(websocket.StatusNormalClosure, "")
		return
	}

	obs := portfolio.ObserverFunc(func(e portfolio.Event) {
		event := e
		h.send(ctx, conn, StreamMessage{Type: MessageEvent, Event: &event})
	})

	outcome, err := h.service.RecommendWithObserver(ctx, req, obs)
	if err != nil {
		h.sendError(ctx, conn, err)
		conn.Close(websocket.StatusNormalClosure, "")
		return
	}

	h.send(ctx, conn, StreamMessage{Type: MessageOutcome, Outcome: outcome})
	conn.Close(websocket.StatusNormalClosure, "")
}

func (h *Handler) sendError(ctx context.Context, conn *websocket.Conn, err error) {
	msg := StreamMessage{Type: MessageError, Error: err.Error()}
	var invalid *domain.InvalidRequestError
	if errors.As(err, &invalid) {
		msg.Field = invalid.Field
	} else {
		h.log.Error().Err(err).Msg("Streamed run failed")
	}
	h.send(ctx, conn, msg)
}

// send writes one frame. A failed write is logged; the run itself continues.
func (h *Handler) send(ctx context.Context, conn *websocket.Conn, msg StreamMessage) {
	writeCtx, cancel := context.WithTimeout(ctx, streamWriteTimeout)
	defer cancel()
	if err := wsjson.Write(writeCtx, conn, msg); err != nil {
		h.log.Debug().Err(err).Str("type", msg.Type).Msg("Failed to write stream message")
	}
}
