// Package ws offers a WebSocket alternative to SSE delivery: the client
// sends turn requests as JSON frames and receives the same event sequence
// the SSE endpoint produces.
package ws

import (
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	chatservice "github.com/restin-labs/insight-chat/internal/service/chat"
	"github.com/restin-labs/insight-chat/internal/stream"
)

// Handler upgrades chat connections and streams turn events over them.
type Handler struct {
	coordinator *chatservice.Coordinator
	emitter     stream.Emitter
	upgrader    websocket.Upgrader
}

// New creates the WebSocket chat handler.
func New(coordinator *chatservice.Coordinator, emitter stream.Emitter) *Handler {
	return &Handler{
		coordinator: coordinator,
		emitter:     emitter,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes mounts the WebSocket endpoint.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/chat/ws", h.handleConnection)
}

type inboundTurn struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
	Method    string `json:"method"`
}

func (h *Handler) handleConnection(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[ws] upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ctx := r.Context()
	for {
		var turn inboundTurn
		if err := conn.ReadJSON(&turn); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("[ws] read failed: %v", err)
			}
			return
		}

		outcome, err := h.coordinator.HandleTurn(ctx, chatservice.TurnInput{
			SessionID: turn.SessionID,
			Message:   turn.Message,
			Method:    turn.Method,
		})
		if errors.Is(err, chatservice.ErrEmptyMessage) {
			h.send(conn, stream.Event{Error: true, Message: "message is required", Done: true})
			continue
		}
		if err != nil {
			log.Printf("[ws] turn error: %v", err)
			h.send(conn, stream.Event{Error: true, Message: "failed to process message", Done: true})
			continue
		}

		result := outcome.Result
		if !result.OK {
			h.emitter.EmitError(result.Message, func(ev stream.Event) { h.send(conn, ev) })
			continue
		}
		h.emitter.Emit(ctx, result.Message, stream.Completion{
			SessionID: outcome.SessionID,
			Metadata: &stream.Meta{
				Intent:       result.Intent,
				ToolsUsed:    result.ToolsUsed(),
				HasChartData: result.HasChartData(),
				Method:       result.Method,
			},
		}, func(ev stream.Event) { h.send(conn, ev) })
	}
}

func (h *Handler) send(conn *websocket.Conn, ev stream.Event) {
	if err := conn.WriteJSON(ev); err != nil {
		log.Printf("[ws] write failed: %v", err)
	}
}
