package chat

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	streamhandler "github.com/restin-labs/insight-chat/internal/handler/stream"
	chatmodel "github.com/restin-labs/insight-chat/internal/model/chat"
	chatservice "github.com/restin-labs/insight-chat/internal/service/chat"
	"github.com/restin-labs/insight-chat/internal/service/session"
	"github.com/restin-labs/insight-chat/pkg/utils"
)

// Handler exposes the chat turn, history and deletion endpoints.
type Handler struct {
	coordinator *chatservice.Coordinator
	store       session.Store
	streamer    *streamhandler.Handler
}

// New creates the chat HTTP handler.
func New(coordinator *chatservice.Coordinator, store session.Store, streamer *streamhandler.Handler) *Handler {
	return &Handler{coordinator: coordinator, store: store, streamer: streamer}
}

// RegisterRoutes mounts the chat endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chat", h.handleTurn)
	r.Get("/chat/history/{sessionID}", h.handleHistory)
	r.Delete("/chat/session/{sessionID}", h.handleDelete)
}

type turnPayload struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
	Stream    bool   `json:"stream"`
	Method    string `json:"method"`
}

type turnMetadata struct {
	Intent       string   `json:"intent"`
	ToolsUsed    []string `json:"toolsUsed"`
	HasChartData bool     `json:"hasChartData"`
}

type turnResponse struct {
	Message        string       `json:"message"`
	SessionID      string       `json:"session_id"`
	Metadata       turnMetadata `json:"metadata"`
	Method         string       `json:"method,omitempty"`
	ReasoningTrace any          `json:"reasoning_trace,omitempty"`
	Iterations     int          `json:"iterations,omitempty"`
	ToolsUsed      []string     `json:"tools_used,omitempty"`
}

// handleTurn runs one conversational turn. Engine failures still produce a
// 200 with a failure-flavored message body; only malformed requests are
// rejected at the transport level.
func (h *Handler) handleTurn(w http.ResponseWriter, r *http.Request) {
	var payload turnPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	outcome, err := h.coordinator.HandleTurn(r.Context(), chatservice.TurnInput{
		SessionID: payload.SessionID,
		Message:   payload.Message,
		Method:    payload.Method,
	})
	if errors.Is(err, chatservice.ErrEmptyMessage) {
		utils.RespondError(w, http.StatusBadRequest, "message is required")
		return
	}
	if err != nil {
		log.Printf("[chat] turn error: %v", err)
		utils.RespondError(w, http.StatusInternalServerError, "failed to process message")
		return
	}

	if payload.Stream {
		if err := h.streamer.Deliver(r.Context(), w, outcome); err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		}
		return
	}

	result := outcome.Result
	utils.RespondJSON(w, http.StatusOK, turnResponse{
		Message:   result.Message,
		SessionID: outcome.SessionID,
		Metadata: turnMetadata{
			Intent:       result.Intent,
			ToolsUsed:    result.ToolsUsed(),
			HasChartData: result.HasChartData(),
		},
		Method:         result.Method,
		ReasoningTrace: result.ReasoningTrace,
		Iterations:     result.Iterations,
		ToolsUsed:      result.ToolsUsed(),
	})
}

type historyContext struct {
	LastAnalyzedEntity  *chatmodel.EntityRef `json:"lastAnalyzedEntity,omitempty"`
	LastTimeframe       string               `json:"lastTimeframe,omitempty"`
	ConversationContext map[string]any       `json:"conversationContext,omitempty"`
}

type historyMetadata struct {
	MessageCount int       `json:"messageCount"`
	SessionAge   int64     `json:"sessionAge"`
	LastActivity time.Time `json:"lastActivity"`
}

type historyResponse struct {
	SessionID string              `json:"session_id"`
	Messages  []chatmodel.Message `json:"messages"`
	Context   historyContext      `json:"context"`
	Metadata  historyMetadata     `json:"metadata"`
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	sess, ok, err := h.store.Lookup(r.Context(), sessionID)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !ok {
		utils.RespondError(w, http.StatusNotFound, "session not found")
		return
	}

	utils.RespondJSON(w, http.StatusOK, historyResponse{
		SessionID: sess.ID,
		Messages:  sess.Messages,
		Context: historyContext{
			LastAnalyzedEntity:  sess.LastAnalyzedEntity,
			LastTimeframe:       sess.LastTimeframe,
			ConversationContext: sess.ConversationContext,
		},
		Metadata: historyMetadata{
			MessageCount: len(sess.Messages),
			SessionAge:   int64(time.Since(sess.CreatedAt).Seconds()),
			LastActivity: sess.LastUpdated,
		},
	})
}

// handleDelete removes a session; deletion is idempotent and reports
// whether the session existed.
func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	removed, err := h.store.Remove(r.Context(), sessionID)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"session_id": sessionID,
		"deleted":    removed,
	})
}
