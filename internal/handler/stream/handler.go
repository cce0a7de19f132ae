// Package stream delivers a completed turn over Server-Sent Events.
package stream

import (
	"context"
	"fmt"
	"log"
	"net/http"

	chatservice "github.com/restin-labs/insight-chat/internal/service/chat"
	"github.com/restin-labs/insight-chat/internal/stream"
	"github.com/restin-labs/insight-chat/pkg/utils"
)

// Handler writes emitter events as SSE records. The engine call has
// already completed by the time delivery starts; a client disconnect stops
// emission but never unwinds the recorded turn.
type Handler struct {
	emitter stream.Emitter
}

// New creates an SSE delivery handler with the given inter-chunk delay.
func New(emitter stream.Emitter) *Handler {
	return &Handler{emitter: emitter}
}

// Deliver streams the outcome of one turn to the client.
func (h *Handler) Deliver(ctx context.Context, w http.ResponseWriter, outcome chatservice.TurnOutcome) error {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return fmt.Errorf("streaming unsupported")
	}
	utils.SetupSSEHeaders(w)

	send := func(ev stream.Event) {
		utils.SendSSEChunk(w, flusher, ev)
	}

	result := outcome.Result
	if !result.OK {
		h.emitter.EmitError(result.Message, send)
		return nil
	}

	h.emitter.Emit(ctx, result.Message, stream.Completion{
		SessionID: outcome.SessionID,
		Metadata: &stream.Meta{
			Intent:       result.Intent,
			ToolsUsed:    result.ToolsUsed(),
			HasChartData: result.HasChartData(),
			Method:       result.Method,
		},
	}, send)

	if ctx.Err() != nil {
		log.Printf("[stream] client disconnected mid-stream for session=%s", outcome.SessionID)
	}
	return nil
}
