// Package stream turns a complete answer into an ordered sequence of
// growing-prefix delivery events. It is pure policy: no transport, no
// session access, trivially unit-testable.
package stream

import (
	"context"
	"strings"
	"time"
)

// Event is one delivery record. Chunk events carry a growing prefix and a
// strictly increasing progress fraction; the terminal event carries done
// plus completion metadata and never a chunk.
type Event struct {
	Chunk     string  `json:"chunk,omitempty"`
	Done      bool    `json:"done"`
	Progress  float64 `json:"progress,omitempty"`
	SessionID string  `json:"session_id,omitempty"`
	Metadata  *Meta   `json:"metadata,omitempty"`
	Error     bool    `json:"error,omitempty"`
	Message   string  `json:"message,omitempty"`
}

// Meta is the structured completion metadata on the terminal event.
type Meta struct {
	Intent       string   `json:"intent,omitempty"`
	ToolsUsed    []string `json:"toolsUsed,omitempty"`
	HasChartData bool     `json:"hasChartData"`
	Method       string   `json:"method,omitempty"`
}

// Completion describes the terminal event of a successful emission.
type Completion struct {
	SessionID string
	Metadata  *Meta
}

// Emitter reveals an answer incrementally. Delay is the pause between
// chunks; zero emits everything immediately and stays contract-compliant.
type Emitter struct {
	Delay time.Duration
}

// Emit splits text on whitespace and sends one event per growing prefix,
// progress i/N, followed by exactly one terminal event. If ctx is
// cancelled mid-stream (client disconnect), emission stops after the
// current chunk; that is not an error.
func (e Emitter) Emit(ctx context.Context, text string, done Completion, fn func(Event)) {
	tokens := strings.Fields(text)
	for i := range tokens {
		fn(Event{
			Chunk:    strings.Join(tokens[:i+1], " "),
			Progress: float64(i+1) / float64(len(tokens)),
		})
		if !e.pause(ctx) {
			return
		}
	}
	fn(Event{Done: true, SessionID: done.SessionID, Metadata: done.Metadata})
}

// EmitError delivers the single terminal event of a failed turn. No chunks
// are produced for failures.
func (e Emitter) EmitError(message string, fn func(Event)) {
	fn(Event{Error: true, Message: message, Done: true})
}

// pause waits the inter-chunk delay, reporting false when ctx is cancelled.
func (e Emitter) pause(ctx context.Context) bool {
	if e.Delay <= 0 {
		return ctx.Err() == nil
	}
	select {
	case <-ctx.Done():
		return false
	case <-time.After(e.Delay):
		return true
	}
}
