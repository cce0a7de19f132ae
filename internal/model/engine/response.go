package engine

import "github.com/restin-labs/insight-chat/internal/model/chat"

// Response is the single structured payload the engine prints to stdout.
type Response struct {
	Success        bool           `json:"success"`
	Response       string         `json:"response"`
	Intent         string         `json:"intent"`
	ToolResults    []ToolResult   `json:"tool_results"`
	SessionContext map[string]any `json:"session_context"`
	Method         string         `json:"method,omitempty"`
	ReasoningTrace any            `json:"reasoning_trace,omitempty"`
	Iterations     int            `json:"iterations,omitempty"`
}

// ToolResult is one tool invocation reported by the engine.
type ToolResult struct {
	Tool   string         `json:"tool"`
	Result map[string]any `json:"result"`
}

// DataContext extracts the analytics continuity context the engine embeds
// under session_context.analytics_context. Returns nil when the payload
// carries no recognizable context.
func (r *Response) DataContext() *chat.DataContext {
	analytics, ok := r.SessionContext["analytics_context"].(map[string]any)
	if !ok {
		return nil
	}

	dc := &chat.DataContext{}
	if tf, ok := analytics["lastTimeframe"].(string); ok {
		dc.LastTimeframe = tf
	}
	if product, ok := analytics["lastAnalyzedProduct"].(map[string]any); ok {
		dc.LastAnalyzedEntity = entityFromProduct(product)
	}

	if dc.LastTimeframe == "" && dc.LastAnalyzedEntity == nil {
		return nil
	}
	return dc
}

func entityFromProduct(product map[string]any) *chat.EntityRef {
	ref := &chat.EntityRef{}
	if name, ok := product["name"].(string); ok {
		ref.Name = name
	}
	if id, ok := product["id"].(string); ok {
		ref.ID = id
	}
	if kind, ok := product["type"].(string); ok {
		ref.Kind = kind
	}
	if metrics, ok := product["last_metrics"].(map[string]any); ok {
		ref.LastMetrics = metrics
	}
	if ref.Name == "" && ref.ID == "" {
		return nil
	}
	return ref
}
