package engine

import "github.com/restin-labs/insight-chat/internal/model/chat"

// Analysis method selectors understood by the engine.
const (
	MethodAuto   = "auto"
	MethodReact  = "react"
	MethodIntent = "intent"
)

// PriorContext is a read-only snapshot of session state taken at the start
// of a turn. Later mutation of the session must not change what was sent.
type PriorContext struct {
	RecentMessages      []chat.Message
	LastAnalyzedEntity  *chat.EntityRef
	LastTimeframe       string
	ConversationContext map[string]any
}

// TurnRequest is the normalized input to the engine bridge for one turn.
type TurnRequest struct {
	Message   string
	SessionID string
	Method    string
	Prior     PriorContext
}

// Request is the wire shape written to the engine's stdin, one JSON
// document per invocation.
type Request struct {
	Message   string         `json:"message"`
	SessionID string         `json:"session_id"`
	Method    string         `json:"method"`
	Context   RequestContext `json:"context"`
}

// RequestContext forwards accumulated conversation state to the engine.
type RequestContext struct {
	ConversationHistory []chat.Message  `json:"conversationHistory"`
	LastAnalyzedEntity  *chat.EntityRef `json:"lastAnalyzedEntity,omitempty"`
	LastTimeframe       string          `json:"lastTimeframe,omitempty"`
	ConversationContext map[string]any  `json:"conversationContext,omitempty"`
}

// WireRequest builds the engine wire document from a turn request.
func WireRequest(req TurnRequest) Request {
	method := req.Method
	if method == "" {
		method = MethodAuto
	}
	return Request{
		Message:   req.Message,
		SessionID: req.SessionID,
		Method:    method,
		Context: RequestContext{
			ConversationHistory: req.Prior.RecentMessages,
			LastAnalyzedEntity:  req.Prior.LastAnalyzedEntity,
			LastTimeframe:       req.Prior.LastTimeframe,
			ConversationContext: req.Prior.ConversationContext,
		},
	}
}
