package chat

import "time"

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single immutable conversation turn.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	Metadata  *Metadata `json:"metadata,omitempty"`
}

// Metadata is attached to assistant messages only. ConversationContext is
// carried through to the session on append, not persisted per message.
type Metadata struct {
	Intent              string         `json:"intent,omitempty"`
	ToolsUsed           []string       `json:"toolsUsed,omitempty"`
	DataContext         *DataContext   `json:"dataContext,omitempty"`
	ConversationContext map[string]any `json:"-"`
}
