package chat

import "time"

// Session captures the process-lifetime state of one conversation.
type Session struct {
	ID                  string         `json:"id"`
	Messages            []Message      `json:"messages"`
	LastAnalyzedEntity  *EntityRef     `json:"lastAnalyzedEntity,omitempty"`
	LastTimeframe       string         `json:"lastTimeframe,omitempty"`
	ConversationContext map[string]any `json:"conversationContext,omitempty"`
	CreatedAt           time.Time      `json:"createdAt"`
	LastUpdated         time.Time      `json:"lastUpdated"`
}

// EntityRef is the most recent specific subject the engine reported
// analyzing, kept so follow-up turns can resolve "that product".
type EntityRef struct {
	ID          string         `json:"id,omitempty"`
	Name        string         `json:"name"`
	Kind        string         `json:"kind,omitempty"`
	LastMetrics map[string]any `json:"lastMetrics,omitempty"`
}

// Expired reports whether the session has been idle for at least ttl.
func (s *Session) Expired(ttl time.Duration, now time.Time) bool {
	return now.Sub(s.LastUpdated) >= ttl
}

// Truncate drops the oldest messages until at most max remain.
func (s *Session) Truncate(max int) {
	if max <= 0 || len(s.Messages) <= max {
		return
	}
	keep := make([]Message, max)
	copy(keep, s.Messages[len(s.Messages)-max:])
	s.Messages = keep
}

// Recent returns a copy of the newest limit messages, oldest first.
func (s *Session) Recent(limit int) []Message {
	msgs := s.Messages
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	copied := make([]Message, len(msgs))
	copy(copied, msgs)
	return copied
}
