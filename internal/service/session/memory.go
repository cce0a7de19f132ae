package session

import (
	"context"
	"sync"
	"time"

	"github.com/restin-labs/insight-chat/internal/model/chat"
)

// MemoryStore keeps sessions in a mutex-guarded table. All lifecycle
// operations on a session are atomic with respect to the table, so a sweep
// racing an in-flight turn can never drop that turn's update.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*chat.Session
	cfg      Config
	now      func() time.Time // swapped in tests
}

// NewMemoryStore creates the in-memory session table.
func NewMemoryStore(cfg Config) *MemoryStore {
	if cfg.MaxMessages <= 0 {
		cfg.MaxMessages = DefaultMaxMessages
	}
	return &MemoryStore{
		sessions: make(map[string]*chat.Session),
		cfg:      cfg,
		now:      time.Now,
	}
}

// SetNowFunc overrides the clock; used by expiry tests.
func (m *MemoryStore) SetNowFunc(fn func() time.Time) {
	m.mu.Lock()
	m.now = fn
	m.mu.Unlock()
}

// Get returns the live session for id, replacing an expired entry with a
// fresh empty session under the same id.
func (m *MemoryStore) Get(_ context.Context, id string) (chat.Session, error) {
	if id == "" {
		return chat.Session{}, ErrIDRequired
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	return cloneSession(m.liveLocked(id)), nil
}

// Lookup returns the live session for id without creating one.
func (m *MemoryStore) Lookup(_ context.Context, id string) (chat.Session, bool, error) {
	if id == "" {
		return chat.Session{}, false, ErrIDRequired
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[id]
	if !ok {
		return chat.Session{}, false, nil
	}
	if sess.Expired(m.cfg.TTL, m.now()) {
		// Lazy eviction: an expired session is treated as absent.
		delete(m.sessions, id)
		return chat.Session{}, false, nil
	}
	return cloneSession(sess), true, nil
}

// Append records a message, merges any engine-reported data context, trims
// the history window and refreshes lastUpdated. This is the only mutation
// path for session contents.
func (m *MemoryStore) Append(_ context.Context, id, role, content string, metadata *chat.Metadata) (chat.Session, error) {
	if id == "" {
		return chat.Session{}, ErrIDRequired
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	sess := m.liveLocked(id)
	now := m.now()

	sess.Messages = append(sess.Messages, chat.Message{
		Role:      role,
		Content:   content,
		Timestamp: now,
		Metadata:  metadata,
	})
	sess.Truncate(m.cfg.MaxMessages)
	if metadata != nil {
		sess.ApplyDataContext(metadata.DataContext)
		if metadata.ConversationContext != nil {
			sess.ConversationContext = metadata.ConversationContext
		}
	}
	sess.LastUpdated = now

	return cloneSession(sess), nil
}

// Remove deletes the session and reports whether anything was removed.
func (m *MemoryStore) Remove(_ context.Context, id string) (bool, error) {
	if id == "" {
		return false, ErrIDRequired
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.sessions[id]
	delete(m.sessions, id)
	return ok, nil
}

// Sweep removes every expired session and returns how many were dropped.
func (m *MemoryStore) Sweep(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	removed := 0
	for id, sess := range m.sessions {
		if sess.Expired(m.cfg.TTL, now) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed, nil
}

// liveLocked returns the stored live session for id, creating a fresh one
// when the id is unseen or the stored entry has expired. Caller holds mu.
func (m *MemoryStore) liveLocked(id string) *chat.Session {
	now := m.now()
	if sess, ok := m.sessions[id]; ok && !sess.Expired(m.cfg.TTL, now) {
		return sess
	}
	sess := &chat.Session{
		ID:          id,
		Messages:    make([]chat.Message, 0, 8),
		CreatedAt:   now,
		LastUpdated: now,
	}
	m.sessions[id] = sess
	return sess
}

func cloneSession(sess *chat.Session) chat.Session {
	clone := *sess
	clone.Messages = make([]chat.Message, len(sess.Messages))
	copy(clone.Messages, sess.Messages)
	if sess.ConversationContext != nil {
		clone.ConversationContext = make(map[string]any, len(sess.ConversationContext))
		for k, v := range sess.ConversationContext {
			clone.ConversationContext[k] = v
		}
	}
	return clone
}
