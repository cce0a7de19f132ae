package session

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/restin-labs/insight-chat/internal/model/chat"
)

var ErrIDRequired = errors.New("session id is required")

// DefaultMaxMessages bounds the per-session history window.
const DefaultMaxMessages = 20

// Config tunes session retention.
type Config struct {
	TTL         time.Duration
	MaxMessages int
}

// Store is the single mutation surface for conversation state. Get creates
// a fresh session when the id is unseen or expired; Lookup never creates,
// so the history endpoint can report not-found. Append is the only write
// path for messages and context.
type Store interface {
	Get(ctx context.Context, id string) (chat.Session, error)
	Lookup(ctx context.Context, id string) (chat.Session, bool, error)
	Append(ctx context.Context, id, role, content string, metadata *chat.Metadata) (chat.Session, error)
	Remove(ctx context.Context, id string) (bool, error)
	Sweep(ctx context.Context) (int, error)
}

// StartSweeper runs Sweep on a fixed cadence until ctx is cancelled. It is
// independent of request traffic; expiry is still observed lazily on access.
func StartSweeper(ctx context.Context, store Store, interval time.Duration) {
	if interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				removed, err := store.Sweep(ctx)
				if err != nil {
					log.Printf("[session] sweep failed: %v", err)
					continue
				}
				if removed > 0 {
					log.Printf("[session] swept %d expired sessions", removed)
				}
			}
		}
	}()
}
