package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/restin-labs/insight-chat/internal/model/chat"
)

const redisKeyPrefix = "session:"

// RedisStore keeps sessions as JSON values with a server-side TTL, letting
// Redis handle expiry. The local mutex serializes read-modify-write cycles
// within this process; cross-instance sharing is out of scope.
type RedisStore struct {
	mu     sync.Mutex
	client *redis.Client
	cfg    Config
	now    func() time.Time
}

// NewRedisStore connects a Redis-backed session store and verifies the
// server is reachable.
func NewRedisStore(ctx context.Context, addr, password string, db int, cfg Config) (*RedisStore, error) {
	if cfg.MaxMessages <= 0 {
		cfg.MaxMessages = DefaultMaxMessages
	}
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return &RedisStore{client: client, cfg: cfg, now: time.Now}, nil
}

func (r *RedisStore) Get(ctx context.Context, id string) (chat.Session, error) {
	if id == "" {
		return chat.Session{}, ErrIDRequired
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok, err := r.load(ctx, id)
	if err != nil {
		return chat.Session{}, err
	}
	if ok {
		return sess, nil
	}

	now := r.now()
	sess = chat.Session{
		ID:          id,
		Messages:    []chat.Message{},
		CreatedAt:   now,
		LastUpdated: now,
	}
	if err := r.save(ctx, sess); err != nil {
		return chat.Session{}, err
	}
	return sess, nil
}

func (r *RedisStore) Lookup(ctx context.Context, id string) (chat.Session, bool, error) {
	if id == "" {
		return chat.Session{}, false, ErrIDRequired
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	return r.load(ctx, id)
}

func (r *RedisStore) Append(ctx context.Context, id, role, content string, metadata *chat.Metadata) (chat.Session, error) {
	if id == "" {
		return chat.Session{}, ErrIDRequired
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok, err := r.load(ctx, id)
	if err != nil {
		return chat.Session{}, err
	}
	now := r.now()
	if !ok {
		sess = chat.Session{ID: id, CreatedAt: now}
	}

	sess.Messages = append(sess.Messages, chat.Message{
		Role:      role,
		Content:   content,
		Timestamp: now,
		Metadata:  metadata,
	})
	sess.Truncate(r.cfg.MaxMessages)
	if metadata != nil {
		sess.ApplyDataContext(metadata.DataContext)
		if metadata.ConversationContext != nil {
			sess.ConversationContext = metadata.ConversationContext
		}
	}
	sess.LastUpdated = now

	if err := r.save(ctx, sess); err != nil {
		return chat.Session{}, err
	}
	return sess, nil
}

func (r *RedisStore) Remove(ctx context.Context, id string) (bool, error) {
	if id == "" {
		return false, ErrIDRequired
	}
	removed, err := r.client.Del(ctx, redisKeyPrefix+id).Result()
	if err != nil {
		return false, fmt.Errorf("redis del: %w", err)
	}
	return removed > 0, nil
}

// Sweep is a no-op: keys expire server-side via the TTL set on save.
func (r *RedisStore) Sweep(context.Context) (int, error) {
	return 0, nil
}

// Close releases the client connection pool.
func (r *RedisStore) Close() error {
	return r.client.Close()
}

func (r *RedisStore) load(ctx context.Context, id string) (chat.Session, bool, error) {
	raw, err := r.client.Get(ctx, redisKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return chat.Session{}, false, nil
	}
	if err != nil {
		return chat.Session{}, false, fmt.Errorf("redis get: %w", err)
	}

	var sess chat.Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return chat.Session{}, false, fmt.Errorf("decode session %s: %w", id, err)
	}
	return sess, true, nil
}

func (r *RedisStore) save(ctx context.Context, sess chat.Session) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", sess.ID, err)
	}
	if err := r.client.Set(ctx, redisKeyPrefix+sess.ID, raw, r.cfg.TTL).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}
