// Package chat sequences one conversational turn: validate, snapshot
// context, dispatch to the analytics engine, record both messages.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	chatmodel "github.com/restin-labs/insight-chat/internal/model/chat"
	enginemodel "github.com/restin-labs/insight-chat/internal/model/engine"
	"github.com/restin-labs/insight-chat/internal/service/session"
)

var ErrEmptyMessage = errors.New("message is required")

// DefaultHistoryLimit caps the conversation history forwarded per turn.
const DefaultHistoryLimit = 10

// Bridge is the engine invocation seam; it never returns an error, all
// failure modes are folded into the result.
type Bridge interface {
	Invoke(ctx context.Context, req enginemodel.TurnRequest) enginemodel.TurnResult
}

// Coordinator drives a turn through the session store and the engine
// bridge. Exactly one user append and one assistant append happen per turn
// regardless of delivery mode; delivery itself is the caller's concern.
//
// Overlapping turns on the same session id are not serialized: both
// snapshot the same prior context and final message order reflects
// completion order.
type Coordinator struct {
	store        session.Store
	bridge       Bridge
	historyLimit int
}

// TurnInput is one incoming user turn.
type TurnInput struct {
	SessionID string
	Message   string
	Method    string
}

// TurnOutcome carries the engine result and the (possibly generated)
// session id back to the delivery layer.
type TurnOutcome struct {
	SessionID string
	Result    enginemodel.TurnResult
}

// NewCoordinator wires the turn pipeline.
func NewCoordinator(store session.Store, bridge Bridge, historyLimit int) *Coordinator {
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}
	return &Coordinator{store: store, bridge: bridge, historyLimit: historyLimit}
}

// HandleTurn processes one turn. An empty message fails before any session
// mutation. Engine failures are still recorded as an assistant reply so the
// conversation continues, and are not surfaced as an error here.
func (c *Coordinator) HandleTurn(ctx context.Context, in TurnInput) (TurnOutcome, error) {
	if strings.TrimSpace(in.Message) == "" {
		return TurnOutcome{}, ErrEmptyMessage
	}

	id := in.SessionID
	if id == "" {
		id = uuid.NewString()
	}

	sess, err := c.store.Get(ctx, id)
	if err != nil {
		return TurnOutcome{}, fmt.Errorf("load session: %w", err)
	}
	prior := snapshotContext(sess, c.historyLimit)

	if _, err := c.store.Append(ctx, id, chatmodel.RoleUser, in.Message, nil); err != nil {
		return TurnOutcome{}, fmt.Errorf("record user message: %w", err)
	}

	result := c.bridge.Invoke(ctx, enginemodel.TurnRequest{
		Message:   in.Message,
		SessionID: id,
		Method:    in.Method,
		Prior:     prior,
	})
	if !result.OK {
		log.Printf("[chat] turn failed for session=%s cause=%s", id, result.Cause)
	}

	meta := &chatmodel.Metadata{
		Intent:    result.Intent,
		ToolsUsed: result.ToolsUsed(),
	}
	if result.OK {
		// Context reconciliation rides the assistant append so history and
		// continuity fields update together. Failed turns carry no data
		// context and leave it untouched.
		meta.DataContext = result.DataContext
		meta.ConversationContext = result.SessionContext
	}
	if _, err := c.store.Append(ctx, id, chatmodel.RoleAssistant, result.Message, meta); err != nil {
		return TurnOutcome{}, fmt.Errorf("record assistant message: %w", err)
	}

	return TurnOutcome{SessionID: id, Result: result}, nil
}

// snapshotContext freezes what the engine sees for this turn. The session
// value is already a copy, so later mutation cannot leak in.
func snapshotContext(sess chatmodel.Session, historyLimit int) enginemodel.PriorContext {
	return enginemodel.PriorContext{
		RecentMessages:      sess.Recent(historyLimit),
		LastAnalyzedEntity:  sess.LastAnalyzedEntity,
		LastTimeframe:       sess.LastTimeframe,
		ConversationContext: sess.ConversationContext,
	}
}
