package ws_test

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	wshandler "github.com/restin-labs/insight-chat/internal/handler/ws"
	chatmodel "github.com/restin-labs/insight-chat/internal/model/chat"
	enginemodel "github.com/restin-labs/insight-chat/internal/model/engine"
	chatservice "github.com/restin-labs/insight-chat/internal/service/chat"
	"github.com/restin-labs/insight-chat/internal/service/session"
	"github.com/restin-labs/insight-chat/internal/stream"
)

type fakeBridge struct {
	result enginemodel.TurnResult
}

func (f *fakeBridge) Invoke(context.Context, enginemodel.TurnRequest) enginemodel.TurnResult {
	return f.result
}

func dialTestServer(t *testing.T, result enginemodel.TurnResult) *websocket.Conn {
	t.Helper()

	store := session.NewMemoryStore(session.Config{TTL: 30 * time.Minute, MaxMessages: 20})
	coordinator := chatservice.NewCoordinator(store, &fakeBridge{result: result}, 10)
	handler := wshandler.New(coordinator, stream.Emitter{})

	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/chat/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial err: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestWebSocketTurnStreamsEvents(t *testing.T) {
	conn := dialTestServer(t, enginemodel.TurnResult{
		OK:          true,
		Message:     "sales are up",
		Intent:      "analyze_sales_trends",
		DataContext: &chatmodel.DataContext{LastTimeframe: "last_month"},
	})

	if err := conn.WriteJSON(map[string]string{
		"message":    "Show me sales trends",
		"session_id": "s1",
	}); err != nil {
		t.Fatalf("write err: %v", err)
	}

	var events []stream.Event
	for {
		var ev stream.Event
		if err := conn.ReadJSON(&ev); err != nil {
			t.Fatalf("read err: %v", err)
		}
		events = append(events, ev)
		if ev.Done {
			break
		}
	}

	if len(events) != 4 {
		t.Fatalf("expected 3 chunks + terminal, got %d", len(events))
	}
	if events[2].Chunk != "sales are up" || events[2].Progress != 1.0 {
		t.Fatalf("unexpected final chunk: %+v", events[2])
	}
	last := events[3]
	if last.SessionID != "s1" || last.Metadata == nil || last.Metadata.Intent != "analyze_sales_trends" {
		t.Fatalf("unexpected terminal event: %+v", last)
	}
}

func TestWebSocketEmptyMessage(t *testing.T) {
	conn := dialTestServer(t, enginemodel.TurnResult{OK: true, Message: "unused"})

	if err := conn.WriteJSON(map[string]string{"message": "  "}); err != nil {
		t.Fatalf("write err: %v", err)
	}

	var ev stream.Event
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("read err: %v", err)
	}
	if !ev.Error || !ev.Done {
		t.Fatalf("expected terminal error event, got %+v", ev)
	}
}
