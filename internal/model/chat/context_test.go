package chat

import (
	"testing"
	"time"
)

func TestApplyDataContextOverwrites(t *testing.T) {
	sess := &Session{
		LastAnalyzedEntity: &EntityRef{Name: "Chicken Burger", ID: "p-2"},
		LastTimeframe:      "last_week",
	}

	sess.ApplyDataContext(&DataContext{
		LastAnalyzedEntity: &EntityRef{Name: "Kerala Burger", ID: "p-1", Kind: "menu_item"},
		LastTimeframe:      "last_month",
	})

	if sess.LastAnalyzedEntity.Name != "Kerala Burger" {
		t.Fatalf("entity not overwritten: got %s", sess.LastAnalyzedEntity.Name)
	}
	if sess.LastTimeframe != "last_month" {
		t.Fatalf("timeframe not overwritten: got %s", sess.LastTimeframe)
	}
}

func TestApplyDataContextAbsentFieldsUntouched(t *testing.T) {
	sess := &Session{
		LastAnalyzedEntity: &EntityRef{Name: "Kerala Burger"},
		LastTimeframe:      "last_month",
	}

	sess.ApplyDataContext(&DataContext{LastTimeframe: "this_week"})

	if sess.LastAnalyzedEntity == nil || sess.LastAnalyzedEntity.Name != "Kerala Burger" {
		t.Fatal("absent entity should leave stored entity untouched")
	}
	if sess.LastTimeframe != "this_week" {
		t.Fatalf("timeframe not updated: got %s", sess.LastTimeframe)
	}
}

func TestApplyDataContextNilIsNoOp(t *testing.T) {
	sess := &Session{
		LastAnalyzedEntity: &EntityRef{Name: "Kerala Burger"},
		LastTimeframe:      "last_month",
	}

	sess.ApplyDataContext(nil)

	if sess.LastAnalyzedEntity.Name != "Kerala Burger" || sess.LastTimeframe != "last_month" {
		t.Fatal("nil context must not change session state")
	}
}

func TestTruncateDropsOldestFirst(t *testing.T) {
	sess := &Session{}
	for i := 0; i < 5; i++ {
		sess.Messages = append(sess.Messages, Message{Content: string(rune('a' + i))})
	}

	sess.Truncate(3)

	if len(sess.Messages) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(sess.Messages))
	}
	if sess.Messages[0].Content != "c" || sess.Messages[2].Content != "e" {
		t.Fatalf("unexpected window: %v", sess.Messages)
	}
}

func TestRecentCopiesTail(t *testing.T) {
	sess := &Session{Messages: []Message{
		{Content: "one"}, {Content: "two"}, {Content: "three"},
	}}

	recent := sess.Recent(2)
	if len(recent) != 2 || recent[0].Content != "two" {
		t.Fatalf("unexpected recent window: %v", recent)
	}

	recent[0].Content = "mutated"
	if sess.Messages[1].Content != "two" {
		t.Fatal("Recent must return a copy")
	}
}

func TestExpired(t *testing.T) {
	now := time.Now()
	sess := &Session{LastUpdated: now.Add(-31 * time.Minute)}

	if !sess.Expired(30*time.Minute, now) {
		t.Fatal("session idle past ttl should be expired")
	}
	if sess.Expired(time.Hour, now) {
		t.Fatal("session within ttl should not be expired")
	}
}
