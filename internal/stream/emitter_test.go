package stream

import (
	"context"
	"testing"
)

func collect(ctx context.Context, e Emitter, text string, done Completion) []Event {
	var events []Event
	e.Emit(ctx, text, done, func(ev Event) {
		events = append(events, ev)
	})
	return events
}

func TestEmitGrowingPrefixes(t *testing.T) {
	events := collect(context.Background(), Emitter{}, "sales are trending up", Completion{SessionID: "s1"})

	if len(events) != 5 {
		t.Fatalf("expected 4 chunks + terminal, got %d events", len(events))
	}
	want := []string{"sales", "sales are", "sales are trending", "sales are trending up"}
	for i, chunk := range want {
		if events[i].Chunk != chunk {
			t.Fatalf("chunk %d: got %q want %q", i, events[i].Chunk, chunk)
		}
		if events[i].Done {
			t.Fatalf("chunk %d must not be terminal", i)
		}
	}
}

func TestEmitProgressStrictlyIncreasing(t *testing.T) {
	events := collect(context.Background(), Emitter{}, "one two three four", Completion{})

	chunks := events[:len(events)-1]
	prev := 0.0
	for i, ev := range chunks {
		want := float64(i+1) / float64(len(chunks))
		if ev.Progress != want {
			t.Fatalf("chunk %d progress: got %f want %f", i, ev.Progress, want)
		}
		if ev.Progress <= prev {
			t.Fatalf("progress not strictly increasing at chunk %d", i)
		}
		prev = ev.Progress
	}
	if chunks[len(chunks)-1].Progress != 1.0 {
		t.Fatalf("final chunk progress: got %f", chunks[len(chunks)-1].Progress)
	}
}

func TestEmitTerminalEvent(t *testing.T) {
	meta := &Meta{Intent: "analyze_sales_trends", ToolsUsed: []string{"analyze_sales_data"}}
	events := collect(context.Background(), Emitter{}, "all done", Completion{SessionID: "s1", Metadata: meta})

	last := events[len(events)-1]
	if !last.Done {
		t.Fatal("last event must be terminal")
	}
	if last.Chunk != "" {
		t.Fatalf("terminal event must not carry a chunk, got %q", last.Chunk)
	}
	if last.SessionID != "s1" || last.Metadata.Intent != "analyze_sales_trends" {
		t.Fatalf("terminal event missing completion data: %+v", last)
	}
}

func TestEmitEmptyTextStillCompletes(t *testing.T) {
	events := collect(context.Background(), Emitter{}, "", Completion{SessionID: "s1"})

	if len(events) != 1 || !events[0].Done {
		t.Fatalf("empty answer should produce only the terminal event, got %+v", events)
	}
}

func TestEmitErrorSingleEvent(t *testing.T) {
	var events []Event
	Emitter{}.EmitError("engine is down", func(ev Event) {
		events = append(events, ev)
	})

	if len(events) != 1 {
		t.Fatalf("expected exactly one error event, got %d", len(events))
	}
	ev := events[0]
	if !ev.Error || !ev.Done || ev.Message != "engine is down" {
		t.Fatalf("unexpected error event: %+v", ev)
	}
	if ev.Chunk != "" {
		t.Fatal("error event must not carry chunks")
	}
}

func TestEmitStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var events []Event
	Emitter{}.Emit(ctx, "one two three four five", Completion{}, func(ev Event) {
		events = append(events, ev)
		if len(events) == 2 {
			cancel()
		}
	})

	if len(events) != 2 {
		t.Fatalf("emission should stop after the current chunk, got %d events", len(events))
	}
	if events[len(events)-1].Done {
		t.Fatal("cancelled stream must not emit a terminal event")
	}
}
