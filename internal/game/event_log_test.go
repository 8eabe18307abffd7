package game

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestEventLogWritesJSONL verifies emitted events land on disk as
// newline-delimited JSON.
func TestEventLogWritesJSONL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")

	el := NewEventLog()
	if err := el.Start(path); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	el.EmitSimple(EventTypeDrop, 1, "test", DropPayload{BallID: 1, X: 450, Balance: 999})
	el.EmitSimple(EventTypeScore, 40, "", ScorePayload{BallID: 1, SlotIndex: 0, Multiplier: 1000, Score: 1000})
	el.Stop()

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Open log: %v", err)
	}
	defer f.Close()

	var events []Event
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var ev Event
		if err := json.Unmarshal(scanner.Bytes(), &ev); err != nil {
			t.Fatalf("Line is not valid JSON: %v", err)
		}
		events = append(events, ev)
	}

	if len(events) != 2 {
		t.Fatalf("Expected 2 events, got %d", len(events))
	}
	if events[0].Type != EventTypeDrop || events[1].Type != EventTypeScore {
		t.Errorf("Event types out of order: %v, %v", events[0].Type, events[1].Type)
	}
	if events[0].Sequence != 0 {
		t.Errorf("First sequence = %d, want 0", events[0].Sequence)
	}
	if events[1].Sequence <= events[0].Sequence {
		t.Errorf("Sequences not monotonic: %d then %d", events[0].Sequence, events[1].Sequence)
	}
}

// TestEventLogDisabled verifies emits are no-ops before Start
func TestEventLogDisabled(t *testing.T) {
	el := NewEventLog()

	if el.EmitSimple(EventTypeTick, 1, "", nil) {
		t.Error("Emit accepted before Start")
	}
	if el.GetTotalCount() != 0 {
		t.Errorf("Disabled log counted events: %d", el.GetTotalCount())
	}
}

// TestEventLogStats verifies counters track emitted events
func TestEventLogStats(t *testing.T) {
	el := NewEventLog()
	if err := el.Start(""); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer el.Stop()

	for i := uint64(0); i < 10; i++ {
		el.EmitSimple(EventTypeTick, i, "", nil)
	}

	// Give the writer a chance to drain the buffer
	time.Sleep(2 * BatchFlushInterval)

	stats := el.GetStats()
	if stats["total"].(uint64) != 10 {
		t.Errorf("Expected 10 total events, got %v", stats["total"])
	}
	if stats["running"].(bool) != true {
		t.Error("Log not reported running")
	}
}
