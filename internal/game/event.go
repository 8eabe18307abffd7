package game

import (
	"encoding/json"
	"time"
)

// EventType enum for event classification
type EventType uint8

const (
	EventTypeUnknown EventType = iota
	EventTypeTick              // Tick boundary with RNG seed
	EventTypeDrop              // Ball spawn request accepted
	EventTypeScore             // Ball crossed the scoring line
	EventTypeAutoplay          // Autoplay toggled
	EventTypeSpeed             // Autoplay speed changed
	EventTypeReset             // Session reset
)

// EventVersion for backwards compatibility in replay
const EventVersion uint8 = 1

// Event is the core event structure for the event log
type Event struct {
	Version   uint8     `json:"version"`   // Schema version
	Type      EventType `json:"type"`      // Event type
	Timestamp int64     `json:"timestamp"` // Unix nano
	Sequence  uint64    `json:"sequence"`  // Monotonic sequence
	TickNum   uint64    `json:"tickNum"`   // Game tick this occurred in
	Source    string    `json:"source"`    // Command origin: "api", "ws", "autoplay"
	Payload   []byte    `json:"payload"`   // JSON-encoded payload
}

// String returns human-readable event type
func (t EventType) String() string {
	switch t {
	case EventTypeTick:
		return "tick"
	case EventTypeDrop:
		return "drop"
	case EventTypeScore:
		return "score"
	case EventTypeAutoplay:
		return "autoplay"
	case EventTypeSpeed:
		return "speed"
	case EventTypeReset:
		return "reset"
	default:
		return "unknown"
	}
}

// Typed payloads for different event types

// TickPayload contains tick boundary information for replay
type TickPayload struct {
	RNGSeed     int64 `json:"rngSeed"`
	BallCount   int   `json:"ballCount"`
	DeltaTimeNs int64 `json:"deltaTimeNs"`
}

// DropPayload contains a spawn request
type DropPayload struct {
	BallID  uint64  `json:"ballId"`
	X       float64 `json:"x"`
	Balance float64 `json:"balance"`
}

// ScorePayload contains a scoring event
type ScorePayload struct {
	BallID     uint64  `json:"ballId"`
	SlotIndex  int     `json:"slotIndex"`
	Multiplier float64 `json:"multiplier"`
	Score      float64 `json:"score"`
}

// AutoplayPayload records an autoplay toggle
type AutoplayPayload struct {
	Enabled bool   `json:"enabled"`
	Speed   string `json:"speed"`
}

// NewEvent creates an event with the payload marshaled to JSON.
// Marshal failures leave the payload empty; the event is still logged.
func NewEvent(eventType EventType, tickNum uint64, source string, payload interface{}) Event {
	data, _ := json.Marshal(payload)
	return Event{
		Version:   EventVersion,
		Type:      eventType,
		Timestamp: time.Now().UnixNano(),
		TickNum:   tickNum,
		Source:    source,
		Payload:   data,
	}
}
