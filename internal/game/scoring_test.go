package game

import (
	"testing"

	"pachinko/internal/physics"
)

func testSlots(t *testing.T) SlotTable {
	t.Helper()
	slots, err := NewSlotTable(900, DefaultMultipliers)
	if err != nil {
		t.Fatalf("NewSlotTable failed: %v", err)
	}
	return slots
}

func ballAt(x, y float64) *physics.Body {
	b := physics.NewCircle("ball", physics.Vec2{X: x, Y: y}, BallRadius, physics.Material{Density: 1})
	b.ID = 7
	return b
}

func pegAt(x, y float64) *physics.Body {
	return physics.NewStaticCircle("peg", physics.Vec2{X: x, Y: y}, PegRadius)
}

// TestResolveCollisionScores verifies scoring at the bottom of the field
func TestResolveCollisionScores(t *testing.T) {
	slots := testSlots(t)
	scoreY := 670.0

	tests := []struct {
		name      string
		x         float64
		wantSlot  int
		wantDelta float64
	}{
		{"leftmost slot", 0, 0, 1000},
		{"center slot", 450, 8, 0.2},
		{"rightmost interior", 899, 15, 1000},
		{"outside field", 905, -1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := physics.CollisionEvent{A: ballAt(tt.x, 680), B: pegAt(tt.x, 690)}
			out := ResolveCollision(ev, scoreY, slots)

			if out.BallID != 7 {
				t.Fatalf("Expected ball 7 in outcome, got %d", out.BallID)
			}
			if out.SlotIndex != tt.wantSlot {
				t.Errorf("SlotIndex = %d, want %d", out.SlotIndex, tt.wantSlot)
			}
			if out.ScoreDelta != tt.wantDelta {
				t.Errorf("ScoreDelta = %v, want %v", out.ScoreDelta, tt.wantDelta)
			}
		})
	}
}

// TestResolveCollisionAboveLine verifies peg deflections never score
func TestResolveCollisionAboveLine(t *testing.T) {
	slots := testSlots(t)

	ev := physics.CollisionEvent{A: ballAt(450, 300), B: pegAt(450, 310)}
	out := ResolveCollision(ev, 670, slots)

	if out.BallID != 0 {
		t.Errorf("Deflection above the line produced outcome for ball %d", out.BallID)
	}
	if out.SlotIndex != -1 {
		t.Errorf("Expected SlotIndex -1, got %d", out.SlotIndex)
	}
}

// TestResolveCollisionNoBall verifies pairs without a ball are ignored
func TestResolveCollisionNoBall(t *testing.T) {
	slots := testSlots(t)

	ev := physics.CollisionEvent{A: pegAt(100, 680), B: pegAt(105, 685)}
	out := ResolveCollision(ev, 670, slots)

	if out.BallID != 0 || out.ScoreDelta != 0 {
		t.Errorf("Peg pair scored: %+v", out)
	}
}

// TestResolveCollisionBallSecond verifies order within the pair does not
// matter.
func TestResolveCollisionBallSecond(t *testing.T) {
	slots := testSlots(t)

	ev := physics.CollisionEvent{A: pegAt(0, 690), B: ballAt(0, 680)}
	out := ResolveCollision(ev, 670, slots)

	if out.BallID != 7 {
		t.Errorf("Ball in second position not picked: %+v", out)
	}
	if out.SlotIndex != 0 || out.ScoreDelta != 1000 {
		t.Errorf("Expected slot 0 payout 1000, got slot %d payout %v",
			out.SlotIndex, out.ScoreDelta)
	}
}
