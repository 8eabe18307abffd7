package game

import (
	"math"
	"testing"

	"pachinko/internal/config"
)

// TestGeneratePegs verifies the triangular lattice shape
func TestGeneratePegs(t *testing.T) {
	cfg := config.DefaultBoard()
	pegs := GeneratePegs(cfg)

	// Rows 1..11 with r+1 pegs each
	want := 0
	for r := 1; r < cfg.Rows; r++ {
		want += r + 1
	}
	if len(pegs) != want {
		t.Fatalf("Expected %d pegs, got %d", want, len(pegs))
	}

	// Each row must be centered on the field
	rows := make(map[float64][]Peg)
	for _, p := range pegs {
		rows[p.Y] = append(rows[p.Y], p)
	}
	for y, row := range rows {
		first, last := row[0].X, row[len(row)-1].X
		center := (first + last) / 2
		if math.Abs(center-cfg.Width/2) > 1e-9 {
			t.Errorf("Row at y=%v centered at %v, expected %v", y, center, cfg.Width/2)
		}
	}
}

// TestSlotTableIndex verifies slot mapping across the field width
func TestSlotTableIndex(t *testing.T) {
	slots, err := NewSlotTable(900, DefaultMultipliers)
	if err != nil {
		t.Fatalf("NewSlotTable failed: %v", err)
	}

	if slots.Count() != 16 {
		t.Fatalf("Expected 16 slots, got %d", slots.Count())
	}
	if math.Abs(slots.SlotWidth()-56.25) > 1e-9 {
		t.Fatalf("Expected slot width 56.25, got %v", slots.SlotWidth())
	}

	tests := []struct {
		name       string
		x          float64
		wantIdx    int
		wantPayout float64
	}{
		{"left edge", 0, 0, 1000},
		{"just inside slot 0", 56.24, 0, 1000},
		{"start of slot 1", 56.25, 1, 130},
		{"center", 450, 8, 0.2},
		{"right interior", 899, 15, 1000},
		{"right boundary overflows", 900, 16, 0},
		{"beyond field", 1000, 17, 0},
		{"just left of the field", -1, -1, 0},
		{"far left of the field", -56.26, -2, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx := slots.Index(tt.x)
			if idx != tt.wantIdx {
				t.Errorf("Index(%v) = %d, want %d", tt.x, idx, tt.wantIdx)
			}
			if got := slots.MultiplierAt(idx); got != tt.wantPayout {
				t.Errorf("MultiplierAt(%d) = %v, want %v", idx, got, tt.wantPayout)
			}
		})
	}
}

// TestSlotTableValidation verifies constructor rejects bad input
func TestSlotTableValidation(t *testing.T) {
	if _, err := NewSlotTable(0, DefaultMultipliers); err == nil {
		t.Error("Expected error for zero field width")
	}
	if _, err := NewSlotTable(900, nil); err == nil {
		t.Error("Expected error for empty multiplier table")
	}
}

// TestMultiplierTableSymmetry verifies payouts mirror around the center
func TestMultiplierTableSymmetry(t *testing.T) {
	n := len(DefaultMultipliers)
	for i := 0; i < n/2; i++ {
		if DefaultMultipliers[i] != DefaultMultipliers[n-1-i] {
			t.Errorf("Table not symmetric at %d: %v vs %v",
				i, DefaultMultipliers[i], DefaultMultipliers[n-1-i])
		}
	}
}

// TestNewBoard verifies board assembly and score line placement
func TestNewBoard(t *testing.T) {
	cfg := config.DefaultBoard()
	board, err := NewBoard(cfg)
	if err != nil {
		t.Fatalf("NewBoard failed: %v", err)
	}

	if got := board.ScoreY(); got != cfg.Height-cfg.ScoreLine {
		t.Errorf("ScoreY() = %v, want %v", got, cfg.Height-cfg.ScoreLine)
	}

	// Mismatched slot count must be rejected
	cfg.SlotCount = 5
	if _, err := NewBoard(cfg); err == nil {
		t.Error("Expected error for slot count mismatch")
	}
}
