package game

import (
	"fmt"
	"math"

	"pachinko/internal/config"
)

const (
	// PegRadius and BallRadius are fixed by the machine design. The
	// collision resolver relies on the radii being distinct to tell
	// balls apart from pegs.
	PegRadius  = 5.0
	BallRadius = 10.0
)

// DefaultMultipliers is the payout table, symmetric around the center:
// high payouts at the edges, near-zero in the middle.
var DefaultMultipliers = []float64{
	1000, 130, 26, 9, 4, 2, 0.2, 0.2, 0.2, 0.2, 2, 4, 9, 26, 130, 1000,
}

// Peg is a static circular obstacle in the deflection lattice.
type Peg struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// GeneratePegs produces the triangular peg lattice for the given board
// geometry. Row 0 carries no pegs; row r holds r+1 pegs spaced evenly
// and centered horizontally, with the row pitch compressed vertically
// and shifted down by the configured offset. Pure and deterministic.
func GeneratePegs(cfg config.BoardConfig) []Peg {
	pegs := make([]Peg, 0, cfg.Rows*(cfg.Rows+1)/2)
	for row := 1; row < cfg.Rows; row++ {
		y := cfg.VerticalOffset + float64(row)*cfg.PegSpacing*cfg.VerticalFactor
		startX := cfg.Width/2 - float64(row)*cfg.PegSpacing/2
		for i := 0; i <= row; i++ {
			pegs = append(pegs, Peg{X: startX + float64(i)*cfg.PegSpacing, Y: y})
		}
	}
	return pegs
}

// SlotTable maps horizontal positions to payout multipliers. Immutable
// for the session.
type SlotTable struct {
	fieldWidth  float64
	multipliers []float64
}

// NewSlotTable builds a slot table spanning the field width. The
// multiplier list length fixes the slot count; an empty list is a
// programming error.
func NewSlotTable(fieldWidth float64, multipliers []float64) (SlotTable, error) {
	if fieldWidth <= 0 {
		return SlotTable{}, fmt.Errorf("invalid field width %v", fieldWidth)
	}
	if len(multipliers) == 0 {
		return SlotTable{}, fmt.Errorf("slot table requires at least one multiplier")
	}
	copied := make([]float64, len(multipliers))
	copy(copied, multipliers)
	return SlotTable{fieldWidth: fieldWidth, multipliers: copied}, nil
}

// Count returns the number of slots.
func (t SlotTable) Count() int {
	return len(t.multipliers)
}

// SlotWidth returns the horizontal width of one slot.
func (t SlotTable) SlotWidth() float64 {
	return t.fieldWidth / float64(len(t.multipliers))
}

// Index returns floor(x / slotWidth). The result may be out of range
// for x outside [0, fieldWidth); negative x floors below zero and is
// treated the same as an overflow by MultiplierAt.
func (t SlotTable) Index(x float64) int {
	return int(math.Floor(x / t.SlotWidth()))
}

// MultiplierAt returns the payout for a slot index, or 0 when the index
// is outside the table.
func (t SlotTable) MultiplierAt(idx int) float64 {
	if idx < 0 || idx >= len(t.multipliers) {
		return 0
	}
	return t.multipliers[idx]
}

// Multipliers returns a copy of the payout table.
func (t SlotTable) Multipliers() []float64 {
	out := make([]float64, len(t.multipliers))
	copy(out, t.multipliers)
	return out
}

// Board bundles the static geometry of one machine: the peg lattice and
// the scoring bins. Built once at engine construction, never mutated.
type Board struct {
	Config config.BoardConfig
	Pegs   []Peg
	Slots  SlotTable
}

// NewBoard generates the board for the given geometry.
func NewBoard(cfg config.BoardConfig) (Board, error) {
	multipliers := DefaultMultipliers
	if cfg.SlotCount > 0 && cfg.SlotCount != len(multipliers) {
		return Board{}, fmt.Errorf("slot count %d does not match payout table size %d",
			cfg.SlotCount, len(multipliers))
	}
	slots, err := NewSlotTable(cfg.Width, multipliers)
	if err != nil {
		return Board{}, err
	}
	return Board{
		Config: cfg,
		Pegs:   GeneratePegs(cfg),
		Slots:  slots,
	}, nil
}

// ScoreY returns the vertical boundary past which a colliding ball is
// scored and removed.
func (b Board) ScoreY() float64 {
	return b.Config.Height - b.Config.ScoreLine
}
