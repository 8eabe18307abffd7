package game

import (
	"math"
	"testing"

	"pachinko/internal/config"
)

// TestChargeDrop verifies balance accounting for manual drops
func TestChargeDrop(t *testing.T) {
	s := NewSession(config.DefaultSession())

	for i := 0; i < 5; i++ {
		if !s.ChargeDrop() {
			t.Fatalf("ChargeDrop %d rejected with balance %v", i, s.Balance)
		}
	}

	if s.Balance != 995 {
		t.Errorf("Expected balance 995 after 5 drops, got %v", s.Balance)
	}
	if s.Score != 0 {
		t.Errorf("Dropping must not change score, got %v", s.Score)
	}
	if s.TotalDrops != 5 {
		t.Errorf("Expected 5 total drops, got %d", s.TotalDrops)
	}
}

// TestChargeDropEmptyBalance verifies drops are no-ops at zero balance
func TestChargeDropEmptyBalance(t *testing.T) {
	cfg := config.DefaultSession()
	cfg.StartBalance = 0
	s := NewSession(cfg)

	if s.ChargeDrop() {
		t.Error("ChargeDrop should fail with zero balance")
	}
	if s.Balance != 0 {
		t.Errorf("Balance changed on rejected drop: %v", s.Balance)
	}
	if s.TotalDrops != 0 {
		t.Errorf("Rejected drop counted: %d", s.TotalDrops)
	}
}

// TestChargeDropNeverNegative verifies the balance clamps at zero when
// the last credit is fractional.
func TestChargeDropNeverNegative(t *testing.T) {
	cfg := config.DefaultSession()
	cfg.StartBalance = 0.5
	cfg.DropCost = 1
	s := NewSession(cfg)

	if !s.ChargeDrop() {
		t.Fatal("Positive balance should allow a drop")
	}
	if s.Balance != 0 {
		t.Errorf("Expected balance clamped to 0, got %v", s.Balance)
	}
	if s.ChargeDrop() {
		t.Error("Drop allowed with exhausted balance")
	}
}

// TestSetSpeed verifies the label-to-divisor mapping is data, not
// arithmetic on the label.
func TestSetSpeed(t *testing.T) {
	s := NewSession(config.DefaultSession())

	tests := []struct {
		label       string
		wantDivisor float64
	}{
		{"x1", 1},
		{"x2", 3.8},
		{"x3", 5},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			if !s.SetSpeed(tt.label) {
				t.Fatalf("SetSpeed(%q) rejected", tt.label)
			}
			if got := s.Speed().Divisor; got != tt.wantDivisor {
				t.Errorf("Divisor = %v, want %v", got, tt.wantDivisor)
			}
			want := s.cfg.AutoplayInterval / tt.wantDivisor
			if math.Abs(s.SpawnInterval()-want) > 1e-9 {
				t.Errorf("SpawnInterval = %v, want %v", s.SpawnInterval(), want)
			}
		})
	}

	if s.SetSpeed("x9") {
		t.Error("Unknown speed label accepted")
	}
	if got := s.Speed().Divisor; got != 5 {
		t.Errorf("Rejected label changed selection: divisor %v", got)
	}
}

// TestSessionReset verifies reset restores the initial state
func TestSessionReset(t *testing.T) {
	s := NewSession(config.DefaultSession())
	s.ChargeDrop()
	s.AddScore(42)
	s.Autoplay = true
	s.SetSpeed("x3")

	s.Reset()

	if s.Balance != 1000 || s.Score != 0 || s.Autoplay {
		t.Errorf("Reset left state: balance=%v score=%v autoplay=%v",
			s.Balance, s.Score, s.Autoplay)
	}
	if s.Speed().Label != "x1" {
		t.Errorf("Reset should restore x1, got %q", s.Speed().Label)
	}
	if s.TotalDrops != 0 || s.TotalScored != 0 {
		t.Errorf("Reset left counters: drops=%d scored=%d", s.TotalDrops, s.TotalScored)
	}
}

// TestAddScoreZeroDelta verifies scored balls count even with no payout
func TestAddScoreZeroDelta(t *testing.T) {
	s := NewSession(config.DefaultSession())
	s.AddScore(0)
	if s.TotalScored != 1 {
		t.Errorf("Zero-payout landing not counted: %d", s.TotalScored)
	}
	if s.Score != 0 {
		t.Errorf("Score changed on zero delta: %v", s.Score)
	}
}
