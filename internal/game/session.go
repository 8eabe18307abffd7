package game

import "pachinko/internal/config"

// Session holds the mutable per-session state: score, balance, autoplay
// configuration. It carries no locking of its own; the engine mutates
// it only from the tick goroutine or under the engine lock.
type Session struct {
	cfg config.SessionConfig

	Score    float64
	Balance  float64
	Autoplay bool
	speedIdx int

	// Running totals for stats
	TotalDrops  int
	TotalScored int
}

// NewSession creates a session with the configured starting balance.
// A config without speed options falls back to the defaults so Speed()
// always has a selection.
func NewSession(cfg config.SessionConfig) *Session {
	if len(cfg.Speeds) == 0 {
		cfg.Speeds = config.DefaultSession().Speeds
	}
	if cfg.HighlightWindow <= 0 {
		cfg.HighlightWindow = config.DefaultSession().HighlightWindow
	}
	if cfg.DropCost <= 0 {
		cfg.DropCost = config.DefaultSession().DropCost
	}
	if cfg.AutoplayInterval <= 0 {
		cfg.AutoplayInterval = config.DefaultSession().AutoplayInterval
	}
	return &Session{
		cfg:     cfg,
		Balance: cfg.StartBalance,
	}
}

// ChargeDrop deducts the drop cost if the balance allows a spawn.
// Returns false (and leaves the balance untouched) when the balance is
// not positive; the balance never goes negative.
func (s *Session) ChargeDrop() bool {
	if s.Balance <= 0 {
		return false
	}
	s.Balance -= s.cfg.DropCost
	if s.Balance < 0 {
		s.Balance = 0
	}
	s.TotalDrops++
	return true
}

// AddScore credits a payout. Zero deltas still count the ball as
// scored.
func (s *Session) AddScore(delta float64) {
	s.Score += delta
	s.TotalScored++
}

// SetSpeed selects an autoplay speed by label. Unknown labels are
// rejected.
func (s *Session) SetSpeed(label string) bool {
	for i, opt := range s.cfg.Speeds {
		if opt.Label == label {
			s.speedIdx = i
			return true
		}
	}
	return false
}

// Speed returns the selected speed option.
func (s *Session) Speed() config.SpeedOption {
	return s.cfg.Speeds[s.speedIdx]
}

// SpawnInterval returns the effective autoplay interval in seconds:
// the base interval divided by the selected speed divisor.
func (s *Session) SpawnInterval() float64 {
	return s.cfg.AutoplayInterval / s.Speed().Divisor
}

// Reset restores the session to its initial state.
func (s *Session) Reset() {
	s.Score = 0
	s.Balance = s.cfg.StartBalance
	s.Autoplay = false
	s.speedIdx = 0
	s.TotalDrops = 0
	s.TotalScored = 0
}
