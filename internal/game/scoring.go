package game

import "pachinko/internal/physics"

// Outcome describes the state changes a collision event implies. It is
// produced by ResolveCollision as pure data and applied by the engine,
// keeping the scoring rules testable without a live world.
type Outcome struct {
	BallID     uint64  // Body to remove from the world; 0 = nothing to do
	SlotIndex  int     // Landed slot, -1 when the ball fell outside the bins
	ScoreDelta float64 // Payout to credit (0 for out-of-range landings)
}

// ResolveCollision inspects a collision-start pair and decides whether
// it scores. A pair scores when it involves a ball (dynamic body with
// the ball radius) whose vertical position is past the scoring line.
// Everything else - ball/peg deflections, wall bounces above the line -
// resolves to a zero Outcome.
func ResolveCollision(ev physics.CollisionEvent, scoreY float64, slots SlotTable) Outcome {
	ball := pickBall(ev)
	if ball == nil || ball.Position.Y <= scoreY {
		return Outcome{SlotIndex: -1}
	}

	idx := slots.Index(ball.Position.X)
	delta := slots.MultiplierAt(idx)
	if idx < 0 || idx >= slots.Count() {
		idx = -1
	}
	return Outcome{
		BallID:     ball.ID,
		SlotIndex:  idx,
		ScoreDelta: delta,
	}
}

// pickBall returns the ball in the pair, or nil if neither body is one.
func pickBall(ev physics.CollisionEvent) *physics.Body {
	if isBall(ev.A) {
		return ev.A
	}
	if isBall(ev.B) {
		return ev.B
	}
	return nil
}

func isBall(b *physics.Body) bool {
	return b != nil && !b.Static && b.Shape == physics.ShapeCircle && b.Radius == BallRadius
}
