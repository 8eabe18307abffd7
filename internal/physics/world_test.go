package physics

import (
	"math"
	"testing"
)

// TestGravityIntegration verifies a free-falling body accelerates and
// moves under gravity with no damping.
func TestGravityIntegration(t *testing.T) {
	w := NewWorld(Vec2{Y: 100})
	b := w.AddBody(NewCircle("ball", Vec2{X: 0, Y: 0}, 5, Material{Density: 1}))

	w.Step(0.1)

	if math.Abs(b.Velocity.Y-10) > 1e-9 {
		t.Errorf("Expected velocity.Y 10, got %v", b.Velocity.Y)
	}
	if math.Abs(b.Position.Y-1) > 1e-9 {
		t.Errorf("Expected position.Y 1, got %v", b.Position.Y)
	}
}

// TestAirFrictionDamping verifies per-step velocity damping
func TestAirFrictionDamping(t *testing.T) {
	w := NewWorld(Vec2{})
	b := w.AddBody(NewCircle("ball", Vec2{}, 5, Material{FrictionAir: 0.1, Density: 1}))
	b.Velocity = Vec2{X: 100}

	w.Step(0.01)

	if math.Abs(b.Velocity.X-90) > 1e-9 {
		t.Errorf("Expected velocity.X 90 after damping, got %v", b.Velocity.X)
	}
}

// TestRestitutionBounce verifies a ball reflects off a static rect with
// the configured restitution.
func TestRestitutionBounce(t *testing.T) {
	w := NewWorld(Vec2{})
	// Floor centered at (0,10), 100x20: top edge at y=0
	w.AddBody(NewStaticRect("floor", Vec2{X: 0, Y: 10}, 100, 20))
	b := w.AddBody(NewCircle("ball", Vec2{X: 0, Y: -6}, 5, Material{
		Restitution: 0.5,
		Density:     1,
	}))
	b.Velocity = Vec2{Y: 50}

	w.Step(0.1)

	// Ball penetrated the floor and must be pushed back above it
	if b.Position.Y > -5 {
		t.Errorf("Ball not separated from floor: y=%v", b.Position.Y)
	}
	if math.Abs(b.Velocity.Y+25) > 1e-9 {
		t.Errorf("Expected reflected velocity -25, got %v", b.Velocity.Y)
	}
}

// TestCollisionStartFiresOnce verifies a persistent contact reports a
// single collision-start event.
func TestCollisionStartFiresOnce(t *testing.T) {
	w := NewWorld(Vec2{Y: 100})
	w.AddBody(NewStaticRect("floor", Vec2{X: 0, Y: 10}, 100, 20))
	w.AddBody(NewCircle("ball", Vec2{X: 0, Y: -5}, 5, Material{Density: 1}))

	events := 0
	w.OnCollisionStart(func(ev CollisionEvent) { events++ })

	// Ball rests on the floor: gravity presses it into contact every step
	for i := 0; i < 5; i++ {
		w.Step(0.01)
	}

	if events != 1 {
		t.Errorf("Expected 1 collision-start event for persistent contact, got %d", events)
	}
}

// TestCollisionRestartAfterSeparation verifies a pair that separates and
// re-touches fires a second event.
func TestCollisionRestartAfterSeparation(t *testing.T) {
	w := NewWorld(Vec2{})
	w.AddBody(NewStaticCircle("peg", Vec2{X: 0, Y: 0}, 5))
	b := w.AddBody(NewCircle("ball", Vec2{X: 0, Y: -20}, 5, Material{Restitution: 1, Density: 1}))

	events := 0
	w.OnCollisionStart(func(ev CollisionEvent) { events++ })

	b.Velocity = Vec2{Y: 120}
	w.Step(0.1) // moves to y=-8, overlapping: first contact
	if events != 1 {
		t.Fatalf("Expected 1 event after first touch, got %d", events)
	}

	// Bounce carried it away; bring it back down
	b.Position = Vec2{X: 0, Y: -30}
	b.Velocity = Vec2{}
	w.Step(0.01) // separated step clears the contact

	b.Position = Vec2{X: 0, Y: -9}
	w.Step(0.01)
	if events != 2 {
		t.Errorf("Expected 2 events after re-touch, got %d", events)
	}
}

// TestCircleVsCircleImpulse verifies two dynamic balls push apart
func TestCircleVsCircleImpulse(t *testing.T) {
	w := NewWorld(Vec2{})
	a := w.AddBody(NewCircle("ball", Vec2{X: 0, Y: 0}, 5, Material{Restitution: 0.5, Density: 1}))
	b := w.AddBody(NewCircle("ball", Vec2{X: 8, Y: 0}, 5, Material{Restitution: 0.5, Density: 1}))
	a.Velocity = Vec2{X: 10}

	w.Step(0.001)

	if a.Position.X >= b.Position.X {
		t.Error("Balls not separated after collision")
	}
	gap := b.Position.Sub(a.Position).Length()
	if gap < 10-1e-6 {
		t.Errorf("Balls still overlapping: distance %v", gap)
	}
	if b.Velocity.X <= 0 {
		t.Errorf("Struck ball should move away, got velocity.X %v", b.Velocity.X)
	}
}

// TestRemoveBody verifies removal drops the body and its contacts
func TestRemoveBody(t *testing.T) {
	w := NewWorld(Vec2{})
	b := w.AddBody(NewCircle("ball", Vec2{}, 5, Material{Density: 1}))
	w.AddBody(NewStaticCircle("peg", Vec2{X: 100, Y: 100}, 5))

	if w.Count() != 2 {
		t.Fatalf("Expected 2 bodies, got %d", w.Count())
	}

	w.RemoveBody(b.ID)
	if w.Count() != 1 {
		t.Errorf("Expected 1 body after removal, got %d", w.Count())
	}

	// Removing an unknown ID must not panic
	w.RemoveBody(9999)
}

// TestStaticBodiesDoNotMove verifies statics ignore gravity
func TestStaticBodiesDoNotMove(t *testing.T) {
	w := NewWorld(Vec2{Y: 1000})
	peg := w.AddBody(NewStaticCircle("peg", Vec2{X: 3, Y: 7}, 5))

	for i := 0; i < 10; i++ {
		w.Step(0.1)
	}

	if peg.Position.X != 3 || peg.Position.Y != 7 {
		t.Errorf("Static body moved to (%v, %v)", peg.Position.X, peg.Position.Y)
	}
}
