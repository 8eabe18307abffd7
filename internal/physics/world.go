package physics

import "math"

// CollisionEvent reports a pair of bodies that came into contact during
// the most recent step. Pairs already touching on the previous step are
// not re-reported (collision-start semantics).
type CollisionEvent struct {
	A *Body
	B *Body
}

type contactKey struct {
	lo, hi uint64
}

func pairKey(a, b uint64) contactKey {
	if a < b {
		return contactKey{lo: a, hi: b}
	}
	return contactKey{lo: b, hi: a}
}

// World owns gravity and all bodies and advances them with fixed-dt
// steps. It is NOT safe for concurrent use; the game engine drives it
// from a single tick goroutine under its own lock.
type World struct {
	gravity  Vec2
	bodies   []*Body
	byID     map[uint64]*Body
	nextID   uint64
	contacts map[contactKey]struct{}
	handlers []func(CollisionEvent)

	// Broad phase over statics, rebuilt when the static set changes
	grid         *staticGrid
	gridCellSize float64
	staticsDirty bool
}

// gridCellSizeDefault comfortably exceeds the largest dynamic diameter
// so a one-cell-ring query always covers a ball's reach.
const gridCellSizeDefault = 64.0

// NewWorld creates an empty world with the given gravity vector, in
// field units per second squared.
func NewWorld(gravity Vec2) *World {
	return &World{
		gravity:      gravity,
		byID:         make(map[uint64]*Body),
		contacts:     make(map[contactKey]struct{}),
		gridCellSize: gridCellSizeDefault,
	}
}

// OnCollisionStart registers a handler invoked after each step for
// every newly contacting pair. Handlers may remove bodies.
func (w *World) OnCollisionStart(fn func(CollisionEvent)) {
	w.handlers = append(w.handlers, fn)
}

// AddBody inserts a body and assigns its ID.
func (w *World) AddBody(b *Body) *Body {
	w.nextID++
	b.ID = w.nextID
	w.bodies = append(w.bodies, b)
	w.byID[b.ID] = b
	if b.Static {
		w.staticsDirty = true
	}
	return b
}

// RemoveBody deletes a body and any recorded contacts involving it.
// Removing an unknown ID is a no-op.
func (w *World) RemoveBody(id uint64) {
	b, ok := w.byID[id]
	if !ok {
		return
	}
	if b.Static {
		w.staticsDirty = true
	}
	delete(w.byID, id)
	n := 0
	for _, b := range w.bodies {
		if b.ID != id {
			w.bodies[n] = b
			n++
		}
	}
	w.bodies = w.bodies[:n]
	for key := range w.contacts {
		if key.lo == id || key.hi == id {
			delete(w.contacts, key)
		}
	}
}

// Clear removes every body and contact, releasing world state on
// session teardown.
func (w *World) Clear() {
	w.bodies = w.bodies[:0]
	w.byID = make(map[uint64]*Body)
	w.contacts = make(map[contactKey]struct{})
	w.grid = nil
	w.staticsDirty = false
}

// Bodies returns the live body slice. Callers must not mutate it.
func (w *World) Bodies() []*Body {
	return w.bodies
}

// Count returns the number of bodies in the world.
func (w *World) Count() int {
	return len(w.bodies)
}

// Step advances the simulation by dt seconds: integrate gravity and air
// friction, move dynamic bodies, resolve contacts, then fire
// collision-start handlers for pairs that were not touching before.
func (w *World) Step(dt float64) {
	for _, b := range w.bodies {
		if b.Static {
			continue
		}
		b.Velocity = b.Velocity.Add(w.gravity.Scale(dt))
		// Per-step damping, matter.js frictionAir convention.
		b.Velocity = b.Velocity.Scale(1 - b.FrictionAir)
		b.Position = b.Position.Add(b.Velocity.Scale(dt))
	}

	if w.staticsDirty {
		w.rebuildGrid()
	}

	current := make(map[contactKey]struct{})
	var events []CollisionEvent

	record := func(a, b *Body) {
		key := pairKey(a.ID, b.ID)
		if _, seen := current[key]; seen {
			return
		}
		current[key] = struct{}{}
		if _, held := w.contacts[key]; !held {
			events = append(events, CollisionEvent{A: a, B: b})
		}
	}

	for i, a := range w.bodies {
		if a.Static {
			continue
		}

		// Dynamic pairs are handled once, from the lower index.
		for j := i + 1; j < len(w.bodies); j++ {
			b := w.bodies[j]
			if b.Static {
				continue
			}
			if w.collide(a, b) {
				record(a, b)
			}
		}

		// Statics come from the broad phase around the ball's AABB.
		if w.grid != nil {
			minX, minY, maxX, maxY := bodyAABB(a)
			for _, b := range w.grid.queryAABB(minX, minY, maxX, maxY) {
				if w.collide(a, b) {
					record(a, b)
				}
			}
		}
	}

	w.contacts = current

	for _, ev := range events {
		for _, fn := range w.handlers {
			fn(ev)
		}
	}
}

// rebuildGrid reindexes the static bodies into the broad-phase grid.
func (w *World) rebuildGrid() {
	var statics []*Body
	for _, b := range w.bodies {
		if b.Static {
			statics = append(statics, b)
		}
	}
	w.grid = newStaticGrid(statics, w.gridCellSize)
	w.staticsDirty = false
}

// collide tests and resolves the pair, returning whether they touch.
// a is always dynamic.
func (w *World) collide(a, b *Body) bool {
	switch {
	case b.Shape == ShapeCircle && b.Static:
		return w.circleVsStaticCircle(a, b)
	case b.Shape == ShapeCircle:
		return w.circleVsCircle(a, b)
	default:
		return w.circleVsRect(a, b)
	}
}

func (w *World) circleVsStaticCircle(a, b *Body) bool {
	delta := a.Position.Sub(b.Position)
	distSq := delta.LengthSquared()
	rsum := a.Radius + b.Radius
	if distSq >= rsum*rsum {
		return false
	}
	dist := math.Sqrt(distSq)
	var n Vec2
	if dist > 0 {
		n = delta.Scale(1 / dist)
	} else {
		n = Vec2{Y: -1} // concentric, push straight up
	}
	bounceStatic(a, n, rsum-dist, a.Restitution, combinedFriction(a, b))
	return true
}

func (w *World) circleVsCircle(a, b *Body) bool {
	delta := b.Position.Sub(a.Position)
	distSq := delta.LengthSquared()
	rsum := a.Radius + b.Radius
	if distSq >= rsum*rsum {
		return false
	}
	dist := math.Sqrt(distSq)
	var n Vec2
	if dist > 0 {
		n = delta.Scale(1 / dist)
	} else {
		n = Vec2{Y: 1}
	}
	pen := rsum - dist
	ma, mb := a.Mass(), b.Mass()
	total := ma + mb

	// Split the positional correction inversely to mass.
	a.Position = a.Position.Sub(n.Scale(pen * mb / total))
	b.Position = b.Position.Add(n.Scale(pen * ma / total))

	rel := b.Velocity.Sub(a.Velocity)
	along := rel.Dot(n)
	if along < 0 {
		e := math.Min(a.Restitution, b.Restitution)
		j := -(1 + e) * along / (1/ma + 1/mb)
		impulse := n.Scale(j)
		a.Velocity = a.Velocity.Sub(impulse.Scale(1 / ma))
		b.Velocity = b.Velocity.Add(impulse.Scale(1 / mb))
	}
	return true
}

func (w *World) circleVsRect(a, b *Body) bool {
	halfW, halfH := b.Width/2, b.Height/2
	closest := Vec2{
		X: clamp(a.Position.X, b.Position.X-halfW, b.Position.X+halfW),
		Y: clamp(a.Position.Y, b.Position.Y-halfH, b.Position.Y+halfH),
	}
	delta := a.Position.Sub(closest)
	distSq := delta.LengthSquared()
	if distSq >= a.Radius*a.Radius {
		return false
	}

	var n Vec2
	var pen float64
	if distSq > 0 {
		dist := math.Sqrt(distSq)
		n = delta.Scale(1 / dist)
		pen = a.Radius - dist
	} else {
		// Center is inside the rect: push out along the shallowest axis.
		dx := halfW - math.Abs(a.Position.X-b.Position.X)
		dy := halfH - math.Abs(a.Position.Y-b.Position.Y)
		if dx < dy {
			n = Vec2{X: math.Copysign(1, a.Position.X-b.Position.X)}
			pen = dx + a.Radius
		} else {
			n = Vec2{Y: math.Copysign(1, a.Position.Y-b.Position.Y)}
			pen = dy + a.Radius
		}
	}
	bounceStatic(a, n, pen, a.Restitution, combinedFriction(a, b))
	return true
}

// bounceStatic pushes a dynamic body out of a static one along n and
// reflects its normal velocity with restitution e, damping the
// tangential component by the friction coefficient.
func bounceStatic(b *Body, n Vec2, pen, e, mu float64) {
	b.Position = b.Position.Add(n.Scale(pen))
	vn := b.Velocity.Dot(n)
	if vn >= 0 {
		return // already separating
	}
	normal := n.Scale(vn)
	tangent := b.Velocity.Sub(normal)
	b.Velocity = tangent.Scale(1 - mu).Sub(normal.Scale(e))
}

func combinedFriction(a, b *Body) float64 {
	return clamp(a.Friction+b.Friction, 0, 1)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
