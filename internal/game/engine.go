package game

import (
	"log"
	"math/rand"
	"sync"
	"time"

	"pachinko/internal/config"
	"pachinko/internal/physics"
)

// dropRequest is a spawn deferred to the next tick so that balls always
// enter the world between physics steps, never mid-step.
type dropRequest struct {
	x      float64 // requested horizontal position; <0 means field center
	source string
}

// Engine owns the physics world and the session and drives both from a
// fixed-rate tick loop. All mutable state is guarded by mu; the tick
// goroutine is the only writer during normal play.
type Engine struct {
	mu sync.Mutex

	cfg     config.AppConfig
	board   Board
	session *Session

	world *physics.World
	balls map[uint64]*physics.Body // balls in flight, by body ID

	pendingDrops []dropRequest

	// Highlight deadlines in ticks, keyed by slot index. A new score
	// overwrites the slot's deadline, so a pending expiry can never
	// clear a newer highlight.
	highlightDeadlines []uint64
	activeSlot         int
	highlightTicks     uint64

	autoplayCountdown int

	tickRate int
	running  bool
	ticker   *time.Ticker
	stopChan chan struct{}

	tickCount uint64

	// Deterministic RNG for replayable spawn jitter
	rng     *rand.Rand
	rngSeed int64

	snapshotPool *SnapshotPool
	eventLog     *EventLog

	// Optional observability hook, called outside the lock
	onTick func(time.Duration)

	// OnScore, if set, is called under the engine lock for every ball
	// that lands. Keep it cheap; set it before Start.
	OnScore func(slotIndex int, payout float64)
}

// NewEngine builds the board, populates the physics world with its
// static bodies and wires the collision handler. The tick loop does not
// start until Start is called.
func NewEngine(cfg config.AppConfig) (*Engine, error) {
	board, err := NewBoard(cfg.Board)
	if err != nil {
		return nil, err
	}
	if cfg.Physics.TickRate <= 0 {
		cfg.Physics = config.DefaultPhysics()
	}
	if cfg.Limits.MaxBalls <= 0 {
		cfg.Limits = config.DefaultLimits()
	}
	if len(cfg.Session.Speeds) == 0 {
		cfg.Session.Speeds = config.DefaultSession().Speeds
	}

	seed := time.Now().UnixNano()
	e := &Engine{
		cfg:                cfg,
		board:              board,
		session:            NewSession(cfg.Session),
		world:              physics.NewWorld(physics.Vec2{Y: cfg.Physics.Gravity}),
		balls:              make(map[uint64]*physics.Body),
		highlightDeadlines: make([]uint64, board.Slots.Count()),
		activeSlot:         -1,
		tickRate:           cfg.Physics.TickRate,
		stopChan:           make(chan struct{}),
		rng:                rand.New(rand.NewSource(seed)),
		rngSeed:            seed,
		snapshotPool:       NewSnapshotPool(cfg.Limits),
		eventLog:           NewEventLog(),
	}

	window := cfg.Session.HighlightWindow
	if window <= 0 {
		window = config.DefaultSession().HighlightWindow
	}
	e.highlightTicks = uint64(window*float64(e.tickRate) + 0.5)
	if e.highlightTicks == 0 {
		e.highlightTicks = 1
	}

	e.buildStaticBodies()

	e.world.OnCollisionStart(func(ev physics.CollisionEvent) {
		// Runs inside Step, which the tick loop calls under mu.
		e.applyOutcome(ResolveCollision(ev, e.board.ScoreY(), e.board.Slots))
	})

	// Publish an initial snapshot so reads before the first tick see
	// the starting balance instead of a zero value.
	e.produceSnapshot()

	return e, nil
}

// buildStaticBodies adds pegs, bounding walls, the floor and the slot
// dividers to the world.
func (e *Engine) buildStaticBodies() {
	cfg := e.board.Config

	for _, peg := range e.board.Pegs {
		e.world.AddBody(physics.NewStaticCircle("peg", physics.Vec2{X: peg.X, Y: peg.Y}, PegRadius))
	}

	// Side walls extend beyond the field so balls cannot slip past.
	e.world.AddBody(physics.NewStaticRect("wall",
		physics.Vec2{X: -10, Y: cfg.Height / 2}, 20, cfg.Height*2))
	e.world.AddBody(physics.NewStaticRect("wall",
		physics.Vec2{X: cfg.Width + 10, Y: cfg.Height / 2}, 20, cfg.Height*2))

	// Floor: its top edge sits exactly at field height.
	e.world.AddBody(physics.NewStaticRect("floor",
		physics.Vec2{X: cfg.Width / 2, Y: cfg.Height + 10}, cfg.Width+40, 20))

	// Dividers between adjacent slots, flush with the floor.
	slotWidth := e.board.Slots.SlotWidth()
	for i := 1; i < e.board.Slots.Count(); i++ {
		e.world.AddBody(physics.NewStaticRect("divider",
			physics.Vec2{X: float64(i) * slotWidth, Y: cfg.Height - 30}, 4, 60))
	}
}

// Start begins the tick loop.
func (e *Engine) Start() {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return
	}
	e.running = true
	e.mu.Unlock()

	e.ticker = time.NewTicker(time.Second / time.Duration(e.tickRate))

	go func() {
		for {
			select {
			case <-e.ticker.C:
				e.tick()
			case <-e.stopChan:
				return
			}
		}
	}()

	log.Printf("🎰 Pachinko engine started at %d TPS", e.tickRate)
}

// Stop stops the tick loop. Safe to call more than once.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.running {
		return
	}

	e.running = false
	if e.ticker != nil {
		e.ticker.Stop()
	}
	close(e.stopChan)
	log.Println("🛑 Pachinko engine stopped")
}

// SetTickObserver installs a hook receiving each tick's wall duration.
func (e *Engine) SetTickObserver(fn func(time.Duration)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onTick = fn
}

// tick advances the simulation one step: spawn deferred drops, run the
// autoplay timer, step the world (which fires scoring), expire
// highlights and publish a snapshot.
func (e *Engine) tick() {
	start := time.Now()

	e.mu.Lock()

	e.tickCount++
	dt := 1.0 / float64(e.tickRate)

	e.eventLog.EmitSimple(EventTypeTick, e.tickCount, "",
		TickPayload{
			RNGSeed:     e.rngSeed,
			BallCount:   len(e.balls),
			DeltaTimeNs: int64(dt * 1e9),
		})

	// Advance RNG seed deterministically for the next tick
	e.rngSeed = e.rng.Int63()
	e.rng.Seed(e.rngSeed)

	for _, req := range e.pendingDrops {
		e.spawnBall(req)
	}
	e.pendingDrops = e.pendingDrops[:0]

	if e.session.Autoplay {
		e.autoplayCountdown--
		if e.autoplayCountdown <= 0 {
			e.autoplayTick()
			e.autoplayCountdown = e.intervalTicks()
		}
	}

	e.world.Step(dt)

	e.sweepLostBalls()
	e.expireHighlights()
	e.produceSnapshot()

	onTick := e.onTick
	e.mu.Unlock()

	if onTick != nil {
		onTick(time.Since(start))
	}
}

// autoplayTick attempts one autoplay spawn. A non-positive balance
// silently stalls autoplay without disabling it.
func (e *Engine) autoplayTick() {
	if len(e.balls) >= e.cfg.Limits.MaxBalls {
		return
	}
	if !e.session.ChargeDrop() {
		return
	}
	e.spawnBall(dropRequest{x: -1, source: "autoplay"})
}

// intervalTicks converts the effective autoplay interval to ticks.
func (e *Engine) intervalTicks() int {
	ticks := int(e.session.SpawnInterval() * float64(e.tickRate))
	if ticks < 1 {
		ticks = 1
	}
	return ticks
}

// DropBall requests a manual ball spawn at horizontal position x
// (x < 0 spawns at field center with a small jitter). The drop cost is
// charged immediately; the ball enters the world on the next tick.
// Returns false without charging when the balance is exhausted or too
// many balls are in flight.
func (e *Engine) DropBall(x float64, source string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.balls)+len(e.pendingDrops) >= e.cfg.Limits.MaxBalls {
		return false
	}
	if !e.session.ChargeDrop() {
		return false
	}
	e.pendingDrops = append(e.pendingDrops, dropRequest{x: x, source: source})
	return true
}

// spawnBall creates the dynamic body. Callers hold mu.
func (e *Engine) spawnBall(req dropRequest) {
	cfg := e.board.Config
	x := req.x
	if x < 0 {
		// Center drop with jitter, as the physical machines have.
		x = cfg.Width/2 + (e.rng.Float64()*2-1)*cfg.PegSpacing/4
	}
	if x < BallRadius {
		x = BallRadius
	}
	if x > cfg.Width-BallRadius {
		x = cfg.Width - BallRadius
	}

	body := physics.NewCircle("ball",
		physics.Vec2{X: x, Y: BallRadius + 2},
		BallRadius,
		physics.Material{
			Restitution: e.cfg.Physics.Restitution,
			Friction:    e.cfg.Physics.Friction,
			FrictionAir: e.cfg.Physics.FrictionAir,
			Density:     e.cfg.Physics.Density,
		})
	e.world.AddBody(body)
	e.balls[body.ID] = body

	e.eventLog.EmitSimple(EventTypeDrop, e.tickCount, req.source,
		DropPayload{BallID: body.ID, X: x, Balance: e.session.Balance})
}

// applyOutcome credits a scoring outcome and removes the ball. The
// balls map guards exactly-once scoring: a second event for the same
// ball in one step resolves to a no-op. Callers hold mu.
func (e *Engine) applyOutcome(out Outcome) {
	if out.BallID == 0 {
		return
	}
	if _, inFlight := e.balls[out.BallID]; !inFlight {
		return
	}
	delete(e.balls, out.BallID)
	e.world.RemoveBody(out.BallID)

	e.session.AddScore(out.ScoreDelta)

	if out.SlotIndex >= 0 {
		e.highlightDeadlines[out.SlotIndex] = e.tickCount + e.highlightTicks
		e.activeSlot = out.SlotIndex
	}

	e.eventLog.EmitSimple(EventTypeScore, e.tickCount, "",
		ScorePayload{
			BallID:     out.BallID,
			SlotIndex:  out.SlotIndex,
			Multiplier: out.ScoreDelta,
			Score:      e.session.Score,
		})

	log.Printf("🎯 Ball %d landed in slot %d (x%.1f, score %.1f)",
		out.BallID, out.SlotIndex, out.ScoreDelta, e.session.Score)

	if e.OnScore != nil {
		e.OnScore(out.SlotIndex, out.ScoreDelta)
	}
}

// sweepLostBalls scores any ball that slipped past the floor without a
// collision event (fast balls can tunnel a thin contact). Callers hold
// mu.
func (e *Engine) sweepLostBalls() {
	limit := e.board.Config.Height + 100
	for id, ball := range e.balls {
		if ball.Position.Y > limit {
			idx := e.board.Slots.Index(ball.Position.X)
			delta := e.board.Slots.MultiplierAt(idx)
			if idx < 0 || idx >= e.board.Slots.Count() {
				idx = -1
			}
			e.applyOutcome(Outcome{BallID: id, SlotIndex: idx, ScoreDelta: delta})
		}
	}
}

// expireHighlights clears slot highlights whose window has passed and
// recomputes the active slot as the one with the newest live deadline.
func (e *Engine) expireHighlights() {
	best := -1
	var bestDeadline uint64
	for i, deadline := range e.highlightDeadlines {
		if deadline == 0 {
			continue
		}
		if e.tickCount >= deadline {
			e.highlightDeadlines[i] = 0
			continue
		}
		if deadline > bestDeadline {
			bestDeadline = deadline
			best = i
		}
	}
	e.activeSlot = best
}

// produceSnapshot publishes an immutable state copy for lock-free
// render and API access. Callers hold mu.
func (e *Engine) produceSnapshot() {
	snap := e.snapshotPool.AcquireWrite()
	snap.TickNumber = e.tickCount
	snap.RNGSeed = e.rngSeed
	snap.Score = e.session.Score
	snap.Balance = e.session.Balance
	snap.Autoplay = e.session.Autoplay
	snap.Speed = e.session.Speed().Label
	snap.ActiveSlot = e.activeSlot
	snap.TotalDrops = e.session.TotalDrops
	snap.TotalScored = e.session.TotalScored

	for id, ball := range e.balls {
		if len(snap.Balls) >= e.cfg.Limits.MaxBalls {
			break
		}
		snap.Balls = append(snap.Balls, BallSnapshot{
			ID: id,
			X:  ball.Position.X,
			Y:  ball.Position.Y,
			VX: ball.Velocity.X,
			VY: ball.Velocity.Y,
		})
	}
	snap.BallCount = len(snap.Balls)

	e.snapshotPool.PublishWrite()
}

// GetSnapshot returns the latest immutable snapshot for lock-free reads.
func (e *Engine) GetSnapshot() *GameSnapshot {
	return e.snapshotPool.AcquireRead()
}

// Board returns the static board geometry.
func (e *Engine) Board() Board {
	return e.board
}

// SetAutoplay toggles autoplay. Enabling arms the spawn timer so the
// first autoplay ball drops after one full interval.
func (e *Engine) SetAutoplay(enabled bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session.Autoplay == enabled {
		return
	}
	e.session.Autoplay = enabled
	if enabled {
		e.autoplayCountdown = e.intervalTicks()
	}

	e.eventLog.EmitSimple(EventTypeAutoplay, e.tickCount, "api",
		AutoplayPayload{Enabled: enabled, Speed: e.session.Speed().Label})
}

// SetSpeed selects an autoplay speed by label. Returns false for
// unknown labels.
func (e *Engine) SetSpeed(label string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.session.SetSpeed(label) {
		return false
	}
	// Re-arm so the new cadence takes effect immediately.
	if e.session.Autoplay {
		e.autoplayCountdown = e.intervalTicks()
	}

	e.eventLog.EmitSimple(EventTypeSpeed, e.tickCount, "api",
		AutoplayPayload{Enabled: e.session.Autoplay, Speed: label})
	return true
}

// SpeedOptions returns the selectable autoplay speeds.
func (e *Engine) SpeedOptions() []config.SpeedOption {
	opts := make([]config.SpeedOption, len(e.cfg.Session.Speeds))
	copy(opts, e.cfg.Session.Speeds)
	return opts
}

// ResetSession clears score, balance, autoplay state and removes every
// ball in flight.
func (e *Engine) ResetSession() {
	e.mu.Lock()
	defer e.mu.Unlock()

	for id := range e.balls {
		e.world.RemoveBody(id)
		delete(e.balls, id)
	}
	e.pendingDrops = e.pendingDrops[:0]
	for i := range e.highlightDeadlines {
		e.highlightDeadlines[i] = 0
	}
	e.activeSlot = -1
	e.session.Reset()
	e.produceSnapshot()

	e.eventLog.EmitSimple(EventTypeReset, e.tickCount, "api", nil)
	log.Println("🔄 Session reset")
}

// BallsInFlight returns the number of live balls.
func (e *Engine) BallsInFlight() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.balls)
}

// StartEventLog initializes the event logging system
func (e *Engine) StartEventLog(filePath string) error {
	return e.eventLog.Start(filePath)
}

// StopEventLog gracefully stops the event logging system
func (e *Engine) StopEventLog() {
	e.eventLog.Stop()
}

// GetEventLogStats returns event log statistics for monitoring
func (e *Engine) GetEventLogStats() map[string]interface{} {
	return e.eventLog.GetStats()
}

// GetLimits returns the configured resource limits
func (e *Engine) GetLimits() config.ResourceLimits {
	return e.cfg.Limits
}
