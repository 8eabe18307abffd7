package game

import (
	"sync/atomic"
	"time"

	"pachinko/internal/config"
)

// BallSnapshot is an immutable copy of one ball's state for rendering.
// Value types only, so a published snapshot never aliases live bodies.
type BallSnapshot struct {
	ID uint64  `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
	VX float64 `json:"vx"`
	VY float64 `json:"vy"`
}

// GameSnapshot is a complete immutable game state for rendering and API
// reads. The ball slice is pre-allocated and capped.
type GameSnapshot struct {
	Sequence   uint64    `json:"sequence"`   // Monotonic sequence for ordering
	Timestamp  time.Time `json:"timestamp"`  // When snapshot was created
	TickNumber uint64    `json:"tickNumber"` // Game tick this represents
	RNGSeed    int64     `json:"rngSeed"`    // Seed for deterministic replay

	Score      float64 `json:"score"`
	Balance    float64 `json:"balance"`
	Autoplay   bool    `json:"autoplay"`
	Speed      string  `json:"speed"`
	ActiveSlot int     `json:"activeSlot"` // -1 when no slot is highlighted

	Balls     []BallSnapshot `json:"balls"`
	BallCount int            `json:"ballCount"`

	TotalDrops  int `json:"totalDrops"`
	TotalScored int `json:"totalScored"`
}

// SnapshotPool pre-allocates snapshots to avoid GC pressure.
// Uses triple buffering for lock-free producer/consumer.
type SnapshotPool struct {
	snapshots [3]GameSnapshot // Triple buffer
	limits    config.ResourceLimits
	writeIdx  uint32 // atomic - producer index
	readIdx   uint32 // atomic - consumer index
	sequence  uint64 // atomic - monotonic sequence
}

// NewSnapshotPool creates a pool with pre-allocated slices
func NewSnapshotPool(limits config.ResourceLimits) *SnapshotPool {
	pool := &SnapshotPool{limits: limits}

	for i := 0; i < 3; i++ {
		pool.snapshots[i] = GameSnapshot{
			Balls:      make([]BallSnapshot, 0, limits.MaxBalls),
			ActiveSlot: -1,
		}
	}

	return pool
}

// AcquireWrite gets the next write slot (producer only, called from the
// game tick). Returns a snapshot with reset slices but kept capacity.
func (p *SnapshotPool) AcquireWrite() *GameSnapshot {
	idx := atomic.AddUint32(&p.writeIdx, 1) % 3
	snap := &p.snapshots[idx]

	snap.Balls = snap.Balls[:0]
	snap.ActiveSlot = -1

	snap.Sequence = atomic.AddUint64(&p.sequence, 1)
	snap.Timestamp = time.Now()

	return snap
}

// PublishWrite marks write complete and advances the read pointer.
// Called after the snapshot is fully populated.
func (p *SnapshotPool) PublishWrite() {
	atomic.StoreUint32(&p.readIdx, atomic.LoadUint32(&p.writeIdx))
}

// AcquireRead gets the latest complete snapshot (consumer only, called
// from render and API goroutines).
func (p *SnapshotPool) AcquireRead() *GameSnapshot {
	idx := atomic.LoadUint32(&p.readIdx) % 3
	return &p.snapshots[idx]
}

// GetLimits returns the resource limits
func (p *SnapshotPool) GetLimits() config.ResourceLimits {
	return p.limits
}
