package physics

import "math"

// staticGrid is a uniform-cell broad phase over the immovable bodies
// (pegs, walls, dividers, the floor). Statics never move, so the grid
// is rebuilt only when the static set changes; every step then queries
// it instead of scanning all statics per ball.
//
// Cells hold body pointers directly. A rect spanning several cells is
// inserted into each of them, so queries deduplicate with an epoch
// stamp per body ID.
type staticGrid struct {
	cellSize    float64
	invCellSize float64
	cols, rows  int
	minX, minY  float64
	cells       [][]*Body

	// Query scratch state, reused across calls
	scratch []*Body
	stamps  map[uint64]uint64
	epoch   uint64
}

// newStaticGrid builds a grid covering the AABBs of the given bodies.
// cellSize should be at least the diameter of the largest dynamic body.
func newStaticGrid(statics []*Body, cellSize float64) *staticGrid {
	if len(statics) == 0 {
		return nil
	}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, b := range statics {
		bMinX, bMinY, bMaxX, bMaxY := bodyAABB(b)
		minX = math.Min(minX, bMinX)
		minY = math.Min(minY, bMinY)
		maxX = math.Max(maxX, bMaxX)
		maxY = math.Max(maxY, bMaxY)
	}

	cols := int(math.Ceil((maxX-minX)/cellSize)) + 1
	rows := int(math.Ceil((maxY-minY)/cellSize)) + 1
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}

	g := &staticGrid{
		cellSize:    cellSize,
		invCellSize: 1 / cellSize,
		cols:        cols,
		rows:        rows,
		minX:        minX,
		minY:        minY,
		cells:       make([][]*Body, cols*rows),
		scratch:     make([]*Body, 0, 16),
		stamps:      make(map[uint64]uint64, len(statics)),
	}

	for _, b := range statics {
		g.insert(b)
	}
	return g
}

// insert adds a body to every cell its AABB overlaps.
func (g *staticGrid) insert(b *Body) {
	bMinX, bMinY, bMaxX, bMaxY := bodyAABB(b)
	minCol, minRow := g.cellCoords(bMinX, bMinY)
	maxCol, maxRow := g.cellCoords(bMaxX, bMaxY)

	for row := minRow; row <= maxRow; row++ {
		for col := minCol; col <= maxCol; col++ {
			idx := row*g.cols + col
			g.cells[idx] = append(g.cells[idx], b)
		}
	}
}

// cellCoords maps a world position to clamped cell coordinates.
func (g *staticGrid) cellCoords(x, y float64) (col, row int) {
	col = int((x - g.minX) * g.invCellSize)
	row = int((y - g.minY) * g.invCellSize)

	if col < 0 {
		col = 0
	}
	if col >= g.cols {
		col = g.cols - 1
	}
	if row < 0 {
		row = 0
	}
	if row >= g.rows {
		row = g.rows - 1
	}
	return col, row
}

// queryAABB returns the statics whose cells overlap the given box.
// Candidates may lie outside the box; callers run the precise test.
//
// IMPORTANT: the returned slice is reused on subsequent calls.
func (g *staticGrid) queryAABB(minX, minY, maxX, maxY float64) []*Body {
	g.scratch = g.scratch[:0]
	g.epoch++

	minCol, minRow := g.cellCoords(minX, minY)
	maxCol, maxRow := g.cellCoords(maxX, maxY)

	for row := minRow; row <= maxRow; row++ {
		for col := minCol; col <= maxCol; col++ {
			for _, b := range g.cells[row*g.cols+col] {
				if g.stamps[b.ID] == g.epoch {
					continue
				}
				g.stamps[b.ID] = g.epoch
				g.scratch = append(g.scratch, b)
			}
		}
	}

	return g.scratch
}

// bodyAABB returns the axis-aligned bounds of a body.
func bodyAABB(b *Body) (minX, minY, maxX, maxY float64) {
	if b.Shape == ShapeCircle {
		return b.Position.X - b.Radius, b.Position.Y - b.Radius,
			b.Position.X + b.Radius, b.Position.Y + b.Radius
	}
	halfW, halfH := b.Width/2, b.Height/2
	return b.Position.X - halfW, b.Position.Y - halfH,
		b.Position.X + halfW, b.Position.Y + halfH
}
