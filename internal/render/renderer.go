// Package render draws board frames server-side. The frame endpoint
// and any recording tooling share the same renderer, so what clients
// see is exactly what the engine simulated.
package render

import (
	"fmt"
	"image"
	"image/png"
	"io"

	"pachinko/internal/game"

	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"
)

// Palette, kept in one place so the board stays readable on stream
// compression artifacts.
const (
	colorBackground = "#101223"
	colorPeg        = "#d8d8e8"
	colorBall       = "#ff4f6d"
	colorWall       = "#2a2d4a"
	colorSlot       = "#1c1f38"
	colorSlotEdge   = "#34375c"
	colorSlotActive = "#f5c542"
	colorText       = "#e8e8f0"
	colorTextDim    = "#8a8da8"
)

// slotStripHeight is the on-canvas height of the multiplier strip at
// the bottom of the frame.
const slotStripHeight = 34.0

// Renderer draws GameSnapshots onto a canvas matching the board
// geometry. Each call allocates its own drawing context, so a Renderer
// is safe for concurrent use.
type Renderer struct {
	board  game.Board
	width  int
	height int
}

// New creates a renderer for the given board. The canvas adds a strip
// below the field for the slot labels.
func New(board game.Board) *Renderer {
	return &Renderer{
		board:  board,
		width:  int(board.Config.Width),
		height: int(board.Config.Height + slotStripHeight),
	}
}

// Frame renders a snapshot to an image.
func (r *Renderer) Frame(snap *game.GameSnapshot) image.Image {
	dc := gg.NewContext(r.width, r.height)
	dc.SetFontFace(basicfont.Face7x13)

	dc.SetHexColor(colorBackground)
	dc.Clear()

	r.drawWalls(dc)
	r.drawPegs(dc)
	r.drawBalls(dc, snap)
	r.drawSlotStrip(dc, snap)
	r.drawReadout(dc, snap)

	return dc.Image()
}

// FramePNG renders a snapshot and encodes it as PNG.
func (r *Renderer) FramePNG(w io.Writer, snap *game.GameSnapshot) error {
	return png.Encode(w, r.Frame(snap))
}

func (r *Renderer) drawPegs(dc *gg.Context) {
	dc.SetHexColor(colorPeg)
	for _, peg := range r.board.Pegs {
		dc.DrawCircle(peg.X, peg.Y, game.PegRadius)
	}
	dc.Fill()
}

func (r *Renderer) drawBalls(dc *gg.Context, snap *game.GameSnapshot) {
	dc.SetHexColor(colorBall)
	for _, ball := range snap.Balls {
		dc.DrawCircle(ball.X, ball.Y, game.BallRadius)
	}
	dc.Fill()
}

func (r *Renderer) drawWalls(dc *gg.Context) {
	h := r.board.Config.Height
	w := r.board.Config.Width
	dc.SetHexColor(colorWall)
	dc.DrawRectangle(0, 0, 3, h)
	dc.DrawRectangle(w-3, 0, 3, h)
	dc.Fill()

	// Slot dividers
	slotWidth := r.board.Slots.SlotWidth()
	for i := 1; i < r.board.Slots.Count(); i++ {
		x := float64(i) * slotWidth
		dc.DrawRectangle(x-2, h-60, 4, 60)
	}
	dc.Fill()
}

func (r *Renderer) drawSlotStrip(dc *gg.Context, snap *game.GameSnapshot) {
	h := r.board.Config.Height
	slotWidth := r.board.Slots.SlotWidth()
	multipliers := r.board.Slots.Multipliers()

	for i, mult := range multipliers {
		x := float64(i) * slotWidth

		if i == snap.ActiveSlot {
			dc.SetHexColor(colorSlotActive)
		} else {
			dc.SetHexColor(colorSlot)
		}
		dc.DrawRectangle(x+1, h+2, slotWidth-2, slotStripHeight-4)
		dc.Fill()

		dc.SetHexColor(colorSlotEdge)
		dc.DrawRectangle(x+1, h+2, slotWidth-2, slotStripHeight-4)
		dc.Stroke()

		if i == snap.ActiveSlot {
			dc.SetHexColor(colorBackground)
		} else {
			dc.SetHexColor(colorText)
		}
		dc.DrawStringAnchored(formatMultiplier(mult), x+slotWidth/2, h+slotStripHeight/2, 0.5, 0.5)
	}
}

func (r *Renderer) drawReadout(dc *gg.Context, snap *game.GameSnapshot) {
	dc.SetHexColor(colorText)
	dc.DrawString(fmt.Sprintf("score %.1f", snap.Score), 10, 16)
	dc.DrawString(fmt.Sprintf("balance %.0f", snap.Balance), 10, 32)

	dc.SetHexColor(colorTextDim)
	mode := "manual"
	if snap.Autoplay {
		mode = "auto " + snap.Speed
	}
	dc.DrawString(mode, 10, 48)
}

// formatMultiplier renders payout labels the way the slot strip shows
// them: integers without decimals, fractions with one.
func formatMultiplier(m float64) string {
	if m == float64(int(m)) {
		return fmt.Sprintf("%d", int(m))
	}
	return fmt.Sprintf("%.1f", m)
}
