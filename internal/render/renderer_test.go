package render

import (
	"bytes"
	"image/png"
	"testing"

	"pachinko/internal/config"
	"pachinko/internal/game"
)

func testBoard(t *testing.T) game.Board {
	t.Helper()
	board, err := game.NewBoard(config.DefaultBoard())
	if err != nil {
		t.Fatalf("NewBoard failed: %v", err)
	}
	return board
}

// TestFrameDimensions verifies the canvas covers the board plus the
// slot strip.
func TestFrameDimensions(t *testing.T) {
	board := testBoard(t)
	r := New(board)

	img := r.Frame(&game.GameSnapshot{ActiveSlot: -1})
	if img == nil {
		t.Fatal("Frame returned nil")
	}

	bounds := img.Bounds()
	if bounds.Dx() != int(board.Config.Width) {
		t.Errorf("Frame width %d, want %d", bounds.Dx(), int(board.Config.Width))
	}
	wantH := int(board.Config.Height + slotStripHeight)
	if bounds.Dy() != wantH {
		t.Errorf("Frame height %d, want %d", bounds.Dy(), wantH)
	}
}

// TestFrameWithBalls verifies rendering a populated snapshot does not
// panic and still produces a full-size frame.
func TestFrameWithBalls(t *testing.T) {
	r := New(testBoard(t))

	snap := &game.GameSnapshot{
		Score:      1030,
		Balance:    995,
		Autoplay:   true,
		Speed:      "x2",
		ActiveSlot: 0,
		Balls: []game.BallSnapshot{
			{ID: 1, X: 450, Y: 100},
			{ID: 2, X: 12, Y: 650},
		},
		BallCount: 2,
	}

	img := r.Frame(snap)
	if img.Bounds().Empty() {
		t.Error("Frame with balls is empty")
	}
}

// TestFramePNG verifies the encoded stream decodes as a valid PNG
func TestFramePNG(t *testing.T) {
	r := New(testBoard(t))

	var buf bytes.Buffer
	if err := r.FramePNG(&buf, &game.GameSnapshot{ActiveSlot: -1}); err != nil {
		t.Fatalf("FramePNG failed: %v", err)
	}

	cfg, err := png.DecodeConfig(&buf)
	if err != nil {
		t.Fatalf("Output is not a valid PNG: %v", err)
	}
	if cfg.Width != 900 {
		t.Errorf("Decoded width %d, want 900", cfg.Width)
	}
}

// TestFormatMultiplier verifies payout label formatting
func TestFormatMultiplier(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{1000, "1000"},
		{0.2, "0.2"},
		{2, "2"},
		{130, "130"},
	}
	for _, tt := range tests {
		if got := formatMultiplier(tt.in); got != tt.want {
			t.Errorf("formatMultiplier(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
