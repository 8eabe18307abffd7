package api

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"pachinko/internal/game"
)

// Handler methods for routerHandlers
// These are used by both the standalone router (for testing) and the full Server.

func (h *routerHandlers) handleGetState(w http.ResponseWriter, r *http.Request) {
	// OPTIMIZATION: Use lock-free snapshot instead of locking the engine
	// This avoids mutex contention on every poll request
	snap := h.engine.GetSnapshot()
	writeJSON(w, snap)
}

func (h *routerHandlers) handleGetStats(w http.ResponseWriter, r *http.Request) {
	snap := h.engine.GetSnapshot()
	stats := map[string]interface{}{
		"score":       snap.Score,
		"balance":     snap.Balance,
		"ballCount":   snap.BallCount,
		"totalDrops":  snap.TotalDrops,
		"totalScored": snap.TotalScored,
		"autoplay":    snap.Autoplay,
		"speed":       snap.Speed,
		"tickNumber":  snap.TickNumber,
		"limits":      h.engine.GetLimits(),
		"eventLog":    h.engine.GetEventLogStats(),
	}
	writeJSON(w, stats)
}

func (h *routerHandlers) handleGetBoard(w http.ResponseWriter, r *http.Request) {
	board := h.engine.Board()
	writeJSON(w, map[string]interface{}{
		"width":       board.Config.Width,
		"height":      board.Config.Height,
		"pegs":        board.Pegs,
		"pegRadius":   game.PegRadius,
		"ballRadius":  game.BallRadius,
		"slotCount":   board.Slots.Count(),
		"slotWidth":   board.Slots.SlotWidth(),
		"multipliers": board.Slots.Multipliers(),
		"scoreY":      board.ScoreY(),
		"speeds":      h.engine.SpeedOptions(),
	})
}

func (h *routerHandlers) handleGetFrame(w http.ResponseWriter, r *http.Request) {
	if h.renderer == nil {
		writeError(w, "Rendering not enabled", http.StatusNotFound)
		return
	}
	snap := h.engine.GetSnapshot()
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	start := time.Now()
	if err := h.renderer.FramePNG(w, snap); err != nil {
		// Headers already sent; nothing left to do but log it
		log.Printf("❌ Frame encode failed: %v", err)
		return
	}
	RecordRender(time.Since(start))
}

func (h *routerHandlers) handleDrop(w http.ResponseWriter, r *http.Request) {
	// X is optional - omitted means center drop with jitter
	var req struct {
		X *float64 `json:"x"`
	}

	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, "Invalid request", http.StatusBadRequest)
			return
		}
	}

	x := -1.0
	if req.X != nil {
		if *req.X < 0 {
			writeError(w, "x must be non-negative", http.StatusBadRequest)
			return
		}
		x = *req.X
	}

	if !h.engine.DropBall(x, "api") {
		// Either the balance is empty or too many balls are in flight
		writeError(w, "Drop rejected", http.StatusConflict)
		return
	}

	RecordDrop()
	snap := h.engine.GetSnapshot()
	writeJSON(w, map[string]interface{}{
		"success": true,
		"balance": snap.Balance,
	})
}

func (h *routerHandlers) handleAutoplay(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Enabled bool `json:"enabled"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request", http.StatusBadRequest)
		return
	}

	h.engine.SetAutoplay(req.Enabled)
	writeJSON(w, map[string]interface{}{
		"success":  true,
		"autoplay": req.Enabled,
	})
}

func (h *routerHandlers) handleSpeed(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Label string `json:"label"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request", http.StatusBadRequest)
		return
	}

	if req.Label == "" {
		writeError(w, "Label is required", http.StatusBadRequest)
		return
	}

	if !h.engine.SetSpeed(req.Label) {
		writeError(w, "Unknown speed", http.StatusBadRequest)
		return
	}

	writeJSON(w, map[string]interface{}{
		"success": true,
		"speed":   req.Label,
	})
}

func (h *routerHandlers) handleSessionReset(w http.ResponseWriter, r *http.Request) {
	log.Println("🔄 Session reset requested via API")
	h.engine.ResetSession()
	snap := h.engine.GetSnapshot()
	writeJSON(w, map[string]interface{}{
		"success": true,
		"balance": snap.Balance,
		"score":   snap.Score,
	})
}

// Helper functions (package-level for reuse)

func writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
