package api

import (
	"io"
	"net/http"
	"time"

	"pachinko/internal/config"
	"pachinko/internal/game"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// EngineInterface defines the game engine methods used by the API.
// This interface enables mocking for tests without spinning up the full game loop.
// Keep this minimal - only include methods the API layer actually calls.
type EngineInterface interface {
	// GetSnapshot returns the latest lock-free immutable snapshot
	GetSnapshot() *game.GameSnapshot
	// Board returns the static board layout (pegs, slots, dimensions)
	Board() game.Board
	// DropBall queues a ball drop; x < 0 means center with jitter.
	// Returns false when the balance is empty or the ball cap is reached.
	DropBall(x float64, source string) bool
	// SetAutoplay toggles automatic dropping
	SetAutoplay(enabled bool)
	// SetSpeed selects an autoplay speed by label ("x1", "x2", "x3")
	SetSpeed(label string) bool
	// SpeedOptions returns the configured speed choices
	SpeedOptions() []config.SpeedOption
	// ResetSession restores the starting balance and zeroes the score
	ResetSession()
	// GetEventLogStats returns event log counters (may be nil values when disabled)
	GetEventLogStats() map[string]interface{}
	// GetLimits returns the resource limits in force
	GetLimits() config.ResourceLimits
}

// RendererInterface defines the frame renderer methods used by the API.
type RendererInterface interface {
	// FramePNG encodes the current board state as a PNG image
	FramePNG(w io.Writer, snap *game.GameSnapshot) error
}

// RouterConfig contains all dependencies needed to construct the HTTP router.
// This struct is designed for dependency injection and testability.
//
// Example usage in tests:
//
//	cfg := api.RouterConfig{
//	    Engine:   mockEngine,
//	    Renderer: mockRenderer,
//	    RateLimitConfig: &api.RateLimitConfig{
//	        RequestsPerSecond: 1000, // High limit for tests
//	        Burst:             1000,
//	    },
//	}
//	router := api.NewRouter(cfg)
//	ts := httptest.NewServer(router)
type RouterConfig struct {
	// Engine is the game engine (required)
	Engine EngineInterface

	// Renderer produces PNG frames for /api/frame. Optional; the endpoint
	// returns 404 when nil.
	Renderer RendererInterface

	// RateLimiter is an optional pre-configured rate limiter.
	// If nil, a new one will be created using RateLimitConfig.
	RateLimiter *IPRateLimiter

	// RateLimitConfig is optional configuration for the rate limiter.
	// Only used if RateLimiter is nil. If both are nil, uses DefaultRateLimitConfig.
	RateLimitConfig *RateLimitConfig

	// CORSOrigins is an optional list of allowed CORS origins.
	// If nil, uses the default production origins.
	CORSOrigins []string

	// StaticFilesDir is the directory to serve the web client from.
	// If empty, defaults to "./web".
	StaticFilesDir string

	// DisableLogging disables the request logger middleware (useful for benchmarks).
	DisableLogging bool
}

// routerHandlers holds the handler functions for the router.
// This is used internally to pass handlers to route setup.
type routerHandlers struct {
	engine   EngineInterface
	renderer RendererInterface
}

// NewRouter constructs the HTTP router with all middleware and routes.
//
// IMPORTANT: This function is PURE - it has no side effects:
//   - No goroutines are started
//   - No network listeners are opened
//   - No background workers are launched
//
// This makes it safe to use in tests with httptest.NewServer.
//
// Example:
//
//	router := api.NewRouter(cfg)
//	ts := httptest.NewServer(router)
//	defer ts.Close()
//	resp, _ := http.Get(ts.URL + "/api/state")
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Middleware - Order matters!
	if !cfg.DisableLogging {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)
	r.Use(requestMetrics)

	// Rate limiting (BEFORE CORS to reject early and save CPU)
	rateLimiter := cfg.RateLimiter
	if rateLimiter == nil {
		rateLimitCfg := DefaultRateLimitConfig
		if cfg.RateLimitConfig != nil {
			rateLimitCfg = *cfg.RateLimitConfig
		}
		rateLimiter = NewIPRateLimiter(rateLimitCfg)
	}
	r.Use(rateLimiter.Middleware)

	// CORS configuration
	corsOrigins := cfg.CORSOrigins
	if corsOrigins == nil {
		corsOrigins = []string{
			"http://localhost:*",
			"http://127.0.0.1:*",
		}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	// Create handlers struct
	h := &routerHandlers{
		engine:   cfg.Engine,
		renderer: cfg.Renderer,
	}

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Game state
		r.Get("/state", h.handleGetState)
		r.Get("/stats", h.handleGetStats)
		r.Get("/board", h.handleGetBoard)
		r.Get("/frame", h.handleGetFrame)

		// Player actions
		r.Post("/drop", h.handleDrop)
		r.Post("/autoplay", h.handleAutoplay)
		r.Post("/speed", h.handleSpeed)
		r.Post("/session/reset", h.handleSessionReset)
	})

	// Serve static files for the web client
	staticDir := cfg.StaticFilesDir
	if staticDir == "" {
		staticDir = "./web"
	}
	r.Handle("/web/*", http.StripPrefix("/web/", http.FileServer(http.Dir(staticDir))))
	r.Get("/web", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/web/", http.StatusMovedPermanently)
	})

	// Default route
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/web/", http.StatusFound)
	})

	return r
}

// requestMetrics records latency and status per route pattern. Using
// the chi pattern instead of the raw path keeps label cardinality
// bounded.
func requestMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		pattern := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			pattern = rctx.RoutePattern()
		}
		RecordRequest(r.Method, pattern, ww.Status(), time.Since(start))
	})
}

// GetRateLimiterFromRouter is a helper to extract the rate limiter from a configured router.
// This is useful for tests that need to verify rate limiting behavior.
// Note: This returns nil if you need to track the limiter - pass it via RouterConfig instead.
func GetRateLimiterFromRouter(cfg RouterConfig) *IPRateLimiter {
	if cfg.RateLimiter != nil {
		return cfg.RateLimiter
	}
	rateLimitCfg := DefaultRateLimitConfig
	if cfg.RateLimitConfig != nil {
		rateLimitCfg = *cfg.RateLimitConfig
	}
	return NewIPRateLimiter(rateLimitCfg)
}
