// Package config provides centralized configuration management.
// This is the SINGLE SOURCE OF TRUTH for all board, physics, session
// and server settings.
//
// IMPORTANT: When changing values, only modify this file.
// All other parts of the codebase should reference these values.
package config

import (
	"os"
	"strconv"
)

// =============================================================================
// BOARD CONFIGURATION
// =============================================================================

// BoardConfig holds the play-field geometry. These values are shared
// between the game engine, the renderer and the API layer.
type BoardConfig struct {
	Width          float64 // Field width in units
	Height         float64 // Field height in units
	Rows           int     // Total peg rows (row 0 carries no pegs)
	PegSpacing     float64 // Horizontal distance between pegs in a row
	VerticalFactor float64 // Vertical compression of the row spacing
	VerticalOffset float64 // Downward offset of the first row
	SlotCount      int     // Number of scoring bins at the bottom
	ScoreLine      float64 // Distance above the floor where balls score
}

// DefaultBoard returns the default board geometry.
func DefaultBoard() BoardConfig {
	return BoardConfig{
		Width:          900,
		Height:         700,
		Rows:           12,
		PegSpacing:     60,
		VerticalFactor: 0.82,
		VerticalOffset: 70,
		SlotCount:      16,
		ScoreLine:      30,
	}
}

// BoardFromEnv returns board geometry with environment overrides.
func BoardFromEnv() BoardConfig {
	cfg := DefaultBoard()

	if w := getEnvFloat("BOARD_WIDTH", 0); w > 0 {
		cfg.Width = w
	}
	if h := getEnvFloat("BOARD_HEIGHT", 0); h > 0 {
		cfg.Height = h
	}
	if r := getEnvInt("BOARD_ROWS", 0); r > 0 {
		cfg.Rows = r
	}
	if s := getEnvFloat("BOARD_PEG_SPACING", 0); s > 0 {
		cfg.PegSpacing = s
	}

	return cfg
}

// =============================================================================
// PHYSICS CONFIGURATION
// =============================================================================

// PhysicsConfig holds the world and ball material parameters.
type PhysicsConfig struct {
	TickRate    int     // Simulation steps per second
	Gravity     float64 // Downward acceleration, units/s^2
	Restitution float64 // Ball bounciness, 0-1
	Friction    float64 // Ball contact friction, 0-1
	FrictionAir float64 // Per-step air damping fraction
	Density     float64 // Ball density
}

// DefaultPhysics returns the default physics parameters.
func DefaultPhysics() PhysicsConfig {
	return PhysicsConfig{
		TickRate:    60,
		Gravity:     900,
		Restitution: 0.55,
		Friction:    0.1,
		FrictionAir: 0.015,
		Density:     0.8,
	}
}

// PhysicsFromEnv returns physics parameters with environment overrides.
func PhysicsFromEnv() PhysicsConfig {
	cfg := DefaultPhysics()

	if t := getEnvInt("PHYSICS_TICK_RATE", 0); t > 0 {
		cfg.TickRate = t
	}
	if g := getEnvFloat("PHYSICS_GRAVITY", 0); g > 0 {
		cfg.Gravity = g
	}

	return cfg
}

// =============================================================================
// SESSION CONFIGURATION
// =============================================================================

// SpeedOption maps a displayed autoplay speed label to the divisor
// applied to the base spawn interval. The labels intentionally do not
// equal the divisors; the mapping is data, not arithmetic.
type SpeedOption struct {
	Label   string  `json:"label"`
	Divisor float64 `json:"divisor"`
}

// SessionConfig holds the session economy and autoplay settings.
type SessionConfig struct {
	StartBalance     float64       // Credits at session start
	DropCost         float64       // Credits consumed per spawned ball
	AutoplayInterval float64       // Base autoplay spawn interval, seconds
	HighlightWindow  float64       // Active-slot highlight duration, seconds
	Speeds           []SpeedOption // Selectable autoplay speeds
}

// DefaultSession returns the default session settings.
func DefaultSession() SessionConfig {
	return SessionConfig{
		StartBalance:     1000,
		DropCost:         1,
		AutoplayInterval: 1.0,
		HighlightWindow:  0.5,
		Speeds: []SpeedOption{
			{Label: "x1", Divisor: 1},
			{Label: "x2", Divisor: 3.8},
			{Label: "x3", Divisor: 5},
		},
	}
}

// SessionFromEnv returns session settings with environment overrides.
func SessionFromEnv() SessionConfig {
	cfg := DefaultSession()

	if b := getEnvFloat("SESSION_START_BALANCE", -1); b >= 0 {
		cfg.StartBalance = b
	}
	if c := getEnvFloat("SESSION_DROP_COST", 0); c > 0 {
		cfg.DropCost = c
	}
	if i := getEnvFloat("SESSION_AUTOPLAY_INTERVAL", 0); i > 0 {
		cfg.AutoplayInterval = i
	}

	return cfg
}

// =============================================================================
// RESOURCE LIMITS
// =============================================================================

// ResourceLimits controls DoS protection and performance limits.
type ResourceLimits struct {
	MaxBalls      int // Hard cap on balls in flight
	MaxDropsPerWS int // Per-connection drop commands per second
}

// DefaultLimits returns the default resource limits.
func DefaultLimits() ResourceLimits {
	return ResourceLimits{
		MaxBalls:      64,
		MaxDropsPerWS: 10,
	}
}

// =============================================================================
// SERVER CONFIGURATION
// =============================================================================

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port        int
	BroadcastHz int // Websocket state pushes per second
}

// DefaultServer returns the default server configuration.
func DefaultServer() ServerConfig {
	return ServerConfig{
		Port:        3000,
		BroadcastHz: 20,
	}
}

// ServerFromEnv returns server configuration with environment overrides.
func ServerFromEnv() ServerConfig {
	cfg := DefaultServer()

	if p := getEnvInt("PORT", 0); p > 0 {
		cfg.Port = p
	}
	if hz := getEnvInt("BROADCAST_HZ", 0); hz > 0 {
		cfg.BroadcastHz = hz
	}

	return cfg
}

// =============================================================================
// COMPLETE APP CONFIGURATION
// =============================================================================

// AppConfig holds the complete application configuration.
type AppConfig struct {
	Board   BoardConfig
	Physics PhysicsConfig
	Session SessionConfig
	Server  ServerConfig
	Limits  ResourceLimits
}

// Load returns the complete configuration with environment overrides.
func Load() AppConfig {
	return AppConfig{
		Board:   BoardFromEnv(),
		Physics: PhysicsFromEnv(),
		Session: SessionFromEnv(),
		Server:  ServerFromEnv(),
		Limits:  DefaultLimits(),
	}
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}
