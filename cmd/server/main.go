package main

import (
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"pachinko/internal/api"
	"pachinko/internal/config"
	"pachinko/internal/game"
	"pachinko/internal/render"

	"github.com/joho/godotenv"
)

func main() {
	// Load .env file if present
	if err := godotenv.Load(".env"); err != nil {
		log.Println("💡 No .env file found, using environment variables only")
	} else {
		log.Println("✅ Loaded environment from .env")
	}

	log.Println("🎰 ================================")
	log.Println("🎰  PACHINKO - GO ENGINE")
	log.Println("🎰 ================================")

	// Load centralized configuration (SSOT - Single Source of Truth)
	appConfig := config.Load()
	serverCfg := appConfig.Server
	port := strconv.Itoa(serverCfg.Port)

	log.Printf("🎮 Config: %d TPS, board %dx%d, %d slots",
		appConfig.Physics.TickRate,
		int(appConfig.Board.Width), int(appConfig.Board.Height),
		appConfig.Board.SlotCount)

	// Create game engine with centralized config
	engine, err := game.NewEngine(appConfig)
	if err != nil {
		log.Fatalf("❌ Failed to build engine: %v", err)
	}
	limits := engine.GetLimits()
	log.Printf("🛡️ Resource limits: %d balls in flight, %d drops/s per socket",
		limits.MaxBalls, limits.MaxDropsPerWS)

	// Wire metrics without the engine importing the api package
	engine.SetTickObserver(api.RecordTick)
	engine.OnScore = func(_ int, payout float64) {
		api.RecordPayout(payout)
	}

	// Start event log
	eventLogPath := getEnvWithDefault("EVENT_LOG_PATH", "events.jsonl")
	if err := engine.StartEventLog(eventLogPath); err != nil {
		log.Printf("⚠️ Event log disabled: %v", err)
	} else {
		log.Printf("📝 Event log: %s", eventLogPath)
	}

	// Start debug server
	if os.Getenv("DISABLE_DEBUG_SERVER") != "true" {
		debugCfg := api.DefaultObservabilityConfig()
		if err := api.StartDebugServer(debugCfg); err != nil {
			log.Printf("⚠️ Debug server disabled: %v", err)
		}
	}

	// Frame renderer for /api/frame
	renderer := render.New(engine.Board())

	// Create API server
	server := api.NewServer(engine, renderer, serverCfg.BroadcastHz)

	// Start game engine
	engine.Start()
	log.Println("✅ Game engine started")

	// Start API server in goroutine
	go func() {
		addr := ":" + port
		log.Printf("🌐 API server on http://localhost%s", addr)

		if err := server.Start(addr); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	log.Println("✅ Server ready! Press Ctrl+C to stop.")
	<-quit

	log.Println("🛑 Shutting down...")
	server.Stop()
	engine.StopEventLog()
	engine.Stop()
	log.Println("👋 Goodbye!")
}

func getEnvWithDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
