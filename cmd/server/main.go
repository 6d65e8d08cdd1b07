package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"pistol-arena/internal/api"
	"pistol-arena/internal/config"
	"pistol-arena/internal/game"
)

func main() {
	if err := godotenv.Load("../.env"); err != nil {
		if err := godotenv.Load(".env"); err != nil {
			log.Println("💡 No .env file found, using environment variables only")
		}
	} else {
		log.Println("✅ Loaded environment from ../.env")
	}

	log.Println("🔫 ================================")
	log.Println("🔫  PISTOL ARENA - GO SERVER")
	log.Println("🔫 ================================")

	cfg := config.Load()
	sim := cfg.Simulation

	engineCfg := game.DefaultEngineConfig()
	engineCfg.TickRate = sim.TickRate
	engineCfg.WorldSize = sim.WorldSize
	engineCfg.Seed = sim.Seed
	engineCfg.SpawnPoints = sim.SpawnPoints
	engineCfg.RespawnDelay = sim.RespawnDelay
	engineCfg.MaxClients = cfg.Server.MaxClients
	engineCfg.MaxEntities = cfg.Limits.MaxEntities
	engineCfg.OutboxSize = cfg.Limits.OutboxSize
	engineCfg.CommandQueueSize = cfg.Limits.CommandQueueSize

	log.Printf("🎮 Config: %d TPS, world %.0f units, seed %d, %d clients max",
		sim.TickRate, sim.WorldSize, sim.Seed, cfg.Server.MaxClients)
	log.Printf("🛡️ Limits: %d entities, outbox %d, command queue %d",
		cfg.Limits.MaxEntities, cfg.Limits.OutboxSize, cfg.Limits.CommandQueueSize)

	engine := game.NewEngine(engineCfg)
	engine.SetHooks(api.EngineHooks(engine))

	if path := cfg.EventLog.Path; path != "" {
		if err := engine.StartEventLog(path); err != nil {
			log.Printf("⚠️ Event log disabled: %v", err)
		} else {
			log.Printf("📝 Event log: %s", path)
		}
	}

	debugCfg := api.DefaultObservabilityConfig()
	debugCfg.Enabled = cfg.Observability.Enabled
	debugCfg.ListenAddr = cfg.Observability.Addr
	if err := api.StartDebugServer(debugCfg); err != nil {
		log.Printf("⚠️ Debug server disabled: %v", err)
	}

	if cfg.Admin.Token == "" {
		log.Println("⚠️ ADMIN_TOKEN not set - admin joins disabled")
	}

	server := api.NewServer(engine, api.ServerConfig{
		AdminToken:  cfg.Admin.Token,
		CORSOrigins: cfg.Server.CORSOrigins,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return engine.Run(ctx) })
	g.Go(func() error { return server.Run(ctx, cfg.Server.Addr()) })

	err := g.Wait()
	engine.StopEventLog()
	if err != nil {
		log.Printf("❌ Server error: %v", err)
		os.Exit(1)
	}
	log.Println("👋 Shutdown complete")
}
