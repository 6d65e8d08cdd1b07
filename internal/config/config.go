// Package config provides centralized configuration management.
// Defaults live here; environment variables override them.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// =============================================================================
// SERVER CONFIGURATION
// =============================================================================

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port        int
	MaxClients  int
	CORSOrigins []string
}

// DefaultServer returns the default server configuration.
func DefaultServer() ServerConfig {
	return ServerConfig{
		Port:       3000,
		MaxClients: 64,
	}
}

// ServerFromEnv returns server configuration with environment variable overrides.
func ServerFromEnv() ServerConfig {
	cfg := DefaultServer()

	if p := getEnvInt("PORT", 0); p > 0 {
		cfg.Port = p
	}
	if mc := getEnvInt("MAX_CLIENTS", 0); mc > 0 {
		cfg.MaxClients = mc
	}
	cfg.CORSOrigins = getEnvList("CORS_ORIGINS")

	return cfg
}

// Addr is the listen address for the API server.
func (c ServerConfig) Addr() string {
	return ":" + strconv.Itoa(c.Port)
}

// =============================================================================
// SIMULATION CONFIGURATION
// =============================================================================

// SimulationConfig holds the world clock and layout.
type SimulationConfig struct {
	TickRate     int           // ticks per second
	WorldSize    float64       // edge length of the play area in units
	Seed         int64         // tick RNG seed
	SpawnPoints  int           // spawn points placed on start
	RespawnDelay time.Duration // 0 disables respawning
}

// DefaultSimulation returns the default simulation configuration.
func DefaultSimulation() SimulationConfig {
	return SimulationConfig{
		TickRate:     60,
		WorldSize:    4096,
		Seed:         1,
		SpawnPoints:  8,
		RespawnDelay: 3 * time.Second,
	}
}

// SimulationFromEnv returns simulation configuration with environment overrides.
func SimulationFromEnv() SimulationConfig {
	cfg := DefaultSimulation()

	if tr := getEnvInt("TICK_RATE", 0); tr > 0 {
		cfg.TickRate = tr
	}
	if ws := getEnvFloat("WORLD_SIZE", 0); ws > 0 {
		cfg.WorldSize = ws
	}
	if v := os.Getenv("SIM_SEED"); v != "" {
		if seed, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Seed = seed
		}
	}
	if sp := getEnvInt("SPAWN_POINTS", 0); sp > 0 {
		cfg.SpawnPoints = sp
	}
	if d, ok := getEnvDuration("RESPAWN_DELAY"); ok && d >= 0 {
		cfg.RespawnDelay = d
	}

	return cfg
}

// =============================================================================
// RESOURCE LIMITS
// =============================================================================

// ResourceLimits bounds the queues and the entity table.
type ResourceLimits struct {
	MaxEntities      int
	OutboxSize       int // replicated messages buffered between ticks and transport
	CommandQueueSize int // console commands waiting for the next tick
}

// DefaultLimits returns the default resource limits.
func DefaultLimits() ResourceLimits {
	return ResourceLimits{
		MaxEntities:      4096,
		OutboxSize:       1024,
		CommandQueueSize: 256,
	}
}

// LimitsFromEnv returns resource limits with environment overrides.
func LimitsFromEnv() ResourceLimits {
	cfg := DefaultLimits()

	if me := getEnvInt("MAX_ENTITIES", 0); me > 0 {
		cfg.MaxEntities = me
	}
	if ob := getEnvInt("OUTBOX_SIZE", 0); ob > 0 {
		cfg.OutboxSize = ob
	}
	if cq := getEnvInt("COMMAND_QUEUE_SIZE", 0); cq > 0 {
		cfg.CommandQueueSize = cq
	}

	return cfg
}

// =============================================================================
// ADMIN, OBSERVABILITY, EVENT LOG
// =============================================================================

// AdminConfig holds the admin bearer token. Empty disables admin joins.
type AdminConfig struct {
	Token string
}

// ObservabilityConfig holds the debug server settings.
type ObservabilityConfig struct {
	Enabled bool
	Addr    string
}

// EventLogConfig holds the event log target. Empty Path disables it.
type EventLogConfig struct {
	Path string
}

func DefaultObservability() ObservabilityConfig {
	return ObservabilityConfig{Enabled: true, Addr: "127.0.0.1:6060"}
}

func ObservabilityFromEnv() ObservabilityConfig {
	cfg := DefaultObservability()
	if addr := os.Getenv("DEBUG_ADDR"); addr != "" {
		cfg.Addr = addr
	}
	if os.Getenv("DISABLE_DEBUG_SERVER") == "true" {
		cfg.Enabled = false
	}
	return cfg
}

func EventLogFromEnv() EventLogConfig {
	path, ok := os.LookupEnv("EVENT_LOG_PATH")
	if !ok {
		path = "events.jsonl"
	}
	return EventLogConfig{Path: path}
}

// =============================================================================
// COMPLETE APP CONFIGURATION
// =============================================================================

// AppConfig holds the complete application configuration.
type AppConfig struct {
	Server        ServerConfig
	Simulation    SimulationConfig
	Limits        ResourceLimits
	Admin         AdminConfig
	Observability ObservabilityConfig
	EventLog      EventLogConfig
}

// Load returns the complete configuration with environment overrides.
func Load() AppConfig {
	return AppConfig{
		Server:        ServerFromEnv(),
		Simulation:    SimulationFromEnv(),
		Limits:        LimitsFromEnv(),
		Admin:         AdminConfig{Token: os.Getenv("ADMIN_TOKEN")},
		Observability: ObservabilityFromEnv(),
		EventLog:      EventLogFromEnv(),
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

// getEnvDuration accepts Go durations ("1.5s") or plain milliseconds.
func getEnvDuration(key string) (time.Duration, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d, true
	}
	if ms, err := strconv.Atoi(v); err == nil {
		return time.Duration(ms) * time.Millisecond, true
	}
	return 0, false
}

func getEnvList(key string) []string {
	var out []string
	for _, s := range strings.Split(os.Getenv(key), ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
