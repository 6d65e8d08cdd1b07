package api

import (
	"log"
	"net/http"
	"net/http/pprof"
	"os"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"pistol-arena/internal/console"
	"pistol-arena/internal/game"
)

// Metrics with bounded cardinality (no per-client labels)
var (
	tickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "arena_tick_duration_seconds",
		Help:    "Time spent in a simulation tick",
		Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05},
	})

	pawnCount = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "arena_pawns",
		Help: "Current number of pawns",
	}, []string{"state"}) // "alive", "dead"

	entityCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "arena_entities",
		Help: "Current number of non-pawn entities",
	})

	clientCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "arena_clients",
		Help: "Connected clients",
	})

	attacksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arena_attacks_total",
		Help: "Primary attacks fired",
	}, []string{"weapon"})

	damageTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arena_damage_total",
		Help: "Damage dealt on the server",
	}, []string{"victim"})

	killsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arena_kills_total",
		Help: "Pawns killed",
	})

	consoleCommands = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arena_console_commands_total",
		Help: "Console commands run, by result",
	}, []string{"command", "result"})

	outboxDropped = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "arena_outbox_dropped",
		Help: "Replicated messages dropped because the outbox was full",
	})

	// Event log totals are owned by the log; mirror them as gauges
	eventLogTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "arena_event_log_events",
		Help: "Events accepted by the event log",
	})

	eventLogDropped = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "arena_event_log_dropped",
		Help: "Events dropped due to rate limiting or buffer full",
	})

	commandsPending = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "arena_console_pending",
		Help: "Console commands waiting for the next tick",
	})

	connectionRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "connection_rejected_total",
		Help: "Connections rejected by rate limiter, origin or auth checks",
	}, []string{"reason"}) // "rate_limit", "origin", "admin_auth", "ws_total_limit", "ws_ip_limit"

	// endpoint is the route pattern, never the raw URL
	requestLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "endpoint"})

	requestTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "endpoint", "status"})

	wsConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "websocket_connections_active",
		Help: "Currently active WebSocket connections",
	})

	wsMessagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "websocket_messages_total",
		Help: "WebSocket messages sent",
	}, []string{"kind"})
)

// ObservabilityConfig configures the debug server
type ObservabilityConfig struct {
	Enabled       bool
	ListenAddr    string // keep on localhost
	AllowExternal bool
	BasicAuthUser string
	BasicAuthPass string
}

// DefaultObservabilityConfig returns safe defaults
func DefaultObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		Enabled:       true,
		ListenAddr:    "127.0.0.1:6060",
		AllowExternal: os.Getenv("ALLOW_DEBUG_EXTERNAL") == "true",
	}
}

// StatsSource is what EngineHooks polls once per tick.
type StatsSource interface {
	EventLogStats() game.EventLogStats
	CommandStats() console.QueueStats
}

// EngineHooks returns engine hooks that feed the Prometheus metrics.
// src may be nil.
func EngineHooks(src StatsSource) game.Hooks {
	return game.Hooks{
		OnTick: func(d time.Duration, s *game.Snapshot) {
			tickDuration.Observe(d.Seconds())
			alive := 0
			for _, p := range s.Pawns {
				if p.Alive {
					alive++
				}
			}
			pawnCount.WithLabelValues("alive").Set(float64(alive))
			pawnCount.WithLabelValues("dead").Set(float64(len(s.Pawns) - alive))
			entityCount.Set(float64(len(s.Entities)))
			clientCount.Set(float64(s.Clients))
			outboxDropped.Set(float64(s.Outbox.Dropped))

			if src == nil {
				return
			}
			el := src.EventLogStats()
			eventLogTotal.Set(float64(el.Total))
			eventLogDropped.Set(float64(el.Dropped))
			commandsPending.Set(float64(src.CommandStats().Pending))
		},
		OnAttack: func(weapon string) {
			attacksTotal.WithLabelValues(weapon).Inc()
		},
		OnDamage: func(victim string, amount float64) {
			damageTotal.WithLabelValues(victim).Add(amount)
		},
		OnKill: func() {
			killsTotal.Inc()
		},
		OnCommand: func(name string, err error) {
			result := "ok"
			if err != nil {
				result = "error"
			}
			consoleCommands.WithLabelValues(name, result).Inc()
		},
	}
}

// StartDebugServer starts the internal observability server.
// It binds to localhost unless AllowExternal is set.
func StartDebugServer(cfg ObservabilityConfig) error {
	if !cfg.Enabled {
		log.Println("📊 Debug server disabled")
		return nil
	}

	if !cfg.AllowExternal && !isLoopbackAddr(cfg.ListenAddr) {
		log.Println("⚠️ Debug server forced to localhost")
		cfg.ListenAddr = "127.0.0.1:6060"
	}

	mux := http.NewServeMux()

	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	var handler http.Handler = mux
	if cfg.BasicAuthUser != "" {
		handler = basicAuthMiddleware(cfg.BasicAuthUser, cfg.BasicAuthPass, mux)
	}

	go func() {
		log.Printf("📊 Debug server starting on %s", cfg.ListenAddr)
		log.Printf("   - pprof:   http://%s/debug/pprof/", cfg.ListenAddr)
		log.Printf("   - metrics: http://%s/metrics", cfg.ListenAddr)

		if err := http.ListenAndServe(cfg.ListenAddr, handler); err != nil {
			log.Printf("⚠️ Debug server error: %v", err)
		}
	}()

	return nil
}

func isLoopbackAddr(addr string) bool {
	for _, prefix := range []string{"127.0.0.1:", "localhost:", "[::1]:"} {
		if len(addr) > len(prefix) && addr[:len(prefix)] == prefix {
			return true
		}
	}
	return false
}

func basicAuthMiddleware(user, pass string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || u != user || p != pass {
			w.Header().Set("WWW-Authenticate", `Basic realm="debug"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// metricsMiddleware records latency and status per route pattern.
func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		endpoint := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				endpoint = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		RecordRequest(r.Method, endpoint, status, time.Since(start))
	})
}

// RecordConnectionRejected increments the rejection counter.
func RecordConnectionRejected(reason string) {
	connectionRejected.WithLabelValues(reason).Inc()
}

// RecordRequest records HTTP request metrics
func RecordRequest(method, endpoint string, status int, duration time.Duration) {
	requestLatency.WithLabelValues(method, endpoint).Observe(duration.Seconds())
	requestTotal.WithLabelValues(method, endpoint, strconv.Itoa(status)).Inc()
}

// UpdateWSConnections updates WebSocket connection count
func UpdateWSConnections(count int) {
	wsConnectionsActive.Set(float64(count))
}

func recordWSMessage(kind string) {
	wsMessagesTotal.WithLabelValues(kind).Inc()
}
