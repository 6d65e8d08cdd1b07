package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"pistol-arena/internal/console"
	"pistol-arena/internal/game"
)

// EngineAPI is the part of the engine the HTTP layer uses. Tests pass a fake.
type EngineAPI interface {
	Snapshot() *game.Snapshot
	Scoreboard(n int) []game.ScoreEntry
	EntityTypes() []string
	Commands() []console.ConCmd
	CommandStats() console.QueueStats
	EventLogStats() game.EventLogStats

	Join(req game.JoinRequest) (game.ClientInfo, error)
	Leave(id game.ClientID) error
	Client(id game.ClientID) (game.ClientInfo, bool)
	SetInput(id game.ClientID, in game.InputUpdate) error
	SubmitCommand(id game.ClientID, line string) error
}

// RouterConfig contains all dependencies needed to construct the HTTP router.
//
//	router := api.NewRouter(api.RouterConfig{Engine: fake})
//	ts := httptest.NewServer(router)
type RouterConfig struct {
	// Engine is required.
	Engine EngineAPI

	// Hub serves /ws when set.
	Hub *WebSocketHub

	// RateLimiter is used as is when set; otherwise one is built from
	// RateLimitConfig or DefaultRateLimitConfig.
	RateLimiter     *IPRateLimiter
	RateLimitConfig *RateLimitConfig

	// CORSOrigins defaults to localhost on any port.
	CORSOrigins []string

	// AdminToken lets callers join as admins with "Authorization: Bearer <token>".
	// Empty disables admin joins.
	AdminToken string

	// DisableLogging drops the request logger (useful for benchmarks).
	DisableLogging bool
}

type routerHandlers struct {
	engine EngineAPI
	auth   AdminAuth
}

// NewRouter constructs the HTTP router with all middleware and routes. It
// opens no listeners; the only goroutine is the rate limiter cleanup when
// no RateLimiter is passed.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	if !cfg.DisableLogging {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)
	r.Use(metricsMiddleware)

	// Rate limit before CORS to reject early
	rateLimiter := cfg.RateLimiter
	if rateLimiter == nil {
		rateLimitCfg := DefaultRateLimitConfig
		if cfg.RateLimitConfig != nil {
			rateLimitCfg = *cfg.RateLimitConfig
		}
		rateLimiter = NewIPRateLimiter(rateLimitCfg)
	}
	r.Use(rateLimiter.Middleware)

	corsOrigins := cfg.CORSOrigins
	if corsOrigins == nil {
		corsOrigins = DefaultAllowedOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	h := &routerHandlers{engine: cfg.Engine, auth: NewAdminAuth(cfg.AdminToken)}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/state", h.handleGetState)
		r.Get("/stats", h.handleGetStats)
		r.Get("/scoreboard", h.handleGetScoreboard)
		r.Get("/entities/types", h.handleGetEntityTypes)
		r.Get("/commands", h.handleGetCommands)

		r.Post("/clients", h.handleJoin)
		r.Route("/clients/{id}", func(r chi.Router) {
			r.Get("/", h.handleGetClient)
			r.Delete("/", h.handleLeave)
			r.Post("/input", h.handleInput)
		})

		r.Post("/console", h.handleConsole)
	})

	if cfg.Hub != nil {
		r.Get("/ws", cfg.Hub.HandleWebSocket)
	}

	return r
}
