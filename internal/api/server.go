package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"pistol-arena/internal/game"
)

// ServerConfig configures NewServer.
type ServerConfig struct {
	AdminToken      string
	CORSOrigins     []string
	RateLimit       RateLimitConfig
	StateInterval   time.Duration
	ShutdownTimeout time.Duration
}

// Server is the HTTP API server with WebSocket support.
type Server struct {
	engine      *game.Engine
	router      *chi.Mux
	wsHub       *WebSocketHub
	rateLimiter *IPRateLimiter
	shutdown    time.Duration
}

// NewServer wires the router and hub for engine.
//
// The hub does not run until Run is called, so tests can construct the
// server and use Router() without any goroutines besides the rate limiter
// cleanup.
func NewServer(engine *game.Engine, cfg ServerConfig) *Server {
	if cfg.RateLimit.RequestsPerSecond == 0 {
		cfg.RateLimit = DefaultRateLimitConfig
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 5 * time.Second
	}

	s := &Server{
		engine:      engine,
		rateLimiter: NewIPRateLimiter(cfg.RateLimit),
		shutdown:    cfg.ShutdownTimeout,
	}
	s.wsHub = NewWebSocketHub(WebSocketHubConfig{
		Engine:        engine,
		Messages:      engine.Messages(),
		StateInterval: cfg.StateInterval,
		Origins:       cfg.CORSOrigins,
	})
	s.router = NewRouter(RouterConfig{
		Engine:      engine,
		Hub:         s.wsHub,
		RateLimiter: s.rateLimiter,
		CORSOrigins: cfg.CORSOrigins,
		AdminToken:  cfg.AdminToken,
	})
	return s
}

// Router returns the HTTP handler for use with httptest.
func (s *Server) Router() http.Handler {
	return s.router
}

// Hub returns the WebSocket hub.
func (s *Server) Hub() *WebSocketHub {
	return s.wsHub
}

// Run serves addr and the hub until ctx is done, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.wsHub.Run(ctx)
		return nil
	})
	g.Go(func() error {
		log.Printf("🌐 API server starting on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdown)
		defer cancel()
		log.Println("🌐 API server shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	err := g.Wait()
	s.Stop()
	return err
}

// Stop releases background workers.
func (s *Server) Stop() {
	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}
}
