package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"pistol-arena/internal/console"
	"pistol-arena/internal/game"
)

const (
	defaultScoreboardLimit = 10
	maxScoreboardLimit     = 100
	maxBodyBytes           = 16 << 10
)

func (h *routerHandlers) handleGetState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.engine.Snapshot())
}

func (h *routerHandlers) handleGetStats(w http.ResponseWriter, r *http.Request) {
	snap := h.engine.Snapshot()
	alive := 0
	for _, p := range snap.Pawns {
		if p.Alive {
			alive++
		}
	}
	writeJSON(w, map[string]any{
		"tick":     snap.Tick,
		"clients":  snap.Clients,
		"pawns":    len(snap.Pawns),
		"alive":    alive,
		"entities": len(snap.Entities),
		"outbox":   snap.Outbox,
		"console":  h.engine.CommandStats(),
		"eventLog": h.engine.EventLogStats(),
	})
}

func (h *routerHandlers) handleGetScoreboard(w http.ResponseWriter, r *http.Request) {
	limit := defaultScoreboardLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			writeError(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = min(n, maxScoreboardLimit)
	}
	writeJSON(w, h.engine.Scoreboard(limit))
}

func (h *routerHandlers) handleGetEntityTypes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.engine.EntityTypes())
}

func (h *routerHandlers) handleGetCommands(w http.ResponseWriter, r *http.Request) {
	type command struct {
		Name  string `json:"name"`
		Help  string `json:"help"`
		Admin bool   `json:"admin"`
	}
	cmds := h.engine.Commands()
	out := make([]command, 0, len(cmds))
	for _, c := range cmds {
		out = append(out, command{Name: c.Name, Help: c.Help, Admin: c.Admin})
	}
	writeJSON(w, out)
}

func (h *routerHandlers) handleJoin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string   `json:"name"`
		Admin    bool     `json:"admin"`
		Clothing []string `json:"clothing"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Admin && !h.auth.Authorized(r) {
		RecordConnectionRejected("admin_auth")
		writeError(w, "admin token required", http.StatusForbidden)
		return
	}

	info, err := h.engine.Join(game.JoinRequest{Name: req.Name, Admin: req.Admin, Clothing: req.Clothing})
	switch {
	case errors.Is(err, game.ErrClientLimit):
		writeError(w, "client limit reached", http.StatusServiceUnavailable)
		return
	case err != nil:
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSONStatus(w, http.StatusCreated, info)
}

func (h *routerHandlers) handleGetClient(w http.ResponseWriter, r *http.Request) {
	info, ok := h.engine.Client(clientIDParam(r))
	if !ok {
		writeError(w, "unknown client", http.StatusNotFound)
		return
	}
	writeJSON(w, info)
}

func (h *routerHandlers) handleLeave(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.Leave(clientIDParam(r)); err != nil {
		writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// inputRequest is the wire form of game.InputUpdate. Latency is reported by
// the client in milliseconds; a negative value leaves it unchanged.
type inputRequest struct {
	Buttons    []game.Button `json:"buttons"`
	ViewAngles game.Angles   `json:"viewAngles"`
	LatencyMs  int           `json:"latencyMs"`
}

func (in inputRequest) update() game.InputUpdate {
	return game.InputUpdate{
		Buttons:    in.Buttons,
		ViewAngles: in.ViewAngles,
		Latency:    time.Duration(in.LatencyMs) * time.Millisecond,
	}
}

func (h *routerHandlers) handleInput(w http.ResponseWriter, r *http.Request) {
	var req inputRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.engine.SetInput(clientIDParam(r), req.update()); err != nil {
		writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *routerHandlers) handleConsole(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Client game.ClientID `json:"client"`
		Line   string        `json:"line"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.engine.SubmitCommand(req.Client, req.Line); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSONStatus(w, http.StatusAccepted, map[string]bool{"queued": true})
}

func clientIDParam(r *http.Request) game.ClientID {
	return game.ClientID(chi.URLParam(r, "id"))
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, "invalid request", http.StatusBadRequest)
		return false
	}
	return true
}

// writeEngineError maps engine errors to status codes.
func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, game.ErrUnknownClient):
		writeError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, console.ErrUnknownCommand), errors.Is(err, console.ErrEmptyCommand):
		writeError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, game.ErrCommandQueueFull):
		writeError(w, err.Error(), http.StatusServiceUnavailable)
	default:
		log.Printf("⚠️ api: %v", err)
		writeError(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, data any) {
	writeJSONStatus(w, http.StatusOK, data)
}

func writeJSONStatus(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, message string, code int) {
	writeJSONStatus(w, code, map[string]string{"error": message})
}
