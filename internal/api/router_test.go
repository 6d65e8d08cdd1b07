package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"pistol-arena/internal/api"
	"pistol-arena/internal/console"
	"pistol-arena/internal/game"
)

// MockEngine implements api.EngineAPI for testing
type MockEngine struct {
	mu       sync.Mutex
	clients  map[game.ClientID]game.ClientInfo
	inputs   map[game.ClientID]game.InputUpdate
	lines    []string
	max      int
	queueErr error
}

func NewMockEngine() *MockEngine {
	return &MockEngine{
		clients: make(map[game.ClientID]game.ClientInfo),
		inputs:  make(map[game.ClientID]game.InputUpdate),
		max:     100,
	}
}

func (m *MockEngine) Snapshot() *game.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := &game.Snapshot{Tick: 42, Clients: len(m.clients)}
	for _, c := range m.clients {
		s.Pawns = append(s.Pawns, game.PawnState{ID: c.PawnID, ClientID: c.ID, Name: c.Name, Alive: true})
	}
	return s
}

func (m *MockEngine) Scoreboard(n int) []game.ScoreEntry {
	out := make([]game.ScoreEntry, 0, n)
	for i := range min(n, 3) {
		out = append(out, game.ScoreEntry{ClientID: game.ClientID(fmt.Sprint("c", i)), Rank: i + 1})
	}
	return out
}

func (m *MockEngine) EntityTypes() []string {
	return []string{"info_player_start", "prop_physics", "weapon_pistol"}
}

func (m *MockEngine) Commands() []console.ConCmd {
	return []console.ConCmd{{Name: "ent_create", Help: "spawn an entity", Admin: true}}
}

func (m *MockEngine) CommandStats() console.QueueStats { return console.QueueStats{Processed: 3} }

func (m *MockEngine) EventLogStats() game.EventLogStats { return game.EventLogStats{Total: 9} }

func (m *MockEngine) Join(req game.JoinRequest) (game.ClientInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if strings.TrimSpace(req.Name) == "" {
		return game.ClientInfo{}, fmt.Errorf("name required")
	}
	if len(m.clients) >= m.max {
		return game.ClientInfo{}, game.ErrClientLimit
	}
	id := game.ClientID(fmt.Sprint("client-", len(m.clients)+1))
	info := game.ClientInfo{ID: id, Name: req.Name, Admin: req.Admin, PawnID: game.EntityID("pawn-" + string(id))}
	m.clients[id] = info
	return info, nil
}

func (m *MockEngine) Leave(id game.ClientID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.clients[id]; !ok {
		return game.ErrUnknownClient
	}
	delete(m.clients, id)
	return nil
}

func (m *MockEngine) Client(id game.ClientID) (game.ClientInfo, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.clients[id]
	return c, ok
}

func (m *MockEngine) SetInput(id game.ClientID, in game.InputUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.clients[id]; !ok {
		return game.ErrUnknownClient
	}
	m.inputs[id] = in
	return nil
}

func (m *MockEngine) SubmitCommand(id game.ClientID, line string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.clients[id]; !ok {
		return game.ErrUnknownClient
	}
	if m.queueErr != nil {
		return m.queueErr
	}
	name, _ := console.Parse(line)
	switch name {
	case "":
		return console.ErrEmptyCommand
	case "ent_create":
	default:
		return console.ErrUnknownCommand
	}
	m.lines = append(m.lines, line)
	return nil
}

func (m *MockEngine) failQueue(err error) {
	m.mu.Lock()
	m.queueErr = err
	m.mu.Unlock()
}

func (m *MockEngine) queued() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.lines...)
}

func (m *MockEngine) input(id game.ClientID) (game.InputUpdate, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	in, ok := m.inputs[id]
	return in, ok
}

func newTestServer(t *testing.T, engine api.EngineAPI, token string) *httptest.Server {
	t.Helper()
	rl := api.NewIPRateLimiter(api.RateLimitConfig{RequestsPerSecond: 1000, Burst: 1000, CleanupInterval: time.Hour})
	t.Cleanup(rl.Stop)
	ts := httptest.NewServer(api.NewRouter(api.RouterConfig{
		Engine:         engine,
		RateLimiter:    rl,
		AdminToken:     token,
		DisableLogging: true,
	}))
	t.Cleanup(ts.Close)
	return ts
}

func do(t *testing.T, method, url, body string, header http.Header) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header[k] = v
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	var result map[string]any
	var buf bytes.Buffer
	buf.ReadFrom(resp.Body)
	if buf.Len() > 0 && buf.Bytes()[0] == '{' {
		json.Unmarshal(buf.Bytes(), &result)
	}
	return resp, result
}

// TestNewRouterHasNoListeners verifies the router can be built and used
// without opening a network listener
func TestNewRouterHasNoListeners(t *testing.T) {
	router := api.NewRouter(api.RouterConfig{
		Engine: NewMockEngine(),
		RateLimitConfig: &api.RateLimitConfig{
			RequestsPerSecond: 1000,
			Burst:             1000,
			CleanupInterval:   time.Hour,
		},
		DisableLogging: true,
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", rec.Code)
	}
}

// TestAPIGetState tests the snapshot endpoint
func TestAPIGetState(t *testing.T) {
	engine := NewMockEngine()
	engine.Join(game.JoinRequest{Name: "Player1"})
	engine.Join(game.JoinRequest{Name: "Player2"})
	ts := newTestServer(t, engine, "")

	resp, result := do(t, http.MethodGet, ts.URL+"/api/state", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	if resp.Header.Get("Content-Type") != "application/json" {
		t.Errorf("Content-Type = %q", resp.Header.Get("Content-Type"))
	}
	pawns, ok := result["pawns"].([]any)
	if !ok || len(pawns) != 2 {
		t.Errorf("pawns = %v", result["pawns"])
	}
	if result["tick"] != float64(42) {
		t.Errorf("tick = %v", result["tick"])
	}
}

// TestAPIGetStats tests the aggregated stats endpoint
func TestAPIGetStats(t *testing.T) {
	engine := NewMockEngine()
	engine.Join(game.JoinRequest{Name: "Player1"})
	ts := newTestServer(t, engine, "")

	_, result := do(t, http.MethodGet, ts.URL+"/api/stats", "", nil)
	if result["alive"] != float64(1) || result["clients"] != float64(1) {
		t.Errorf("stats = %v", result)
	}
	if c, _ := result["console"].(map[string]any); c["processed"] != float64(3) {
		t.Errorf("console stats = %v", result["console"])
	}
	if el, _ := result["eventLog"].(map[string]any); el["total"] != float64(9) {
		t.Errorf("event log stats = %v", result["eventLog"])
	}
}

// TestAPIScoreboardLimit tests the limit query parameter
func TestAPIScoreboardLimit(t *testing.T) {
	ts := newTestServer(t, NewMockEngine(), "")

	tests := []struct {
		query      string
		wantStatus int
		wantLen    int
	}{
		{"", http.StatusOK, 3},
		{"?limit=2", http.StatusOK, 2},
		{"?limit=0", http.StatusBadRequest, 0},
		{"?limit=abc", http.StatusBadRequest, 0},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			resp, err := http.Get(ts.URL + "/api/scoreboard" + tt.query)
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("Expected %d, got %d", tt.wantStatus, resp.StatusCode)
			}
			if tt.wantStatus != http.StatusOK {
				return
			}
			var rows []game.ScoreEntry
			json.NewDecoder(resp.Body).Decode(&rows)
			if len(rows) != tt.wantLen {
				t.Errorf("rows = %d, want %d", len(rows), tt.wantLen)
			}
		})
	}
}

// TestAPICatalog tests the entity type and command listings
func TestAPICatalog(t *testing.T) {
	ts := newTestServer(t, NewMockEngine(), "")

	resp, err := http.Get(ts.URL + "/api/entities/types")
	if err != nil {
		t.Fatal(err)
	}
	var types []string
	json.NewDecoder(resp.Body).Decode(&types)
	resp.Body.Close()
	if len(types) != 3 || types[1] != "prop_physics" {
		t.Errorf("types = %v", types)
	}

	resp, err = http.Get(ts.URL + "/api/commands")
	if err != nil {
		t.Fatal(err)
	}
	var cmds []map[string]any
	json.NewDecoder(resp.Body).Decode(&cmds)
	resp.Body.Close()
	if len(cmds) != 1 || cmds[0]["name"] != "ent_create" || cmds[0]["admin"] != true {
		t.Errorf("commands = %v", cmds)
	}
}

// TestAPIJoin tests joining, admin auth and the client limit
func TestAPIJoin(t *testing.T) {
	engine := NewMockEngine()
	engine.max = 2
	ts := newTestServer(t, engine, "s3cret")
	bearer := func(tok string) http.Header { return http.Header{"Authorization": {"Bearer " + tok}} }

	tests := []struct {
		name       string
		body       string
		header     http.Header
		wantStatus int
	}{
		{"player", `{"name": "Player1", "clothing": ["cap"]}`, nil, http.StatusCreated},
		{"admin without token", `{"name": "Admin", "admin": true}`, nil, http.StatusForbidden},
		{"admin wrong token", `{"name": "Admin", "admin": true}`, bearer("nope"), http.StatusForbidden},
		{"admin", `{"name": "Admin", "admin": true}`, bearer("s3cret"), http.StatusCreated},
		{"full", `{"name": "Late"}`, nil, http.StatusServiceUnavailable},
		{"empty name", `{"name": ""}`, nil, http.StatusBadRequest},
		{"invalid json", `{invalid}`, nil, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, result := do(t, http.MethodPost, ts.URL+"/api/clients", tt.body, tt.header)
			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("Expected %d, got %d (%v)", tt.wantStatus, resp.StatusCode, result)
			}
			if tt.wantStatus == http.StatusCreated && result["id"] == nil {
				t.Errorf("no client id in %v", result)
			}
		})
	}
}

// TestAPIClientLifecycle tests get, input and leave for one client
func TestAPIClientLifecycle(t *testing.T) {
	engine := NewMockEngine()
	ts := newTestServer(t, engine, "")

	_, joined := do(t, http.MethodPost, ts.URL+"/api/clients", `{"name": "Runner"}`, nil)
	id, _ := joined["id"].(string)
	base := ts.URL + "/api/clients/" + id

	resp, got := do(t, http.MethodGet, base, "", nil)
	if resp.StatusCode != http.StatusOK || got["name"] != "Runner" || got["pawnId"] != "pawn-"+id {
		t.Fatalf("get = %d %v", resp.StatusCode, got)
	}

	body := `{"buttons": ["attack1"], "viewAngles": {"pitch": 10, "yaw": 90}, "latencyMs": 80}`
	if resp, _ := do(t, http.MethodPost, base+"/input", body, nil); resp.StatusCode != http.StatusNoContent {
		t.Fatalf("input status = %d", resp.StatusCode)
	}
	in, ok := engine.input(game.ClientID(id))
	if !ok || len(in.Buttons) != 1 || in.Buttons[0] != game.InputAttack1 {
		t.Errorf("input = %+v", in)
	}
	if in.ViewAngles.Yaw != 90 || in.Latency != 80*time.Millisecond {
		t.Errorf("input = %+v", in)
	}

	if resp, _ := do(t, http.MethodDelete, base, "", nil); resp.StatusCode != http.StatusNoContent {
		t.Fatalf("leave status = %d", resp.StatusCode)
	}
	if resp, _ := do(t, http.MethodGet, base, "", nil); resp.StatusCode != http.StatusNotFound {
		t.Errorf("get after leave = %d", resp.StatusCode)
	}
	if resp, _ := do(t, http.MethodDelete, base, "", nil); resp.StatusCode != http.StatusNotFound {
		t.Errorf("second leave = %d", resp.StatusCode)
	}
	if resp, _ := do(t, http.MethodPost, base+"/input", `{}`, nil); resp.StatusCode != http.StatusNotFound {
		t.Errorf("input after leave = %d", resp.StatusCode)
	}
}

// TestAPIConsole tests console submission and error mapping
func TestAPIConsole(t *testing.T) {
	engine := NewMockEngine()
	ts := newTestServer(t, engine, "")
	info, _ := engine.Join(game.JoinRequest{Name: "admin", Admin: true})
	line := func(id game.ClientID, l string) string {
		return fmt.Sprintf(`{"client": %q, "line": %q}`, id, l)
	}

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"queued", line(info.ID, "ent_create prop_physics"), http.StatusAccepted},
		{"unknown client", line("ghost", "ent_create prop_physics"), http.StatusNotFound},
		{"unknown command", line(info.ID, "noclip"), http.StatusBadRequest},
		{"empty", line(info.ID, "   "), http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, result := do(t, http.MethodPost, ts.URL+"/api/console", tt.body, nil)
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("Expected %d, got %d (%v)", tt.wantStatus, resp.StatusCode, result)
			}
		})
	}

	engine.failQueue(game.ErrCommandQueueFull)
	if resp, _ := do(t, http.MethodPost, ts.URL+"/api/console", line(info.ID, "ent_create prop_physics"), nil); resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("full queue = %d", resp.StatusCode)
	}
	if lines := engine.queued(); len(lines) != 1 {
		t.Errorf("lines = %v", lines)
	}
}

// TestRateLimiting tests that requests over the burst are rejected
func TestRateLimiting(t *testing.T) {
	rl := api.NewIPRateLimiter(api.RateLimitConfig{RequestsPerSecond: 1, Burst: 3, CleanupInterval: time.Hour})
	defer rl.Stop()
	ts := httptest.NewServer(api.NewRouter(api.RouterConfig{Engine: NewMockEngine(), RateLimiter: rl, DisableLogging: true}))
	defer ts.Close()

	codes := make([]int, 0, 5)
	for range 5 {
		resp, err := http.Get(ts.URL + "/health")
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		codes = append(codes, resp.StatusCode)
	}
	if codes[0] != http.StatusOK || codes[4] != http.StatusTooManyRequests {
		t.Errorf("codes = %v", codes)
	}
	if s := rl.Stats(); s.Allowed != 3 || s.Rejected != 2 || s.Tracked != 1 {
		t.Errorf("stats = %+v", s)
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name   string
		header http.Header
		remote string
		want   string
	}{
		{"remote addr", nil, "10.0.0.1:1234", "10.0.0.1"},
		{"forwarded chain", http.Header{"X-Forwarded-For": {"1.2.3.4, 10.0.0.1"}}, "10.0.0.1:1", "1.2.3.4"},
		{"real ip", http.Header{"X-Real-Ip": {" 5.6.7.8 "}}, "10.0.0.1:1", "5.6.7.8"},
		{"no port", nil, "pipe", "pipe"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.Header = tt.header
			if r.Header == nil {
				r.Header = http.Header{}
			}
			r.RemoteAddr = tt.remote
			if got := api.GetClientIP(r); got != tt.want {
				t.Errorf("GetClientIP = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsAllowedOrigin(t *testing.T) {
	extra := []string{"https://arena.example"}
	tests := map[string]bool{
		"":                         false,
		"http://localhost":         true,
		"http://localhost:5173":    true,
		"http://127.0.0.1:8080":    true,
		"http://localhost.evil.io": false,
		"https://arena.example":    true,
		"https://other.example":    false,
	}
	for origin, want := range tests {
		if got := api.IsAllowedOrigin(origin, extra); got != want {
			t.Errorf("IsAllowedOrigin(%q) = %v, want %v", origin, got, want)
		}
	}
}

func TestWebSocketRateLimiter(t *testing.T) {
	l := api.NewWebSocketRateLimiter(2)
	if !l.Allow("a") || !l.Allow("a") {
		t.Fatal("first two connections should be allowed")
	}
	if l.Allow("a") {
		t.Error("third connection allowed")
	}
	if !l.Allow("b") {
		t.Error("limit should be per IP")
	}
	l.Release("a")
	if l.ConnectionCount("a") != 1 || !l.Allow("a") {
		t.Error("release should free a slot")
	}
	if l.Rejected() != 1 {
		t.Errorf("rejected = %d", l.Rejected())
	}
}
