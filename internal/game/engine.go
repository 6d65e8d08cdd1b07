package game

import (
	"context"
	"fmt"
	"log"
	"math"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang/geo/r3"

	"pistol-arena/internal/console"
)

// EngineConfig configures an Engine.
type EngineConfig struct {
	TickRate         int
	WorldSize        float64
	Seed             int64
	MaxClients       int
	MaxEntities      int
	OutboxSize       int
	CommandQueueSize int
	SpawnPoints      int
	RespawnDelay     time.Duration
	ConsoleRate      console.RateLimitConfig
}

// DefaultEngineConfig returns the server defaults.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		TickRate:         60,
		WorldSize:        4096,
		Seed:             1,
		MaxClients:       64,
		MaxEntities:      4096,
		OutboxSize:       1024,
		CommandQueueSize: 256,
		SpawnPoints:      8,
		RespawnDelay:     3 * time.Second,
		ConsoleRate:      console.DefaultRateLimitConfig,
	}
}

// Hooks are optional callbacks for metrics. They run on the simulation
// goroutine and must not block.
type Hooks struct {
	OnTick    func(d time.Duration, s *Snapshot)
	OnAttack  func(weaponClass string)
	OnDamage  func(victimClass string, amount float64)
	OnKill    func()
	OnCommand func(name string, err error)
}

// JoinRequest describes a connecting client.
type JoinRequest struct {
	Name     string
	Admin    bool
	Clothing []string
}

// ClientInfo is the public view of a client.
type ClientInfo struct {
	ID     ClientID `json:"id"`
	Name   string   `json:"name"`
	Admin  bool     `json:"admin"`
	PawnID EntityID `json:"pawnId"`
}

// InputUpdate replaces a client's input.
type InputUpdate struct {
	Buttons    []Button      `json:"buttons"`
	ViewAngles Angles        `json:"viewAngles"`
	Latency    time.Duration `json:"latency"`
}

// Engine runs the authoritative simulation on its own goroutine at a fixed
// tick rate. Everything that touches the world goes through the engine
// mutex; readers use Snapshot.
type Engine struct {
	mu  sync.Mutex
	cfg EngineConfig

	world    *World
	game     *MyGame
	registry *Registry
	console  *console.Registry
	commands *console.Queue

	clients     map[ClientID]*Client
	clientOrder []ClientID

	scoreboard *Scoreboard
	eventLog   *EventLog
	hooks      Hooks

	snapshot atomic.Pointer[Snapshot]

	running  atomic.Bool
	stopChan chan struct{}
	done     chan struct{}
}

// NewEngine builds a world with a ring of spawn points and the default
// entity types.
func NewEngine(cfg EngineConfig) *Engine {
	def := DefaultEngineConfig()
	if cfg.TickRate <= 0 {
		cfg.TickRate = def.TickRate
	}
	if cfg.MaxClients <= 0 {
		cfg.MaxClients = def.MaxClients
	}
	if cfg.CommandQueueSize <= 0 {
		cfg.CommandQueueSize = def.CommandQueueSize
	}
	if cfg.RespawnDelay < 0 {
		cfg.RespawnDelay = 0
	}

	world := NewWorld(WorldConfig{
		Realm:       RealmServer,
		TickRate:    cfg.TickRate,
		Size:        cfg.WorldSize,
		Seed:        cfg.Seed,
		OutboxSize:  cfg.OutboxSize,
		MaxEntities: cfg.MaxEntities,
	})
	registry := DefaultRegistry()

	e := &Engine{
		cfg:        cfg,
		world:      world,
		registry:   registry,
		game:       NewMyGame(world, registry),
		console:    console.NewRegistry(console.NewRateLimiter(cfg.ConsoleRate)),
		commands:   console.NewQueue(cfg.CommandQueueSize),
		clients:    make(map[ClientID]*Client),
		scoreboard: NewScoreboard(),
		eventLog:   NewEventLog(),
	}
	world.SetObserver(engineObserver{e})
	if err := e.game.RegisterCommands(e.console); err != nil {
		log.Printf("⚠️ console: %v", err)
	}
	e.placeSpawnPoints(cfg.SpawnPoints)
	e.snapshot.Store(world.TakeSnapshot(0))
	return e
}

// placeSpawnPoints rings n spawn points around the centre, facing inward.
func (e *Engine) placeSpawnPoints(n int) {
	radius := e.world.Config().Size / 4
	for i := 0; i < n; i++ {
		a := 2 * math.Pi * float64(i) / float64(n)
		sp := NewSpawnPoint(e.world)
		pos := r3.Vector{X: radius * math.Cos(a), Y: radius * math.Sin(a)}
		sp.SetPosition(pos)
		sp.SetRotation(AnglesFromDirection(pos.Mul(-1)).YawOnly())
	}
}

// SetHooks installs metrics callbacks. Call before Start.
func (e *Engine) SetHooks(h Hooks) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.hooks = h
	e.console.OnDispatch = h.OnCommand
}

// StartEventLog starts writing events to path.
func (e *Engine) StartEventLog(path string) error { return e.eventLog.Start(path) }

// StopEventLog flushes and closes the event log.
func (e *Engine) StopEventLog() { e.eventLog.Stop() }

func (e *Engine) EventLogStats() EventLogStats { return e.eventLog.Stats() }

// Start begins ticking on a new goroutine.
func (e *Engine) Start() {
	if e.running.Swap(true) {
		return
	}
	ticker := time.NewTicker(time.Second / time.Duration(e.cfg.TickRate))
	stop, done := make(chan struct{}), make(chan struct{})
	e.stopChan, e.done = stop, done

	go func() {
		defer close(done)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				e.Step()
			case <-stop:
				return
			}
		}
	}()

	log.Printf("🎮 Engine started at %d TPS", e.cfg.TickRate)
}

// Stop halts the tick loop and waits for the current tick to finish.
func (e *Engine) Stop() {
	if !e.running.Swap(false) {
		return
	}
	close(e.stopChan)
	<-e.done
	log.Println("🛑 Engine stopped")
}

// Run ticks until ctx is done.
func (e *Engine) Run(ctx context.Context) error {
	e.Start()
	<-ctx.Done()
	e.Stop()
	return nil
}

func (e *Engine) IsRunning() bool { return e.running.Load() }

// Step runs one tick: queued console commands, then every client's pawn,
// then bookkeeping and a fresh snapshot.
func (e *Engine) Step() {
	start := time.Now()

	e.mu.Lock()
	e.commands.Drain(e.runCommand)

	e.world.BeginTick()
	for _, id := range e.clientOrder {
		cl := e.clients[id]
		if cl.Pawn == nil || !cl.Pawn.IsValid() {
			continue
		}
		cl.Pawn.Simulate(cl)
	}
	e.respawnDead()
	e.world.EndTick()

	for _, id := range e.clientOrder {
		cl := e.clients[id]
		if cl.Pawn != nil {
			e.scoreboard.Update(id, cl.Name(), cl.Pawn.Score)
		}
	}
	snap := e.world.TakeSnapshot(len(e.clients))
	hooks := e.hooks
	tick := e.world.Tick()
	entities := e.world.Count()
	pawns := len(snap.Pawns)
	e.mu.Unlock()

	e.snapshot.Store(snap)

	elapsed := time.Since(start)
	e.eventLog.EmitSimple(EventTypeTick, tick, "", TickPayload{
		Seed:       e.cfg.Seed,
		Pawns:      pawns,
		Entities:   entities,
		DurationNs: elapsed.Nanoseconds(),
	})
	if hooks.OnTick != nil {
		hooks.OnTick(elapsed, snap)
	}
}

func (e *Engine) runCommand(cmd console.Command) {
	err := e.console.Dispatch(cmd.Caller, cmd.Line)
	payload := ConsolePayload{Line: cmd.Line}
	if err != nil {
		payload.Error = err.Error()
		log.Printf("⚠️ console %q: %v", cmd.Line, err)
	}
	source := ""
	if cmd.Caller != nil {
		source = cmd.Caller.CallerID()
	}
	e.eventLog.EmitSimple(EventTypeConsole, e.world.Tick(), source, payload)
}

func (e *Engine) respawnDead() {
	if e.cfg.RespawnDelay <= 0 {
		return
	}
	delay := e.cfg.RespawnDelay.Seconds()
	for _, id := range e.clientOrder {
		cl := e.clients[id]
		p := cl.Pawn
		if p == nil || p.IsAlive() || e.world.Now()-p.DiedAt() < delay {
			continue
		}
		e.game.RespawnDead(cl)
	}
}

// Join connects a client and spawns its pawn.
func (e *Engine) Join(req JoinRequest) (ClientInfo, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return ClientInfo{}, fmt.Errorf("client name is required")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.clients) >= e.cfg.MaxClients {
		return ClientInfo{}, ErrClientLimit
	}

	cl := NewClient(name, req.Admin)
	cl.Clothing = req.Clothing
	e.clients[cl.ID()] = cl
	e.clientOrder = append(e.clientOrder, cl.ID())

	pawn := e.game.ClientJoined(cl)
	pos := pawn.Position()
	e.eventLog.EmitSimple(EventTypeClientJoin, e.world.Tick(), string(cl.ID()), ClientPayload{
		ClientID: string(cl.ID()),
		Name:     name,
		PawnID:   string(pawn.ID()),
		X:        pos.X,
		Y:        pos.Y,
		Z:        pos.Z,
	})
	return clientInfo(cl), nil
}

// Leave disconnects a client and removes its pawn.
func (e *Engine) Leave(id ClientID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	cl, ok := e.clients[id]
	if !ok {
		return ErrUnknownClient
	}
	e.game.ClientLeft(cl)
	delete(e.clients, id)
	for i, cid := range e.clientOrder {
		if cid == id {
			e.clientOrder = append(e.clientOrder[:i], e.clientOrder[i+1:]...)
			break
		}
	}
	e.scoreboard.Remove(id)
	e.eventLog.EmitSimple(EventTypeClientLeave, e.world.Tick(), string(id), ClientPayload{
		ClientID: string(id),
		Name:     cl.Name(),
	})
	return nil
}

// Client returns the public view of a client.
func (e *Engine) Client(id ClientID) (ClientInfo, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	cl, ok := e.clients[id]
	if !ok {
		return ClientInfo{}, false
	}
	return clientInfo(cl), true
}

func clientInfo(cl *Client) ClientInfo {
	info := ClientInfo{ID: cl.ID(), Name: cl.Name(), Admin: cl.IsAdmin()}
	if cl.Pawn != nil {
		info.PawnID = cl.Pawn.ID()
	}
	return info
}

// SetInput replaces a client's held buttons, view angles and latency.
func (e *Engine) SetInput(id ClientID, in InputUpdate) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	cl, ok := e.clients[id]
	if !ok {
		return ErrUnknownClient
	}
	cl.Input.SetButtons(in.Buttons)
	cl.Input.ViewAngles = in.ViewAngles
	if in.Latency >= 0 {
		cl.Latency = in.Latency
	}
	return nil
}

// SubmitCommand queues a console line from a client. It runs at the start
// of the next tick; its outcome is logged, not returned.
func (e *Engine) SubmitCommand(id ClientID, line string) error {
	e.mu.Lock()
	cl, ok := e.clients[id]
	e.mu.Unlock()
	if !ok {
		return ErrUnknownClient
	}

	name, args := console.Parse(line)
	if name == "" {
		return console.ErrEmptyCommand
	}
	if _, ok := e.console.Lookup(name); !ok {
		return fmt.Errorf("%w: %s", console.ErrUnknownCommand, name)
	}
	if !e.commands.Enqueue(console.Command{Name: name, Args: args, Line: line, Caller: cl}) {
		return ErrCommandQueueFull
	}
	return nil
}

// Snapshot returns the state at the end of the last tick.
func (e *Engine) Snapshot() *Snapshot { return e.snapshot.Load() }

// Scoreboard returns the top n rows.
func (e *Engine) Scoreboard(n int) []ScoreEntry { return e.scoreboard.Top(n) }

// EntityTypes lists the names ent_create accepts.
func (e *Engine) EntityTypes() []string { return e.registry.Names() }

// Commands lists registered console commands.
func (e *Engine) Commands() []console.ConCmd { return e.console.Commands() }

// Messages is the stream of replicated calls for the transport.
func (e *Engine) Messages() <-chan Message { return e.world.Outbox().C() }

// CommandStats returns console queue counters.
func (e *Engine) CommandStats() console.QueueStats { return e.commands.Stats() }

// WithWorld runs fn with exclusive access to the world.
func (e *Engine) WithWorld(fn func(w *World, g *MyGame)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(e.world, e.game)
}

// engineObserver turns world notifications into events and hook calls.
type engineObserver struct {
	e *Engine
}

func (o engineObserver) OnDamage(victim Entity, info DamageInfo) {
	source := ""
	if p, ok := info.Attacker.(*Pawn); ok && p.Client() != nil {
		source = string(p.Client().ID())
	}
	payload := DamagePayload{
		AttackerID: string(info.AttackerID()),
		VictimID:   string(victim.ID()),
		VictimType: victim.ClassName(),
		Damage:     info.Damage,
		Kind:       info.Tag,
	}
	if info.Weapon != nil {
		payload.WeaponID = string(info.Weapon.ID())
	}
	o.e.eventLog.EmitSimple(EventTypeDamage, o.e.world.Tick(), source, payload)
	if o.e.hooks.OnDamage != nil {
		o.e.hooks.OnDamage(victim.ClassName(), info.Damage)
	}
}

func (o engineObserver) OnPawnKilled(victim *Pawn, info DamageInfo) {
	payload := KillPayload{
		KillerID:     string(info.AttackerID()),
		VictimID:     string(victim.ID()),
		VictimDeaths: victim.Score.Deaths,
	}
	if killer, ok := info.Attacker.(*Pawn); ok {
		payload.KillerKills = killer.Score.Kills
	}
	o.e.eventLog.EmitSimple(EventTypeKill, o.e.world.Tick(), "", payload)
	if o.e.hooks.OnKill != nil {
		o.e.hooks.OnKill()
	}
	log.Printf("💀 %s killed by %s", victim.ID(), info.AttackerID())
}

func (o engineObserver) OnPrimaryAttack(w *Weapon) {
	o.e.eventLog.EmitSimple(EventTypeAttack, o.e.world.Tick(), "", map[string]string{
		"weaponId": string(w.ID()),
		"class":    w.ClassName(),
	})
	if o.e.hooks.OnAttack != nil {
		o.e.hooks.OnAttack(w.ClassName())
	}
}

func (o engineObserver) OnShockwave(owner *Pawn, pawnHits, entityHits int) {
	o.e.eventLog.EmitSimple(EventTypeShockwave, o.e.world.Tick(), "", ShockwavePayload{
		OwnerID:    string(owner.ID()),
		PawnHits:   pawnHits,
		EntityHits: entityHits,
	})
}

func (o engineObserver) OnEntitySpawned(ent Entity, by *Client) {
	payload := EntityCreatePayload{EntityID: string(ent.ID()), ClassName: ent.ClassName()}
	if by != nil {
		payload.CreatorID = string(by.ID())
	}
	o.e.eventLog.EmitSimple(EventTypeEntityCreate, o.e.world.Tick(), "", payload)
}
