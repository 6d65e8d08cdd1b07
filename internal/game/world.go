package game

import (
	"slices"

	"github.com/golang/geo/r3"

	"pistol-arena/internal/game/spatial"
)

// Realm says which side of the network a world simulates.
type Realm int

const (
	RealmServer Realm = iota
	RealmClient
)

func (r Realm) String() string {
	if r == RealmClient {
		return "client"
	}
	return "server"
}

// WorldConfig sizes a World.
type WorldConfig struct {
	Realm       Realm
	TickRate    int
	Size        float64 // edge length of the square play area, centred on the origin
	Seed        int64
	OutboxSize  int
	MaxEntities int
	CellSize    float64
}

// DefaultWorldConfig returns server defaults.
func DefaultWorldConfig() WorldConfig {
	return WorldConfig{
		Realm:       RealmServer,
		TickRate:    60,
		Size:        4096,
		Seed:        1,
		OutboxSize:  1024,
		MaxEntities: 4096,
		CellSize:    64,
	}
}

// Observer receives gameplay notifications from a World. Engines use it for
// event logs and metrics. Callbacks run on the simulation goroutine.
type Observer interface {
	OnDamage(victim Entity, info DamageInfo)
	OnPawnKilled(victim *Pawn, info DamageInfo)
	OnPrimaryAttack(w *Weapon)
	OnShockwave(owner *Pawn, pawnHits, entityHits int)
	OnEntitySpawned(e Entity, by *Client)
}

// NopObserver ignores everything. Embed it to implement part of Observer.
type NopObserver struct{}

func (NopObserver) OnDamage(Entity, DamageInfo)     {}
func (NopObserver) OnPawnKilled(*Pawn, DamageInfo)  {}
func (NopObserver) OnPrimaryAttack(*Weapon)         {}
func (NopObserver) OnShockwave(*Pawn, int, int)     {}
func (NopObserver) OnEntitySpawned(Entity, *Client) {}

// World owns every entity and the services they use: traces, sphere queries,
// replicated calls, lag compensation and the clock. It is not safe for
// concurrent use; the Engine serialises access.
type World struct {
	cfg      WorldConfig
	tick     uint64
	interval float64
	seed     int64

	entities map[EntityID]Entity
	order    []EntityID

	grid      *spatial.SpatialGrid
	slots     []Entity
	gridDirty bool

	outbox     *Outbox
	lag        *lagHistory
	lagDepth   int
	prediction bool
	observer   Observer
}

// NewWorld creates an empty world.
func NewWorld(cfg WorldConfig) *World {
	def := DefaultWorldConfig()
	if cfg.TickRate <= 0 {
		cfg.TickRate = def.TickRate
	}
	if cfg.Size <= 0 {
		cfg.Size = def.Size
	}
	if cfg.OutboxSize <= 0 {
		cfg.OutboxSize = def.OutboxSize
	}
	if cfg.MaxEntities <= 0 {
		cfg.MaxEntities = def.MaxEntities
	}
	if cfg.CellSize <= 0 {
		cfg.CellSize = def.CellSize
	}

	half := cfg.Size / 2
	return &World{
		cfg:        cfg,
		interval:   1.0 / float64(cfg.TickRate),
		seed:       cfg.Seed,
		entities:   make(map[EntityID]Entity),
		grid:       spatial.NewSpatialGrid(-half, -half, cfg.Size, cfg.Size, cfg.CellSize, cfg.MaxEntities),
		outbox:     NewOutbox(cfg.OutboxSize),
		lag:        newLagHistory(),
		prediction: cfg.Realm == RealmClient,
		observer:   NopObserver{},
	}
}

func (w *World) Realm() Realm        { return w.cfg.Realm }
func (w *World) IsServer() bool      { return w.cfg.Realm == RealmServer }
func (w *World) Tick() uint64        { return w.tick }
func (w *World) Interval() float64   { return w.interval }
func (w *World) Outbox() *Outbox     { return w.outbox }
func (w *World) Config() WorldConfig { return w.cfg }

// Now is simulated time in seconds.
func (w *World) Now() float64 { return float64(w.tick) * w.interval }

// SetObserver installs o. nil restores the no-op observer.
func (w *World) SetObserver(o Observer) {
	if o == nil {
		o = NopObserver{}
	}
	w.observer = o
}

// Bounds returns the horizontal play area corners. The floor is z=0.
func (w *World) Bounds() (r3.Vector, r3.Vector) {
	half := w.cfg.Size / 2
	return r3.Vector{X: -half, Y: -half}, r3.Vector{X: half, Y: half}
}

// Full reports whether the entity limit has been reached.
func (w *World) Full() bool { return len(w.entities) >= w.cfg.MaxEntities }

func (w *World) add(e Entity) {
	w.entities[e.ID()] = e
	w.order = append(w.order, e.ID())
	w.gridDirty = true
}

func (w *World) remove(id EntityID) {
	if _, ok := w.entities[id]; !ok {
		return
	}
	delete(w.entities, id)
	w.order = slices.DeleteFunc(w.order, func(x EntityID) bool { return x == id })
	w.lag.forget(id)
	w.gridDirty = true
}

func (w *World) markMoved() { w.gridDirty = true }

// Entity looks up id.
func (w *World) Entity(id EntityID) (Entity, bool) {
	e, ok := w.entities[id]
	return e, ok
}

// Entities lists live entities in creation order.
func (w *World) Entities() []Entity {
	out := make([]Entity, 0, len(w.order))
	for _, id := range w.order {
		out = append(out, w.entities[id])
	}
	return out
}

// Count is the number of live entities.
func (w *World) Count() int { return len(w.entities) }

// EntitiesOf lists live entities of concrete type T in creation order.
func EntitiesOf[T Entity](w *World) []T {
	var out []T
	for _, id := range w.order {
		if e, ok := w.entities[id].(T); ok {
			out = append(out, e)
		}
	}
	return out
}

// Pawns lists every pawn, alive or dead.
func (w *World) Pawns() []*Pawn { return EntitiesOf[*Pawn](w) }

// PawnsNear lists pawns strictly closer than radius to center.
func (w *World) PawnsNear(center r3.Vector, radius float64) []*Pawn {
	var out []*Pawn
	for _, p := range w.Pawns() {
		if p.Position().Distance(center) < radius {
			out = append(out, p)
		}
	}
	return out
}

// FindInSphere lists entities whose origin is strictly closer than radius to
// center, in creation order.
func (w *World) FindInSphere(center r3.Vector, radius float64) []Entity {
	w.rebuildGrid()

	candidates := w.grid.QueryRadius(center.X, center.Y, radius)
	slotsHit := make([]uint32, 0, len(candidates))
	for _, slot := range candidates {
		if w.slots[slot].Position().Distance(center) < radius {
			slotsHit = append(slotsHit, slot)
		}
	}
	slices.Sort(slotsHit)

	out := make([]Entity, 0, len(slotsHit))
	for _, slot := range slotsHit {
		out = append(out, w.slots[slot])
	}
	return out
}

func (w *World) rebuildGrid() {
	if !w.gridDirty {
		return
	}
	w.grid.Clear()
	w.slots = w.slots[:0]
	for _, id := range w.order {
		e := w.entities[id]
		p := e.Position()
		w.grid.Insert(uint32(len(w.slots)), p.X, p.Y)
		w.slots = append(w.slots, e)
	}
	w.gridDirty = false
}

// BeginTick advances the clock by one tick.
func (w *World) BeginTick() {
	w.tick++
}

// EndTick records pawn positions for lag compensation.
func (w *World) EndTick() {
	w.lag.record(w.tick, w.Pawns())
}

// SetTick moves the clock, used by client worlds following the server.
func (w *World) SetTick(t uint64) { w.tick = t }
