package game

import (
	"fmt"
	"log"
	"slices"
	"strings"

	"github.com/google/uuid"

	"pistol-arena/internal/console"
)

// MyGame is the game mode: it turns clients into pawns and owns the admin
// console commands.
type MyGame struct {
	world    *World
	registry *Registry
}

// NewMyGame creates the game mode for w. Entity types for ent_create come
// from registry.
func NewMyGame(w *World, registry *Registry) *MyGame {
	if registry == nil {
		registry = DefaultRegistry()
	}
	return &MyGame{world: w, registry: registry}
}

func (g *MyGame) World() *World       { return g.world }
func (g *MyGame) Registry() *Registry { return g.registry }

// ClientJoined gives cl a fresh pawn at a random spawn point. A client that
// already has a pawn just respawns it.
func (g *MyGame) ClientJoined(cl *Client) *Pawn {
	pawn := cl.Pawn
	if pawn == nil || !pawn.IsValid() {
		pawn = NewPawn(g.world)
		pawn.SetClient(cl)
		cl.Pawn = pawn
	}

	pawn.Respawn()
	pawn.DressFromClient(cl)

	if sp := g.randomSpawnPoint(); sp != nil {
		tx := sp.Transform()
		pawn.SetPosition(tx.Position.Add(VectorUp.Mul(SpawnLiftUnits)))
		pawn.SetEyeRotation(tx.Rotation.YawOnly())
	}

	log.Printf("👋 %s joined as %s", cl.Name(), pawn.ID())
	return pawn
}

// randomSpawnPoint shuffles spawn points by random UUID keys and takes the
// first, which picks each one with equal probability.
func (g *MyGame) randomSpawnPoint() *SpawnPoint {
	points := EntitiesOf[*SpawnPoint](g.world)
	if len(points) == 0 {
		return nil
	}
	type keyed struct {
		key string
		sp  *SpawnPoint
	}
	shuffled := make([]keyed, len(points))
	for i, sp := range points {
		shuffled[i] = keyed{key: uuid.NewString(), sp: sp}
	}
	slices.SortFunc(shuffled, func(a, b keyed) int { return strings.Compare(a.key, b.key) })
	return shuffled[0].sp
}

// ClientLeft removes the client's pawn and its weapon.
func (g *MyGame) ClientLeft(cl *Client) {
	if cl.Pawn != nil {
		cl.Pawn.Delete()
		cl.Pawn = nil
	}
	log.Printf("👋 %s left", cl.Name())
}

// RespawnDead brings back a dead pawn for its client.
func (g *MyGame) RespawnDead(cl *Client) bool {
	if cl.Pawn == nil || cl.Pawn.IsAlive() {
		return false
	}
	g.ClientJoined(cl)
	return true
}

// RegisterCommands installs the game mode's console commands.
func (g *MyGame) RegisterCommands(r *console.Registry) error {
	return r.Register(console.ConCmd{
		Name:  "ent_create",
		Help:  "ent_create <type>: spawn an entity where you are looking",
		Admin: true,
		Run:   g.entCreateCommand,
	})
}

func (g *MyGame) entCreateCommand(caller console.Caller, args []string) {
	cl, ok := caller.(*Client)
	if !ok || len(args) == 0 {
		log.Printf("⚠️ ent_create: needs a player caller and a type name")
		return
	}
	if _, err := g.EntCreate(cl, args[0]); err != nil {
		log.Printf("⚠️ ent_create %s: %v", args[0], err)
	}
}

// EntCreate spawns the named entity type where cl's pawn is aiming, up to
// EntCreateRange away, facing the pawn's yaw.
func (g *MyGame) EntCreate(cl *Client, name string) (Entity, error) {
	owner := cl.Pawn
	if owner == nil || !owner.IsValid() {
		return nil, ErrNoPawn
	}
	canon, factory, err := g.registry.Resolve(name)
	if err != nil {
		return nil, err
	}
	if g.world.Full() {
		return nil, ErrEntityLimit
	}

	aim := owner.AimRay()
	tr := g.world.RayAlong(aim, EntCreateRange).
		UseHitboxes().
		Ignore(owner).
		Size(EntCreateTraceSize).
		Run()

	ent := factory(g.world)
	if ent == nil {
		return nil, fmt.Errorf("factory for %s returned nothing", canon)
	}
	ent.SetPosition(tr.EndPosition)
	ent.SetRotation(Angles{Yaw: owner.EyeRotation().Yaw})

	g.world.Call(ToEveryone(), Message{
		Kind:     MsgEntitySpawned,
		Entity:   ent.ID(),
		Asset:    canon,
		Position: vecPtr(tr.EndPosition),
	})
	g.world.observer.OnEntitySpawned(ent, cl)
	log.Printf("🧱 %s created %s at (%.0f, %.0f, %.0f)", cl.Name(), canon,
		tr.EndPosition.X, tr.EndPosition.Y, tr.EndPosition.Z)
	return ent, nil
}
