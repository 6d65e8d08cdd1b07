package game

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
)

func newTestWorld(t *testing.T, realm Realm) *World {
	t.Helper()
	return NewWorld(WorldConfig{Realm: realm, TickRate: 10, Size: 2048, Seed: 7})
}

// spawnPlayer creates a connected client whose pawn stands at pos holding a
// pistol and facing +X.
func spawnPlayer(w *World, name string, pos r3.Vector) (*Client, *Pawn) {
	cl := NewClient(name, false)
	p := NewPawn(w)
	p.SetClient(cl)
	cl.Pawn = p
	p.SetPosition(pos)
	p.Respawn()
	return cl, p
}

// advance runs empty ticks.
func advance(w *World, ticks int) {
	for range ticks {
		w.BeginTick()
		w.EndTick()
	}
}

// drainByKind empties the outbox and groups messages by kind.
func drainByKind(w *World) map[MessageKind][]Message {
	out := make(map[MessageKind][]Message)
	for _, m := range w.Outbox().Drain() {
		out[m.Kind] = append(out[m.Kind], m)
	}
	return out
}

func approxVec(a, b r3.Vector, eps float64) bool {
	return a.Sub(b).Norm() <= eps
}

func approx(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}

// recordingObserver counts damage per victim.
type recordingObserver struct {
	NopObserver
	damage  map[EntityID]int
	attacks int
	kills   int
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{damage: make(map[EntityID]int)}
}

func (r *recordingObserver) OnDamage(victim Entity, _ DamageInfo) { r.damage[victim.ID()]++ }
func (r *recordingObserver) OnPrimaryAttack(*Weapon)              { r.attacks++ }
func (r *recordingObserver) OnPawnKilled(*Pawn, DamageInfo)       { r.kills++ }
