package game

import (
	"iter"
	"log"
	"math/rand"

	"github.com/golang/geo/r3"
)

// WeaponKind is what varies between weapons. Embed BaseWeaponKind and
// override the hooks a weapon needs.
type WeaponKind interface {
	ClassName() string
	ModelPath() string
	ViewModelPath() string
	PrimaryRate() float64
	PrimaryAttack(w *Weapon)
	Animate(w *Weapon)
}

// BaseWeaponKind supplies defaults: no models, one attack per second and
// attacks that do nothing.
type BaseWeaponKind struct{}

func (BaseWeaponKind) ClassName() string     { return "weapon_base" }
func (BaseWeaponKind) ModelPath() string     { return "" }
func (BaseWeaponKind) ViewModelPath() string { return "" }
func (BaseWeaponKind) PrimaryRate() float64  { return DefaultPrimaryRate }
func (BaseWeaponKind) PrimaryAttack(*Weapon) {}
func (BaseWeaponKind) Animate(*Weapon)       {}

// Weapon is a carried entity. While equipped it follows its owner and its
// owner's client sees a view-model.
//
//	Holstered --Equip--> Equipped --Holster--> Holstered
type Weapon struct {
	baseEntity
	kind      WeaponKind
	owner     *Pawn
	model     string
	drawing   bool
	viewModel *ViewModel

	lastPrimaryAttack float64
}

// NewWeapon spawns an unowned, holstered weapon of the given kind.
func NewWeapon(w *World, kind WeaponKind) *Weapon {
	wep := &Weapon{
		baseEntity: newBaseEntity(w, kind.ClassName(), TagWeapon),
		kind:       kind,
		model:      kind.ModelPath(),
	}
	wep.surface = "metal"
	w.add(wep)
	return wep
}

func (w *Weapon) Kind() WeaponKind      { return w.kind }
func (w *Weapon) Owner() *Pawn          { return w.owner }
func (w *Weapon) Model() string         { return w.model }
func (w *Weapon) Drawing() bool         { return w.drawing }
func (w *Weapon) ViewModel() *ViewModel { return w.viewModel }

// Position follows the owner while carried.
func (w *Weapon) Position() r3.Vector {
	if w.owner != nil {
		return w.owner.Position()
	}
	return w.pos
}

// Equip makes pawn the owner and its active weapon, holstering whatever it
// held before. A weapon already held by another pawn must be dropped first.
func (w *Weapon) Equip(pawn *Pawn) error {
	if pawn == nil {
		return nil
	}
	if w.owner != nil && w.owner != pawn && w.owner.IsValid() {
		return ErrWeaponOwned
	}
	if prev := pawn.weapon; prev != nil && prev != w {
		prev.Holster()
	}
	w.owner = pawn
	pawn.weapon = w
	w.drawing = true
	if cl := pawn.Client(); cl != nil {
		w.CreateViewModel(ToSingle(cl))
	}
	return nil
}

// Holster hides the weapon and removes its view-model. Idempotent.
func (w *Weapon) Holster() {
	w.drawing = false
	if w.owner != nil && w.owner.Client() != nil {
		w.DestroyViewModel(ToSingle(w.owner.Client()))
		return
	}
	w.deleteViewModel()
}

// Drop holsters and releases the weapon where the owner stands.
func (w *Weapon) Drop() {
	w.Holster()
	if w.owner == nil {
		return
	}
	w.pos = w.owner.Position()
	if w.owner.weapon == w {
		w.owner.weapon = nil
	}
	w.owner = nil
	w.world.markMoved()
}

// Delete removes the weapon and its view-model.
func (w *Weapon) Delete() {
	w.deleteViewModel()
	w.baseEntity.Delete()
}

// CreateViewModel replicates the view-model to recipients and keeps a local
// mirror. Any previous view-model is replaced.
func (w *Weapon) CreateViewModel(to Recipients) {
	path := w.kind.ViewModelPath()
	if path == "" {
		return
	}
	w.deleteViewModel()
	w.viewModel = newViewModel(w.world, w, path)
	w.world.Call(to, Message{
		Kind:   MsgCreateViewModel,
		Entity: w.ID(),
		Asset:  path,
		Params: map[string]any{"viewModel": w.viewModel.ID()},
	})
}

// DestroyViewModel replicates the removal and deletes the local mirror.
func (w *Weapon) DestroyViewModel(to Recipients) {
	w.world.Call(to, Message{Kind: MsgDestroyViewModel, Entity: w.ID()})
	w.deleteViewModel()
}

func (w *Weapon) deleteViewModel() {
	if w.viewModel == nil {
		return
	}
	w.viewModel.Delete()
	w.viewModel = nil
}

// TimeSincePrimaryAttack is seconds of simulated time since the last attack.
func (w *Weapon) TimeSincePrimaryAttack() float64 {
	return w.world.Now() - w.lastPrimaryAttack
}

// Simulate runs once per tick for the owning client.
func (w *Weapon) Simulate(cl *Client) {
	w.kind.Animate(w)
	if !w.CanPrimaryAttack() {
		return
	}
	w.attackCompensated()
}

func (w *Weapon) attackCompensated() {
	lag := w.world.LagCompensation(w.owner)
	defer lag.End()

	w.lastPrimaryAttack = w.world.Now()
	w.kind.PrimaryAttack(w)
	w.world.observer.OnPrimaryAttack(w)
}

// CanPrimaryAttack reports whether the owner is holding attack1 and enough
// time has passed at the effective rate.
func (w *Weapon) CanPrimaryAttack() bool {
	if w.owner == nil || !w.owner.IsValid() {
		return false
	}
	cl := w.owner.Client()
	if cl == nil || !cl.Input.Down(InputAttack1) {
		return false
	}

	rate := EffectiveRate(w.kind.PrimaryRate(), w.owner.Score.Kills)
	if rate <= 0 {
		return true
	}
	return w.TimeSincePrimaryAttack() > 1/rate
}

// TraceBullet yields the first thing a bullet of the given radius hits
// between start and end. Water only stops bullets fired from outside it.
func (w *Weapon) TraceBullet(start, end r3.Vector, radius float64) iter.Seq[TraceResult] {
	return func(yield func(TraceResult) bool) {
		underWater := w.world.TestPoint(start, TagWater)

		tr := w.world.Ray(start, end).
			UseHitboxes().
			WithAnyTags(TagSolid, TagPlayer, TagNPC).
			Ignore(w).
			Size(radius)
		if w.owner != nil {
			tr = tr.Ignore(w.owner)
		}
		if !underWater {
			tr = tr.WithAnyTags(TagWater)
		}

		if res := tr.Run(); res.Hit {
			yield(res)
		}
	}
}

// ShootBullet fires one bullet from pos along dir, scattered by spread.
// Impacts are replicated everywhere; damage is applied only by the server.
func (w *Weapon) ShootBullet(rng *rand.Rand, pos, dir r3.Vector, spread, force, damage, bulletSize float64) {
	jitter := RandomUnitVector(rng).
		Add(RandomUnitVector(rng)).
		Add(RandomUnitVector(rng)).
		Add(RandomUnitVector(rng))
	forward := dir.Add(jitter.Mul(spread * 0.25)).Normalize()

	for tr := range w.TraceBullet(pos, pos.Add(forward.Mul(BulletRange)), bulletSize) {
		w.bulletImpact(tr)

		if !w.world.IsServer() || tr.Entity == nil || !tr.Entity.IsValid() {
			continue
		}
		target, ok := tr.Entity.(Damageable)
		if !ok {
			continue
		}
		w.applyBulletDamage(target, tr, forward, force, damage)
	}
}

func (w *Weapon) applyBulletDamage(target Damageable, tr TraceResult, forward r3.Vector, force, damage float64) {
	scope := w.world.PredictionOff()
	defer scope.End()

	info := DamageFromBullet(tr.EndPosition, forward.Mul(BulletForceScale*force), damage).
		UsingTraceResult(tr).
		WithWeapon(w)
	if w.owner != nil {
		info = info.WithAttacker(w.owner)
	}
	target.TakeDamage(info)
}

func (w *Weapon) bulletImpact(tr TraceResult) {
	surface := tr.Surface
	if surface == "" {
		surface = DefaultSurface
	}
	w.world.Call(ToEveryone(), Message{
		Kind:     MsgBulletImpact,
		Entity:   tr.Entity.ID(),
		Asset:    surface,
		Position: vecPtr(tr.EndPosition),
		Normal:   vecPtr(tr.Normal),
	})
}

// ShootBulletFromOwner fires along the owner's aim using this tick's
// generator, so both realms draw the same spread.
func (w *Weapon) ShootBulletFromOwner(spread, force, damage, bulletSize float64) {
	if w.owner == nil {
		log.Printf("⚠️ %s fired without an owner", w.ClassName())
		return
	}
	ray := w.owner.AimRay()
	w.ShootBullet(w.world.TickRand(), ray.Position, ray.Forward, spread, force, damage, bulletSize)
}
