package game

import (
	"log"
	"math"
	"slices"

	"github.com/golang/geo/r3"
)

// LifeState of a pawn.
type LifeState int

const (
	LifeAlive LifeState = iota
	LifeDead
)

func (s LifeState) String() string {
	if s == LifeDead {
		return "dead"
	}
	return "alive"
}

// Pawn is a client's avatar.
type Pawn struct {
	baseEntity
	client      *Client
	eyeRotation Angles
	velocity    r3.Vector
	health      float64
	life        LifeState
	weapon      *Weapon
	clothing    []string
	animParams  map[string]any
	lastDamage  DamageInfo
	diedAt      float64

	Score Score
}

// NewPawn spawns a pawn at the origin. Call Respawn before simulating it.
func NewPawn(w *World) *Pawn {
	p := &Pawn{
		baseEntity: newBaseEntity(w, "pawn", TagPlayer),
		health:     PawnMaxHealth,
		animParams: make(map[string]any),
	}
	p.surface = FleshSurface
	w.add(p)
	return p
}

func (p *Pawn) Client() *Client         { return p.client }
func (p *Pawn) SetClient(c *Client)     { p.client = c }
func (p *Pawn) EyeRotation() Angles     { return p.eyeRotation }
func (p *Pawn) Velocity() r3.Vector     { return p.velocity }
func (p *Pawn) SetVelocity(v r3.Vector) { p.velocity = v }
func (p *Pawn) Health() float64         { return p.health }
func (p *Pawn) LifeState() LifeState    { return p.life }
func (p *Pawn) IsAlive() bool           { return p.life == LifeAlive }
func (p *Pawn) ActiveWeapon() *Weapon   { return p.weapon }
func (p *Pawn) Clothing() []string      { return p.clothing }
func (p *Pawn) LastDamage() DamageInfo  { return p.lastDamage }
func (p *Pawn) DiedAt() float64         { return p.diedAt }

// SetEyeRotation points the pawn's view. The body follows the yaw.
func (p *Pawn) SetEyeRotation(a Angles) {
	p.eyeRotation = a
	p.rot = a.YawOnly()
}

// EyePosition is where the pawn sees from.
func (p *Pawn) EyePosition() r3.Vector {
	return p.pos.Add(VectorUp.Mul(PawnEyeHeight))
}

// AimRay is the ray from the eyes along the view.
func (p *Pawn) AimRay() Ray {
	return Ray{Position: p.EyePosition(), Forward: p.eyeRotation.Forward()}
}

func (p *Pawn) SetAnimParameter(name string, v any) { p.animParams[name] = v }

func (p *Pawn) AnimParameter(name string) (any, bool) {
	v, ok := p.animParams[name]
	return v, ok
}

// Hull is the pawn's bounding box.
func (p *Pawn) Hull() Hull {
	return BoxHull(p.pos,
		r3.Vector{X: -PawnHalfWidth, Y: -PawnHalfWidth},
		r3.Vector{X: PawnHalfWidth, Y: PawnHalfWidth, Z: PawnHeight})
}

// Hitbox is a sphere around the torso, tighter than the box.
func (p *Pawn) Hitbox() Hull {
	return SphereHull(p.pos.Add(VectorUp.Mul(PawnHeight/2)), PawnHitboxRadius)
}

// SetActiveWeapon holsters the current weapon and equips wep.
func (p *Pawn) SetActiveWeapon(wep *Weapon) error {
	if p.weapon == wep {
		return nil
	}
	if wep != nil && wep.Owner() != nil && wep.Owner() != p && wep.Owner().IsValid() {
		return ErrWeaponOwned
	}
	if p.weapon != nil {
		p.weapon.Holster()
	}
	p.weapon = nil
	if wep == nil {
		return nil
	}
	if err := wep.Equip(p); err != nil {
		return err
	}
	p.weapon = wep
	return nil
}

// Respawn brings the pawn back to full health with a fresh pistol.
func (p *Pawn) Respawn() {
	p.health = PawnMaxHealth
	p.life = LifeAlive
	p.velocity = r3.Vector{}
	p.lastDamage = DamageInfo{}

	if old := p.weapon; old != nil {
		p.weapon = nil
		old.Holster()
		old.Delete()
	}
	if err := p.SetActiveWeapon(NewPistol(p.world)); err != nil {
		log.Printf("⚠️ respawn %s: %v", p.ID(), err)
	}
}

// DressFromClient copies the client's cosmetic loadout.
func (p *Pawn) DressFromClient(c *Client) {
	if c == nil || len(c.Clothing) == 0 {
		p.clothing = []string{DefaultOutfitPreset}
		return
	}
	p.clothing = slices.Clone(c.Clothing)
}

// TakeDamage lowers health. Reaching zero kills the pawn; score credit is
// left to whoever dealt the damage.
func (p *Pawn) TakeDamage(info DamageInfo) {
	if !p.IsValid() {
		return
	}
	p.lastDamage = info
	p.health = math.Max(0, p.health-info.Damage)
	p.world.observer.OnDamage(p, info)

	if p.health == 0 && p.life == LifeAlive {
		p.onKilled(info)
	}
}

func (p *Pawn) onKilled(info DamageInfo) {
	p.life = LifeDead
	p.diedAt = p.world.Now()
	p.velocity = r3.Vector{}
	if p.weapon != nil {
		p.weapon.Holster()
	}
	p.world.Call(ToEveryone(), Message{
		Kind:   MsgPawnKilled,
		Entity: p.ID(),
		Params: map[string]any{"attacker": info.AttackerID()},
	})
	p.world.observer.OnPawnKilled(p, info)
}

// Simulate applies the client's view, moves the pawn and runs its weapon.
func (p *Pawn) Simulate(cl *Client) {
	if !p.IsValid() || !p.IsAlive() {
		return
	}
	if cl != nil {
		p.SetEyeRotation(cl.Input.ViewAngles)
	}
	p.move(p.world.Interval())
	if p.weapon != nil && p.weapon.IsValid() {
		p.weapon.Simulate(cl)
	}
}

// move integrates velocity with ground friction and keeps the pawn inside
// the play area.
func (p *Pawn) move(dt float64) {
	if p.velocity.Norm2() == 0 {
		return
	}
	next := p.pos.Add(p.velocity.Mul(dt))

	lo, hi := p.world.Bounds()
	next.X = math.Max(lo.X, math.Min(hi.X, next.X))
	next.Y = math.Max(lo.Y, math.Min(hi.Y, next.Y))
	next.Z = math.Max(0, next.Z)
	p.SetPosition(next)

	p.velocity = p.velocity.Mul(math.Max(0, 1-PawnFriction*dt))
	if p.velocity.Norm() < PawnStopSpeed {
		p.velocity = r3.Vector{}
	}
}

// Delete removes the pawn and the weapon it carries.
func (p *Pawn) Delete() {
	if p.weapon != nil {
		p.weapon.Delete()
		p.weapon = nil
	}
	p.baseEntity.Delete()
}
