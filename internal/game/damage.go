package game

import "github.com/golang/geo/r3"

// Damage tags.
const (
	DamageBullet  = "bullet"
	DamageGeneric = "generic"
)

// DamageInfo describes one application of damage. Build it with the
// constructors and chain the With* helpers.
type DamageInfo struct {
	Position r3.Vector
	Force    r3.Vector
	Damage   float64
	Tag      string
	Trace    *TraceResult
	Attacker Entity
	Weapon   *Weapon
}

// DamageFromBullet is bullet damage at pos pushing along force.
func DamageFromBullet(pos, force r3.Vector, damage float64) DamageInfo {
	return DamageInfo{Position: pos, Force: force, Damage: damage, Tag: DamageBullet}
}

// GenericDamage is a plain amount with no position or force.
func GenericDamage(damage float64) DamageInfo {
	return DamageInfo{Damage: damage, Tag: DamageGeneric}
}

func (d DamageInfo) UsingTraceResult(tr TraceResult) DamageInfo {
	d.Trace = &tr
	return d
}

func (d DamageInfo) WithAttacker(e Entity) DamageInfo {
	d.Attacker = e
	return d
}

func (d DamageInfo) WithWeapon(w *Weapon) DamageInfo {
	d.Weapon = w
	return d
}

// AttackerID is the attacker's id or "".
func (d DamageInfo) AttackerID() EntityID {
	if d.Attacker == nil {
		return ""
	}
	return d.Attacker.ID()
}
