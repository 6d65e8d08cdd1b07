package game

import "github.com/golang/geo/r3"

// Prop is a breakable physics object.
type Prop struct {
	baseEntity
	model  string
	radius float64
	health float64
}

// NewProp spawns a crate at the origin.
func NewProp(w *World) *Prop {
	p := &Prop{
		baseEntity: newBaseEntity(w, "prop_physics", TagSolid),
		model:      PropModel,
		radius:     PropRadius,
		health:     PropHealth,
	}
	p.surface = WoodSurface
	w.add(p)
	return p
}

func (p *Prop) Model() string   { return p.model }
func (p *Prop) Health() float64 { return p.health }

// Hull is a sphere resting on the origin point.
func (p *Prop) Hull() Hull {
	return SphereHull(p.pos.Add(VectorUp.Mul(p.radius)), p.radius)
}

// TakeDamage breaks the prop once health runs out.
func (p *Prop) TakeDamage(info DamageInfo) {
	if !p.IsValid() {
		return
	}
	p.health -= info.Damage
	p.world.observer.OnDamage(p, info)
	if p.health <= 0 {
		p.Delete()
	}
}

// SpawnPoint marks where pawns may appear.
type SpawnPoint struct {
	baseEntity
}

// NewSpawnPoint spawns a spawn point at the origin.
func NewSpawnPoint(w *World) *SpawnPoint {
	sp := &SpawnPoint{baseEntity: newBaseEntity(w, "info_player_start", TagSpawnPoint)}
	w.add(sp)
	return sp
}

// Transform is the placement a pawn gets when spawning here.
func (sp *SpawnPoint) Transform() Transform {
	return Transform{Position: sp.pos, Rotation: sp.rot}
}

// WaterVolume is a box of water. Bullets fired from outside stop at its
// surface; bullets fired from inside pass through it.
type WaterVolume struct {
	baseEntity
	mins, maxs r3.Vector
}

// NewWaterVolume spawns a water box spanning mins..maxs around the origin.
func NewWaterVolume(w *World, mins, maxs r3.Vector) *WaterVolume {
	wv := &WaterVolume{
		baseEntity: newBaseEntity(w, "func_water", TagWater),
		mins:       mins,
		maxs:       maxs,
	}
	wv.surface = WaterSurface
	w.add(wv)
	return wv
}

func (wv *WaterVolume) Hull() Hull { return BoxHull(wv.pos, wv.mins, wv.maxs) }
