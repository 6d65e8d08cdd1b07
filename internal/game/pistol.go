package game

// HoldType is the animation stance a weapon puts its owner in.
type HoldType int

const (
	HoldTypeNone HoldType = iota
	HoldTypePistol
	HoldTypeRifle
	HoldTypeShotgun
)

// Pistol fires a shockwave instead of bullets: it launches its owner and
// flattens whatever stands right behind them.
type Pistol struct {
	BaseWeaponKind
}

// NewPistol spawns an unowned pistol.
func NewPistol(w *World) *Weapon {
	return NewWeapon(w, Pistol{})
}

func (Pistol) ClassName() string     { return "weapon_pistol" }
func (Pistol) ModelPath() string     { return PistolModel }
func (Pistol) ViewModelPath() string { return PistolViewModel }

func (Pistol) Animate(w *Weapon) {
	if o := w.Owner(); o != nil {
		o.SetAnimParameter("holdtype", int(HoldTypePistol))
	}
}

func (p Pistol) PrimaryAttack(w *Weapon) {
	p.shootEffects(w)
	Shockwave(w)
}

// shootEffects replicates the muzzle flash, the owner's attack animation and
// the view-model fire animation.
func (Pistol) shootEffects(w *Weapon) {
	params := map[string]any{"b_attack": true, "viewModelAnim": "fire"}
	if vm := w.ViewModel(); vm != nil {
		params["viewModel"] = vm.ID()
	}
	w.world.Call(ToEveryone(), Message{
		Kind:       MsgShootEffects,
		Entity:     w.ID(),
		Asset:      PistolMuzzleFlash,
		Attachment: MuzzleAttachment,
		Params:     params,
	})
}

// Shockwave is the pistol's ability. The owner is launched along their eye
// direction; every other pawn within ShockwaveRadius of the spot just behind
// the owner is killed and credited to the owner, and every other damageable
// entity within ShockwaveRadius of the owner takes the same damage.
// It returns the number of pawns and other entities hit.
func Shockwave(w *Weapon) (pawnHits, entityHits int) {
	owner := w.Owner()
	if owner == nil || !owner.IsValid() {
		return 0, 0
	}
	world := w.world

	world.Call(ToEveryone(), Message{
		Kind:     MsgParticles,
		Asset:    ShockwaveParticle,
		Position: vecPtr(owner.Position().Add(VectorUp.Mul(ShockwaveEffectHeight))),
	})
	world.Call(ToEveryone(), Message{Kind: MsgSound, Asset: ShockwaveSound, Entity: owner.ID()})

	kills := owner.Score.Kills
	owner.SetVelocity(owner.EyeRotation().Forward().Mul(ShockwaveBaseSpeed + KnockbackBonus(kills)))

	if !world.IsServer() {
		return 0, 0
	}

	behind := owner.Position().Add(owner.Rotation().Backward().Mul(ShockwavePawnOffset))
	center := owner.Position()
	nearby := world.FindInSphere(center, ShockwaveRadius)

	for _, victim := range world.PawnsNear(behind, ShockwaveRadius) {
		if victim == owner {
			continue
		}
		// Credit first so kill observers see the updated score.
		victim.Score.GotKilled(1)
		owner.Score.KillGet(1)
		victim.TakeDamage(GenericDamage(ShockwaveDamage).WithAttacker(owner).WithWeapon(w))
		pawnHits++
	}

	for _, ent := range nearby {
		if ent.ID() == owner.ID() || !ent.IsValid() {
			continue
		}
		if _, isPawn := ent.(*Pawn); isPawn {
			continue
		}
		target, ok := ent.(Damageable)
		if !ok {
			continue
		}
		target.TakeDamage(GenericDamage(ShockwaveDamage).WithAttacker(owner).WithWeapon(w))
		entityHits++
	}

	world.observer.OnShockwave(owner, pawnHits, entityHits)
	return pawnHits, entityHits
}
