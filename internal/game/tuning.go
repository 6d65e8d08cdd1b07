package game

// Gameplay constants. Distances are world units, times are seconds.
const (
	// Bullets
	BulletRange         = 5000.0
	DefaultBulletRadius = 2.0
	BulletForceScale    = 100.0

	// Fire rate
	DefaultPrimaryRate = 1.0
	LowKillRateBonus   = 2.0
	KillBonusThreshold = 4

	// Shockwave
	ShockwaveRadius       = 35.0
	ShockwaveDamage       = 100.0
	ShockwaveBaseSpeed    = 900.0
	ShockwaveSpeedPerKill = 50.0
	ShockwavePawnOffset   = 10.0
	ShockwaveEffectHeight = 30.0

	// Pawn
	PawnMaxHealth    = 100.0
	PawnEyeHeight    = 64.0
	PawnHalfWidth    = 16.0
	PawnHeight       = 72.0
	PawnHitboxRadius = 20.0
	PawnFriction     = 4.0
	PawnStopSpeed    = 1.0
	SpawnLiftUnits   = 50.0

	// Console
	EntCreateRange     = 500.0
	EntCreateTraceSize = 2.0

	// Props
	PropHealth = 100.0
	PropRadius = 16.0
)

// Asset paths replicated to presentation clients.
const (
	PistolModel         = "weapons/rust_pistol/rust_pistol.vmdl"
	PistolViewModel     = "weapons/rust_pistol/v_rust_pistol.vmdl"
	PistolMuzzleFlash   = "particles/pistol_muzzleflash.vpcf"
	ShockwaveParticle   = "particles/fart_cloud.vpcf"
	ShockwaveSound      = "sounds/fart.sound"
	PropModel           = "models/citizen_props/crate01.vmdl"
	MuzzleAttachment    = "muzzle"
	DefaultSurface      = "default"
	FleshSurface        = "flesh"
	WaterSurface        = "water"
	WoodSurface         = "wood"
	DefaultOutfitPreset = "citizen_default"
)

// KnockbackBonus is the extra launch speed a shockwave gives for kills.
// The bonus stops growing past KillBonusThreshold kills.
func KnockbackBonus(kills int) float64 {
	if kills > KillBonusThreshold {
		return KillBonusThreshold * ShockwaveSpeedPerKill
	}
	if kills < 0 {
		kills = 0
	}
	return float64(kills) * ShockwaveSpeedPerKill
}

// EffectiveRate is the attack rate after the low-kill handicap: shooters
// with KillBonusThreshold kills or fewer fire faster.
func EffectiveRate(base float64, kills int) float64 {
	if !(kills > KillBonusThreshold) {
		return base + LowKillRateBonus
	}
	return base
}
