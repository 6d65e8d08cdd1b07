package game

import (
	"math"
	"math/rand"

	"github.com/golang/geo/r3"
)

// VectorUp is world up. The simulation is Z-up.
var VectorUp = r3.Vector{Z: 1}

const degToRad = math.Pi / 180

// Angles is a rotation in degrees. Positive pitch looks down, yaw turns
// counter-clockwise around Z starting from +X.
type Angles struct {
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
	Roll  float64 `json:"roll"`
}

// Forward is the unit vector the rotation faces.
func (a Angles) Forward() r3.Vector {
	p := a.Pitch * degToRad
	y := a.Yaw * degToRad
	return r3.Vector{
		X: math.Cos(p) * math.Cos(y),
		Y: math.Cos(p) * math.Sin(y),
		Z: -math.Sin(p),
	}
}

// Backward is Forward negated.
func (a Angles) Backward() r3.Vector { return a.Forward().Mul(-1) }

// YawOnly drops pitch and roll.
func (a Angles) YawOnly() Angles { return Angles{Yaw: a.Yaw} }

// AnglesFromDirection returns the pitch/yaw that faces dir.
func AnglesFromDirection(dir r3.Vector) Angles {
	return Angles{
		Pitch: -math.Atan2(dir.Z, math.Hypot(dir.X, dir.Y)) / degToRad,
		Yaw:   math.Atan2(dir.Y, dir.X) / degToRad,
	}
}

// Ray is an origin and a unit direction.
type Ray struct {
	Position r3.Vector
	Forward  r3.Vector
}

// Project returns the point dist units along the ray.
func (r Ray) Project(dist float64) r3.Vector {
	return r.Position.Add(r.Forward.Mul(dist))
}

// Transform is a placement in the world.
type Transform struct {
	Position r3.Vector
	Rotation Angles
}

// RandomUnitVector draws a direction uniformly from the unit sphere.
func RandomUnitVector(rng *rand.Rand) r3.Vector {
	for {
		v := r3.Vector{X: rng.NormFloat64(), Y: rng.NormFloat64(), Z: rng.NormFloat64()}
		if n := v.Norm(); n > 1e-9 {
			return v.Mul(1 / n)
		}
	}
}
