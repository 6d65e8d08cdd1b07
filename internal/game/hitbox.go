package game

import (
	"math"

	"github.com/golang/geo/r3"
)

// HullType is the shape of a collision hull.
type HullType int

const (
	HullSphere HullType = iota
	HullBox             // axis aligned
)

// Hull is a world-space collision shape. Every check is closed form; there is
// no mesh iteration.
type Hull struct {
	Type   HullType
	Center r3.Vector // sphere
	Radius float64   // sphere
	Mins   r3.Vector // box
	Maxs   r3.Vector // box
}

// SphereHull returns a sphere.
func SphereHull(center r3.Vector, radius float64) Hull {
	return Hull{Type: HullSphere, Center: center, Radius: radius}
}

// BoxHull returns an axis aligned box at origin spanning mins..maxs.
func BoxHull(origin, mins, maxs r3.Vector) Hull {
	return Hull{Type: HullBox, Mins: origin.Add(mins), Maxs: origin.Add(maxs)}
}

// Contains reports whether p is inside the hull.
func (h Hull) Contains(p r3.Vector) bool {
	switch h.Type {
	case HullSphere:
		return p.Sub(h.Center).Norm2() <= h.Radius*h.Radius
	case HullBox:
		return p.X >= h.Mins.X && p.X <= h.Maxs.X &&
			p.Y >= h.Mins.Y && p.Y <= h.Maxs.Y &&
			p.Z >= h.Mins.Z && p.Z <= h.Maxs.Z
	}
	return false
}

// Sweep moves a sphere of the given radius from start along the unit vector
// dir for at most length units. It returns the travelled distance at first
// contact and the surface normal. A sweep that starts inside the hull never
// hits it.
func (h Hull) Sweep(start, dir r3.Vector, length, radius float64) (float64, r3.Vector, bool) {
	switch h.Type {
	case HullSphere:
		return sweepSphere(h.Center, h.Radius+radius, start, dir, length)
	case HullBox:
		pad := r3.Vector{X: radius, Y: radius, Z: radius}
		return sweepBox(h.Mins.Sub(pad), h.Maxs.Add(pad), start, dir, length)
	}
	return 0, r3.Vector{}, false
}

func sweepSphere(center r3.Vector, r float64, start, dir r3.Vector, length float64) (float64, r3.Vector, bool) {
	m := start.Sub(center)
	c := m.Norm2() - r*r
	if c <= 0 {
		return 0, r3.Vector{}, false
	}
	b := m.Dot(dir)
	if b > 0 {
		return 0, r3.Vector{}, false
	}
	disc := b*b - c
	if disc < 0 {
		return 0, r3.Vector{}, false
	}
	t := -b - math.Sqrt(disc)
	if t < 0 || t > length {
		return 0, r3.Vector{}, false
	}
	normal := start.Add(dir.Mul(t)).Sub(center).Normalize()
	return t, normal, true
}

// sweepBox is the slab test.
func sweepBox(mins, maxs, start, dir r3.Vector, length float64) (float64, r3.Vector, bool) {
	s := [3]float64{start.X, start.Y, start.Z}
	d := [3]float64{dir.X, dir.Y, dir.Z}
	lo := [3]float64{mins.X, mins.Y, mins.Z}
	hi := [3]float64{maxs.X, maxs.Y, maxs.Z}

	inside := true
	tmin, tmax := math.Inf(-1), math.Inf(1)
	axis, sign := -1, 0.0
	for i := 0; i < 3; i++ {
		if s[i] < lo[i] || s[i] > hi[i] {
			inside = false
		}
		if math.Abs(d[i]) < 1e-12 {
			if s[i] < lo[i] || s[i] > hi[i] {
				return 0, r3.Vector{}, false
			}
			continue
		}
		t1 := (lo[i] - s[i]) / d[i]
		t2 := (hi[i] - s[i]) / d[i]
		n := -1.0
		if t1 > t2 {
			t1, t2 = t2, t1
			n = 1.0
		}
		if t1 > tmin {
			tmin, axis, sign = t1, i, n
		}
		tmax = math.Min(tmax, t2)
		if tmin > tmax {
			return 0, r3.Vector{}, false
		}
	}
	if inside || axis < 0 || tmin < 0 || tmin > length {
		return 0, r3.Vector{}, false
	}

	var normal r3.Vector
	switch axis {
	case 0:
		normal.X = sign
	case 1:
		normal.Y = sign
	case 2:
		normal.Z = sign
	}
	return tmin, normal, true
}
