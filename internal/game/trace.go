package game

import (
	"slices"

	"github.com/golang/geo/r3"
)

// TraceResult is the outcome of a trace.
type TraceResult struct {
	Hit           bool
	StartPosition r3.Vector
	EndPosition   r3.Vector
	Direction     r3.Vector
	Normal        r3.Vector
	Fraction      float64
	Distance      float64
	Entity        Entity
	Surface       string
	Hitbox        bool
}

// Trace is an immutable query builder: every method returns a copy.
//
//	tr := world.Ray(start, end).Size(2).Ignore(owner).Run()
type Trace struct {
	world    *World
	start    r3.Vector
	end      r3.Vector
	radius   float64
	anyTags  []string
	ignore   []EntityID
	hitboxes bool
}

// Ray starts a trace from start to end.
func (w *World) Ray(start, end r3.Vector) Trace {
	return Trace{world: w, start: start, end: end}
}

// RayAlong starts a trace of length dist along r.
func (w *World) RayAlong(r Ray, dist float64) Trace {
	return w.Ray(r.Position, r.Project(dist))
}

// Size sweeps a sphere of radius r instead of a line.
func (t Trace) Size(r float64) Trace {
	t.radius = r
	return t
}

// WithAnyTags restricts hits to entities carrying at least one of tags.
// Calls accumulate.
func (t Trace) WithAnyTags(tags ...string) Trace {
	t.anyTags = append(slices.Clone(t.anyTags), tags...)
	return t
}

// Ignore skips e. A nil entity is ignored.
func (t Trace) Ignore(e Entity) Trace {
	if e == nil {
		return t
	}
	t.ignore = append(slices.Clone(t.ignore), e.ID())
	return t
}

// UseHitboxes tests against hitboxes where an entity has them.
func (t Trace) UseHitboxes() Trace {
	t.hitboxes = true
	return t
}

// Run executes the trace against every collider in the world and returns
// the nearest hit.
func (t Trace) Run() TraceResult {
	res := TraceResult{StartPosition: t.start, EndPosition: t.end, Fraction: 1}

	delta := t.end.Sub(t.start)
	length := delta.Norm()
	if length == 0 || t.world == nil {
		return res
	}
	dir := delta.Mul(1 / length)
	res.Direction = dir
	res.Distance = length

	best := length
	for _, ent := range t.world.Entities() {
		if slices.Contains(t.ignore, ent.ID()) {
			continue
		}
		if len(t.anyTags) > 0 && !hasAnyTag(ent, t.anyTags) {
			continue
		}
		hull, usedHitbox, ok := t.shapeOf(ent)
		if !ok {
			continue
		}
		dist, normal, hit := hull.Sweep(t.start, dir, best, t.radius)
		if !hit || (res.Hit && dist >= best) {
			continue
		}
		best = dist
		res.Hit = true
		res.Entity = ent
		res.Normal = normal
		res.Surface = ent.Surface()
		res.Hitbox = usedHitbox
	}

	if res.Hit {
		res.EndPosition = t.start.Add(dir.Mul(best))
		res.Fraction = best / length
		res.Distance = best
	}
	return res
}

func (t Trace) shapeOf(ent Entity) (Hull, bool, bool) {
	if t.hitboxes {
		if hb, ok := ent.(HitboxCollider); ok {
			return hb.Hitbox(), true, true
		}
	}
	if c, ok := ent.(Collider); ok {
		return c.Hull(), false, true
	}
	return Hull{}, false, false
}

// TestPoint reports whether p lies inside any collider tagged tag.
func (w *World) TestPoint(p r3.Vector, tag string) bool {
	for _, ent := range w.Entities() {
		if !ent.HasTag(tag) {
			continue
		}
		if c, ok := ent.(Collider); ok && c.Hull().Contains(p) {
			return true
		}
	}
	return false
}
