package game

import (
	"math"
	"time"

	"github.com/golang/geo/r3"
)

// lagHistoryTicks bounds how far back a shooter can be compensated.
const lagHistoryTicks = 64

type positionSample struct {
	tick uint64
	pos  r3.Vector
}

// positionRing is a fixed window of recent pawn positions.
type positionRing struct {
	samples [lagHistoryTicks]positionSample
	n       int
}

func (r *positionRing) record(tick uint64, pos r3.Vector) {
	r.samples[tick%lagHistoryTicks] = positionSample{tick: tick, pos: pos}
	if r.n < lagHistoryTicks {
		r.n++
	}
}

func (r *positionRing) at(tick uint64) (r3.Vector, bool) {
	s := r.samples[tick%lagHistoryTicks]
	if r.n == 0 || s.tick != tick {
		return r3.Vector{}, false
	}
	return s.pos, true
}

// lagHistory keeps per-pawn position rings, written at the end of every tick.
type lagHistory struct {
	rings map[EntityID]*positionRing
}

func newLagHistory() *lagHistory {
	return &lagHistory{rings: make(map[EntityID]*positionRing)}
}

func (h *lagHistory) record(tick uint64, pawns []*Pawn) {
	for _, p := range pawns {
		r := h.rings[p.ID()]
		if r == nil {
			r = &positionRing{}
			h.rings[p.ID()] = r
		}
		r.record(tick, p.Position())
	}
}

func (h *lagHistory) forget(id EntityID) { delete(h.rings, id) }

// LagScope holds pawns at the positions the shooter saw. End puts them back.
type LagScope struct {
	world   *World
	restore map[*Pawn]r3.Vector
	done    bool
}

// LagCompensation rewinds every pawn except shooter to where it was when the
// shooter's client rendered the frame it fired on. Only the server rewinds;
// elsewhere the scope is empty.
func (w *World) LagCompensation(shooter *Pawn) *LagScope {
	s := &LagScope{world: w}
	if !w.IsServer() || shooter == nil || shooter.Client() == nil {
		return s
	}

	back := latencyTicks(shooter.Client().Latency, w.interval)
	if back == 0 || uint64(back) > w.tick {
		return s
	}
	target := w.tick - uint64(back)

	s.restore = make(map[*Pawn]r3.Vector)
	for _, p := range w.Pawns() {
		if p == shooter {
			continue
		}
		ring := w.lag.rings[p.ID()]
		if ring == nil {
			continue
		}
		if pos, ok := ring.at(target); ok {
			s.restore[p] = p.Position()
			p.SetPosition(pos)
		}
	}
	w.lagDepth++
	return s
}

// End restores rewound pawns. Safe to call more than once.
func (s *LagScope) End() {
	if s.done {
		return
	}
	s.done = true
	if s.restore == nil {
		return
	}
	for p, pos := range s.restore {
		p.SetPosition(pos)
	}
	s.world.lagDepth--
}

// InLagCompensation reports whether a rewinding lag scope is open.
func (w *World) InLagCompensation() bool { return w.lagDepth > 0 }

// Rewound reports how many pawns the scope moved.
func (s *LagScope) Rewound() int { return len(s.restore) }

func latencyTicks(latency time.Duration, interval float64) int {
	if latency <= 0 || interval <= 0 {
		return 0
	}
	n := int(math.Round(latency.Seconds() / interval))
	return min(n, lagHistoryTicks-1)
}
