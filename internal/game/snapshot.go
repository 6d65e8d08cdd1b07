package game

import (
	"time"

	"github.com/golang/geo/r3"
)

// Snapshot is an immutable copy of the world taken at the end of a tick.
// Readers on other goroutines only ever see snapshots.
type Snapshot struct {
	Tick      uint64        `json:"tick"`
	Time      float64       `json:"time"`
	CreatedAt time.Time     `json:"createdAt"`
	Clients   int           `json:"clients"`
	Pawns     []PawnState   `json:"pawns"`
	Entities  []EntityState `json:"entities"`
	Outbox    OutboxStats   `json:"outbox"`
}

// PawnState is the public view of a pawn.
type PawnState struct {
	ID       EntityID  `json:"id"`
	ClientID ClientID  `json:"clientId"`
	Name     string    `json:"name"`
	Position r3.Vector `json:"position"`
	Velocity r3.Vector `json:"velocity"`
	Eye      Angles    `json:"eye"`
	Health   float64   `json:"health"`
	Alive    bool      `json:"alive"`
	Score    Score     `json:"score"`
	Weapon   string    `json:"weapon,omitempty"`
	Drawing  bool      `json:"drawing"`
	Clothing []string  `json:"clothing,omitempty"`
	HoldType int       `json:"holdType"`
}

// EntityState is the public view of any other entity.
type EntityState struct {
	ID        EntityID  `json:"id"`
	ClassName string    `json:"className"`
	Position  r3.Vector `json:"position"`
	Yaw       float64   `json:"yaw"`
}

// OutboxStats counts replicated messages.
type OutboxStats struct {
	Sent    uint64 `json:"sent"`
	Dropped uint64 `json:"dropped"`
}

// TakeSnapshot copies the world's public state.
func (w *World) TakeSnapshot(clients int) *Snapshot {
	s := &Snapshot{
		Tick:      w.tick,
		Time:      w.Now(),
		CreatedAt: time.Now(),
		Clients:   clients,
		Outbox:    OutboxStats{Sent: w.outbox.Sent(), Dropped: w.outbox.Dropped()},
	}

	for _, e := range w.Entities() {
		switch ent := e.(type) {
		case *Pawn:
			s.Pawns = append(s.Pawns, pawnState(ent))
		case *ViewModel:
			// owner-only, never shown
		default:
			s.Entities = append(s.Entities, EntityState{
				ID:        ent.ID(),
				ClassName: ent.ClassName(),
				Position:  ent.Position(),
				Yaw:       ent.Rotation().Yaw,
			})
		}
	}
	return s
}

func pawnState(p *Pawn) PawnState {
	ps := PawnState{
		ID:       p.ID(),
		Position: p.Position(),
		Velocity: p.Velocity(),
		Eye:      p.EyeRotation(),
		Health:   p.Health(),
		Alive:    p.IsAlive(),
		Score:    p.Score,
		Clothing: p.Clothing(),
	}
	if cl := p.Client(); cl != nil {
		ps.ClientID = cl.ID()
		ps.Name = cl.Name()
	}
	if w := p.ActiveWeapon(); w != nil {
		ps.Weapon = w.ClassName()
		ps.Drawing = w.Drawing()
	}
	if ht, ok := p.AnimParameter("holdtype"); ok {
		ps.HoldType, _ = ht.(int)
	}
	return ps
}

// FindPawn returns the pawn state with id.
func (s *Snapshot) FindPawn(id EntityID) (PawnState, bool) {
	for _, p := range s.Pawns {
		if p.ID == id {
			return p, true
		}
	}
	return PawnState{}, false
}
