package game

import (
	"encoding/json"
	"time"
)

// EventType classifies an event log entry.
type EventType uint8

const (
	EventTypeUnknown EventType = iota
	EventTypeTick
	EventTypeClientJoin
	EventTypeClientLeave
	EventTypeDamage
	EventTypeKill
	EventTypeAttack
	EventTypeShockwave
	EventTypeEntityCreate
	EventTypeConsole
)

// EventVersion is bumped when a payload changes shape.
const EventVersion uint8 = 1

// Event is one line of the event log.
type Event struct {
	Version   uint8           `json:"version"`
	Type      EventType       `json:"type"`
	Timestamp int64           `json:"timestamp"` // unix nano
	Sequence  uint64          `json:"sequence"`
	Tick      uint64          `json:"tick"`
	Source    string          `json:"source,omitempty"` // client id, used for rate limiting
	Payload   json.RawMessage `json:"payload,omitempty"`
}

func (t EventType) String() string {
	switch t {
	case EventTypeTick:
		return "tick"
	case EventTypeClientJoin:
		return "client_join"
	case EventTypeClientLeave:
		return "client_leave"
	case EventTypeDamage:
		return "damage"
	case EventTypeKill:
		return "kill"
	case EventTypeAttack:
		return "attack"
	case EventTypeShockwave:
		return "shockwave"
	case EventTypeEntityCreate:
		return "entity_create"
	case EventTypeConsole:
		return "console"
	default:
		return "unknown"
	}
}

// MarshalText writes the name so the log is readable.
func (t EventType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

type TickPayload struct {
	Seed       int64 `json:"seed"`
	Pawns      int   `json:"pawns"`
	Entities   int   `json:"entities"`
	DurationNs int64 `json:"durationNs"`
}

type ClientPayload struct {
	ClientID string  `json:"clientId"`
	Name     string  `json:"name"`
	PawnID   string  `json:"pawnId,omitempty"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Z        float64 `json:"z"`
}

type DamagePayload struct {
	AttackerID string  `json:"attackerId,omitempty"`
	VictimID   string  `json:"victimId"`
	VictimType string  `json:"victimType"`
	Damage     float64 `json:"damage"`
	Kind       string  `json:"kind"`
	WeaponID   string  `json:"weaponId,omitempty"`
}

type KillPayload struct {
	KillerID     string `json:"killerId,omitempty"`
	VictimID     string `json:"victimId"`
	KillerKills  int    `json:"killerKills"`
	VictimDeaths int    `json:"victimDeaths"`
}

type ShockwavePayload struct {
	OwnerID    string `json:"ownerId"`
	PawnHits   int    `json:"pawnHits"`
	EntityHits int    `json:"entityHits"`
}

type EntityCreatePayload struct {
	EntityID  string `json:"entityId"`
	ClassName string `json:"className"`
	CreatorID string `json:"creatorId,omitempty"`
}

type ConsolePayload struct {
	Line  string `json:"line"`
	Error string `json:"error,omitempty"`
}

// NewEvent stamps an event with the current time.
func NewEvent(t EventType, tick uint64, source string, payload any) Event {
	data, err := json.Marshal(payload)
	if err != nil {
		data = nil
	}
	return Event{
		Version:   EventVersion,
		Type:      t,
		Timestamp: time.Now().UnixNano(),
		Tick:      tick,
		Source:    source,
		Payload:   data,
	}
}
