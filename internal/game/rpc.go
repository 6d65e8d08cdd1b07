package game

import (
	"sync/atomic"

	"github.com/golang/geo/r3"
)

// MessageKind names a replicated procedure.
type MessageKind string

const (
	MsgCreateViewModel  MessageKind = "create_view_model"
	MsgDestroyViewModel MessageKind = "destroy_view_model"
	MsgShootEffects     MessageKind = "shoot_effects"
	MsgBulletImpact     MessageKind = "bullet_impact"
	MsgParticles        MessageKind = "particles"
	MsgSound            MessageKind = "sound"
	MsgPawnKilled       MessageKind = "pawn_killed"
	MsgEntitySpawned    MessageKind = "entity_spawned"
)

// Recipients selects who receives a message.
type Recipients struct {
	client ClientID
	nobody bool
}

// ToEveryone addresses every connected client.
func ToEveryone() Recipients { return Recipients{} }

// ToSingle addresses one client.
func ToSingle(c *Client) Recipients {
	if c == nil {
		return Recipients{nobody: true}
	}
	return Recipients{client: c.ID()}
}

// Everyone reports whether the message is a broadcast.
func (r Recipients) Everyone() bool { return !r.nobody && r.client == "" }

// Client is the single recipient, or "" for broadcasts.
func (r Recipients) Client() ClientID { return r.client }

// Message is one replicated call. The simulation never waits for delivery.
type Message struct {
	Kind       MessageKind    `json:"kind"`
	Tick       uint64         `json:"tick"`
	To         ClientID       `json:"-"`
	Entity     EntityID       `json:"entity,omitempty"`
	Asset      string         `json:"asset,omitempty"`
	Attachment string         `json:"attachment,omitempty"`
	Position   *r3.Vector     `json:"position,omitempty"`
	Normal     *r3.Vector     `json:"normal,omitempty"`
	Params     map[string]any `json:"params,omitempty"`
	Predicted  bool           `json:"predicted"`
}

// Outbox is the bounded queue between the simulation and the transport.
// Send never blocks; a full outbox drops the message and counts it.
type Outbox struct {
	ch      chan Message
	sent    atomic.Uint64
	dropped atomic.Uint64
}

func NewOutbox(size int) *Outbox {
	if size < 1 {
		size = 1
	}
	return &Outbox{ch: make(chan Message, size)}
}

// Send enqueues m and reports whether it was accepted.
func (o *Outbox) Send(m Message) bool {
	select {
	case o.ch <- m:
		o.sent.Add(1)
		return true
	default:
		o.dropped.Add(1)
		return false
	}
}

// C is the receive side for the transport.
func (o *Outbox) C() <-chan Message { return o.ch }

// Drain returns everything currently queued.
func (o *Outbox) Drain() []Message {
	var out []Message
	for {
		select {
		case m := <-o.ch:
			out = append(out, m)
		default:
			return out
		}
	}
}

func (o *Outbox) Sent() uint64    { return o.sent.Load() }
func (o *Outbox) Dropped() uint64 { return o.dropped.Load() }

// Call replicates m to the recipients. Messages addressed to a missing client
// are discarded.
func (w *World) Call(to Recipients, m Message) {
	if to.nobody {
		return
	}
	m.To = to.client
	m.Tick = w.tick
	m.Predicted = w.prediction
	w.outbox.Send(m)
}

func vecPtr(v r3.Vector) *r3.Vector { return &v }
