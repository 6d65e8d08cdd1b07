package game

import (
	"slices"

	"github.com/golang/geo/r3"
	"github.com/google/uuid"
)

// EntityID identifies an entity for the lifetime of a world.
type EntityID string

// Tags used by traces and queries.
const (
	TagSolid      = "solid"
	TagPlayer     = "player"
	TagNPC        = "npc"
	TagWater      = "water"
	TagWeapon     = "weapon"
	TagSpawnPoint = "spawnpoint"
)

// Entity is anything that lives in a World.
type Entity interface {
	ID() EntityID
	ClassName() string
	Position() r3.Vector
	SetPosition(r3.Vector)
	Rotation() Angles
	SetRotation(Angles)
	Tags() []string
	HasTag(tag string) bool
	Surface() string
	IsValid() bool
	Delete()
}

// Damageable entities accept damage.
type Damageable interface {
	Entity
	TakeDamage(info DamageInfo)
}

// Simulatable entities are stepped once per tick on behalf of a client.
type Simulatable interface {
	Simulate(cl *Client)
}

// Collider entities can be hit by traces.
type Collider interface {
	Hull() Hull
}

// HitboxCollider entities have a tighter shape for traces that ask for hitboxes.
type HitboxCollider interface {
	Hitbox() Hull
}

// baseEntity carries the state every entity shares. Concrete types embed it
// and must be created through World.add so they get an ID.
type baseEntity struct {
	id      EntityID
	class   string
	world   *World
	pos     r3.Vector
	rot     Angles
	tags    []string
	surface string
	deleted bool
}

func newBaseEntity(w *World, class string, tags ...string) baseEntity {
	return baseEntity{
		id:      EntityID(uuid.NewString()),
		class:   class,
		world:   w,
		tags:    tags,
		surface: DefaultSurface,
	}
}

func (e *baseEntity) ID() EntityID        { return e.id }
func (e *baseEntity) ClassName() string   { return e.class }
func (e *baseEntity) Position() r3.Vector { return e.pos }
func (e *baseEntity) Rotation() Angles    { return e.rot }
func (e *baseEntity) Tags() []string      { return e.tags }
func (e *baseEntity) Surface() string     { return e.surface }
func (e *baseEntity) World() *World       { return e.world }

func (e *baseEntity) SetPosition(p r3.Vector) {
	e.pos = p
	if e.world != nil {
		e.world.markMoved()
	}
}

func (e *baseEntity) SetRotation(a Angles) { e.rot = a }

func (e *baseEntity) HasTag(tag string) bool { return slices.Contains(e.tags, tag) }

func (e *baseEntity) AddTag(tag string) {
	if !e.HasTag(tag) {
		e.tags = append(e.tags, tag)
	}
}

func (e *baseEntity) IsValid() bool { return e != nil && !e.deleted }

// Delete removes the entity from its world. Safe to call twice.
func (e *baseEntity) Delete() {
	if e.deleted {
		return
	}
	e.deleted = true
	if e.world != nil {
		e.world.remove(e.id)
	}
}

// hasAnyTag reports whether e carries at least one of tags.
func hasAnyTag(e Entity, tags []string) bool {
	for _, t := range tags {
		if e.HasTag(t) {
			return true
		}
	}
	return false
}
