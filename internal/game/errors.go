package game

import "errors"

var (
	ErrWeaponOwned       = errors.New("weapon is owned by another pawn")
	ErrUnknownEntityType = errors.New("unknown entity type")
	ErrNoPawn            = errors.New("client has no pawn")
	ErrUnknownClient     = errors.New("unknown client")
	ErrClientLimit       = errors.New("client limit reached")
	ErrEntityLimit       = errors.New("entity limit reached")
	ErrCommandQueueFull  = errors.New("command queue full")
)
