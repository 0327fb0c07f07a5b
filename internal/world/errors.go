package world

import "errors"

var (
	ErrTaskNotFound       = errors.New("world: task not found")
	ErrServiceNotFound    = errors.New("world: service not found")
	ErrUserNotFound       = errors.New("world: user not found")
	ErrInvalidSchedule    = errors.New("world: invalid schedule")
	ErrIllegalTransition  = errors.New("world: illegal state transition")
	ErrUnknownCommand     = errors.New("world: unknown command type")
)
