package auth

import (
	"time"

	"github.com/google/uuid"

	"github.com/darxtarr/txxt/internal/world"
)

// User is the auth collaborator's view of a player identity; it is the
// same identity the core World tracks, so the type is shared rather
// than duplicated.
type User = world.User

// Session is a live bearer token mapping, held only in memory by the
// auth collaborator. It is never part of the World and never touches
// the save file.
type Session struct {
	Token     string
	UserID    uuid.UUID
	ExpiresAt time.Time
}

func (s Session) expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
