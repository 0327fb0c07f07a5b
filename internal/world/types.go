// Package world implements the authoritative in-memory scheduling state
// machine: tasks, users, services, and the revision-ordered event log
// that every mutation appends to.
package world

import "github.com/google/uuid"

// Status is a task's position in its lifecycle.
type Status uint8

const (
	Staged Status = iota
	Scheduled
	Active
	Completed
)

func (s Status) String() string {
	switch s {
	case Staged:
		return "staged"
	case Scheduled:
		return "scheduled"
	case Active:
		return "active"
	case Completed:
		return "completed"
	default:
		return "unknown"
	}
}

// Priority orders the staging queue and carries no other semantics in
// the core.
type Priority uint8

const (
	Low Priority = iota
	Medium
	High
	Urgent
)

// Schedule is the (day, start_time, duration) triple a task carries
// while Scheduled or Active. All three fields are always present
// together; there is no partially-scheduled state.
type Schedule struct {
	Day       uint8
	StartTime uint16
	Duration  uint16
}

// Task is the unit of work. AssignedTo is the nil UUID when unassigned.
// Schedule is nil unless Status is Scheduled or Active.
type Task struct {
	ID         uuid.UUID
	CreatedBy  uuid.UUID
	ServiceID  uuid.UUID
	AssignedTo uuid.UUID
	Title      string
	Status     Status
	Priority   Priority
	Schedule   *Schedule

	seq uint64 // creation order, used only to order the staging queue
}

// User is a player identity. PasswordHash is an opaque Argon2id
// verifier; the core never inspects it.
type User struct {
	ID           uuid.UUID
	Username     string
	PasswordHash string
}

// Service is the classification anchor every task references.
type Service struct {
	ID   uuid.UUID
	Name string
}
