package world

import "github.com/google/uuid"

// Kind tags an Event with the command that produced it. Values do not
// equal the wire codec's server-to-client frame type bytes; wire.PackEvent
// maps each Kind to its frame type (see internal/wire).
type Kind uint8

const (
	TaskCreated Kind = iota + 1
	TaskScheduled
	TaskMoved
	TaskUnscheduled
	TaskCompleted
	TaskDeleted
)

// Event is the tagged record describing the effect of one successful
// command application. Only the fields relevant to Kind are populated;
// the rest are zero.
type Event struct {
	Kind     Kind
	Revision uint64

	Task     Task // TaskCreated
	TaskID   uuid.UUID
	Schedule Schedule // TaskScheduled, TaskMoved
}

// LogEntry pairs an Event with the revision it was applied at. Revision
// duplicates Event.Revision; it exists so the log can be queried by
// revision without unpacking every entry.
type LogEntry struct {
	Revision uint64
	Event    Event
}
