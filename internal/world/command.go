package world

import "github.com/google/uuid"

// Command is the tagged sum type of operations the World accepts. Each
// concrete type below implements it.
type Command interface {
	isCommand()
}

type CreateTask struct {
	Priority   Priority
	ServiceID  uuid.UUID
	AssignedTo uuid.UUID // nil UUID means unassigned
	Title      string
	Schedule   *Schedule // nil means "create staged"
}

type ScheduleTask struct {
	TaskID   uuid.UUID
	Schedule Schedule
}

type MoveTask struct {
	TaskID   uuid.UUID
	Schedule Schedule
}

type UnscheduleTask struct {
	TaskID uuid.UUID
}

type CompleteTask struct {
	TaskID uuid.UUID
}

type DeleteTask struct {
	TaskID uuid.UUID
}

func (CreateTask) isCommand()     {}
func (ScheduleTask) isCommand()   {}
func (MoveTask) isCommand()       {}
func (UnscheduleTask) isCommand() {}
func (CompleteTask) isCommand()   {}
func (DeleteTask) isCommand()     {}
