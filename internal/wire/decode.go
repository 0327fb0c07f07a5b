package wire

import (
	"encoding/binary"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/darxtarr/txxt/internal/world"
)

const createTaskMinLen = 40

// UnpackCommand decodes a client-to-server frame. The first byte is the
// command type; the rest is the type-specific payload described in
// SPEC_FULL.md SS4.2. Returns a tagged error, never panics: an unknown
// type byte, a too-short frame, or invalid UTF-8 in a title are all
// reported through the error return rather than a runtime panic.
func UnpackCommand(buf []byte) (world.Command, error) {
	if len(buf) < 1 {
		return nil, ErrTooShort
	}
	msgType, payload := buf[0], buf[1:]

	switch msgType {
	case CmdCreateTask:
		return unpackCreateTask(payload)
	case CmdScheduleTask:
		taskID, sched, err := unpackTaskIDAndSchedule(payload)
		if err != nil {
			return nil, err
		}
		return world.ScheduleTask{TaskID: taskID, Schedule: sched}, nil
	case CmdMoveTask:
		taskID, sched, err := unpackTaskIDAndSchedule(payload)
		if err != nil {
			return nil, err
		}
		return world.MoveTask{TaskID: taskID, Schedule: sched}, nil
	case CmdUnscheduleTask:
		taskID, err := unpackTaskID(payload)
		if err != nil {
			return nil, err
		}
		return world.UnscheduleTask{TaskID: taskID}, nil
	case CmdCompleteTask:
		taskID, err := unpackTaskID(payload)
		if err != nil {
			return nil, err
		}
		return world.CompleteTask{TaskID: taskID}, nil
	case CmdDeleteTask:
		taskID, err := unpackTaskID(payload)
		if err != nil {
			return nil, err
		}
		return world.DeleteTask{TaskID: taskID}, nil
	default:
		return nil, ErrUnknownMessage
	}
}

func unpackTaskID(payload []byte) (uuid.UUID, error) {
	if len(payload) < 16 {
		return uuid.Nil, ErrTooShort
	}
	var id uuid.UUID
	copy(id[:], payload[0:16])
	return id, nil
}

func unpackTaskIDAndSchedule(payload []byte) (uuid.UUID, world.Schedule, error) {
	if len(payload) < 21 {
		return uuid.Nil, world.Schedule{}, ErrTooShort
	}
	var id uuid.UUID
	copy(id[:], payload[0:16])
	sched := world.Schedule{
		Day:       payload[16],
		StartTime: binary.LittleEndian.Uint16(payload[17:19]),
		Duration:  binary.LittleEndian.Uint16(payload[19:21]),
	}
	return id, sched, nil
}

// unpackCreateTask decodes
// [priority:u8][service_id:16][assigned_to:16][day:u8][pad:u8][start:u16 LE][dur:u16 LE][title tail]
func unpackCreateTask(payload []byte) (world.Command, error) {
	if len(payload) < createTaskMinLen-1 {
		return nil, ErrTooShort
	}

	priority := world.Priority(payload[0])
	var serviceID, assignedTo uuid.UUID
	copy(serviceID[:], payload[1:17])
	copy(assignedTo[:], payload[17:33])

	day := payload[33]
	// payload[34] is the pad byte, ignored on decode.
	start := binary.LittleEndian.Uint16(payload[35:37])
	dur := binary.LittleEndian.Uint16(payload[37:39])

	titleTail := payload[39:]
	if !utf8.Valid(titleTail) {
		return nil, ErrInvalidUTF8
	}

	cmd := world.CreateTask{
		Priority:   priority,
		ServiceID:  serviceID,
		AssignedTo: assignedTo,
		Title:      string(titleTail),
	}
	if day != NoDay {
		cmd.Schedule = &world.Schedule{Day: day, StartTime: start, Duration: dur}
	}
	return cmd, nil
}
