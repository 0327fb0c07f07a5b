// Package wire implements the fixed-stride binary codec: snapshot and
// event framing to the client, command framing from the client. Every
// multi-byte integer is little-endian; every frame has an exact,
// computable length. No human-readable encoding appears on this path.
package wire

import (
	"encoding/binary"
	"errors"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/darxtarr/txxt/internal/world"
)

const (
	TaskStride    = 192
	ServiceStride = 80
	TitleMax      = 128
	ServiceNameMax = 64

	// NoDay is the day sentinel meaning "not scheduled".
	NoDay = 0xFF
)

// Server-to-client frame type bytes.
const (
	MsgSnapshot        byte = 0x01
	MsgTaskCreated     byte = 0x02
	MsgTaskScheduled   byte = 0x03
	MsgTaskMoved       byte = 0x04
	MsgTaskUnscheduled byte = 0x05
	MsgTaskCompleted   byte = 0x06
	MsgTaskDeleted     byte = 0x07
)

// Client-to-server frame type bytes.
const (
	CmdCreateTask     byte = 0x10
	CmdScheduleTask   byte = 0x11
	CmdMoveTask       byte = 0x12
	CmdUnscheduleTask byte = 0x13
	CmdCompleteTask   byte = 0x14
	CmdDeleteTask     byte = 0x15
)

var (
	ErrTooShort       = errors.New("wire: frame too short")
	ErrUnknownMessage = errors.New("wire: unknown message type")
	ErrInvalidField   = errors.New("wire: invalid field")
	ErrInvalidUTF8    = errors.New("wire: invalid utf-8")
)

// PackTask writes a task record (TaskStride bytes) into the core
// contract: id, status, priority, day/start/duration (or the NoDay
// sentinel), service id, assignee, zero-padded title, reserved tail.
// Deterministic: equivalent tasks produce byte-identical output.
func PackTask(t world.Task) []byte {
	buf := make([]byte, TaskStride)
	copy(buf[0:16], t.ID[:])
	buf[16] = byte(t.Status)
	buf[17] = byte(t.Priority)

	if t.Schedule != nil {
		buf[18] = t.Schedule.Day
		binary.LittleEndian.PutUint16(buf[20:22], t.Schedule.StartTime)
		binary.LittleEndian.PutUint16(buf[22:24], t.Schedule.Duration)
	} else {
		buf[18] = NoDay
	}
	// buf[19] pad byte stays 0.

	copy(buf[24:40], t.ServiceID[:])
	copy(buf[40:56], t.AssignedTo[:])

	title := []byte(t.Title)
	if len(title) > TitleMax {
		title = title[:TitleMax]
	}
	copy(buf[56:56+len(title)], title)
	// buf[184:192] reserved, stays 0.

	return buf
}

// UnpackTask is the inverse of PackTask, used by round-trip tests (the
// save file stores CBOR records, not this layout). It does not validate
// schedule legality;
// that is world.Apply's job.
func UnpackTask(buf []byte) (world.Task, error) {
	if len(buf) < TaskStride {
		return world.Task{}, ErrTooShort
	}
	var t world.Task
	copy(t.ID[:], buf[0:16])
	t.Status = world.Status(buf[16])
	t.Priority = world.Priority(buf[17])

	day := buf[18]
	if day != NoDay {
		t.Schedule = &world.Schedule{
			Day:       day,
			StartTime: binary.LittleEndian.Uint16(buf[20:22]),
			Duration:  binary.LittleEndian.Uint16(buf[22:24]),
		}
	}

	copy(t.ServiceID[:], buf[24:40])
	copy(t.AssignedTo[:], buf[40:56])

	title := buf[56:184]
	end := len(title)
	for end > 0 && title[end-1] == 0 {
		end--
	}
	if !utf8.Valid(title[:end]) {
		return world.Task{}, ErrInvalidUTF8
	}
	t.Title = string(title[:end])

	return t, nil
}

// PackService writes a service record (ServiceStride bytes): id, then
// a zero-padded name.
func PackService(s world.Service) []byte {
	buf := make([]byte, ServiceStride)
	copy(buf[0:16], s.ID[:])
	name := []byte(s.Name)
	if len(name) > ServiceNameMax {
		name = name[:ServiceNameMax]
	}
	copy(buf[16:16+len(name)], name)
	return buf
}

// UnpackService is the inverse of PackService.
func UnpackService(buf []byte) (world.Service, error) {
	if len(buf) < ServiceStride {
		return world.Service{}, ErrTooShort
	}
	var s world.Service
	copy(s.ID[:], buf[0:16])
	name := buf[16:80]
	end := len(name)
	for end > 0 && name[end-1] == 0 {
		end--
	}
	if !utf8.Valid(name[:end]) {
		return world.Service{}, ErrInvalidUTF8
	}
	s.Name = string(name[:end])
	return s, nil
}

func frameHeader(msgType byte, revision uint64) []byte {
	buf := make([]byte, 9)
	buf[0] = msgType
	binary.LittleEndian.PutUint64(buf[1:9], revision)
	return buf
}

// PackSnapshot produces a 0x01 frame: header, task/service counts, then
// the packed task and service tables. Deterministic given the same
// world state.
func PackSnapshot(tasks []world.Task, services []world.Service, revision uint64) []byte {
	buf := frameHeader(MsgSnapshot, revision)

	counts := make([]byte, 8)
	binary.LittleEndian.PutUint32(counts[0:4], uint32(len(tasks)))
	binary.LittleEndian.PutUint32(counts[4:8], uint32(len(services)))
	buf = append(buf, counts...)

	for _, t := range tasks {
		buf = append(buf, PackTask(t)...)
	}
	for _, s := range services {
		buf = append(buf, PackService(s)...)
	}
	return buf
}

// PackEvent produces the server-to-client frame for ev. Panics on an
// unknown Kind: every Kind the World can produce is handled below, so
// hitting the default means internal/world and internal/wire have
// drifted out of sync with each other.
func PackEvent(ev world.Event) []byte {
	switch ev.Kind {
	case world.TaskCreated:
		buf := frameHeader(MsgTaskCreated, ev.Revision)
		return append(buf, PackTask(ev.Task)...)
	case world.TaskScheduled:
		return packTaskIDAndSchedule(MsgTaskScheduled, ev.Revision, ev.TaskID, ev.Schedule)
	case world.TaskMoved:
		return packTaskIDAndSchedule(MsgTaskMoved, ev.Revision, ev.TaskID, ev.Schedule)
	case world.TaskUnscheduled:
		return packTaskID(MsgTaskUnscheduled, ev.Revision, ev.TaskID)
	case world.TaskCompleted:
		return packTaskID(MsgTaskCompleted, ev.Revision, ev.TaskID)
	case world.TaskDeleted:
		return packTaskID(MsgTaskDeleted, ev.Revision, ev.TaskID)
	default:
		panic("wire: PackEvent: unknown event kind")
	}
}

func packTaskID(msgType byte, revision uint64, id uuid.UUID) []byte {
	buf := frameHeader(msgType, revision)
	return append(buf, id[:]...)
}

func packTaskIDAndSchedule(msgType byte, revision uint64, id uuid.UUID, s world.Schedule) []byte {
	buf := frameHeader(msgType, revision)
	buf = append(buf, id[:]...)
	buf = append(buf, s.Day)
	rest := make([]byte, 4)
	binary.LittleEndian.PutUint16(rest[0:2], s.StartTime)
	binary.LittleEndian.PutUint16(rest[2:4], s.Duration)
	return append(buf, rest...)
}
