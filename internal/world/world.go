package world

import (
	"bytes"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// World is the aggregate root: the authoritative task/user/service
// tables, the revision counter, and the append-only replay log. It is
// pure and synchronous — no I/O, no time, no randomness beyond the id
// generator supplied at construction.
//
// World owns its own reader-writer lock rather than leaving exclusion to
// a caller-supplied mutex: the session orchestrator's command pipeline
// needs to hold write access across apply *and* the save-file flush, so
// the lock has to be a first-class, explicitly held resource rather than
// an implementation detail hidden inside Apply.
type World struct {
	mu sync.RWMutex

	tasks    map[uuid.UUID]Task
	users    map[uuid.UUID]User
	services map[uuid.UUID]Service

	revision uint64
	log      []LogEntry
	seq      uint64

	newID func() uuid.UUID
}

// New builds a World from rows already loaded from the save file (or
// empty slices, for a fresh boot). newID generates task identifiers; a
// nil newID defaults to uuid.New.
func New(tasks []Task, users []User, services []Service, revision uint64, newID func() uuid.UUID) *World {
	if newID == nil {
		newID = uuid.New
	}
	w := &World{
		tasks:    make(map[uuid.UUID]Task, len(tasks)),
		users:    make(map[uuid.UUID]User, len(users)),
		services: make(map[uuid.UUID]Service, len(services)),
		revision: revision,
		newID:    newID,
	}
	var seq uint64
	for _, t := range tasks {
		t.seq = seq
		seq++
		w.tasks[t.ID] = t
	}
	w.seq = seq
	for _, u := range users {
		w.users[u.ID] = u
	}
	for _, s := range services {
		w.services[s.ID] = s
	}
	return w
}

// Lock acquires exclusive write access. Callers must release with
// Unlock; held across Apply and the corresponding save-file flush so
// the two remain atomic from every other goroutine's perspective.
func (w *World) Lock()   { w.mu.Lock() }
func (w *World) Unlock() { w.mu.Unlock() }

// RLock acquires shared read access, sufficient for Tasks/Services
// (snapshot packing), StagingQueue, and EventsSince.
func (w *World) RLock()   { w.mu.RLock() }
func (w *World) RUnlock() { w.mu.RUnlock() }

// Revision returns the current revision. Caller must hold at least a
// read lock.
func (w *World) Revision() uint64 { return w.revision }

// Tasks returns every task ordered by id, for snapshot packing. Caller
// must hold at least a read lock. The returned slice is a fresh copy.
//
// Map iteration order is randomized per run, but the packing contract
// (SPEC_FULL.md SS4.2) requires that repeated packing of equivalent
// state produce byte-identical output, so the result is sorted the same
// way the save file's "ORDER BY id" load query already is.
func (w *World) Tasks() []Task {
	out := make([]Task, 0, len(w.tasks))
	for _, t := range w.tasks {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i].ID[:], out[j].ID[:]) < 0
	})
	return out
}

// Services returns every service ordered by id, for snapshot packing.
// Caller must hold at least a read lock.
func (w *World) Services() []Service {
	out := make([]Service, 0, len(w.services))
	for _, s := range w.services {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i].ID[:], out[j].ID[:]) < 0
	})
	return out
}

// Users returns every user. Caller must hold at least a read lock.
func (w *World) Users() []User {
	out := make([]User, 0, len(w.users))
	for _, u := range w.users {
		out = append(out, u)
	}
	return out
}

// UserByUsername resolves a username to a user, for the auth
// collaborator's find_by_username contract. Caller must hold at least a
// read lock.
func (w *World) UserByUsername(name string) (User, bool) {
	for _, u := range w.users {
		if u.Username == name {
			return u, true
		}
	}
	return User{}, false
}

// UserExists reports whether id resolves in the user table, or is the
// nil UUID (the distinguished "system" actor, which always passes
// existence checks). Caller must hold at least a read lock.
func (w *World) UserExists(id uuid.UUID) bool {
	if id == uuid.Nil {
		return true
	}
	_, ok := w.users[id]
	return ok
}

// FirstUser returns an arbitrary user, for dev-mode actor substitution.
// Caller must hold at least a read lock.
func (w *World) FirstUser() (User, bool) {
	for _, u := range w.users {
		return u, true
	}
	return User{}, false
}

// SeedUser inserts u directly into the user table, bypassing Apply.
// Used only by the save-file seeding collaborator at boot, before the
// World is exposed to any session: seeded users are not themselves
// World mutations and do not advance the revision or append to the
// log.
func (w *World) SeedUser(u User) {
	w.mu.Lock()
	w.users[u.ID] = u
	w.mu.Unlock()
}

// SeedService inserts s directly into the service table, bypassing
// Apply. Used only by the save-file seeding collaborator at boot.
func (w *World) SeedService(s Service) {
	w.mu.Lock()
	w.services[s.ID] = s
	w.mu.Unlock()
}

// StagingQueue returns Staged tasks ordered by (priority desc,
// creation-order asc). Recomputed on every call; not persisted as a
// structure. Caller must hold at least a read lock.
func (w *World) StagingQueue() []Task {
	out := make([]Task, 0)
	for _, t := range w.tasks {
		if t.Status == Staged {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		return out[i].seq < out[j].seq
	})
	return out
}

// EventsSince returns the suffix of the log whose revision is strictly
// greater than rev. Caller must hold at least a read lock. The log is
// never trimmed within a process lifetime (see SPEC_FULL.md SS9).
func (w *World) EventsSince(rev uint64) []LogEntry {
	// The log is revision-ordered by construction (append-only, one
	// entry per successful apply), so a linear scan from the front
	// finds the cut point; a binary search would need no extra
	// correctness but isn't worth it at the log sizes this service
	// expects to see.
	idx := len(w.log)
	for i, e := range w.log {
		if e.Revision > rev {
			idx = i
			break
		}
	}
	out := make([]LogEntry, len(w.log)-idx)
	copy(out, w.log[idx:])
	return out
}

func validateSchedule(s Schedule) error {
	if s.Day > 6 {
		return ErrInvalidSchedule
	}
	if s.StartTime%15 != 0 || s.StartTime >= 1440 {
		return ErrInvalidSchedule
	}
	if s.Duration == 0 || s.Duration%15 != 0 {
		return ErrInvalidSchedule
	}
	if uint32(s.StartTime)+uint32(s.Duration) > 1440 {
		return ErrInvalidSchedule
	}
	return nil
}

// Apply validates cmd against current state, mutates it, appends to the
// log, and returns the resulting Event. On any validation failure it
// returns an error and leaves the World byte-for-byte unchanged: no
// mutation, no revision increment, no log entry. Caller must hold the
// write lock.
func (w *World) Apply(cmd Command, actor uuid.UUID) (Event, error) {
	if !w.UserExists(actor) {
		return Event{}, ErrUserNotFound
	}

	switch c := cmd.(type) {
	case CreateTask:
		return w.applyCreateTask(c, actor)
	case ScheduleTask:
		return w.applyScheduleTask(c)
	case MoveTask:
		return w.applyMoveTask(c)
	case UnscheduleTask:
		return w.applyUnscheduleTask(c)
	case CompleteTask:
		return w.applyCompleteTask(c)
	case DeleteTask:
		return w.applyDeleteTask(c)
	default:
		return Event{}, ErrUnknownCommand
	}
}

func (w *World) applyCreateTask(c CreateTask, actor uuid.UUID) (Event, error) {
	if _, ok := w.services[c.ServiceID]; !ok {
		return Event{}, ErrServiceNotFound
	}
	if c.AssignedTo != uuid.Nil && !w.UserExists(c.AssignedTo) {
		return Event{}, ErrUserNotFound
	}
	if c.Schedule != nil {
		if err := validateSchedule(*c.Schedule); err != nil {
			return Event{}, err
		}
	}

	status := Staged
	if c.Schedule != nil {
		status = Scheduled
	}
	t := Task{
		ID:         w.newID(),
		CreatedBy:  actor,
		ServiceID:  c.ServiceID,
		AssignedTo: c.AssignedTo,
		Title:      c.Title,
		Status:     status,
		Priority:   c.Priority,
		Schedule:   c.Schedule,
		seq:        w.seq,
	}
	w.seq++
	w.tasks[t.ID] = t

	return w.commit(Event{Kind: TaskCreated, Task: t})
}

func (w *World) applyScheduleTask(c ScheduleTask) (Event, error) {
	t, ok := w.tasks[c.TaskID]
	if !ok {
		return Event{}, ErrTaskNotFound
	}
	if err := validateSchedule(c.Schedule); err != nil {
		return Event{}, err
	}
	if t.Status != Staged {
		return Event{}, ErrIllegalTransition
	}

	sched := c.Schedule
	t.Status = Scheduled
	t.Schedule = &sched
	w.tasks[t.ID] = t

	return w.commit(Event{Kind: TaskScheduled, TaskID: t.ID, Schedule: sched})
}

func (w *World) applyMoveTask(c MoveTask) (Event, error) {
	t, ok := w.tasks[c.TaskID]
	if !ok {
		return Event{}, ErrTaskNotFound
	}
	if err := validateSchedule(c.Schedule); err != nil {
		return Event{}, err
	}
	if t.Status != Scheduled && t.Status != Active {
		return Event{}, ErrIllegalTransition
	}

	sched := c.Schedule
	t.Schedule = &sched
	w.tasks[t.ID] = t

	return w.commit(Event{Kind: TaskMoved, TaskID: t.ID, Schedule: sched})
}

func (w *World) applyUnscheduleTask(c UnscheduleTask) (Event, error) {
	t, ok := w.tasks[c.TaskID]
	if !ok {
		return Event{}, ErrTaskNotFound
	}
	if t.Status != Scheduled && t.Status != Active {
		return Event{}, ErrIllegalTransition
	}

	t.Status = Staged
	t.Schedule = nil
	w.tasks[t.ID] = t

	return w.commit(Event{Kind: TaskUnscheduled, TaskID: t.ID})
}

func (w *World) applyCompleteTask(c CompleteTask) (Event, error) {
	t, ok := w.tasks[c.TaskID]
	if !ok {
		return Event{}, ErrTaskNotFound
	}
	if t.Status != Scheduled && t.Status != Active {
		return Event{}, ErrIllegalTransition
	}

	// Invariant 3 (status in {Scheduled, Active} iff scheduling set) is
	// a strict iff, so completion clears the schedule rather than
	// leaving it attached to a Completed task.
	t.Status = Completed
	t.Schedule = nil
	w.tasks[t.ID] = t

	return w.commit(Event{Kind: TaskCompleted, TaskID: t.ID})
}

func (w *World) applyDeleteTask(c DeleteTask) (Event, error) {
	if _, ok := w.tasks[c.TaskID]; !ok {
		return Event{}, ErrTaskNotFound
	}
	delete(w.tasks, c.TaskID)

	return w.commit(Event{Kind: TaskDeleted, TaskID: c.TaskID})
}

// commit stamps ev with the post-mutation revision and appends it to
// the log. Called only after a mutation has already been applied to the
// task table, from inside the apply* methods above.
func (w *World) commit(ev Event) (Event, error) {
	w.revision++
	ev.Revision = w.revision
	w.log = append(w.log, LogEntry{Revision: w.revision, Event: ev})
	return ev, nil
}
