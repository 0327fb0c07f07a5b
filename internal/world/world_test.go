package world

import (
	"bytes"
	"testing"

	"github.com/google/uuid"
)

func testWorld(t *testing.T) (*World, uuid.UUID, uuid.UUID) {
	t.Helper()
	actor := uuid.New()
	service := uuid.New()
	w := New(
		nil,
		[]User{{ID: actor, Username: "actor"}},
		[]Service{{ID: service, Name: "svc"}},
		0,
		nil,
	)
	return w, actor, service
}

func createStagedTask(t *testing.T, w *World, actor, service uuid.UUID) uuid.UUID {
	t.Helper()
	w.Lock()
	defer w.Unlock()
	ev, err := w.Apply(CreateTask{Priority: Medium, ServiceID: service, Title: "t"}, actor)
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	return ev.Task.ID
}

func TestCreateTaskStagedByDefault(t *testing.T) {
	w, actor, service := testWorld(t)
	w.Lock()
	ev, err := w.Apply(CreateTask{Priority: High, ServiceID: service, Title: "prep"}, actor)
	w.Unlock()
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if ev.Kind != TaskCreated {
		t.Fatalf("expected TaskCreated, got %v", ev.Kind)
	}
	if ev.Task.Status != Staged {
		t.Fatalf("expected Staged, got %v", ev.Task.Status)
	}
	if ev.Task.Schedule != nil {
		t.Fatalf("expected no schedule, got %+v", ev.Task.Schedule)
	}
	if ev.Revision != 1 {
		t.Fatalf("expected revision 1, got %d", ev.Revision)
	}
}

func TestCreateTaskWithScheduleIsScheduled(t *testing.T) {
	w, actor, service := testWorld(t)
	sched := Schedule{Day: 2, StartTime: 540, Duration: 60}
	w.Lock()
	ev, err := w.Apply(CreateTask{Priority: Low, ServiceID: service, Title: "x", Schedule: &sched}, actor)
	w.Unlock()
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if ev.Task.Status != Scheduled {
		t.Fatalf("expected Scheduled, got %v", ev.Task.Status)
	}
	if ev.Task.Schedule == nil || *ev.Task.Schedule != sched {
		t.Fatalf("expected schedule %+v, got %+v", sched, ev.Task.Schedule)
	}
}

func TestCreateTaskUnknownServiceRejected(t *testing.T) {
	w, actor, _ := testWorld(t)
	w.Lock()
	_, err := w.Apply(CreateTask{Priority: Low, ServiceID: uuid.New(), Title: "x"}, actor)
	w.Unlock()
	if err != ErrServiceNotFound {
		t.Fatalf("expected ErrServiceNotFound, got %v", err)
	}
	w.RLock()
	rev := w.Revision()
	w.RUnlock()
	if rev != 0 {
		t.Fatalf("expected revision unchanged, got %d", rev)
	}
}

func TestScheduleTaskRequiresStaged(t *testing.T) {
	w, actor, service := testWorld(t)
	id := createStagedTask(t, w, actor, service)

	w.Lock()
	_, err := w.Apply(ScheduleTask{TaskID: id, Schedule: Schedule{Day: 1, StartTime: 0, Duration: 15}}, actor)
	w.Unlock()
	if err != nil {
		t.Fatalf("first schedule: %v", err)
	}

	w.Lock()
	_, err = w.Apply(ScheduleTask{TaskID: id, Schedule: Schedule{Day: 2, StartTime: 15, Duration: 15}}, actor)
	w.Unlock()
	if err != ErrIllegalTransition {
		t.Fatalf("expected ErrIllegalTransition scheduling an already-scheduled task, got %v", err)
	}
}

func TestMoveTaskRequiresScheduledOrActive(t *testing.T) {
	w, actor, service := testWorld(t)
	id := createStagedTask(t, w, actor, service)

	w.Lock()
	_, err := w.Apply(MoveTask{TaskID: id, Schedule: Schedule{Day: 1, StartTime: 0, Duration: 15}}, actor)
	w.Unlock()
	if err != ErrIllegalTransition {
		t.Fatalf("expected ErrIllegalTransition moving a staged task, got %v", err)
	}
}

func TestScheduleThenMove(t *testing.T) {
	w, actor, service := testWorld(t)
	id := createStagedTask(t, w, actor, service)

	w.Lock()
	ev, err := w.Apply(ScheduleTask{TaskID: id, Schedule: Schedule{Day: 2, StartTime: 540, Duration: 60}}, actor)
	w.Unlock()
	if err != nil || ev.Revision != 2 {
		t.Fatalf("schedule: ev=%+v err=%v", ev, err)
	}

	w.Lock()
	ev, err = w.Apply(MoveTask{TaskID: id, Schedule: Schedule{Day: 3, StartTime: 900, Duration: 90}}, actor)
	w.Unlock()
	if err != nil || ev.Revision != 3 {
		t.Fatalf("move: ev=%+v err=%v", ev, err)
	}

	w.RLock()
	task := w.tasks[id]
	w.RUnlock()
	if task.Schedule == nil || task.Schedule.Day != 3 {
		t.Fatalf("expected task moved to day 3, got %+v", task.Schedule)
	}
}

func TestCompleteClearsSchedule(t *testing.T) {
	w, actor, service := testWorld(t)
	id := createStagedTask(t, w, actor, service)

	w.Lock()
	_, _ = w.Apply(ScheduleTask{TaskID: id, Schedule: Schedule{Day: 1, StartTime: 0, Duration: 15}}, actor)
	ev, err := w.Apply(CompleteTask{TaskID: id}, actor)
	w.Unlock()
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if ev.Kind != TaskCompleted {
		t.Fatalf("expected TaskCompleted, got %v", ev.Kind)
	}

	w.RLock()
	task := w.tasks[id]
	w.RUnlock()
	if task.Status != Completed {
		t.Fatalf("expected Completed, got %v", task.Status)
	}
	if task.Schedule != nil {
		t.Fatalf("expected schedule cleared on completion, got %+v", task.Schedule)
	}
}

func TestCannotCompleteStagedTask(t *testing.T) {
	w, actor, service := testWorld(t)
	id := createStagedTask(t, w, actor, service)

	w.Lock()
	_, err := w.Apply(CompleteTask{TaskID: id}, actor)
	w.Unlock()
	if err != ErrIllegalTransition {
		t.Fatalf("expected ErrIllegalTransition, got %v", err)
	}
}

func TestDeleteUnknownTaskRejected(t *testing.T) {
	w, actor, _ := testWorld(t)
	w.Lock()
	_, err := w.Apply(DeleteTask{TaskID: uuid.New()}, actor)
	w.Unlock()
	if err != ErrTaskNotFound {
		t.Fatalf("expected ErrTaskNotFound, got %v", err)
	}
	w.RLock()
	logLen := len(w.log)
	w.RUnlock()
	if logLen != 0 {
		t.Fatalf("expected log unchanged, got %d entries", logLen)
	}
}

func TestDeleteTaskRemovesIt(t *testing.T) {
	w, actor, service := testWorld(t)
	id := createStagedTask(t, w, actor, service)

	w.Lock()
	ev, err := w.Apply(DeleteTask{TaskID: id}, actor)
	w.Unlock()
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if ev.Kind != TaskDeleted || ev.TaskID != id {
		t.Fatalf("unexpected event: %+v", ev)
	}

	w.RLock()
	_, exists := w.tasks[id]
	w.RUnlock()
	if exists {
		t.Fatalf("expected task removed")
	}
}

func TestTwoIdenticalCreatesProduceDistinctIDs(t *testing.T) {
	w, actor, service := testWorld(t)
	w.Lock()
	ev1, err1 := w.Apply(CreateTask{Priority: Low, ServiceID: service, Title: "dup"}, actor)
	ev2, err2 := w.Apply(CreateTask{Priority: Low, ServiceID: service, Title: "dup"}, actor)
	w.Unlock()
	if err1 != nil || err2 != nil {
		t.Fatalf("create: %v %v", err1, err2)
	}
	if ev1.Task.ID == ev2.Task.ID {
		t.Fatalf("expected distinct ids, got %s twice", ev1.Task.ID)
	}
}

func TestScheduleBoundaries(t *testing.T) {
	cases := []struct {
		name  string
		sched Schedule
		want  error
	}{
		{"start-0-min-duration", Schedule{Day: 0, StartTime: 0, Duration: 15}, nil},
		{"ends-exactly-at-midnight", Schedule{Day: 0, StartTime: 1425, Duration: 15}, nil},
		{"exceeds-1440", Schedule{Day: 0, StartTime: 1430, Duration: 15}, ErrInvalidSchedule},
		{"day-7-rejected", Schedule{Day: 7, StartTime: 0, Duration: 15}, ErrInvalidSchedule},
		{"day-6-accepted", Schedule{Day: 6, StartTime: 0, Duration: 15}, nil},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := validateSchedule(c.sched)
			if err != c.want {
				t.Fatalf("validateSchedule(%+v) = %v, want %v", c.sched, err, c.want)
			}
		})
	}
}

func TestStagingQueueOrdersByPriorityThenCreation(t *testing.T) {
	w, actor, service := testWorld(t)
	w.Lock()
	evLow, _ := w.Apply(CreateTask{Priority: Low, ServiceID: service, Title: "a"}, actor)
	evUrgent, _ := w.Apply(CreateTask{Priority: Urgent, ServiceID: service, Title: "b"}, actor)
	evMedium, _ := w.Apply(CreateTask{Priority: Medium, ServiceID: service, Title: "c"}, actor)
	w.Unlock()

	w.RLock()
	queue := w.StagingQueue()
	w.RUnlock()

	if len(queue) != 3 {
		t.Fatalf("expected 3 staged tasks, got %d", len(queue))
	}
	want := []uuid.UUID{evUrgent.Task.ID, evMedium.Task.ID, evLow.Task.ID}
	for i, id := range want {
		if queue[i].ID != id {
			t.Fatalf("position %d: expected %s, got %s", i, id, queue[i].ID)
		}
	}
}

func TestEventsSinceReturnsSuffix(t *testing.T) {
	w, actor, service := testWorld(t)
	w.Lock()
	w.Apply(CreateTask{Priority: Low, ServiceID: service, Title: "a"}, actor)
	w.Apply(CreateTask{Priority: Low, ServiceID: service, Title: "b"}, actor)
	w.Apply(CreateTask{Priority: Low, ServiceID: service, Title: "c"}, actor)
	w.Unlock()

	w.RLock()
	suffix := w.EventsSince(1)
	w.RUnlock()

	if len(suffix) != 2 {
		t.Fatalf("expected 2 entries after revision 1, got %d", len(suffix))
	}
	if suffix[0].Revision != 2 || suffix[1].Revision != 3 {
		t.Fatalf("unexpected revisions: %+v", suffix)
	}
}

func TestUnknownActorRejected(t *testing.T) {
	w, _, service := testWorld(t)
	w.Lock()
	_, err := w.Apply(CreateTask{Priority: Low, ServiceID: service, Title: "x"}, uuid.New())
	w.Unlock()
	if err != ErrUserNotFound {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestNilActorIsSystemActor(t *testing.T) {
	w, _, service := testWorld(t)
	w.Lock()
	_, err := w.Apply(CreateTask{Priority: Low, ServiceID: service, Title: "x"}, uuid.Nil)
	w.Unlock()
	if err != nil {
		t.Fatalf("expected nil-uuid system actor to pass existence check, got %v", err)
	}
}

func TestSeedUserAndServiceBypassApplyAndRevision(t *testing.T) {
	w := New(nil, nil, nil, 0, nil)
	u := User{ID: uuid.New(), Username: "admin"}
	svc := Service{ID: uuid.New(), Name: "Billing Portal"}

	w.SeedUser(u)
	w.SeedService(svc)

	w.RLock()
	defer w.RUnlock()
	if !w.UserExists(u.ID) {
		t.Fatalf("expected seeded user to exist")
	}
	if len(w.Services()) != 1 {
		t.Fatalf("expected 1 seeded service, got %d", len(w.Services()))
	}
	if w.Revision() != 0 {
		t.Fatalf("expected seeding not to advance revision, got %d", w.Revision())
	}
	if len(w.EventsSince(0)) != 0 {
		t.Fatalf("expected seeding not to append to the log")
	}
}

func TestTasksAndServicesAreOrderedByID(t *testing.T) {
	w, actor, service := testWorld(t)
	createStagedTask(t, w, actor, service)
	createStagedTask(t, w, actor, service)
	createStagedTask(t, w, actor, service)

	w.SeedService(Service{ID: uuid.New(), Name: "b"})
	w.SeedService(Service{ID: uuid.New(), Name: "a"})

	w.RLock()
	defer w.RUnlock()

	tasks := w.Tasks()
	for i := 1; i < len(tasks); i++ {
		if bytes.Compare(tasks[i-1].ID[:], tasks[i].ID[:]) >= 0 {
			t.Fatalf("expected tasks sorted ascending by id, got %v then %v", tasks[i-1].ID, tasks[i].ID)
		}
	}

	services := w.Services()
	for i := 1; i < len(services); i++ {
		if bytes.Compare(services[i-1].ID[:], services[i].ID[:]) >= 0 {
			t.Fatalf("expected services sorted ascending by id, got %v then %v", services[i-1].ID, services[i].ID)
		}
	}

	// Repeated calls must be byte-identical, matching the packing
	// contract that PackSnapshot relies on.
	again := w.Tasks()
	for i := range tasks {
		if tasks[i].ID != again[i].ID {
			t.Fatalf("expected repeated Tasks() calls to agree on order")
		}
	}
}
