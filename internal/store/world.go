package store

import (
	"encoding/binary"
	"fmt"

	"github.com/google/uuid"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/darxtarr/txxt/internal/world"
)

const revisionKey = "revision"

// LoadWorld rebuilds a *world.World from every row currently on disk.
// Called once at boot; never during normal operation thereafter.
func (sf *SaveFile) LoadWorld() (*world.World, error) {
	tasks, err := sf.loadTasks()
	if err != nil {
		return nil, err
	}
	users, err := sf.loadUsers()
	if err != nil {
		return nil, err
	}
	services, err := sf.loadServices()
	if err != nil {
		return nil, err
	}
	revision, err := sf.loadRevision()
	if err != nil {
		return nil, err
	}

	return world.New(tasks, users, services, revision, nil), nil
}

func (sf *SaveFile) loadTasks() ([]world.Task, error) {
	var tasks []world.Task
	err := sqlitex.Execute(sf.conn, "SELECT value FROM world_tasks ORDER BY id", &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			data := make([]byte, stmt.ColumnLen(0))
			stmt.ColumnBytes(0, data)
			var t world.Task
			if err := unmarshalRecord(data, &t); err != nil {
				return err
			}
			tasks = append(tasks, t)
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("store: loading tasks: %w", err)
	}
	return tasks, nil
}

func (sf *SaveFile) loadUsers() ([]world.User, error) {
	var users []world.User
	err := sqlitex.Execute(sf.conn, "SELECT value FROM world_users ORDER BY id", &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			data := make([]byte, stmt.ColumnLen(0))
			stmt.ColumnBytes(0, data)
			var u world.User
			if err := unmarshalRecord(data, &u); err != nil {
				return err
			}
			users = append(users, u)
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("store: loading users: %w", err)
	}
	return users, nil
}

func (sf *SaveFile) loadServices() ([]world.Service, error) {
	var services []world.Service
	err := sqlitex.Execute(sf.conn, "SELECT value FROM world_services ORDER BY id", &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			data := make([]byte, stmt.ColumnLen(0))
			stmt.ColumnBytes(0, data)
			var s world.Service
			if err := unmarshalRecord(data, &s); err != nil {
				return err
			}
			services = append(services, s)
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("store: loading services: %w", err)
	}
	return services, nil
}

func (sf *SaveFile) loadRevision() (uint64, error) {
	var revision uint64
	err := sqlitex.Execute(sf.conn, "SELECT value FROM world_meta WHERE key = ?", &sqlitex.ExecOptions{
		Args: []any{revisionKey},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			data := make([]byte, stmt.ColumnLen(0))
			stmt.ColumnBytes(0, data)
			if len(data) == 8 {
				revision = binary.LittleEndian.Uint64(data)
			}
			return nil
		},
	})
	if err != nil {
		return 0, fmt.Errorf("store: loading revision: %w", err)
	}
	return revision, nil
}

// Flush writes the minimal row set touched by ev and advances the
// persisted revision counter, in a single IMMEDIATE transaction. It is
// the only write path exercised during normal operation — seeding
// aside, every other mutation to the save file flows through here.
//
// Called while the caller holds the World's write lock, after Apply
// has already mutated w in memory: a flush failure here is treated as
// fatal by the session orchestrator (see SPEC_FULL.md SS9), since the
// in-memory and on-disk states would otherwise silently diverge.
func (sf *SaveFile) Flush(w *world.World, ev world.Event) error {
	endTxn, err := sqlitex.ImmediateTransaction(sf.conn)
	if err != nil {
		return fmt.Errorf("store: flush: begin transaction: %w", err)
	}
	defer endTxn(&err)

	switch ev.Kind {
	case world.TaskCreated:
		if err = sf.putTask(ev.Task); err != nil {
			return err
		}
	case world.TaskScheduled, world.TaskMoved, world.TaskUnscheduled, world.TaskCompleted:
		t, ok := taskByID(w, ev.TaskID)
		if !ok {
			return fmt.Errorf("store: flush: task %s missing from world after apply", ev.TaskID)
		}
		if err = sf.putTask(t); err != nil {
			return err
		}
	case world.TaskDeleted:
		if err = sf.deleteTask(ev.TaskID); err != nil {
			return err
		}
	default:
		return fmt.Errorf("store: flush: unhandled event kind %d", ev.Kind)
	}

	if err = sf.putRevision(w.Revision()); err != nil {
		return err
	}
	return nil
}

func taskByID(w *world.World, id uuid.UUID) (world.Task, bool) {
	for _, t := range w.Tasks() {
		if t.ID == id {
			return t, true
		}
	}
	return world.Task{}, false
}

func (sf *SaveFile) putTask(t world.Task) error {
	data, err := marshalRecord(t)
	if err != nil {
		return err
	}
	return sqlitex.Execute(sf.conn, "INSERT OR REPLACE INTO world_tasks (id, value) VALUES (?, ?)", &sqlitex.ExecOptions{
		Args: []any{t.ID[:], data},
	})
}

func (sf *SaveFile) deleteTask(id uuid.UUID) error {
	return sqlitex.Execute(sf.conn, "DELETE FROM world_tasks WHERE id = ?", &sqlitex.ExecOptions{
		Args: []any{id[:]},
	})
}

func (sf *SaveFile) putRevision(revision uint64) error {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, revision)
	return sqlitex.Execute(sf.conn, "INSERT OR REPLACE INTO world_meta (key, value) VALUES (?, ?)", &sqlitex.ExecOptions{
		Args: []any{revisionKey, buf},
	})
}

// SaveUser writes a single user row, for seeding and account creation.
func (sf *SaveFile) SaveUser(u world.User) error {
	data, err := marshalRecord(u)
	if err != nil {
		return err
	}
	return sqlitex.Execute(sf.conn, "INSERT OR REPLACE INTO world_users (id, value) VALUES (?, ?)", &sqlitex.ExecOptions{
		Args: []any{u.ID[:], data},
	})
}

// SaveService writes a single service row, for seeding.
func (sf *SaveFile) SaveService(s world.Service) error {
	data, err := marshalRecord(s)
	if err != nil {
		return err
	}
	return sqlitex.Execute(sf.conn, "INSERT OR REPLACE INTO world_services (id, value) VALUES (?, ?)", &sqlitex.ExecOptions{
		Args: []any{s.ID[:], data},
	})
}
