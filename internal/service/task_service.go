package service

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/nhle/todo/internal/model"
	"github.com/nhle/todo/internal/store"
)

// TaskService reads and writes tasks.
type TaskService struct {
	db  Transactor
	log log.FieldLogger
}

// NewTaskService returns a TaskService on top of db.
func NewTaskService(db Transactor, logger log.FieldLogger) *TaskService {
	return &TaskService{db: db, log: logger.WithField("entity", "task")}
}

// FindAllTasks returns every task in insertion order.
func (s *TaskService) FindAllTasks(ctx context.Context) ([]model.Task, error) {
	return s.list(ctx, store.TaskFilter{})
}

// FilterTasks returns the tasks whose closed flag equals closed.
func (s *TaskService) FilterTasks(ctx context.Context, closed bool) ([]model.Task, error) {
	return s.list(ctx, store.TaskFilter{Closed: &closed})
}

// FindAllOpenTasks returns the tasks that are not closed.
func (s *TaskService) FindAllOpenTasks(ctx context.Context) ([]model.Task, error) {
	return s.FilterTasks(ctx, false)
}

// FindAllClosedTasks returns the closed tasks.
func (s *TaskService) FindAllClosedTasks(ctx context.Context) ([]model.Task, error) {
	return s.FilterTasks(ctx, true)
}

// FindTasksHavingTargetEndAfter returns the tasks whose target end is
// strictly after end. Tasks without a target end are left out.
func (s *TaskService) FindTasksHavingTargetEndAfter(ctx context.Context, end time.Time) ([]model.Task, error) {
	return s.list(ctx, store.TaskFilter{TargetEndAfter: &end})
}

// FindTasksHavingTargetEndBefore returns the tasks whose target end is
// strictly before end. Tasks without a target end are left out.
func (s *TaskService) FindTasksHavingTargetEndBefore(ctx context.Context, end time.Time) ([]model.Task, error) {
	return s.list(ctx, store.TaskFilter{TargetEndBefore: &end})
}

func (s *TaskService) list(ctx context.Context, filter store.TaskFilter) ([]model.Task, error) {
	var tasks []model.Task
	err := s.db.ReadTx(ctx, func(tx *store.Tx) error {
		var err error
		tasks, err = tx.ListTasks(ctx, filter)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.log.WithField("count", len(tasks)).Debug("listed tasks")
	return tasks, nil
}

// FindTask returns the task with the given id. found is false if there is
// none.
func (s *TaskService) FindTask(ctx context.Context, id int64) (task model.Task, found bool, err error) {
	err = s.db.ReadTx(ctx, func(tx *store.Tx) error {
		task, found, err = tx.GetTask(ctx, id)
		return err
	})
	return task, found, err
}

// AddTask stores a new task and returns it with its identity set. The task
// must not have an identity yet.
func (s *TaskService) AddTask(ctx context.Context, task model.Task) (model.Task, error) {
	if task.HasID() {
		return model.Task{}, fmt.Errorf("adding task %q: already has id %d: %w",
			task.Name, *task.ID, model.ErrPrecondition)
	}
	if err := task.Validate(); err != nil {
		return model.Task{}, fmt.Errorf("adding task: %w", err)
	}

	var added model.Task
	err := s.db.WriteTx(ctx, func(tx *store.Tx) error {
		id, err := tx.InsertTask(ctx, task)
		if err != nil {
			return err
		}
		stored, found, err := tx.GetTask(ctx, id)
		if err != nil {
			return err
		}
		if !found || !stored.HasID() {
			return fmt.Errorf("task %d missing right after insert", id)
		}
		added = stored
		return nil
	})
	if err != nil {
		return model.Task{}, err
	}

	s.log.WithField("id", *added.ID).Info("added task")
	return added, nil
}

// UpdateTask overwrites description, target end, note and closed flag of a
// stored task. The task must have an identity and its name must equal the
// stored name; a different name means the caller holds a stale or wrong
// task.
func (s *TaskService) UpdateTask(ctx context.Context, task model.Task) (model.Task, error) {
	if !task.HasID() {
		return model.Task{}, fmt.Errorf("updating task %q: missing id: %w",
			task.Name, model.ErrPrecondition)
	}
	if err := task.Validate(); err != nil {
		return model.Task{}, fmt.Errorf("updating task %d: %w", *task.ID, err)
	}
	id := *task.ID

	var updated model.Task
	err := s.db.WriteTx(ctx, func(tx *store.Tx) error {
		current, found, err := tx.GetTask(ctx, id)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("updating task %d: %w", id, model.ErrNotFound)
		}
		if current.Name != task.Name {
			return fmt.Errorf("updating task %d: name %q does not match stored name %q: %w",
				id, task.Name, current.Name, model.ErrPrecondition)
		}

		if err := tx.UpdateTask(ctx, task); err != nil {
			return err
		}
		updated, _, err = tx.GetTask(ctx, id)
		return err
	})
	if err != nil {
		return model.Task{}, err
	}

	s.log.WithField("id", id).Info("updated task")
	return updated, nil
}

// DeleteTask removes the task with the given id. Deleting an unknown id is
// not an error.
func (s *TaskService) DeleteTask(ctx context.Context, id int64) error {
	var n int64
	err := s.db.WriteTx(ctx, func(tx *store.Tx) error {
		var err error
		n, err = tx.DeleteTask(ctx, id)
		return err
	})
	if err != nil {
		return err
	}
	s.log.WithFields(log.Fields{"id": id, "deleted": n}).Info("deleted task")
	return nil
}

// DeleteAllTasks removes every task.
func (s *TaskService) DeleteAllTasks(ctx context.Context) error {
	var n int64
	err := s.db.WriteTx(ctx, func(tx *store.Tx) error {
		var err error
		n, err = tx.DeleteAllTasks(ctx)
		return err
	})
	if err != nil {
		return err
	}
	s.log.WithField("deleted", n).Info("deleted all tasks")
	return nil
}
