package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nhle/todo/internal/model"
)

// TaskFilter narrows task queries. Nil fields do not filter.
type TaskFilter struct {
	Closed *bool

	// TargetEndAfter and TargetEndBefore compare strictly. Tasks without
	// a target end never match either bound.
	TargetEndAfter  *time.Time
	TargetEndBefore *time.Time
}

// taskRow is the stored shape of a task.
type taskRow struct {
	ID               int64          `db:"id"`
	Name             string         `db:"name"`
	Description      string         `db:"description"`
	TargetEnd        sql.NullTime   `db:"target_end"`
	ExtraInformation sql.NullString `db:"extra_information"`
	Closed           bool           `db:"closed"`
}

const taskColumns = "id, name, description, target_end, extra_information, closed"

func (r taskRow) toModel() model.Task {
	t := model.Task{
		ID:          model.Ptr(r.ID),
		Name:        r.Name,
		Description: r.Description,
		Closed:      r.Closed,
	}
	if r.TargetEnd.Valid {
		t.TargetEnd = model.Ptr(r.TargetEnd.Time.UTC())
	}
	if r.ExtraInformation.Valid {
		t.ExtraInformation = model.Ptr(r.ExtraInformation.String)
	}
	return t
}

// taskRowFromModel maps the mutable columns of t. The identity is left
// to the caller.
func taskRowFromModel(t model.Task) taskRow {
	r := taskRow{
		Name:        t.Name,
		Description: t.Description,
		Closed:      t.Closed,
	}
	if t.TargetEnd != nil {
		r.TargetEnd = sql.NullTime{Time: t.TargetEnd.UTC(), Valid: true}
	}
	if note := model.NonBlank(t.ExtraInformation); note != nil {
		r.ExtraInformation = sql.NullString{String: *note, Valid: true}
	}
	return r
}

// InsertTask stores a new task and returns its generated identity.
func (t *Tx) InsertTask(ctx context.Context, task model.Task) (int64, error) {
	if task.HasID() {
		return 0, fmt.Errorf("inserting task %d: new tasks must not have an id: %w",
			*task.ID, model.ErrPrecondition)
	}
	r := taskRowFromModel(task)

	var id int64
	err := t.tx.QueryRowxContext(ctx, t.rebind(`
		INSERT INTO tasks (name, description, target_end, extra_information, closed)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id`),
		r.Name, r.Description, r.TargetEnd, r.ExtraInformation, r.Closed,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("inserting task: %w", err)
	}
	return id, nil
}

// GetTask retrieves a single task. found is false when no row has the id.
func (t *Tx) GetTask(ctx context.Context, id int64) (task model.Task, found bool, err error) {
	var r taskRow
	err = t.tx.GetContext(ctx, &r,
		t.rebind("SELECT "+taskColumns+" FROM tasks WHERE id = ?"), id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Task{}, false, nil
	}
	if err != nil {
		return model.Task{}, false, fmt.Errorf("getting task %d: %w", id, err)
	}
	return r.toModel(), true, nil
}

// ListTasks retrieves tasks matching the filter in insertion order.
func (t *Tx) ListTasks(ctx context.Context, filter TaskFilter) ([]model.Task, error) {
	query, args := buildTaskQuery(filter)

	var rows []taskRow
	if err := t.tx.SelectContext(ctx, &rows, t.rebind(query), args...); err != nil {
		return nil, fmt.Errorf("querying tasks: %w", err)
	}

	tasks := make([]model.Task, 0, len(rows))
	for _, r := range rows {
		tasks = append(tasks, r.toModel())
	}
	return tasks, nil
}

// UpdateTask overwrites the mutable columns of a stored task: description,
// target end, note and closed flag. The name is never written.
func (t *Tx) UpdateTask(ctx context.Context, task model.Task) error {
	if !task.HasID() {
		return fmt.Errorf("updating task %q: missing id: %w", task.Name, model.ErrPrecondition)
	}
	r := taskRowFromModel(task)

	result, err := t.tx.ExecContext(ctx, t.rebind(`
		UPDATE tasks SET
			description = ?, target_end = ?, extra_information = ?, closed = ?
		WHERE id = ?`),
		r.Description, r.TargetEnd, r.ExtraInformation, r.Closed,
		*task.ID,
	)
	if err != nil {
		return fmt.Errorf("updating task %d: %w", *task.ID, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("counting updated tasks: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("task %d: %w", *task.ID, model.ErrNotFound)
	}
	return nil
}

// DeleteTask removes a task by id and reports how many rows went away.
func (t *Tx) DeleteTask(ctx context.Context, id int64) (int64, error) {
	result, err := t.tx.ExecContext(ctx, t.rebind("DELETE FROM tasks WHERE id = ?"), id)
	if err != nil {
		return 0, fmt.Errorf("deleting task %d: %w", id, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting deleted tasks: %w", err)
	}
	return rows, nil
}

// DeleteAllTasks removes every task.
func (t *Tx) DeleteAllTasks(ctx context.Context) (int64, error) {
	result, err := t.tx.ExecContext(ctx, "DELETE FROM tasks")
	if err != nil {
		return 0, fmt.Errorf("deleting tasks: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting deleted tasks: %w", err)
	}
	return rows, nil
}

// buildTaskQuery constructs the SQL query and args for a TaskFilter.
func buildTaskQuery(filter TaskFilter) (string, []interface{}) {
	var conditions []string
	var args []interface{}

	if filter.Closed != nil {
		conditions = append(conditions, "closed = ?")
		args = append(args, *filter.Closed)
	}
	if filter.TargetEndAfter != nil {
		conditions = append(conditions, "target_end IS NOT NULL AND target_end > ?")
		args = append(args, filter.TargetEndAfter.UTC())
	}
	if filter.TargetEndBefore != nil {
		conditions = append(conditions, "target_end IS NOT NULL AND target_end < ?")
		args = append(args, filter.TargetEndBefore.UTC())
	}

	query := "SELECT " + taskColumns + " FROM tasks"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY id ASC"

	return query, args
}
