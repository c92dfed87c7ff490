package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"taskboard-api/domain"
	"taskboard-api/storage"
)

const taskColumns = `id, title, description, status, priority, due_date, tags, board_id, created_at`

func scanTask(row interface{ Scan(...any) error }) (domain.Task, error) {
	var (
		task      domain.Task
		status    string
		priority  string
		dueDate   sql.NullString
		createdAt int64
	)
	if err := row.Scan(&task.ID, &task.Title, &task.Description, &status, &priority,
		&dueDate, &task.Tags, &task.BoardID, &createdAt); err != nil {
		return domain.Task{}, err
	}
	task.Status = domain.Status(status)
	task.Priority = domain.Priority(priority)
	task.CreatedAt = fromMillis(createdAt)
	if dueDate.Valid && dueDate.String != "" {
		d, err := domain.ParseDate(dueDate.String)
		if err != nil {
			return domain.Task{}, fmt.Errorf("stored due_date %q: %w", dueDate.String, err)
		}
		task.DueDate = &d
	}
	return task, nil
}

func dueDateValue(d *domain.Date) any {
	if d == nil {
		return nil
	}
	return d.String()
}

func (t *tx) TaskByID(ctx context.Context, id int64) (domain.Task, error) {
	task, err := scanTask(t.tx.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Task{}, storage.ErrNotFound
		}
		return domain.Task{}, fmt.Errorf("get task: %w", err)
	}
	return task, nil
}

func (t *tx) InsertTask(ctx context.Context, task domain.Task) (domain.Task, error) {
	res, err := t.tx.ExecContext(ctx,
		`INSERT INTO tasks (title, description, status, priority, due_date, tags, board_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		task.Title, task.Description, string(task.Status), string(task.Priority),
		dueDateValue(task.DueDate), task.Tags, task.BoardID, toMillis(task.CreatedAt),
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.Task{}, fmt.Errorf("board %d: %w", task.BoardID, storage.ErrMissingReference)
		}
		return domain.Task{}, fmt.Errorf("insert task: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.Task{}, fmt.Errorf("task id: %w", err)
	}
	task.ID = id
	task.CreatedAt = fromMillis(toMillis(task.CreatedAt))
	return task, nil
}

// ListTasks pages over a board's tasks, newest first. Search matches title or
// description case-sensitively.
func (t *tx) ListTasks(ctx context.Context, boardID int64, opts domain.ListOptions) ([]domain.Task, error) {
	rows, err := t.tx.QueryContext(ctx,
		`SELECT `+taskColumns+` FROM tasks
		 WHERE board_id = ?
		   AND (instr(title, ?) > 0 OR instr(description, ?) > 0)
		 ORDER BY created_at DESC, id DESC
		 LIMIT ? OFFSET ?`,
		boardID, opts.Search, opts.Search, opts.Limit, opts.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]domain.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}
	return tasks, nil
}

func (t *tx) TasksForBoards(ctx context.Context, boardIDs []int64) (map[int64][]domain.Task, error) {
	out := make(map[int64][]domain.Task, len(boardIDs))
	if len(boardIDs) == 0 {
		return out, nil
	}

	args := make([]any, len(boardIDs))
	for i, id := range boardIDs {
		args[i] = id
		out[id] = make([]domain.Task, 0)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(boardIDs)), ",")

	rows, err := t.tx.QueryContext(ctx,
		`SELECT `+taskColumns+` FROM tasks
		 WHERE board_id IN (`+placeholders+`)
		 ORDER BY created_at DESC, id DESC`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("list board tasks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		out[task.BoardID] = append(out[task.BoardID], task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate board tasks: %w", err)
	}
	return out, nil
}

func (t *tx) UpdateTask(ctx context.Context, task domain.Task) error {
	res, err := t.tx.ExecContext(ctx,
		`UPDATE tasks SET title = ?, description = ?, status = ?, priority = ?, due_date = ?, tags = ?
		 WHERE id = ?`,
		task.Title, task.Description, string(task.Status), string(task.Priority),
		dueDateValue(task.DueDate), task.Tags, task.ID,
	)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	return requireAffected(res)
}

func (t *tx) DeleteTask(ctx context.Context, id int64) error {
	res, err := t.tx.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return requireAffected(res)
}
