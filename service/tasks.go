package service

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"taskboard-api/domain"
	"taskboard-api/storage"
)

// Tasks implements task operations. A task is reachable only through its own board.
type Tasks struct {
	store  Store
	guard  Guard
	dates  domain.DueDateParser
	logger *log.Logger
	now    func() time.Time
}

// NewTasks wires the task service. With strictDueDates a malformed due_date is rejected
// instead of being stored as null.
func NewTasks(store Store, strictDueDates bool, logger *log.Logger) *Tasks {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Tasks{
		store:  store,
		guard:  Guard{Logger: logger},
		dates:  domain.DueDateParser{Strict: strictDueDates},
		logger: logger,
		now:    time.Now,
	}
}

func (s *Tasks) Create(ctx context.Context, callerID, boardID int64, in domain.TaskInput) (task domain.Task, err error) {
	ctx, span := startSpan(ctx, "tasks.Create", callerID, attribute.Int64("board.id", boardID))
	defer func() { endSpan(span, err) }()
	defer func() { logFailure(s.logger, "tasks.Create", callerID, err) }()

	if err := in.Validate(); err != nil {
		return domain.Task{}, err
	}
	due, err := s.dates.Parse(in.DueDate)
	if err != nil {
		return domain.Task{}, err
	}

	err = s.store.WithTx(ctx, func(tx storage.Tx) error {
		if _, err := s.guard.Board(ctx, tx, callerID, boardID); err != nil {
			return err
		}
		var err error
		task, err = tx.InsertTask(ctx, domain.NewTask(boardID, in, due, s.now()))
		return err
	})
	if err != nil {
		return domain.Task{}, wrapUnexpected("create task", err)
	}
	span.SetAttributes(attribute.Int64("task.id", task.ID))
	return task, nil
}

// List returns the board's tasks, newest first.
func (s *Tasks) List(ctx context.Context, callerID, boardID int64, opts domain.ListOptions) (tasks []domain.Task, err error) {
	ctx, span := startSpan(ctx, "tasks.List", callerID, attribute.Int64("board.id", boardID),
		attribute.Int("list.limit", opts.Limit), attribute.Int("list.offset", opts.Offset))
	defer func() { endSpan(span, err) }()
	defer func() { logFailure(s.logger, "tasks.List", callerID, err) }()

	if err := opts.Validate(); err != nil {
		return nil, err
	}
	err = s.store.WithTx(ctx, func(tx storage.Tx) error {
		if _, err := s.guard.Board(ctx, tx, callerID, boardID); err != nil {
			return err
		}
		var err error
		tasks, err = tx.ListTasks(ctx, boardID, opts)
		return err
	})
	if err != nil {
		return nil, wrapUnexpected("list tasks", err)
	}
	return tasks, nil
}

func (s *Tasks) Get(ctx context.Context, callerID, boardID, taskID int64) (task domain.Task, err error) {
	ctx, span := startSpan(ctx, "tasks.Get", callerID,
		attribute.Int64("board.id", boardID), attribute.Int64("task.id", taskID))
	defer func() { endSpan(span, err) }()
	defer func() { logFailure(s.logger, "tasks.Get", callerID, err) }()

	err = s.store.WithTx(ctx, func(tx storage.Tx) error {
		var err error
		task, err = s.guard.Task(ctx, tx, callerID, boardID, taskID)
		return err
	})
	if err != nil {
		return domain.Task{}, wrapUnexpected("get task", err)
	}
	return task, nil
}

// Update applies a partial patch. Fields absent from the patch are left unchanged.
func (s *Tasks) Update(ctx context.Context, callerID, boardID, taskID int64, patch domain.TaskPatch) (task domain.Task, err error) {
	ctx, span := startSpan(ctx, "tasks.Update", callerID,
		attribute.Int64("board.id", boardID), attribute.Int64("task.id", taskID))
	defer func() { endSpan(span, err) }()
	defer func() { logFailure(s.logger, "tasks.Update", callerID, err) }()

	if err := patch.Validate(); err != nil {
		return domain.Task{}, err
	}
	err = s.store.WithTx(ctx, func(tx storage.Tx) error {
		current, err := s.guard.Task(ctx, tx, callerID, boardID, taskID)
		if err != nil {
			return err
		}
		task, err = patch.Apply(current, s.dates)
		if err != nil {
			return err
		}
		if patch.Empty() {
			return nil
		}
		return tx.UpdateTask(ctx, task)
	})
	if err != nil {
		return domain.Task{}, wrapUnexpected("update task", err)
	}
	return task, nil
}

func (s *Tasks) Delete(ctx context.Context, callerID, boardID, taskID int64) (err error) {
	ctx, span := startSpan(ctx, "tasks.Delete", callerID,
		attribute.Int64("board.id", boardID), attribute.Int64("task.id", taskID))
	defer func() { endSpan(span, err) }()
	defer func() { logFailure(s.logger, "tasks.Delete", callerID, err) }()

	err = s.store.WithTx(ctx, func(tx storage.Tx) error {
		if _, err := s.guard.Task(ctx, tx, callerID, boardID, taskID); err != nil {
			return err
		}
		return tx.DeleteTask(ctx, taskID)
	})
	if err != nil {
		return wrapUnexpected("delete task", err)
	}
	return nil
}
