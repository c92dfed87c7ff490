package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"taskboard-api/domain"
	"taskboard-api/storage"
)

// Boards implements board operations for an authenticated caller.
type Boards struct {
	store  Store
	guard  Guard
	logger *log.Logger
	now    func() time.Time
}

func NewBoards(store Store, logger *log.Logger) *Boards {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Boards{store: store, guard: Guard{Logger: logger}, logger: logger, now: time.Now}
}

// Create stores a board owned by ownerID.
func (s *Boards) Create(ctx context.Context, ownerID int64, in domain.BoardInput) (board domain.Board, err error) {
	ctx, span := startSpan(ctx, "boards.Create", ownerID)
	defer func() { endSpan(span, err) }()
	defer func() { logFailure(s.logger, "boards.Create", ownerID, err) }()

	if err := in.Validate(); err != nil {
		return domain.Board{}, err
	}
	err = s.store.WithTx(ctx, func(tx storage.Tx) error {
		var err error
		board, err = tx.InsertBoard(ctx, domain.Board{
			Title:       in.Title,
			Description: in.Description,
			OwnerID:     ownerID,
			CreatedAt:   s.now(),
		})
		return err
	})
	if err != nil {
		// Tokens can outlive their user.
		if errors.Is(err, storage.ErrMissingReference) {
			return domain.Board{}, fmt.Errorf("board owner %d: %w", ownerID, domain.ErrInvalidToken)
		}
		return domain.Board{}, fmt.Errorf("create board: %w", err)
	}
	board.Tasks = []domain.Task{}
	span.SetAttributes(attribute.Int64("board.id", board.ID))
	return board, nil
}

// List returns the owner's boards with their tasks attached.
func (s *Boards) List(ctx context.Context, ownerID int64, opts domain.ListOptions) (boards []domain.Board, err error) {
	ctx, span := startSpan(ctx, "boards.List", ownerID,
		attribute.Int("list.limit", opts.Limit), attribute.Int("list.offset", opts.Offset))
	defer func() { endSpan(span, err) }()
	defer func() { logFailure(s.logger, "boards.List", ownerID, err) }()

	if err := opts.Validate(); err != nil {
		return nil, err
	}
	err = s.store.WithTx(ctx, func(tx storage.Tx) error {
		var err error
		boards, err = tx.ListBoards(ctx, ownerID, opts)
		if err != nil {
			return err
		}
		ids := make([]int64, len(boards))
		for i, b := range boards {
			ids[i] = b.ID
		}
		tasks, err := tx.TasksForBoards(ctx, ids)
		if err != nil {
			return err
		}
		for i := range boards {
			boards[i].Tasks = tasks[boards[i].ID]
			if boards[i].Tasks == nil {
				boards[i].Tasks = []domain.Task{}
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list boards: %w", err)
	}
	return boards, nil
}

// Get returns one board with its tasks, newest first.
func (s *Boards) Get(ctx context.Context, callerID, boardID int64) (board domain.Board, err error) {
	ctx, span := startSpan(ctx, "boards.Get", callerID, attribute.Int64("board.id", boardID))
	defer func() { endSpan(span, err) }()
	defer func() { logFailure(s.logger, "boards.Get", callerID, err) }()

	err = s.store.WithTx(ctx, func(tx storage.Tx) error {
		var err error
		board, err = s.guard.Board(ctx, tx, callerID, boardID)
		if err != nil {
			return err
		}
		tasks, err := tx.TasksForBoards(ctx, []int64{boardID})
		if err != nil {
			return err
		}
		board.Tasks = tasks[boardID]
		if board.Tasks == nil {
			board.Tasks = []domain.Task{}
		}
		return nil
	})
	if err != nil {
		return domain.Board{}, wrapUnexpected("get board", err)
	}
	return board, nil
}

// Update replaces the title and description of a board.
func (s *Boards) Update(ctx context.Context, callerID, boardID int64, in domain.BoardInput) (board domain.Board, err error) {
	ctx, span := startSpan(ctx, "boards.Update", callerID, attribute.Int64("board.id", boardID))
	defer func() { endSpan(span, err) }()
	defer func() { logFailure(s.logger, "boards.Update", callerID, err) }()

	if err := in.Validate(); err != nil {
		return domain.Board{}, err
	}
	err = s.store.WithTx(ctx, func(tx storage.Tx) error {
		var err error
		board, err = s.guard.Board(ctx, tx, callerID, boardID)
		if err != nil {
			return err
		}
		board.Title = in.Title
		board.Description = in.Description
		if err := tx.UpdateBoard(ctx, board); err != nil {
			return err
		}
		tasks, err := tx.TasksForBoards(ctx, []int64{boardID})
		if err != nil {
			return err
		}
		board.Tasks = tasks[boardID]
		return nil
	})
	if err != nil {
		return domain.Board{}, wrapUnexpected("update board", err)
	}
	if board.Tasks == nil {
		board.Tasks = []domain.Task{}
	}
	return board, nil
}

// Delete removes a board and all of its tasks.
func (s *Boards) Delete(ctx context.Context, callerID, boardID int64) (err error) {
	ctx, span := startSpan(ctx, "boards.Delete", callerID, attribute.Int64("board.id", boardID))
	defer func() { endSpan(span, err) }()
	defer func() { logFailure(s.logger, "boards.Delete", callerID, err) }()

	err = s.store.WithTx(ctx, func(tx storage.Tx) error {
		if _, err := s.guard.Board(ctx, tx, callerID, boardID); err != nil {
			return err
		}
		return tx.DeleteBoard(ctx, boardID)
	})
	if err != nil {
		return wrapUnexpected("delete board", err)
	}
	return nil
}

// wrapUnexpected adds op context to store failures and leaves guard outcomes as they are.
func wrapUnexpected(op string, err error) error {
	if isExpected(err) {
		return err
	}
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}
	return fmt.Errorf("%s: %w", op, err)
}
