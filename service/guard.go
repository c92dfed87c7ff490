package service

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"taskboard-api/domain"
	"taskboard-api/storage"
)

// AuthorizeBoard decides whether callerID may act on board. Existence is checked
// before ownership.
func AuthorizeBoard(callerID int64, board *domain.Board) error {
	if board == nil {
		return domain.ErrNotFound
	}
	if board.OwnerID != callerID {
		return domain.ErrForbidden
	}
	return nil
}

// Guard resolves boards and tasks inside a transaction and applies AuthorizeBoard.
type Guard struct {
	Logger *log.Logger
}

// Board loads boardID and checks callerID owns it.
func (g Guard) Board(ctx context.Context, tx storage.Tx, callerID, boardID int64) (domain.Board, error) {
	var found *domain.Board
	board, err := tx.BoardByID(ctx, boardID)
	switch {
	case err == nil:
		found = &board
	case !errors.Is(err, storage.ErrNotFound):
		return domain.Board{}, fmt.Errorf("load board %d: %w", boardID, err)
	}

	if err := AuthorizeBoard(callerID, found); err != nil {
		g.denied(callerID, boardID, err)
		return domain.Board{}, fmt.Errorf("board %d: %w", boardID, err)
	}
	return board, nil
}

// Task checks board access first, then resolves taskID within that board. A task that
// exists under another board is reported as not found.
func (g Guard) Task(ctx context.Context, tx storage.Tx, callerID, boardID, taskID int64) (domain.Task, error) {
	if _, err := g.Board(ctx, tx, callerID, boardID); err != nil {
		return domain.Task{}, err
	}

	task, err := tx.TaskByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return domain.Task{}, fmt.Errorf("task %d in board %d: %w", taskID, boardID, domain.ErrNotFound)
		}
		return domain.Task{}, fmt.Errorf("load task %d: %w", taskID, err)
	}
	if task.BoardID != boardID {
		return domain.Task{}, fmt.Errorf("task %d in board %d: %w", taskID, boardID, domain.ErrNotFound)
	}
	return task, nil
}

func (g Guard) denied(callerID, boardID int64, err error) {
	if g.Logger == nil {
		return
	}
	g.Logger.WithFields(log.Fields{
		"caller_id": callerID,
		"board_id":  boardID,
		"reason":    err.Error(),
	}).Debug("board access denied")
}
