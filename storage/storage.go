package storage

import (
	"context"
	"errors"

	"taskboard-api/domain"
)

var (
	// ErrNotFound indicates a requested record is missing.
	ErrNotFound = errors.New("record not found")
	// ErrConflict indicates a uniqueness constraint rejected a write.
	ErrConflict = errors.New("record already exists")
	// ErrMissingReference indicates a write pointed at a parent record that does not exist.
	ErrMissingReference = errors.New("referenced record does not exist")
)

// Tx is one unit of work against the store. Everything done through a Tx commits or
// rolls back together.
type Tx interface {
	BoardByID(ctx context.Context, id int64) (domain.Board, error)
	InsertBoard(ctx context.Context, b domain.Board) (domain.Board, error)
	ListBoards(ctx context.Context, ownerID int64, opts domain.ListOptions) ([]domain.Board, error)
	UpdateBoard(ctx context.Context, b domain.Board) error
	// DeleteBoard removes the board and every task under it.
	DeleteBoard(ctx context.Context, id int64) error

	TaskByID(ctx context.Context, id int64) (domain.Task, error)
	InsertTask(ctx context.Context, t domain.Task) (domain.Task, error)
	ListTasks(ctx context.Context, boardID int64, opts domain.ListOptions) ([]domain.Task, error)
	// TasksForBoards returns every task of the given boards, newest first, keyed by board id.
	TasksForBoards(ctx context.Context, boardIDs []int64) (map[int64][]domain.Task, error)
	UpdateTask(ctx context.Context, t domain.Task) error
	DeleteTask(ctx context.Context, id int64) error
}

// UserStore persists user records. Users are never updated or deleted.
type UserStore interface {
	// CreateUser inserts the user and returns it with its assigned id. ErrConflict
	// when the email is taken.
	CreateUser(ctx context.Context, u domain.User, passwordHash string) (domain.User, error)
	// UserByEmail returns the user and its password hash.
	UserByEmail(ctx context.Context, email string) (domain.User, string, error)
	UserByID(ctx context.Context, id int64) (domain.User, error)
}
