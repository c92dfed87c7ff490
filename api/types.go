package api

import (
	"context"

	"taskboard-api/domain"
)

// BoardService is the board API the handlers depend on. *service.Boards implements it.
type BoardService interface {
	Create(ctx context.Context, ownerID int64, in domain.BoardInput) (domain.Board, error)
	List(ctx context.Context, ownerID int64, opts domain.ListOptions) ([]domain.Board, error)
	Get(ctx context.Context, callerID, boardID int64) (domain.Board, error)
	Update(ctx context.Context, callerID, boardID int64, in domain.BoardInput) (domain.Board, error)
	Delete(ctx context.Context, callerID, boardID int64) error
}

// TaskService is implemented by *service.Tasks.
type TaskService interface {
	Create(ctx context.Context, callerID, boardID int64, in domain.TaskInput) (domain.Task, error)
	List(ctx context.Context, callerID, boardID int64, opts domain.ListOptions) ([]domain.Task, error)
	Get(ctx context.Context, callerID, boardID, taskID int64) (domain.Task, error)
	Update(ctx context.Context, callerID, boardID, taskID int64, patch domain.TaskPatch) (domain.Task, error)
	Delete(ctx context.Context, callerID, boardID, taskID int64) error
}

// CredentialService registers users and exchanges credentials for tokens.
type CredentialService interface {
	Register(ctx context.Context, reg domain.Registration) (domain.User, error)
	Login(ctx context.Context, email, secret string) (string, error)
	GetUser(ctx context.Context, id int64) (domain.User, error)
}

// Authenticator turns a bearer token into a user id.
type Authenticator interface {
	Verify(token string) (int64, error)
}

// Pinger reports store health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Services bundles the dependencies of every route.
type Services struct {
	Boards      BoardService
	Tasks       TaskService
	Credentials CredentialService
	Auth        Authenticator
	Health      Pinger
}
