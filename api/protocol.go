package api

import (
	"time"

	"taskboard-api/domain"
)

const (
	maxRequestBodySize = 64 * 1024 // 64 KiB

	defaultBoardLimit = 10
	defaultTaskLimit  = 100
	maxListLimit      = 1000
)

// POST /users request body
type userCreateRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

func newUserResponse(u domain.User) userResponse {
	return userResponse{ID: u.ID, Name: u.Name, Email: u.Email, CreatedAt: u.CreatedAt}
}

// POST /login JSON body. Username is accepted as an alias of email for OAuth2 clients.
type loginRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// POST/PUT /boards request body
type boardRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

func (r boardRequest) input() domain.BoardInput {
	return domain.BoardInput{Title: r.Title, Description: r.Description}
}

// POST /boards/:board_id/tasks request body. A null due_date is the same as none.
type taskCreateRequest struct {
	Title       string           `json:"title"`
	Description *string          `json:"description"`
	Status      *domain.Status   `json:"status"`
	Priority    *domain.Priority `json:"priority"`
	DueDate     *string          `json:"due_date"`
	Tags        *string          `json:"tags"`
}

func (r taskCreateRequest) input() domain.TaskInput {
	in := domain.TaskInput{
		Title:       r.Title,
		Description: r.Description,
		Status:      r.Status,
		Priority:    r.Priority,
		Tags:        r.Tags,
	}
	if r.DueDate != nil {
		in.DueDate = *r.DueDate
	}
	return in
}

type messageResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}
