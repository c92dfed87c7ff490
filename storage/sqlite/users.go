package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"taskboard-api/domain"
	"taskboard-api/storage"
)

// CreateUser inserts a user. The email check and the insert share one transaction;
// the UNIQUE index backs it up against a concurrent registration.
func (s *Store) CreateUser(ctx context.Context, u domain.User, passwordHash string) (domain.User, error) {
	if err := ctx.Err(); err != nil {
		return domain.User{}, err
	}
	if s == nil || s.sqlDB == nil {
		return domain.User{}, fmt.Errorf("storage is not configured")
	}

	sqlTx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return domain.User{}, fmt.Errorf("start transaction: %w", err)
	}
	defer func() {
		_ = sqlTx.Rollback()
	}()

	var exists int
	if err := sqlTx.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE email = ?`, u.Email).Scan(&exists); err != nil {
		return domain.User{}, fmt.Errorf("check email: %w", err)
	}
	if exists > 0 {
		return domain.User{}, storage.ErrConflict
	}

	res, err := sqlTx.ExecContext(ctx,
		`INSERT INTO users (name, email, password, created_at) VALUES (?, ?, ?, ?)`,
		u.Name, u.Email, passwordHash, toMillis(u.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.User{}, storage.ErrConflict
		}
		return domain.User{}, fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.User{}, fmt.Errorf("user id: %w", err)
	}

	if err := sqlTx.Commit(); err != nil {
		if isUniqueViolation(err) {
			return domain.User{}, storage.ErrConflict
		}
		return domain.User{}, fmt.Errorf("commit user: %w", err)
	}

	u.ID = id
	u.CreatedAt = fromMillis(toMillis(u.CreatedAt))
	return u, nil
}

func (s *Store) UserByEmail(ctx context.Context, email string) (domain.User, string, error) {
	if s == nil || s.sqlDB == nil {
		return domain.User{}, "", fmt.Errorf("storage is not configured")
	}
	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT id, name, email, password, created_at FROM users WHERE email = ?`, email)

	var (
		u         domain.User
		hash      string
		createdAt int64
	)
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &hash, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, "", storage.ErrNotFound
		}
		return domain.User{}, "", fmt.Errorf("get user by email: %w", err)
	}
	u.CreatedAt = fromMillis(createdAt)
	return u, hash, nil
}

func (s *Store) UserByID(ctx context.Context, id int64) (domain.User, error) {
	if s == nil || s.sqlDB == nil {
		return domain.User{}, fmt.Errorf("storage is not configured")
	}
	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT id, name, email, created_at FROM users WHERE id = ?`, id)

	var (
		u         domain.User
		createdAt int64
	)
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, storage.ErrNotFound
		}
		return domain.User{}, fmt.Errorf("get user: %w", err)
	}
	u.CreatedAt = fromMillis(createdAt)
	return u, nil
}
