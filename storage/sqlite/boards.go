package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"taskboard-api/domain"
	"taskboard-api/storage"
)

// tx implements storage.Tx over one open SQL transaction.
type tx struct {
	tx *sql.Tx
}

const boardColumns = `id, title, description, owner_id, created_at`

func scanBoard(row interface{ Scan(...any) error }) (domain.Board, error) {
	var (
		b         domain.Board
		createdAt int64
	)
	if err := row.Scan(&b.ID, &b.Title, &b.Description, &b.OwnerID, &createdAt); err != nil {
		return domain.Board{}, err
	}
	b.CreatedAt = fromMillis(createdAt)
	return b, nil
}

func (t *tx) BoardByID(ctx context.Context, id int64) (domain.Board, error) {
	b, err := scanBoard(t.tx.QueryRowContext(ctx, `SELECT `+boardColumns+` FROM boards WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Board{}, storage.ErrNotFound
		}
		return domain.Board{}, fmt.Errorf("get board: %w", err)
	}
	return b, nil
}

func (t *tx) InsertBoard(ctx context.Context, b domain.Board) (domain.Board, error) {
	res, err := t.tx.ExecContext(ctx,
		`INSERT INTO boards (title, description, owner_id, created_at) VALUES (?, ?, ?, ?)`,
		b.Title, b.Description, b.OwnerID, toMillis(b.CreatedAt),
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.Board{}, fmt.Errorf("owner %d: %w", b.OwnerID, storage.ErrMissingReference)
		}
		return domain.Board{}, fmt.Errorf("insert board: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.Board{}, fmt.Errorf("board id: %w", err)
	}
	b.ID = id
	b.CreatedAt = fromMillis(toMillis(b.CreatedAt))
	return b, nil
}

// ListBoards pages over the owner's boards by ascending id. Search matches the title
// case-sensitively.
func (t *tx) ListBoards(ctx context.Context, ownerID int64, opts domain.ListOptions) ([]domain.Board, error) {
	rows, err := t.tx.QueryContext(ctx,
		`SELECT `+boardColumns+` FROM boards
		 WHERE owner_id = ? AND instr(title, ?) > 0
		 ORDER BY id ASC
		 LIMIT ? OFFSET ?`,
		ownerID, opts.Search, opts.Limit, opts.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list boards: %w", err)
	}
	defer rows.Close()

	boards := make([]domain.Board, 0)
	for rows.Next() {
		b, err := scanBoard(rows)
		if err != nil {
			return nil, fmt.Errorf("scan board: %w", err)
		}
		boards = append(boards, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate boards: %w", err)
	}
	return boards, nil
}

func (t *tx) UpdateBoard(ctx context.Context, b domain.Board) error {
	res, err := t.tx.ExecContext(ctx,
		`UPDATE boards SET title = ?, description = ? WHERE id = ?`,
		b.Title, b.Description, b.ID,
	)
	if err != nil {
		return fmt.Errorf("update board: %w", err)
	}
	return requireAffected(res)
}

func (t *tx) DeleteBoard(ctx context.Context, id int64) error {
	if _, err := t.tx.ExecContext(ctx, `DELETE FROM tasks WHERE board_id = ?`, id); err != nil {
		return fmt.Errorf("delete board tasks: %w", err)
	}
	res, err := t.tx.ExecContext(ctx, `DELETE FROM boards WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete board: %w", err)
	}
	return requireAffected(res)
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}
