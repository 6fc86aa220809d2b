package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/adityamenon/newsdesk/internal/models"
)

const sqliteTimeLayout = "2006-01-02 15:04:05"

// GetMovementByURL returns the movement with the given URL.
// Returns nil, ErrNotFound if no matching row exists.
func (s *Store) GetMovementByURL(ctx context.Context, url string) (*models.Movement, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, title, url, source, published_at, created_at
		 FROM movements WHERE url = ?`, url)

	m, err := scanMovement(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting movement by url: %w", err)
	}
	return m, nil
}

// InsertMovement stores a new movement row and returns it with its ID set.
// The URL must not already exist; callers dedupe via GetMovementByURL.
func (s *Store) InsertMovement(ctx context.Context, title, url, source string, publishedAt *time.Time) (*models.Movement, error) {
	var pub *string
	if publishedAt != nil {
		v := publishedAt.UTC().Format(sqliteTimeLayout)
		pub = &v
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO movements (title, url, source, published_at) VALUES (?, ?, ?, ?)`,
		title, url, source, pub)
	if err != nil {
		return nil, fmt.Errorf("inserting movement: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting inserted movement id: %w", err)
	}

	return &models.Movement{
		ID:          id,
		Title:       title,
		URL:         url,
		Source:      source,
		PublishedAt: publishedAt,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// ListRecentMovements returns up to limit movements, newest first by
// published_at with NULLs last, ties broken by descending ID.
func (s *Store) ListRecentMovements(ctx context.Context, limit int) ([]models.Movement, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, url, source, published_at, created_at
		 FROM movements
		 ORDER BY published_at IS NULL, published_at DESC, id DESC
		 LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing recent movements: %w", err)
	}
	defer rows.Close()

	return collectMovements(rows)
}

// ListMovementsInWindow returns movements whose published_at (or, when
// published_at is NULL, created_at) falls within [start, end). A nil bound
// leaves that side open.
func (s *Store) ListMovementsInWindow(ctx context.Context, start, end *time.Time, limit int) ([]models.Movement, error) {
	query := `SELECT id, title, url, source, published_at, created_at
		 FROM movements WHERE 1=1`
	var args []any

	if start != nil {
		query += ` AND COALESCE(published_at, created_at) >= ?`
		args = append(args, start.UTC().Format(sqliteTimeLayout))
	}
	if end != nil {
		query += ` AND COALESCE(published_at, created_at) < ?`
		args = append(args, end.UTC().Format(sqliteTimeLayout))
	}
	query += ` ORDER BY published_at IS NULL, published_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing movements in window: %w", err)
	}
	defer rows.Close()

	return collectMovements(rows)
}

// CountMovements returns the total number of stored movements.
func (s *Store) CountMovements(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM movements`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting movements: %w", err)
	}
	return n, nil
}

// LatestMovementTime returns the newest of MAX(published_at) and
// MAX(created_at), or nil when the table is empty. The catch-up sync uses
// this as its cutoff basis.
func (s *Store) LatestMovementTime(ctx context.Context) (*time.Time, error) {
	var pub, created sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT MAX(published_at), MAX(created_at) FROM movements`,
	).Scan(&pub, &created)
	if err != nil {
		return nil, fmt.Errorf("getting latest movement time: %w", err)
	}

	lp := parseTimePtr(nullStringToPtr(pub))
	lc := parseTimePtr(nullStringToPtr(created))
	switch {
	case lp != nil && lc != nil:
		if lp.After(*lc) {
			return lp, nil
		}
		return lc, nil
	case lp != nil:
		return lp, nil
	default:
		return lc, nil
	}
}

// DeleteMovement removes a movement row by ID.
func (s *Store) DeleteMovement(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM movements WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting movement %d: %w", id, err)
	}
	return nil
}

// ListAllMovements returns every stored movement. Used by the one-time
// purge of negative rows.
func (s *Store) ListAllMovements(ctx context.Context) ([]models.Movement, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, url, source, published_at, created_at FROM movements`)
	if err != nil {
		return nil, fmt.Errorf("listing all movements: %w", err)
	}
	defer rows.Close()

	return collectMovements(rows)
}

// scanner is a minimal interface satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanMovement scans a single movement row.
func scanMovement(row scanner) (*models.Movement, error) {
	var (
		m           models.Movement
		publishedAt sql.NullString
		createdAt   string
	)

	if err := row.Scan(&m.ID, &m.Title, &m.URL, &m.Source, &publishedAt, &createdAt); err != nil {
		return nil, err
	}

	m.PublishedAt = parseTimePtr(nullStringToPtr(publishedAt))
	m.CreatedAt = parseTime(createdAt)
	return &m, nil
}

func collectMovements(rows *sql.Rows) ([]models.Movement, error) {
	var out []models.Movement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning movement: %w", err)
		}
		out = append(out, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating movements: %w", err)
	}
	return out, nil
}

// nullableString converts an empty string to nil for nullable TEXT columns.
func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// nullStringToPtr converts a sql.NullString to a *string.
func nullStringToPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}
