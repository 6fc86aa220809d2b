package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/adityamenon/newsdesk/internal/models"
)

// GetOverrideByURL returns the override for the given URL.
// Returns nil, ErrNotFound if no matching row exists.
func (s *Store) GetOverrideByURL(ctx context.Context, url string) (*models.Override, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT url, type, name, company, designation, amount, round, investors, date, month, updated_at
		 FROM overrides WHERE url = ?`, url)

	ov, err := scanOverride(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting override by url: %w", err)
	}
	return ov, nil
}

// ListOverrides returns overrides newest-first by updated_at. A limit of
// zero or less means no limit.
func (s *Store) ListOverrides(ctx context.Context, limit int) ([]models.Override, error) {
	query := `SELECT url, type, name, company, designation, amount, round, investors, date, month, updated_at
		 FROM overrides ORDER BY updated_at DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing overrides: %w", err)
	}
	defer rows.Close()

	var out []models.Override
	for rows.Next() {
		ov, err := scanOverride(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning override: %w", err)
		}
		out = append(out, *ov)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating overrides: %w", err)
	}
	return out, nil
}

// OverridesByURL returns all overrides keyed by URL, for one-pass merging
// during aggregation.
func (s *Store) OverridesByURL(ctx context.Context, limit int) (map[string]models.Override, error) {
	list, err := s.ListOverrides(ctx, limit)
	if err != nil {
		return nil, err
	}
	m := make(map[string]models.Override, len(list))
	for _, ov := range list {
		m[ov.URL] = ov
	}
	return m, nil
}

// UpsertOverride creates or replaces the override row for ov.URL.
// Field values are stored as given; empty strings are stored as NULL so
// an upsert can clear a previously set correction.
func (s *Store) UpsertOverride(ctx context.Context, ov *models.Override) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO overrides (url, type, name, company, designation, amount, round, investors, date, month, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, datetime('now'))
		 ON CONFLICT(url) DO UPDATE SET
			type        = excluded.type,
			name        = excluded.name,
			company     = excluded.company,
			designation = excluded.designation,
			amount      = excluded.amount,
			round       = excluded.round,
			investors   = excluded.investors,
			date        = excluded.date,
			month       = excluded.month,
			updated_at  = excluded.updated_at`,
		ov.URL, nullableString(ov.Type), nullableString(ov.Name),
		nullableString(ov.Company), nullableString(ov.Designation),
		nullableString(ov.Amount), nullableString(ov.Round),
		nullableString(ov.Investors), nullableString(ov.Date),
		nullableString(ov.Month))
	if err != nil {
		return fmt.Errorf("upserting override %q: %w", ov.URL, err)
	}
	return nil
}

// DeleteOverrideByURL removes the override for the given URL. It returns
// false when no row existed.
func (s *Store) DeleteOverrideByURL(ctx context.Context, url string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM overrides WHERE url = ?`, url)
	if err != nil {
		return false, fmt.Errorf("deleting override %q: %w", url, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("checking deleted override rows: %w", err)
	}
	return n > 0, nil
}

// scanOverride scans a single override row.
func scanOverride(row scanner) (*models.Override, error) {
	var (
		ov                                  models.Override
		typ, name, company, designation     sql.NullString
		amount, round, investors, dt, month sql.NullString
		updatedAt                           string
	)

	if err := row.Scan(&ov.URL, &typ, &name, &company, &designation,
		&amount, &round, &investors, &dt, &month, &updatedAt); err != nil {
		return nil, err
	}

	ov.Type = typ.String
	ov.Name = name.String
	ov.Company = company.String
	ov.Designation = designation.String
	ov.Amount = amount.String
	ov.Round = round.String
	ov.Investors = investors.String
	ov.Date = dt.String
	ov.Month = month.String
	ov.UpdatedAt = parseTime(updatedAt)
	return &ov, nil
}
