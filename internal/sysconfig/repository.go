package sysconfig

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"callops/internal/store"
)

var ErrNotFound = errors.New("sysconfig: not found")

// Repository abstracts settings persistence.
type Repository interface {
	List(ctx context.Context, q store.ListQuery) ([]Setting, error)
	Count(ctx context.Context, filters []store.Filter) (int64, error)
	Get(ctx context.Context, id int64) (Setting, error)
	ByKey(ctx context.Context, key string) (Setting, error)
	UpsertByKey(ctx context.Context, key, value string) (Setting, error)
	Delete(ctx context.Context, id int64) error
}

var filterColumns = map[string]bool{
	"id":  true,
	"key": true,
}

// PostgresRepo stores settings in the system_config table.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

const settingCols = `id, key, value, created_at, updated_at`

func scanSetting(row interface{ Scan(...any) error }) (Setting, error) {
	var s Setting
	err := row.Scan(&s.ID, &s.Key, &s.Value, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

func (r *PostgresRepo) List(ctx context.Context, q store.ListQuery) ([]Setting, error) {
	q = q.Normalize()
	where, args, err := store.BuildWhere(q.Filters, filterColumns, 0)
	if err != nil {
		return nil, err
	}
	query := `SELECT ` + settingCols + ` FROM system_config` + where +
		store.OrderClause(q.OrderBy, q.Desc, filterColumns, "id") +
		fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, q.Limit, q.Offset())

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sysconfig: list: %w", err)
	}
	defer rows.Close()

	out := make([]Setting, 0, q.Limit)
	for rows.Next() {
		s, err := scanSetting(rows)
		if err != nil {
			return nil, fmt.Errorf("sysconfig: scan: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) Count(ctx context.Context, filters []store.Filter) (int64, error) {
	where, args, err := store.BuildWhere(filters, filterColumns, 0)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM system_config`+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("sysconfig: count: %w", err)
	}
	return n, nil
}

func (r *PostgresRepo) Get(ctx context.Context, id int64) (Setting, error) {
	s, err := scanSetting(r.db.QueryRowContext(ctx,
		`SELECT `+settingCols+` FROM system_config WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Setting{}, ErrNotFound
	}
	if err != nil {
		return Setting{}, fmt.Errorf("sysconfig: get: %w", err)
	}
	return s, nil
}

func (r *PostgresRepo) ByKey(ctx context.Context, key string) (Setting, error) {
	s, err := scanSetting(r.db.QueryRowContext(ctx,
		`SELECT `+settingCols+` FROM system_config WHERE key = $1`, key))
	if errors.Is(err, sql.ErrNoRows) {
		return Setting{}, ErrNotFound
	}
	if err != nil {
		return Setting{}, fmt.Errorf("sysconfig: by key: %w", err)
	}
	return s, nil
}

func (r *PostgresRepo) UpsertByKey(ctx context.Context, key, value string) (Setting, error) {
	s, err := scanSetting(r.db.QueryRowContext(ctx,
		`INSERT INTO system_config (key, value) VALUES ($1, $2)
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = CURRENT_TIMESTAMP
		 RETURNING `+settingCols, key, value))
	if err != nil {
		return Setting{}, fmt.Errorf("sysconfig: upsert: %w", err)
	}
	return s, nil
}

func (r *PostgresRepo) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM system_config WHERE id = $1`, id); err != nil {
		return fmt.Errorf("sysconfig: delete: %w", err)
	}
	return nil
}
