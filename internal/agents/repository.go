package agents

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"callops/internal/store"
	"callops/pkg/utils"
)

var ErrNotFound = errors.New("agents: not found")

// Repository abstracts agent persistence.
type Repository interface {
	Create(ctx context.Context, a Agent) (Agent, error)
	CreateMany(ctx context.Context, as []Agent) ([]Agent, error)
	List(ctx context.Context, q store.ListQuery) ([]Agent, error)
	Count(ctx context.Context, filters []store.Filter) (int64, error)
	Get(ctx context.Context, id int64) (Agent, error)
	Update(ctx context.Context, id int64, p Patch) (Agent, error)
	Delete(ctx context.Context, id int64) error
}

// filterColumns whitelists columns the list API may filter/order on.
var filterColumns = map[string]bool{
	"id":   true,
	"name": true,
}

// PostgresRepo stores agents in the agent table.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) Create(ctx context.Context, a Agent) (Agent, error) {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO agent (name, prompt) VALUES ($1, $2) RETURNING id`,
		a.Name, a.Prompt,
	).Scan(&a.ID)
	if err != nil {
		return Agent{}, fmt.Errorf("agents: create: %w", err)
	}
	return a, nil
}

func (r *PostgresRepo) CreateMany(ctx context.Context, as []Agent) ([]Agent, error) {
	out := make([]Agent, 0, len(as))
	err := utils.WithTx(ctx, r.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		for _, a := range as {
			if err := tx.QueryRowContext(ctx,
				`INSERT INTO agent (name, prompt) VALUES ($1, $2) RETURNING id`,
				a.Name, a.Prompt,
			).Scan(&a.ID); err != nil {
				return err
			}
			out = append(out, a)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("agents: create many: %w", err)
	}
	return out, nil
}

func (r *PostgresRepo) List(ctx context.Context, q store.ListQuery) ([]Agent, error) {
	q = q.Normalize()
	where, args, err := store.BuildWhere(q.Filters, filterColumns, 0)
	if err != nil {
		return nil, err
	}
	query := `SELECT id, name, prompt FROM agent` + where +
		store.OrderClause(q.OrderBy, q.Desc, filterColumns, "id") +
		fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, q.Limit, q.Offset())

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("agents: list: %w", err)
	}
	defer rows.Close()

	out := make([]Agent, 0, q.Limit)
	for rows.Next() {
		var a Agent
		if err := rows.Scan(&a.ID, &a.Name, &a.Prompt); err != nil {
			return nil, fmt.Errorf("agents: scan: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) Count(ctx context.Context, filters []store.Filter) (int64, error) {
	where, args, err := store.BuildWhere(filters, filterColumns, 0)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM agent`+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("agents: count: %w", err)
	}
	return n, nil
}

func (r *PostgresRepo) Get(ctx context.Context, id int64) (Agent, error) {
	var a Agent
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, prompt FROM agent WHERE id = $1`, id,
	).Scan(&a.ID, &a.Name, &a.Prompt)
	if errors.Is(err, sql.ErrNoRows) {
		return Agent{}, ErrNotFound
	}
	if err != nil {
		return Agent{}, fmt.Errorf("agents: get: %w", err)
	}
	return a, nil
}

func (r *PostgresRepo) Update(ctx context.Context, id int64, p Patch) (Agent, error) {
	sets := make([]string, 0, 2)
	args := make([]any, 0, 3)
	if p.Name != nil {
		args = append(args, *p.Name)
		sets = append(sets, fmt.Sprintf("name = $%d", len(args)))
	}
	if p.Prompt != nil {
		args = append(args, *p.Prompt)
		sets = append(sets, fmt.Sprintf("prompt = $%d", len(args)))
	}
	if len(sets) == 0 {
		return r.Get(ctx, id)
	}
	args = append(args, id)

	var a Agent
	err := r.db.QueryRowContext(ctx,
		fmt.Sprintf(`UPDATE agent SET %s WHERE id = $%d RETURNING id, name, prompt`,
			strings.Join(sets, ", "), len(args)),
		args...,
	).Scan(&a.ID, &a.Name, &a.Prompt)
	if errors.Is(err, sql.ErrNoRows) {
		return Agent{}, ErrNotFound
	}
	if err != nil {
		return Agent{}, fmt.Errorf("agents: update: %w", err)
	}
	return a, nil
}

func (r *PostgresRepo) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM agent WHERE id = $1`, id); err != nil {
		return fmt.Errorf("agents: delete: %w", err)
	}
	return nil
}
