package calllog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"callops/internal/store"
	"callops/pkg/utils"
)

var ErrNotFound = errors.New("calllog: not found")

// Repository abstracts call-log persistence.
type Repository interface {
	Create(ctx context.Context, cl CallLog) (CallLog, error)
	CreateMany(ctx context.Context, cls []CallLog) ([]CallLog, error)
	List(ctx context.Context, q store.ListQuery) ([]CallLog, error)
	Count(ctx context.Context, filters []store.Filter) (int64, error)
	Get(ctx context.Context, id int64) (CallLog, error)
	Update(ctx context.Context, id int64, p Patch) (CallLog, error)
	Delete(ctx context.Context, id int64) error

	// ByCallSid resolves the provider call identifier to its row; this is
	// the relay's correlation lookup.
	ByCallSid(ctx context.Context, callSid string) (CallLog, error)
	UpdateStatus(ctx context.Context, id int64, status string) error
}

var filterColumns = map[string]bool{
	"id":       true,
	"number":   true,
	"name":     true,
	"status":   true,
	"agent":    true,
	"call_sid": true,
}

// PostgresRepo stores call logs in the call_log table.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

const callLogCols = `id, number, name, status, duration, agent, records, call_sid, created_at, updated_at`

func scanCallLog(row interface{ Scan(...any) error }) (CallLog, error) {
	var (
		cl       CallLog
		duration sql.NullString
		records  sql.NullString
		callSid  sql.NullString
	)
	err := row.Scan(&cl.ID, &cl.Number, &cl.Name, &cl.Status, &duration,
		&cl.AgentID, &records, &callSid, &cl.CreatedAt, &cl.UpdatedAt)
	cl.Duration = duration.String
	cl.Records = records.String
	cl.CallSid = callSid.String
	return cl, err
}

func (r *PostgresRepo) Create(ctx context.Context, cl CallLog) (CallLog, error) {
	if cl.Status == "" {
		cl.Status = StatusPending
	}
	created, err := scanCallLog(r.db.QueryRowContext(ctx,
		`INSERT INTO call_log (number, name, status, agent) VALUES ($1, $2, $3, $4)
		 RETURNING `+callLogCols,
		cl.Number, cl.Name, cl.Status, cl.AgentID))
	if err != nil {
		return CallLog{}, fmt.Errorf("calllog: create: %w", err)
	}
	return created, nil
}

func (r *PostgresRepo) CreateMany(ctx context.Context, cls []CallLog) ([]CallLog, error) {
	out := make([]CallLog, 0, len(cls))
	err := utils.WithTx(ctx, r.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		for _, cl := range cls {
			if cl.Status == "" {
				cl.Status = StatusPending
			}
			created, err := scanCallLog(tx.QueryRowContext(ctx,
				`INSERT INTO call_log (number, name, status, agent) VALUES ($1, $2, $3, $4)
				 RETURNING `+callLogCols,
				cl.Number, cl.Name, cl.Status, cl.AgentID))
			if err != nil {
				return err
			}
			out = append(out, created)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("calllog: create many: %w", err)
	}
	return out, nil
}

func (r *PostgresRepo) List(ctx context.Context, q store.ListQuery) ([]CallLog, error) {
	q = q.Normalize()
	where, args, err := store.BuildWhere(q.Filters, filterColumns, 0)
	if err != nil {
		return nil, err
	}
	query := `SELECT ` + callLogCols + ` FROM call_log` + where +
		store.OrderClause(q.OrderBy, q.Desc, filterColumns, "id") +
		fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, q.Limit, q.Offset())

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("calllog: list: %w", err)
	}
	defer rows.Close()

	out := make([]CallLog, 0, q.Limit)
	for rows.Next() {
		cl, err := scanCallLog(rows)
		if err != nil {
			return nil, fmt.Errorf("calllog: scan: %w", err)
		}
		out = append(out, cl)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) Count(ctx context.Context, filters []store.Filter) (int64, error) {
	where, args, err := store.BuildWhere(filters, filterColumns, 0)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM call_log`+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("calllog: count: %w", err)
	}
	return n, nil
}

func (r *PostgresRepo) Get(ctx context.Context, id int64) (CallLog, error) {
	cl, err := scanCallLog(r.db.QueryRowContext(ctx,
		`SELECT `+callLogCols+` FROM call_log WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return CallLog{}, ErrNotFound
	}
	if err != nil {
		return CallLog{}, fmt.Errorf("calllog: get: %w", err)
	}
	return cl, nil
}

func (r *PostgresRepo) Update(ctx context.Context, id int64, p Patch) (CallLog, error) {
	sets := make([]string, 0, 7)
	args := make([]any, 0, 8)
	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if p.Number != nil {
		add("number", *p.Number)
	}
	if p.Name != nil {
		add("name", *p.Name)
	}
	if p.Status != nil {
		add("status", *p.Status)
	}
	if p.Duration != nil {
		add("duration", *p.Duration)
	}
	if p.AgentID != nil {
		add("agent", *p.AgentID)
	}
	if p.Records != nil {
		add("records", *p.Records)
	}
	if p.CallSid != nil {
		add("call_sid", *p.CallSid)
	}
	if len(sets) == 0 {
		return r.Get(ctx, id)
	}
	sets = append(sets, "updated_at = CURRENT_TIMESTAMP")
	args = append(args, id)

	cl, err := scanCallLog(r.db.QueryRowContext(ctx,
		fmt.Sprintf(`UPDATE call_log SET %s WHERE id = $%d RETURNING `+callLogCols,
			strings.Join(sets, ", "), len(args)),
		args...))
	if errors.Is(err, sql.ErrNoRows) {
		return CallLog{}, ErrNotFound
	}
	if err != nil {
		return CallLog{}, fmt.Errorf("calllog: update: %w", err)
	}
	return cl, nil
}

func (r *PostgresRepo) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM call_log WHERE id = $1`, id); err != nil {
		return fmt.Errorf("calllog: delete: %w", err)
	}
	return nil
}

func (r *PostgresRepo) ByCallSid(ctx context.Context, callSid string) (CallLog, error) {
	cl, err := scanCallLog(r.db.QueryRowContext(ctx,
		`SELECT `+callLogCols+` FROM call_log WHERE call_sid = $1 ORDER BY id LIMIT 1`, callSid))
	if errors.Is(err, sql.ErrNoRows) {
		return CallLog{}, ErrNotFound
	}
	if err != nil {
		return CallLog{}, fmt.Errorf("calllog: by call sid: %w", err)
	}
	return cl, nil
}

func (r *PostgresRepo) UpdateStatus(ctx context.Context, id int64, status string) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE call_log SET status = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`,
		status, id); err != nil {
		return fmt.Errorf("calllog: update status: %w", err)
	}
	return nil
}
