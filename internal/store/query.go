package store

import (
	"fmt"
	"strings"
)

// Filter is one where-clause triple from the list API
// (e.g. {"key":"status","operator":"=","value":"pending"}).
type Filter struct {
	Column string `json:"key"`
	Op     string `json:"operator"`
	Value  any    `json:"value"`
}

// ListQuery carries pagination, ordering and filtering for list endpoints.
type ListQuery struct {
	Page    int
	Limit   int
	OrderBy string
	Desc    bool
	Filters []Filter
}

// Normalize applies paging defaults and caps the page size.
func (q ListQuery) Normalize() ListQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = 10
	}
	if q.Limit > 200 {
		q.Limit = 200
	}
	return q
}

func (q ListQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}

var allowedOps = map[string]string{
	"=":    "=",
	"!=":   "<>",
	"<>":   "<>",
	"<":    "<",
	">":    ">",
	"<=":   "<=",
	">=":   ">=",
	"like": "LIKE",
	"LIKE": "LIKE",
}

// BuildWhere renders filters into a WHERE clause with numbered placeholders.
// Column names are validated against the caller's whitelist; values always go
// through placeholders. argOffset is the number of placeholders already used
// by the surrounding query.
func BuildWhere(filters []Filter, columns map[string]bool, argOffset int) (string, []any, error) {
	if len(filters) == 0 {
		return "", nil, nil
	}
	var (
		conds []string
		args  []any
	)
	for _, f := range filters {
		if !columns[f.Column] {
			return "", nil, fmt.Errorf("store: cannot filter on column %q", f.Column)
		}
		op, ok := allowedOps[f.Op]
		if !ok {
			return "", nil, fmt.Errorf("store: unsupported filter operator %q", f.Op)
		}
		args = append(args, f.Value)
		conds = append(conds, fmt.Sprintf("%s %s $%d", f.Column, op, argOffset+len(args)))
	}
	return " WHERE " + strings.Join(conds, " AND "), args, nil
}

// OrderClause validates the order-by column and renders an ORDER BY clause,
// falling back to the given column when none (or an unknown one) is requested.
func OrderClause(orderBy string, desc bool, columns map[string]bool, fallback string) string {
	col := fallback
	if orderBy != "" && columns[orderBy] {
		col = orderBy
	}
	dir := "ASC"
	if desc {
		dir = "DESC"
	}
	return fmt.Sprintf(" ORDER BY %s %s", col, dir)
}
