package store

import "testing"

func TestListQuery_NormalizeDefaults(t *testing.T) {
	q := ListQuery{}.Normalize()
	if q.Page != 1 || q.Limit != 10 {
		t.Fatalf("expected page 1 limit 10, got %+v", q)
	}
	if q.Offset() != 0 {
		t.Fatalf("expected offset 0, got %d", q.Offset())
	}

	q = ListQuery{Page: 3, Limit: 20}.Normalize()
	if q.Offset() != 40 {
		t.Fatalf("expected offset 40, got %d", q.Offset())
	}

	q = ListQuery{Limit: 10000}.Normalize()
	if q.Limit != 200 {
		t.Fatalf("expected limit capped at 200, got %d", q.Limit)
	}
}

func TestBuildWhere_PlaceholdersAndValidation(t *testing.T) {
	cols := map[string]bool{"status": true, "agent": true}

	clause, args, err := BuildWhere([]Filter{
		{Column: "status", Op: "=", Value: "pending"},
		{Column: "agent", Op: ">", Value: 5},
	}, cols, 2)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if clause != " WHERE status = $3 AND agent > $4" {
		t.Fatalf("unexpected clause: %q", clause)
	}
	if len(args) != 2 || args[0] != "pending" {
		t.Fatalf("unexpected args: %v", args)
	}

	if _, _, err := BuildWhere([]Filter{{Column: "password", Op: "=", Value: "x"}}, cols, 0); err == nil {
		t.Fatalf("expected error for non-whitelisted column")
	}
	if _, _, err := BuildWhere([]Filter{{Column: "status", Op: "DROP", Value: "x"}}, cols, 0); err == nil {
		t.Fatalf("expected error for unsupported operator")
	}
}

func TestOrderClause_FallsBackOnUnknownColumn(t *testing.T) {
	cols := map[string]bool{"id": true, "name": true}
	if got := OrderClause("name", true, cols, "id"); got != " ORDER BY name DESC" {
		t.Fatalf("unexpected clause: %q", got)
	}
	if got := OrderClause("evil; --", false, cols, "id"); got != " ORDER BY id ASC" {
		t.Fatalf("unexpected clause: %q", got)
	}
}
