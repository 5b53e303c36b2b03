package calllog

import (
	"context"
	"sort"
	"sync"
	"time"

	"callops/internal/store"
)

// MemoryRepo is an in-memory call-log repository for tests.
// It supports equality filters only; the SQL repo handles the full operator set.
type MemoryRepo struct {
	mu     sync.Mutex
	nextID int64
	Logs   map[int64]CallLog
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{nextID: 1, Logs: map[int64]CallLog{}}
}

func (r *MemoryRepo) Create(ctx context.Context, cl CallLog) (CallLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cl.Status == "" {
		cl.Status = StatusPending
	}
	now := time.Now().UTC()
	cl.ID = r.nextID
	cl.CreatedAt = now
	cl.UpdatedAt = now
	r.nextID++
	r.Logs[cl.ID] = cl
	return cl, nil
}

func (r *MemoryRepo) CreateMany(ctx context.Context, cls []CallLog) ([]CallLog, error) {
	out := make([]CallLog, 0, len(cls))
	for _, cl := range cls {
		created, err := r.Create(ctx, cl)
		if err != nil {
			return nil, err
		}
		out = append(out, created)
	}
	return out, nil
}

func (r *MemoryRepo) List(ctx context.Context, q store.ListQuery) ([]CallLog, error) {
	q = q.Normalize()
	r.mu.Lock()
	defer r.mu.Unlock()

	all := make([]CallLog, 0, len(r.Logs))
	for _, cl := range r.Logs {
		if matches(cl, q.Filters) {
			all = append(all, cl)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if q.Desc {
			return all[i].ID > all[j].ID
		}
		return all[i].ID < all[j].ID
	})

	start := q.Offset()
	if start >= len(all) {
		return []CallLog{}, nil
	}
	end := start + q.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], nil
}

func (r *MemoryRepo) Count(ctx context.Context, filters []store.Filter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, cl := range r.Logs {
		if matches(cl, filters) {
			n++
		}
	}
	return n, nil
}

func (r *MemoryRepo) Get(ctx context.Context, id int64) (CallLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cl, ok := r.Logs[id]
	if !ok {
		return CallLog{}, ErrNotFound
	}
	return cl, nil
}

func (r *MemoryRepo) Update(ctx context.Context, id int64, p Patch) (CallLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cl, ok := r.Logs[id]
	if !ok {
		return CallLog{}, ErrNotFound
	}
	if p.Number != nil {
		cl.Number = *p.Number
	}
	if p.Name != nil {
		cl.Name = *p.Name
	}
	if p.Status != nil {
		cl.Status = *p.Status
	}
	if p.Duration != nil {
		cl.Duration = *p.Duration
	}
	if p.AgentID != nil {
		cl.AgentID = *p.AgentID
	}
	if p.Records != nil {
		cl.Records = *p.Records
	}
	if p.CallSid != nil {
		cl.CallSid = *p.CallSid
	}
	cl.UpdatedAt = time.Now().UTC()
	r.Logs[id] = cl
	return cl, nil
}

func (r *MemoryRepo) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.Logs, id)
	return nil
}

func (r *MemoryRepo) ByCallSid(ctx context.Context, callSid string) (CallLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var (
		found CallLog
		ok    bool
	)
	for _, cl := range r.Logs {
		if cl.CallSid == callSid && (!ok || cl.ID < found.ID) {
			found = cl
			ok = true
		}
	}
	if !ok {
		return CallLog{}, ErrNotFound
	}
	return found, nil
}

func (r *MemoryRepo) UpdateStatus(ctx context.Context, id int64, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cl, ok := r.Logs[id]
	if !ok {
		return ErrNotFound
	}
	cl.Status = status
	cl.UpdatedAt = time.Now().UTC()
	r.Logs[id] = cl
	return nil
}

func matches(cl CallLog, filters []store.Filter) bool {
	for _, f := range filters {
		if f.Op != "=" {
			continue
		}
		switch f.Column {
		case "status":
			if v, ok := f.Value.(string); !ok || cl.Status != v {
				return false
			}
		case "call_sid":
			if v, ok := f.Value.(string); !ok || cl.CallSid != v {
				return false
			}
		case "name":
			if v, ok := f.Value.(string); !ok || cl.Name != v {
				return false
			}
		}
	}
	return true
}
