package agents

import (
	"context"
	"sort"
	"sync"

	"callops/internal/store"
)

// MemoryRepo is an in-memory agent repository for tests and early development.
// It supports equality filters only; the SQL repo handles the full operator set.
type MemoryRepo struct {
	mu     sync.Mutex
	nextID int64
	Agents map[int64]Agent
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{nextID: 1, Agents: map[int64]Agent{}}
}

func (r *MemoryRepo) Create(ctx context.Context, a Agent) (Agent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a.ID = r.nextID
	r.nextID++
	r.Agents[a.ID] = a
	return a, nil
}

func (r *MemoryRepo) CreateMany(ctx context.Context, as []Agent) ([]Agent, error) {
	out := make([]Agent, 0, len(as))
	for _, a := range as {
		created, err := r.Create(ctx, a)
		if err != nil {
			return nil, err
		}
		out = append(out, created)
	}
	return out, nil
}

func (r *MemoryRepo) List(ctx context.Context, q store.ListQuery) ([]Agent, error) {
	q = q.Normalize()
	r.mu.Lock()
	defer r.mu.Unlock()

	all := make([]Agent, 0, len(r.Agents))
	for _, a := range r.Agents {
		if matches(a, q.Filters) {
			all = append(all, a)
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
		return []Agent{}, nil
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
	for _, a := range r.Agents {
		if matches(a, filters) {
			n++
		}
	}
	return n, nil
}

func (r *MemoryRepo) Get(ctx context.Context, id int64) (Agent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.Agents[id]
	if !ok {
		return Agent{}, ErrNotFound
	}
	return a, nil
}

func (r *MemoryRepo) Update(ctx context.Context, id int64, p Patch) (Agent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.Agents[id]
	if !ok {
		return Agent{}, ErrNotFound
	}
	if p.Name != nil {
		a.Name = *p.Name
	}
	if p.Prompt != nil {
		a.Prompt = *p.Prompt
	}
	r.Agents[id] = a
	return a, nil
}

func (r *MemoryRepo) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.Agents, id)
	return nil
}

func matches(a Agent, filters []store.Filter) bool {
	for _, f := range filters {
		if f.Op != "=" {
			continue
		}
		switch f.Column {
		case "name":
			if v, ok := f.Value.(string); !ok || a.Name != v {
				return false
			}
		}
	}
	return true
}
