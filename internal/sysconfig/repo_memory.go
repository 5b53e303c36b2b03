package sysconfig

import (
	"context"
	"sort"
	"sync"
	"time"

	"callops/internal/store"
)

// MemoryRepo is an in-memory settings repository for tests.
type MemoryRepo struct {
	mu       sync.Mutex
	nextID   int64
	Settings map[string]Setting // keyed by setting key
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{nextID: 1, Settings: map[string]Setting{}}
}

func (r *MemoryRepo) List(ctx context.Context, q store.ListQuery) ([]Setting, error) {
	q = q.Normalize()
	r.mu.Lock()
	defer r.mu.Unlock()

	all := make([]Setting, 0, len(r.Settings))
	for _, s := range r.Settings {
		all = append(all, s)
	}
	sort.Slice(all, func(i, j int) bool {
		if q.Desc {
			return all[i].ID > all[j].ID
		}
		return all[i].ID < all[j].ID
	})

	start := q.Offset()
	if start >= len(all) {
		return []Setting{}, nil
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
	return int64(len(r.Settings)), nil
}

func (r *MemoryRepo) Get(ctx context.Context, id int64) (Setting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.Settings {
		if s.ID == id {
			return s, nil
		}
	}
	return Setting{}, ErrNotFound
}

func (r *MemoryRepo) ByKey(ctx context.Context, key string) (Setting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.Settings[key]
	if !ok {
		return Setting{}, ErrNotFound
	}
	return s, nil
}

func (r *MemoryRepo) UpsertByKey(ctx context.Context, key, value string) (Setting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	s, ok := r.Settings[key]
	if !ok {
		s = Setting{ID: r.nextID, Key: key, CreatedAt: now}
		r.nextID++
	}
	s.Value = value
	s.UpdatedAt = now
	r.Settings[key] = s
	return s, nil
}

func (r *MemoryRepo) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, s := range r.Settings {
		if s.ID == id {
			delete(r.Settings, k)
			return nil
		}
	}
	return nil
}
