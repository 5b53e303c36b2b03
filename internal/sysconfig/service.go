package sysconfig

import (
	"context"
	"errors"
	"strings"
	"time"

	"callops/internal/store"
)

var ErrInvalidKey = errors.New("sysconfig: key is required")

const cacheTTL = time.Minute

// Service is the config lookup used across the system, including by the
// media-stream relay to fetch the realtime API credential per call.
type Service struct {
	repo  Repository
	cache Cache
}

// NewService builds a settings service. cache may be nil.
func NewService(repo Repository, cache Cache) *Service {
	return &Service{repo: repo, cache: cache}
}

// Value returns the stored value for key, reading through the cache.
// Returns ErrNotFound when the key is absent.
func (s *Service) Value(ctx context.Context, key string) (string, error) {
	if s.cache != nil {
		if v, ok := s.cache.Get(ctx, key); ok {
			return v, nil
		}
	}
	setting, err := s.repo.ByKey(ctx, key)
	if err != nil {
		return "", err
	}
	if s.cache != nil {
		s.cache.Set(ctx, key, setting.Value, cacheTTL)
	}
	return setting.Value, nil
}

// UpsertByKey creates or updates a setting and invalidates its cache entry.
func (s *Service) UpsertByKey(ctx context.Context, key, value string) (Setting, error) {
	if strings.TrimSpace(key) == "" {
		return Setting{}, ErrInvalidKey
	}
	setting, err := s.repo.UpsertByKey(ctx, key, value)
	if err != nil {
		return Setting{}, err
	}
	if s.cache != nil {
		s.cache.Delete(ctx, key)
	}
	return setting, nil
}

func (s *Service) List(ctx context.Context, q store.ListQuery) ([]Setting, error) {
	return s.repo.List(ctx, q)
}

func (s *Service) Count(ctx context.Context, filters []store.Filter) (int64, error) {
	return s.repo.Count(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (Setting, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	setting, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if s.cache != nil {
		s.cache.Delete(ctx, setting.Key)
	}
	return nil
}
