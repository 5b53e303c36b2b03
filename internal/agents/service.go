package agents

import (
	"context"
	"errors"
	"strings"

	"callops/internal/store"
)

var ErrInvalidAgent = errors.New("agents: name is required")

// Service wraps the repository with validation. It is also the relay's
// agent-profile lookup.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, a Agent) (Agent, error) {
	if strings.TrimSpace(a.Name) == "" {
		return Agent{}, ErrInvalidAgent
	}
	return s.repo.Create(ctx, a)
}

func (s *Service) CreateMany(ctx context.Context, as []Agent) ([]Agent, error) {
	for _, a := range as {
		if strings.TrimSpace(a.Name) == "" {
			return nil, ErrInvalidAgent
		}
	}
	return s.repo.CreateMany(ctx, as)
}

func (s *Service) List(ctx context.Context, q store.ListQuery) ([]Agent, error) {
	return s.repo.List(ctx, q)
}

func (s *Service) Count(ctx context.Context, filters []store.Filter) (int64, error) {
	return s.repo.Count(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (Agent, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Update(ctx context.Context, id int64, p Patch) (Agent, error) {
	return s.repo.Update(ctx, id, p)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

// Prompt returns the instruction prompt for one agent.
// Returns ErrNotFound when the agent does not exist.
func (s *Service) Prompt(ctx context.Context, id int64) (string, error) {
	a, err := s.repo.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return a.Prompt, nil
}
