package agents

import (
	"context"
	"errors"
	"testing"

	"callops/internal/store"
)

func TestService_CreateRequiresName(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	if _, err := svc.Create(context.Background(), Agent{Name: "  "}); !errors.Is(err, ErrInvalidAgent) {
		t.Fatalf("expected ErrInvalidAgent, got %v", err)
	}
}

func TestService_PromptLookup(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)

	a, err := svc.Create(context.Background(), Agent{Name: "Closer", Prompt: "Be polite."})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	prompt, err := svc.Prompt(context.Background(), a.ID)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if prompt != "Be polite." {
		t.Fatalf("unexpected prompt: %q", prompt)
	}

	if _, err := svc.Prompt(context.Background(), 999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestService_ListPagination(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)
	for i := 0; i < 25; i++ {
		if _, err := svc.Create(context.Background(), Agent{Name: "a"}); err != nil {
			t.Fatalf("unexpected err: %v", err)
		}
	}

	page2, err := svc.List(context.Background(), store.ListQuery{Page: 2, Limit: 10})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(page2) != 10 || page2[0].ID != 11 {
		t.Fatalf("unexpected page: len=%d first=%+v", len(page2), page2[0])
	}

	n, err := svc.Count(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if n != 25 {
		t.Fatalf("expected 25, got %d", n)
	}
}

func TestService_UpdatePatchesOnlyGivenFields(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)
	a, _ := svc.Create(context.Background(), Agent{Name: "Closer", Prompt: "Be polite."})

	newName := "Opener"
	got, err := svc.Update(context.Background(), a.ID, Patch{Name: &newName})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got.Name != "Opener" || got.Prompt != "Be polite." {
		t.Fatalf("unexpected agent after patch: %+v", got)
	}
}
