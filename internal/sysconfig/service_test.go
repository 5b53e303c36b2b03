package sysconfig

import (
	"context"
	"errors"
	"testing"
)

func TestService_ValueMissingKey(t *testing.T) {
	svc := NewService(NewMemoryRepo(), nil)
	if _, err := svc.Value(context.Background(), KeyOpenAIAPIKey); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestService_UpsertThenValue(t *testing.T) {
	svc := NewService(NewMemoryRepo(), NewMemoryCache())

	if _, err := svc.UpsertByKey(context.Background(), KeyOpenAIAPIKey, "sk-test"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	v, err := svc.Value(context.Background(), KeyOpenAIAPIKey)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if v != "sk-test" {
		t.Fatalf("unexpected value: %q", v)
	}
}

func TestService_UpsertInvalidatesCache(t *testing.T) {
	repo := NewMemoryRepo()
	cache := NewMemoryCache()
	svc := NewService(repo, cache)

	if _, err := svc.UpsertByKey(context.Background(), KeyServerURL, "https://one.example.com"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	// Prime the cache.
	if _, err := svc.Value(context.Background(), KeyServerURL); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if _, err := svc.UpsertByKey(context.Background(), KeyServerURL, "https://two.example.com"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	v, err := svc.Value(context.Background(), KeyServerURL)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if v != "https://two.example.com" {
		t.Fatalf("expected updated value, got %q", v)
	}
}

func TestService_UpsertRequiresKey(t *testing.T) {
	svc := NewService(NewMemoryRepo(), nil)
	if _, err := svc.UpsertByKey(context.Background(), "  ", "v"); !errors.Is(err, ErrInvalidKey) {
		t.Fatalf("expected ErrInvalidKey, got %v", err)
	}
}

func TestService_ValueServedFromCache(t *testing.T) {
	repo := NewMemoryRepo()
	cache := NewMemoryCache()
	svc := NewService(repo, cache)

	if _, err := svc.UpsertByKey(context.Background(), KeyTwilioAuthToken, "tok"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if _, err := svc.Value(context.Background(), KeyTwilioAuthToken); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	// Mutate the repo behind the service's back; the cached value should win
	// until invalidation.
	repo.Settings[KeyTwilioAuthToken] = Setting{ID: 1, Key: KeyTwilioAuthToken, Value: "changed"}
	v, err := svc.Value(context.Background(), KeyTwilioAuthToken)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if v != "tok" {
		t.Fatalf("expected cached value, got %q", v)
	}
}
