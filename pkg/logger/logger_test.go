package logger

import (
	"context"
	"io"
	"log/slog"
	"testing"
)

func TestFromReturnsStoredLogger(t *testing.T) {
	l := slog.New(slog.NewJSONHandler(io.Discard, nil))
	ctx := With(context.Background(), l)

	if got := From(ctx); got != l {
		t.Fatal("expected the logger stored in context")
	}
}

func TestFromFallsBackToDefault(t *testing.T) {
	if got := From(context.Background()); got != slog.Default() {
		t.Fatal("expected slog.Default for a bare context")
	}
}
