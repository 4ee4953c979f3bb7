package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestAsPgError(t *testing.T) {
	t.Parallel()

	wrapped := fmt.Errorf("insert: %w", &pgconn.PgError{Code: UniqueViolationCode})
	pe, ok := AsPgError(wrapped)
	if !ok || pe.Code != UniqueViolationCode {
		t.Fatalf("AsPgError(wrapped)=(%v, %v), want unique violation", pe, ok)
	}

	if _, ok := AsPgError(errors.New("plain")); ok {
		t.Fatalf("AsPgError(plain) ok=true, want false")
	}
}

func TestNewPool_EmptyDSN(t *testing.T) {
	t.Parallel()

	if _, err := NewPool(context.Background(), "", PoolOptions{}); err == nil {
		t.Fatalf("expected error for empty DSN")
	}
}

func TestNewPool_InvalidDSN(t *testing.T) {
	t.Parallel()

	if _, err := NewPool(context.Background(), "postgres://%zz", PoolOptions{}); err == nil {
		t.Fatalf("expected error for malformed DSN")
	}
}
