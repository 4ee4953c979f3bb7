package migrations_test

import (
	"context"
	"testing"

	"github.com/pyconza/pyconza-site/internal/adapters/postgres/migrations"
	"github.com/pyconza/pyconza-site/internal/adapters/postgres/testutil"
)

func TestApply_Idempotent(t *testing.T) {
	pool := testutil.OpenPool(t)
	ctx := context.Background()

	if err := migrations.Apply(ctx, pool); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	v1, err := migrations.Version(ctx, pool)
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if v1 < 1 {
		t.Fatalf("version=%d, want >= 1", v1)
	}

	if err := migrations.Apply(ctx, pool); err != nil {
		t.Fatalf("re-apply migrations: %v", err)
	}
	v2, err := migrations.Version(ctx, pool)
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if v2 != v1 {
		t.Fatalf("version changed on re-apply: %d vs %d", v2, v1)
	}
}
