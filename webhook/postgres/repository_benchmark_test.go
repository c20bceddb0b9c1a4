//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
)

/*
Benchmarks against a real PostgreSQL

Run with: go test -tags=integration -bench=. -benchmem ./webhook/postgres/

The container starts before b.ResetTimer, so its startup is not measured.
*/

func BenchmarkInsert_Postgres(b *testing.B) {
	ctx := context.Background()
	repo, cleanup := SetupTestRepository(b, ctx)
	defer cleanup()

	base := time.Now().UTC()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		InsertAt(b, ctx, repo, uuid.Must(uuid.NewV7()).String(), base.Add(time.Duration(i)*time.Microsecond))
	}
}

func BenchmarkPage_Postgres(b *testing.B) {
	ctx := context.Background()
	repo, cleanup := SetupTestRepository(b, ctx)
	defer cleanup()

	base := time.Now().UTC()
	var cursor string
	for i := 0; i < 1000; i++ {
		wh := InsertAt(b, ctx, repo, uuid.Must(uuid.NewV7()).String(), base.Add(time.Duration(i)*time.Millisecond))
		if i == 500 {
			cursor = wh.ID
		}
	}

	b.Run("first page", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			if _, err := repo.Page(ctx, nil, 30); err != nil {
				b.Fatalf("Page failed: %v", err)
			}
		}
	})
	b.Run("mid cursor", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			if _, err := repo.Page(ctx, &cursor, 30); err != nil {
				b.Fatalf("Page failed: %v", err)
			}
		}
	})
}
