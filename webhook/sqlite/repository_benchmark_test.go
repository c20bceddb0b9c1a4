package sqlite

import (
	"testing"
	"time"
)

// go test -bench=. -benchmem ./webhook/sqlite/

func BenchmarkInsert_SQLite(b *testing.B) {
	repo := newTestRepository(b)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		insertAt(b, repo, base.Add(time.Duration(i)*time.Microsecond))
	}
}

func BenchmarkPage_SQLite(b *testing.B) {
	repo := newTestRepository(b)

	var cursor string
	for i := 0; i < 1000; i++ {
		wh := insertAt(b, repo, base.Add(time.Duration(i)*time.Millisecond))
		if i == 500 {
			cursor = wh.ID
		}
	}

	b.Run("first page", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			if _, err := repo.Page(b.Context(), nil, 30); err != nil {
				b.Fatalf("Page failed: %v", err)
			}
		}
	})
	b.Run("mid cursor", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			if _, err := repo.Page(b.Context(), &cursor, 30); err != nil {
				b.Fatalf("Page failed: %v", err)
			}
		}
	})
}
