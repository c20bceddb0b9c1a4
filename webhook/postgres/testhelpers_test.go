//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/marcelsud/webhook-inspector/webhook"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

/*
Test helpers backed by a real PostgreSQL container

References:
- https://golang.testcontainers.org/modules/postgres/
*/

const (
	defaultDatabase = "testdb"
	defaultUser     = "testuser"
	defaultPassword = "testpass"
)

// SetupTestRepository starts postgres, creates the schema and returns a ready repository
func SetupTestRepository(t testing.TB, ctx context.Context) (*Repository, func()) {
	t.Helper()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase(defaultDatabase),
		postgres.WithUsername(defaultUser),
		postgres.WithPassword(defaultPassword),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	repo, err := NewRepository(connStr)
	require.NoError(t, err)
	require.NoError(t, repo.CreateTable(ctx))

	cleanup := func() {
		_ = repo.Close(ctx)
		_ = pgContainer.Terminate(ctx)
	}

	return repo, cleanup
}

// InsertAt stores a minimal webhook with a fixed id and timestamp
func InsertAt(t testing.TB, ctx context.Context, repo *Repository, id string, createdAt time.Time) webhook.Webhook {
	t.Helper()

	body := `{"id":"` + id + `"}`
	wh, err := repo.Insert(ctx, webhook.Webhook{
		ID:          id,
		Method:      "POST",
		Pathname:    "/stripe/events",
		IP:          "127.0.0.1",
		StatusCode:  200,
		QueryParams: map[string]string{},
		Headers:     map[string]string{"Content-Type": "application/json"},
		Body:        &body,
		CreatedAt:   createdAt.UTC().Truncate(time.Microsecond),
	})
	require.NoError(t, err)

	return wh
}

// Traverse walks every page and returns the ids in the order they were served
func Traverse(t *testing.T, ctx context.Context, repo *Repository, limit int) []string {
	t.Helper()

	var (
		ids    []string
		cursor *string
	)
	for {
		page, err := repo.Page(ctx, cursor, limit)
		require.NoError(t, err)
		for _, s := range page.Items {
			ids = append(ids, s.ID)
		}
		if page.NextCursor == nil {
			return ids
		}
		cursor = page.NextCursor
	}
}
