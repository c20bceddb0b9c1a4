//go:build integration

package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/marcelsud/webhook-inspector/webhook"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func summary(pathname string) webhook.Summary {
	return webhook.Summary{
		ID:        uuid.Must(uuid.NewV7()).String(),
		Method:    "POST",
		Pathname:  pathname,
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
}

func TestFeed_Integration(t *testing.T) {
	ctx := context.Background()

	redisContainer, cleanup := SetupRedisContainer(t, ctx)
	defer cleanup()

	t.Run("published summaries are consumed in order", func(t *testing.T) {
		feed := CreateTestFeed(t, redisContainer.Addr, 100)
		defer feed.Close(ctx)

		require.NoError(t, feed.EnsureGroup(ctx, "tail"))

		first := summary("/stripe/events")
		second := summary("/github")
		require.NoError(t, feed.Publish(ctx, first))
		require.NoError(t, feed.Publish(ctx, second))

		messages, err := feed.Consume(ctx, "tail", "test", 10, time.Second)
		require.NoError(t, err)
		require.Len(t, messages, 2)
		assert.Equal(t, first, messages[0].Summary)
		assert.Equal(t, second, messages[1].Summary)

		require.NoError(t, feed.Acknowledge(ctx, "tail", messages[0].StreamID, messages[1].StreamID))

		again, err := feed.Consume(ctx, "tail", "test", 10, 100*time.Millisecond)
		require.NoError(t, err)
		assert.Empty(t, again)
	})

	t.Run("ensure group twice is fine", func(t *testing.T) {
		feed := CreateTestFeed(t, redisContainer.Addr, 100)
		defer feed.Close(ctx)

		require.NoError(t, feed.EnsureGroup(ctx, "tail"))
		require.NoError(t, feed.EnsureGroup(ctx, "tail"))
	})

	t.Run("stream is capped", func(t *testing.T) {
		feed := CreateTestFeed(t, redisContainer.Addr, 10)
		defer feed.Close(ctx)

		for i := 0; i < 500; i++ {
			require.NoError(t, feed.Publish(ctx, summary("/flood")))
		}

		length, err := feed.Len(ctx)
		require.NoError(t, err)
		// approximate trimming works per macro node, so allow slack
		assert.Less(t, length, int64(500))
	})

	t.Run("follow delivers until cancelled", func(t *testing.T) {
		feed := CreateTestFeed(t, redisContainer.Addr, 100)
		defer feed.Close(ctx)

		require.NoError(t, feed.EnsureGroup(ctx, "tail"))
		published := summary("/stripe/events")
		require.NoError(t, feed.Publish(ctx, published))

		followCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		var got []webhook.Summary
		err := feed.Follow(followCtx, "tail", "test", func(s webhook.Summary) error {
			got = append(got, s)
			cancel()
			return nil
		})

		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, published.ID, got[0].ID)
	})
}
