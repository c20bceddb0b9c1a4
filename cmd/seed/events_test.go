package main

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/marcelsud/webhook-inspector/webhook/payload"
	"github.com/marcelsud/webhook-inspector/webhook/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripeEvents(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	samples, err := stripeEvents(gofakeit.New(42), total, now)
	require.NoError(t, err)
	require.Len(t, samples, total)

	for i, wh := range samples {
		require.NotNil(t, wh.Body)
		var event map[string]any
		require.NoError(t, json.Unmarshal([]byte(*wh.Body), &event), "sample %d", i)
		assert.Equal(t, wh.ID, event["id"])
		assert.Contains(t, eventTypes, payload.EventType(wh.Body))
		assert.Equal(t, int64(len(*wh.Body)), *wh.ContentLength)
		assert.Equal(t, "Stripe/1.0", wh.Headers["user-agent"])
		assert.NotEmpty(t, wh.Headers["stripe-signature"])
		if i > 0 {
			assert.True(t, wh.CreatedAt.After(samples[i-1].CreatedAt))
		}
	}
}

func TestStripeEventsPage(t *testing.T) {
	ctx := context.Background()
	repo, err := sqlite.NewRepository(ctx, ":memory:")
	require.NoError(t, err)
	defer repo.Close(ctx)

	samples, err := stripeEvents(gofakeit.New(7), total, time.Now().UTC())
	require.NoError(t, err)
	for _, wh := range samples {
		_, err := repo.Insert(ctx, wh)
		require.NoError(t, err)
	}

	page, err := repo.Page(ctx, nil, 30)
	require.NoError(t, err)
	require.Len(t, page.Items, 30)
	require.NotNil(t, page.NextCursor)
	assert.Equal(t, samples[total-1].ID, page.Items[0].ID)
}
