//go:build integration

package chi_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/marcelsud/webhook-inspector/captures"
	"github.com/marcelsud/webhook-inspector/generator"
	"github.com/marcelsud/webhook-inspector/internal/http/chi"
	"github.com/marcelsud/webhook-inspector/webhook"
	wbredis "github.com/marcelsud/webhook-inspector/webhook/redis"
	"github.com/marcelsud/webhook-inspector/webhook/sqlite"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	testcontainersredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

// TestCapture_EndToEnd drives the real router, an embedded store and a Redis feed
func TestCapture_EndToEnd(t *testing.T) {
	ctx := context.Background()

	container, err := testcontainersredis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	defer container.Terminate(ctx)

	addr, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	feed, err := wbredis.NewFeed(strings.TrimPrefix(addr, "redis://"), "", 0, fmt.Sprintf("e2e:%d", time.Now().UnixNano()), 1000)
	require.NoError(t, err)
	defer feed.Close(ctx)
	require.NoError(t, feed.EnsureGroup(ctx, "e2e"))

	repo, err := sqlite.NewRepository(ctx, ":memory:")
	require.NoError(t, err)
	defer repo.Close(ctx)

	loader := captures.NewLoader()
	require.NoError(t, loader.Parse([]byte("captures:\n  - path: /stripe/events\n")))

	log := zerolog.Nop()
	service := webhook.NewService(repo, feed, log)
	bridge := generator.NewBridge(repo, generator.Static{Text: "export const schema = z.object({})"}, time.Second, log)
	server := httptest.NewServer(chi.WebhookHandlers(ctx, service, bridge, loader, chi.Options{Logger: log}))
	defer server.Close()

	const total = 25

	t.Run("concurrent captures are stored exactly once", func(t *testing.T) {
		var (
			wg  sync.WaitGroup
			mu  sync.Mutex
			ids = map[string]bool{}
		)
		for i := 0; i < total; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				body := fmt.Sprintf(`{"type":"invoice.paid","n":%d}`, i)
				resp, err := http.Post(server.URL+"/stripe/events?n="+fmt.Sprint(i), "application/json", strings.NewReader(body))
				if !assert.NoError(t, err) {
					return
				}
				defer resp.Body.Close()
				assert.Equal(t, http.StatusOK, resp.StatusCode)

				var out struct {
					ID string `json:"id"`
				}
				assert.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
				mu.Lock()
				ids[out.ID] = true
				mu.Unlock()
			}(i)
		}
		wg.Wait()
		require.Len(t, ids, total)

		seen := map[string]int{}
		cursor := ""
		for {
			url := server.URL + "/api/webhooks?limit=7"
			if cursor != "" {
				url += "&cursor=" + cursor
			}
			resp, err := http.Get(url)
			require.NoError(t, err)
			var page struct {
				Webhooks []struct {
					ID string `json:"id"`
				} `json:"webhooks"`
				NextCursor *string `json:"nextCursor"`
			}
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&page))
			resp.Body.Close()

			for _, w := range page.Webhooks {
				seen[w.ID]++
			}
			if page.NextCursor == nil {
				break
			}
			cursor = *page.NextCursor
		}

		assert.Len(t, seen, total)
		for id, n := range seen {
			assert.True(t, ids[id], "unexpected id %s", id)
			assert.Equal(t, 1, n, "id %s served %d times", id, n)
		}
	})

	t.Run("every capture reaches the feed", func(t *testing.T) {
		received := 0
		deadline := time.Now().Add(10 * time.Second)
		for received < total && time.Now().Before(deadline) {
			messages, err := feed.Consume(ctx, "e2e", "tester", 10, time.Second)
			require.NoError(t, err)
			for _, msg := range messages {
				assert.Equal(t, "/stripe/events", msg.Summary.Pathname)
				require.NoError(t, feed.Acknowledge(ctx, "e2e", msg.StreamID))
				received++
			}
		}
		assert.Equal(t, total, received)
	})

	t.Run("generate reads stored bodies", func(t *testing.T) {
		page, err := repo.Page(ctx, nil, 2)
		require.NoError(t, err)
		require.Len(t, page.Items, 2)

		body := fmt.Sprintf(`{"webhookIds":[%q,%q]}`, page.Items[0].ID, page.Items[1].ID)
		resp, err := http.Post(server.URL+"/api/generate", "application/json", strings.NewReader(body))
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		var out struct {
			Code string `json:"code"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
		assert.Equal(t, "export const schema = z.object({})", out.Code)
	})
}
