package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/marcelsud/webhook-inspector/webhook"
)

// FeedLength is the part of the capture feed the collector reads
type FeedLength interface {
	Len(ctx context.Context) (int64, error)
}

// StoreCollector implements Collector on top of the webhook store counts
type StoreCollector struct {
	counter webhook.Counter
	feed    FeedLength
	now     func() time.Time
}

// NewStoreCollector creates a collector; feed may be nil
func NewStoreCollector(counter webhook.Counter, feed FeedLength) *StoreCollector {
	return &StoreCollector{
		counter: counter,
		feed:    feed,
		now:     time.Now,
	}
}

// Collect gathers all metrics
func (c *StoreCollector) Collect(ctx context.Context) (Metrics, error) {
	stored, err := c.GetStoredCount(ctx)
	if err != nil {
		return Metrics{}, fmt.Errorf("getting stored count: %w", err)
	}

	throughput, err := c.GetThroughput(ctx)
	if err != nil {
		return Metrics{}, fmt.Errorf("getting throughput: %w", err)
	}

	feedLength, err := c.GetFeedLength(ctx)
	if err != nil {
		return Metrics{}, fmt.Errorf("getting feed length: %w", err)
	}

	return Metrics{
		Stored:     stored,
		Throughput: throughput,
		FeedLength: feedLength,
		Timestamp:  c.now(),
	}, nil
}

// GetStoredCount returns how many captured requests are stored
func (c *StoreCollector) GetStoredCount(ctx context.Context) (int64, error) {
	return c.counter.Count(ctx)
}

// GetThroughput counts captures over the last 1, 5 and 15 minutes
func (c *StoreCollector) GetThroughput(ctx context.Context) (ThroughputMetrics, error) {
	now := c.now()

	oneMin, err := c.counter.CountSince(ctx, now.Add(-1*time.Minute))
	if err != nil {
		return ThroughputMetrics{}, fmt.Errorf("counting last minute: %w", err)
	}
	fiveMin, err := c.counter.CountSince(ctx, now.Add(-5*time.Minute))
	if err != nil {
		return ThroughputMetrics{}, fmt.Errorf("counting last 5 minutes: %w", err)
	}
	fifteenMin, err := c.counter.CountSince(ctx, now.Add(-15*time.Minute))
	if err != nil {
		return ThroughputMetrics{}, fmt.Errorf("counting last 15 minutes: %w", err)
	}

	return ThroughputMetrics{
		LastMinute:         oneMin,
		LastFiveMinutes:    fiveMin,
		LastFifteenMinutes: fifteenMin,
	}, nil
}

// GetFeedLength returns the capture feed backlog
func (c *StoreCollector) GetFeedLength(ctx context.Context) (int64, error) {
	if c.feed == nil {
		return 0, nil
	}
	return c.feed.Len(ctx)
}
