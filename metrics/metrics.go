package metrics

import (
	"context"
	"time"
)

// Metrics represents the current state of the capture store and feed.
type Metrics struct {
	// Stored is the number of captured requests currently kept
	Stored int64 `json:"stored"`

	// Throughput represents requests captured per time window
	Throughput ThroughputMetrics `json:"throughput"`

	// FeedLength is the number of entries held by the capture feed stream
	FeedLength int64 `json:"feed_length"`

	// Timestamp when metrics were collected
	Timestamp time.Time `json:"timestamp"`
}

// ThroughputMetrics represents requests captured over different time windows.
type ThroughputMetrics struct {
	// LastMinute is requests captured in the last 1 minute
	LastMinute int64 `json:"last_minute"`

	// LastFiveMinutes is requests captured in the last 5 minutes
	LastFiveMinutes int64 `json:"last_five_minutes"`

	// LastFifteenMinutes is requests captured in the last 15 minutes
	LastFifteenMinutes int64 `json:"last_fifteen_minutes"`
}

// Collector defines the interface for collecting metrics from the inspector.
type Collector interface {
	// Collect gathers current metrics from the system
	Collect(ctx context.Context) (Metrics, error)

	// GetStoredCount returns how many captured requests are stored
	GetStoredCount(ctx context.Context) (int64, error)

	// GetThroughput returns requests captured over time windows
	GetThroughput(ctx context.Context) (ThroughputMetrics, error)

	// GetFeedLength returns the capture feed backlog, 0 without a feed
	GetFeedLength(ctx context.Context) (int64, error)
}
