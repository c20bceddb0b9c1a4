package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/marcelsud/webhook-inspector/webhook"
	"github.com/redis/go-redis/v9"
)

/* Redis Streams implementation of webhook.Publisher
 * Every stored capture is appended to one capped stream as a summary
 * Followers read it through consumer groups and acknowledge what they printed
 */

const (
	DefaultStream = "webhooks:captured"
	DefaultMaxLen = 10000
)

// Message is one summary read from the feed, with the stream id needed to acknowledge it
type Message struct {
	StreamID string
	Summary  webhook.Summary
}

type Feed struct {
	client *redis.Client
	stream string
	maxLen int64
}

// NewFeed connects to Redis and returns a feed on stream capped near maxLen entries
func NewFeed(addr, password string, db int, stream string, maxLen int64) (*Feed, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connecting to Redis: %w", err)
	}

	return NewFeedWithClient(client, stream, maxLen), nil
}

// NewFeedWithClient wraps an existing client
func NewFeedWithClient(client *redis.Client, stream string, maxLen int64) *Feed {
	if stream == "" {
		stream = DefaultStream
	}
	if maxLen <= 0 {
		maxLen = DefaultMaxLen
	}
	return &Feed{
		client: client,
		stream: stream,
		maxLen: maxLen,
	}
}

// Publish appends a capture summary to the stream
func (f *Feed) Publish(ctx context.Context, s webhook.Summary) error {
	_, err := f.client.XAdd(ctx, &redis.XAddArgs{
		Stream: f.stream,
		MaxLen: f.maxLen,
		Approx: true,
		Values: map[string]interface{}{
			"id":         s.ID,
			"method":     s.Method,
			"pathname":   s.Pathname,
			"created_at": s.CreatedAt.UTC().Format(time.RFC3339Nano),
		},
	}).Result()
	if err != nil {
		return fmt.Errorf("adding to stream: %w", err)
	}
	return nil
}

// EnsureGroup creates the consumer group, starting at new entries only
func (f *Feed) EnsureGroup(ctx context.Context, group string) error {
	err := f.client.XGroupCreateMkStream(ctx, f.stream, group, "$").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("creating consumer group: %w", err)
	}
	return nil
}

// Consume reads up to count new summaries for consumer, blocking at most block
func (f *Feed) Consume(ctx context.Context, group, consumer string, count int64, block time.Duration) ([]Message, error) {
	streams, err := f.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    group,
		Consumer: consumer,
		Streams:  []string{f.stream, ">"},
		Count:    count,
		Block:    block,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return []Message{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading from stream: %w", err)
	}

	messages := []Message{}
	for _, stream := range streams {
		for _, msg := range stream.Messages {
			s, err := decodeSummary(msg.Values)
			if err != nil {
				// malformed entries are acknowledged so they do not come back
				_ = f.client.XAck(ctx, f.stream, group, msg.ID).Err()
				continue
			}
			messages = append(messages, Message{StreamID: msg.ID, Summary: s})
		}
	}

	return messages, nil
}

// Acknowledge marks messages as handled by the group
func (f *Feed) Acknowledge(ctx context.Context, group string, streamIDs ...string) error {
	if len(streamIDs) == 0 {
		return nil
	}
	if err := f.client.XAck(ctx, f.stream, group, streamIDs...).Err(); err != nil {
		return fmt.Errorf("acknowledging messages: %w", err)
	}
	return nil
}

// Follow consumes the feed until ctx is done, calling handle for every summary
// A message is acknowledged only after handle succeeds
func (f *Feed) Follow(ctx context.Context, group, consumer string, handle func(webhook.Summary) error) error {
	if err := f.EnsureGroup(ctx, group); err != nil {
		return err
	}

	for {
		if ctx.Err() != nil {
			return nil
		}

		messages, err := f.Consume(ctx, group, consumer, 10, time.Second)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		for _, msg := range messages {
			if err := handle(msg.Summary); err != nil {
				return fmt.Errorf("handling %s: %w", msg.Summary.ID, err)
			}
			if err := f.Acknowledge(ctx, group, msg.StreamID); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}
		}
	}
}

// Len returns the number of entries currently kept in the stream
func (f *Feed) Len(ctx context.Context) (int64, error) {
	n, err := f.client.XLen(ctx, f.stream).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return 0, fmt.Errorf("reading stream length: %w", err)
	}
	return n, nil
}

// Stream returns the stream key
func (f *Feed) Stream() string {
	return f.stream
}

// Close closes the Redis connection
func (f *Feed) Close(ctx context.Context) error {
	return f.client.Close()
}

func decodeSummary(values map[string]interface{}) (webhook.Summary, error) {
	id, ok := values["id"].(string)
	if !ok || id == "" {
		return webhook.Summary{}, fmt.Errorf("missing id")
	}
	method, _ := values["method"].(string)
	pathname, _ := values["pathname"].(string)
	raw, _ := values["created_at"].(string)

	createdAt, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return webhook.Summary{}, fmt.Errorf("parsing created_at: %w", err)
	}

	return webhook.Summary{
		ID:        id,
		Method:    method,
		Pathname:  pathname,
		CreatedAt: createdAt.UTC(),
	}, nil
}

var _ webhook.Publisher = (*Feed)(nil)
