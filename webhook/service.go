package webhook

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

/* Service represents the business logic layer
 * Uses pointer semantics as it's an API, not data
 */

// UseCase defines the business operations for captured webhooks
type UseCase interface {
	Capture(ctx context.Context, req CaptureRequest) (Webhook, error)
	List(ctx context.Context, cursor *string, limit int) (Page, error)
	Get(ctx context.Context, id string) (Webhook, error)
}

// CaptureRequest carries what the transport extracted from one inbound request
type CaptureRequest struct {
	Method      string
	Pathname    string
	IP          string
	Headers     map[string]string
	QueryParams map[string]string
	Body        []byte
	StatusCode  int
}

type Service struct {
	Repo      Repository
	Publisher Publisher
	logger    zerolog.Logger
	// postgres keeps microseconds, so timestamps are truncated to survive a round trip
	now func() time.Time
}

// NewService creates a new webhook service with dependency injection
// publisher may be nil when no live feed is configured
func NewService(repo Repository, publisher Publisher, logger zerolog.Logger) *Service {
	return &Service{
		Repo:      repo,
		Publisher: publisher,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
}

// Capture stores exactly one record for the inbound request
func (s *Service) Capture(ctx context.Context, req CaptureRequest) (Webhook, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return Webhook{}, fmt.Errorf("generating webhook id: %w", err)
	}

	wh := Webhook{
		ID:          id.String(),
		Method:      strings.ToUpper(req.Method),
		Pathname:    req.Pathname,
		IP:          req.IP,
		StatusCode:  req.StatusCode,
		QueryParams: req.QueryParams,
		Headers:     req.Headers,
		CreatedAt:   s.now(),
	}
	if wh.QueryParams == nil {
		wh.QueryParams = map[string]string{}
	}
	if wh.Headers == nil {
		wh.Headers = map[string]string{}
	}
	if wh.StatusCode == 0 {
		wh.StatusCode = 200
	}
	if ct := headerValue(wh.Headers, "Content-Type"); ct != "" {
		wh.ContentType = &ct
	}
	wh.ContentLength = contentLength(wh.Headers, req.Body)
	if len(req.Body) > 0 {
		body := string(req.Body)
		wh.Body = &body
	}

	saved, err := s.Repo.Insert(ctx, wh)
	if err != nil {
		return Webhook{}, fmt.Errorf("inserting webhook: %w", err)
	}

	if s.Publisher != nil {
		if err := s.Publisher.Publish(ctx, saved.Summary()); err != nil {
			s.logger.Warn().Err(err).Str("webhook_id", saved.ID).Msg("publishing capture to feed")
		}
	}

	return saved, nil
}

// List returns one page of summaries, most recent first
func (s *Service) List(ctx context.Context, cursor *string, limit int) (Page, error) {
	if err := ValidatePageSize(limit); err != nil {
		return Page{}, err
	}
	if cursor != nil {
		canonical, err := CanonicalID(*cursor)
		if err != nil {
			return Page{}, &ValidationError{Field: "cursor", Reason: "must be a webhook id"}
		}
		cursor = &canonical
	}
	page, err := s.Repo.Page(ctx, cursor, limit)
	if err != nil {
		return Page{}, fmt.Errorf("paging webhooks: %w", err)
	}
	return page, nil
}

// Get returns the full record for the detail view
func (s *Service) Get(ctx context.Context, id string) (Webhook, error) {
	id, err := CanonicalID(id)
	if err != nil {
		return Webhook{}, err
	}
	wh, err := s.Repo.Get(ctx, id)
	if err != nil {
		return Webhook{}, fmt.Errorf("selecting webhook: %w", err)
	}
	return wh, nil
}

func headerValue(headers map[string]string, name string) string {
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

// contentLength prefers the declared header and falls back to the body size
func contentLength(headers map[string]string, body []byte) *int64 {
	if raw := headerValue(headers, "Content-Length"); raw != "" {
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil && n >= 0 {
			return &n
		}
	}
	if len(body) == 0 {
		return nil
	}
	n := int64(len(body))
	return &n
}
