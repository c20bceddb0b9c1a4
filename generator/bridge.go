package generator

import (
	"context"
	"fmt"
	"time"

	"github.com/marcelsud/webhook-inspector/webhook"
	"github.com/rs/zerolog"
)

// DefaultTimeout bounds one generation call
const DefaultTimeout = 60 * time.Second

// Bridge fetches stored bodies and asks the Generator for a handler
type Bridge struct {
	Repo      webhook.Reader
	Generator Generator
	timeout   time.Duration
	logger    zerolog.Logger
}

// NewBridge creates a bridge; a non-positive timeout means DefaultTimeout
func NewBridge(repo webhook.Reader, gen Generator, timeout time.Duration, logger zerolog.Logger) *Bridge {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Bridge{
		Repo:      repo,
		Generator: gen,
		timeout:   timeout,
		logger:    logger,
	}
}

// Generate returns the generated text verbatim.
// Lookups finish before the external call starts; nothing is written.
func (b *Bridge) Generate(ctx context.Context, ids []string) (string, error) {
	canonical := make([]string, 0, len(ids))
	for _, id := range ids {
		c, err := webhook.CanonicalID(id)
		if err != nil {
			return "", &webhook.ValidationError{Field: "webhookIds", Reason: fmt.Sprintf("%q is not a webhook id", id)}
		}
		canonical = append(canonical, c)
	}
	ids = canonical

	found, err := b.Repo.GetByIDs(ctx, ids)
	if err != nil {
		return "", fmt.Errorf("selecting webhook bodies: %w", err)
	}

	bodies := orderedBodies(ids, found)
	prompt := BuildPrompt(bodies)

	genCtx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	start := time.Now()
	text, err := b.Generator.Generate(genCtx, prompt)
	if err != nil {
		b.logger.Error().Err(err).
			Int("requested", len(ids)).
			Int("bodies", len(bodies)).
			Dur("elapsed", time.Since(start)).
			Msg("generating handler")
		return "", &GenerationError{Err: err}
	}

	b.logger.Info().
		Int("requested", len(ids)).
		Int("bodies", len(bodies)).
		Dur("elapsed", time.Since(start)).
		Msg("handler generated")

	return text, nil
}

// orderedBodies keeps the caller's id order, skipping missing records and nil bodies
func orderedBodies(ids []string, found []webhook.Webhook) []string {
	byID := make(map[string]webhook.Webhook, len(found))
	for _, wh := range found {
		byID[wh.ID] = wh
	}

	bodies := make([]string, 0, len(found))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		wh, ok := byID[id]
		if !ok || seen[id] || wh.Body == nil {
			continue
		}
		seen[id] = true
		bodies = append(bodies, *wh.Body)
	}
	return bodies
}
