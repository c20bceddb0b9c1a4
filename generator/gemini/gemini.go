package gemini

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

// DefaultModel is used when no model is configured
const DefaultModel = "gemini-2.5-flash-lite"

// ErrEmptyResponse is returned when the model answers without any text
var ErrEmptyResponse = errors.New("empty response from model")

// Generator calls the Gemini API through the genai SDK
type Generator struct {
	client *genai.Client
	model  string
}

// Options configures the client; BaseURL is only set to point at a fake server
type Options struct {
	APIKey  string
	Model   string
	BaseURL string
}

// New creates a Gemini backed generator
func New(ctx context.Context, opts Options) (*Generator, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if opts.Model == "" {
		opts.Model = DefaultModel
	}

	cfg := &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if opts.BaseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: opts.BaseURL}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	return &Generator{
		client: client,
		model:  opts.Model,
	}, nil
}

// Generate sends prompt as a single user turn and returns the text answer
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("calling %s: %w", g.model, err)
	}

	text := resp.Text()
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// Model returns the model name requests are sent to
func (g *Generator) Model() string {
	return g.model
}
