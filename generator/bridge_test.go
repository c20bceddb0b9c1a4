package generator_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/marcelsud/webhook-inspector/generator"
	genmocks "github.com/marcelsud/webhook-inspector/generator/mocks"
	"github.com/marcelsud/webhook-inspector/webhook"
	"github.com/marcelsud/webhook-inspector/webhook/mocks"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	idA = "0190b1a8-0000-7000-8000-00000000000a"
	idB = "0190b1a8-0000-7000-8000-00000000000b"
	idC = "0190b1a8-0000-7000-8000-00000000000c"
)

func stored(id string, body *string) webhook.Webhook {
	return webhook.Webhook{ID: id, Method: "POST", Pathname: "/stripe/events", Body: body}
}

func text(s string) *string { return &s }

func TestBridge_Generate(t *testing.T) {
	ctx := context.Background()

	t.Run("success - bodies joined in request order", func(t *testing.T) {
		repo := mocks.NewRepository(t)
		gen := genmocks.NewGenerator(t)
		bridge := generator.NewBridge(repo, gen, time.Second, zerolog.Nop())

		// the store answers in its own order
		repo.On("GetByIDs", ctx, []string{idB, idA, idC}).Return([]webhook.Webhook{
			stored(idA, text(`{"type":"invoice.paid"}`)),
			stored(idC, nil),
			stored(idB, text(`{"type":"charge.refunded"}`)),
		}, nil)

		want := generator.BuildPrompt([]string{`{"type":"charge.refunded"}`, `{"type":"invoice.paid"}`})
		gen.On("Generate", mock.Anything, want).Return("export type WebhookEvent = never", nil)

		code, err := bridge.Generate(ctx, []string{idB, idA, idC})

		require.NoError(t, err)
		assert.Equal(t, "export type WebhookEvent = never", code)
		assert.Contains(t, want, "{\"type\":\"charge.refunded\"}\n\n{\"type\":\"invoice.paid\"}")
	})

	t.Run("empty ids still call the generator with no examples", func(t *testing.T) {
		repo := mocks.NewRepository(t)
		gen := genmocks.NewGenerator(t)
		bridge := generator.NewBridge(repo, gen, time.Second, zerolog.Nop())

		repo.On("GetByIDs", ctx, []string{}).Return([]webhook.Webhook{}, nil)
		gen.On("Generate", mock.Anything, generator.BuildPrompt(nil)).Return("// nothing to handle", nil)

		code, err := bridge.Generate(ctx, []string{})

		require.NoError(t, err)
		assert.Equal(t, "// nothing to handle", code)
	})

	t.Run("unknown ids are skipped", func(t *testing.T) {
		repo := mocks.NewRepository(t)
		gen := genmocks.NewGenerator(t)
		bridge := generator.NewBridge(repo, gen, time.Second, zerolog.Nop())

		repo.On("GetByIDs", ctx, []string{idA, idB}).Return([]webhook.Webhook{
			stored(idB, text("plain")),
		}, nil)
		gen.On("Generate", mock.Anything, generator.BuildPrompt([]string{"plain"})).Return("code", nil)

		_, err := bridge.Generate(ctx, []string{idA, idB})

		require.NoError(t, err)
	})

	t.Run("ids are normalised before lookup", func(t *testing.T) {
		repo := mocks.NewRepository(t)
		gen := genmocks.NewGenerator(t)
		bridge := generator.NewBridge(repo, gen, time.Second, zerolog.Nop())

		repo.On("GetByIDs", ctx, []string{idA}).Return([]webhook.Webhook{stored(idA, text("x"))}, nil)
		gen.On("Generate", mock.Anything, generator.BuildPrompt([]string{"x"})).Return("code", nil)

		_, err := bridge.Generate(ctx, []string{strings.ToUpper(idA)})

		require.NoError(t, err)
	})

	t.Run("error - generator failure surfaces as GenerationError and writes nothing", func(t *testing.T) {
		repo := mocks.NewRepository(t)
		gen := genmocks.NewGenerator(t)
		bridge := generator.NewBridge(repo, gen, time.Second, zerolog.Nop())

		repo.On("GetByIDs", ctx, []string{idA}).Return([]webhook.Webhook{stored(idA, text("{}"))}, nil)
		cause := errors.New("quota exceeded")
		gen.On("Generate", mock.Anything, mock.AnythingOfType("string")).Return("", cause)

		_, err := bridge.Generate(ctx, []string{idA})

		require.Error(t, err)
		assert.ErrorIs(t, err, generator.ErrGeneration)
		assert.ErrorIs(t, err, cause)
		var genErr *generator.GenerationError
		assert.True(t, errors.As(err, &genErr))
		repo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
		repo.AssertNotCalled(t, "Clear", mock.Anything)
	})

	t.Run("error - slow generator times out", func(t *testing.T) {
		repo := mocks.NewRepository(t)
		gen := genmocks.NewGenerator(t)
		bridge := generator.NewBridge(repo, gen, 20*time.Millisecond, zerolog.Nop())

		repo.On("GetByIDs", ctx, []string{idA}).Return([]webhook.Webhook{stored(idA, text("{}"))}, nil)
		gen.On("Generate", mock.Anything, mock.AnythingOfType("string")).Return(
			func(ctx context.Context, _ string) (string, error) {
				<-ctx.Done()
				return "", ctx.Err()
			},
		)

		_, err := bridge.Generate(ctx, []string{idA})

		assert.ErrorIs(t, err, generator.ErrGeneration)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("error - malformed id is rejected before lookup", func(t *testing.T) {
		repo := mocks.NewRepository(t)
		gen := genmocks.NewGenerator(t)
		bridge := generator.NewBridge(repo, gen, time.Second, zerolog.Nop())

		_, err := bridge.Generate(ctx, []string{idA, "evt_123"})

		assert.ErrorIs(t, err, webhook.ErrValidation)
		repo.AssertNotCalled(t, "GetByIDs", mock.Anything, mock.Anything)
	})

	t.Run("error - storage failure is not a generation error", func(t *testing.T) {
		repo := mocks.NewRepository(t)
		gen := genmocks.NewGenerator(t)
		bridge := generator.NewBridge(repo, gen, time.Second, zerolog.Nop())

		repo.On("GetByIDs", ctx, []string{idA}).Return(nil, webhook.NewStorageError("selecting webhooks", errors.New("connection refused")))

		_, err := bridge.Generate(ctx, []string{idA})

		assert.ErrorIs(t, err, webhook.ErrStorage)
		assert.NotErrorIs(t, err, generator.ErrGeneration)
	})
}

func TestBuildPrompt(t *testing.T) {
	t.Run("examples are embedded between the instructions", func(t *testing.T) {
		prompt := generator.BuildPrompt([]string{`{"a":1}`, `{"b":2}`})

		assert.Contains(t, prompt, "handleWebhookEvent")
		assert.Contains(t, prompt, "Here are the webhook examples payloads:\n\n{\"a\":1}\n\n{\"b\":2}\n\nReturn only the code")
	})

	t.Run("no examples leaves the section empty", func(t *testing.T) {
		prompt := generator.BuildPrompt(nil)

		assert.Contains(t, prompt, "Here are the webhook examples payloads:\n\n\n\nReturn only the code")
	})
}

func TestStatic(t *testing.T) {
	code, err := generator.Static{Text: "// offline"}.Generate(context.Background(), "anything")
	require.NoError(t, err)
	assert.Equal(t, "// offline", code)

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = generator.Static{Text: "// offline"}.Generate(cancelled, "anything")
	assert.ErrorIs(t, err, context.Canceled)
}
