package generator

import (
	"context"
	"errors"
)

/* Generator turns a prompt into text
 * Kept to one method so backends can be swapped and mocked freely
 */
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// UseCase is what the HTTP layer needs from the bridge
type UseCase interface {
	Generate(ctx context.Context, ids []string) (string, error)
}

// ErrGeneration marks every failure of the external generation call
var ErrGeneration = errors.New("generation failed")

// GenerationError wraps the backend failure, timeouts included
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	if e.Err == nil {
		return ErrGeneration.Error()
	}
	return ErrGeneration.Error() + ": " + e.Err.Error()
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

func (e *GenerationError) Is(target error) bool {
	return target == ErrGeneration
}

// Static always answers with the same text.
// It lets the service run locally without provider credentials.
type Static struct {
	Text string
}

func (s Static) Generate(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return s.Text, nil
}
