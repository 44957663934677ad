package llm

import (
	"context"
)

// TextGenerator produces a completion for a prompt under a system instruction.
type TextGenerator interface {
	GenerateContent(ctx context.Context, system, prompt string) (string, error)
}

// Closer is implemented by generators holding long lived connections.
type Closer interface {
	Close() error
}
