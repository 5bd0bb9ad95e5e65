package generator

import "context"

// Generator produces a grounded answer from a fully rendered prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
