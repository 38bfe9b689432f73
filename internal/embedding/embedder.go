// Package embedding turns text into vectors using an external model provider.
package embedding

import (
	"context"
	"fmt"
)

// Embedder produces one vector per text.
type Embedder interface {
	Name() string
	Embed(ctx context.Context, text string) ([]float64, error)
}

// EmbedAll embeds texts in order. progress, when set, is called after each text.
func EmbedAll(ctx context.Context, e Embedder, texts []string, progress func(done, total int)) ([][]float64, error) {
	vectors := make([][]float64, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		vector, err := e.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embed unit %d: %w", i, err)
		}
		vectors[i] = vector
		if progress != nil {
			progress(i+1, len(texts))
		}
	}
	return vectors, nil
}
