// internal/providers/provider.go

// Package providers defines the interface for text generation backends.
// A Generator takes a fully rendered prompt and returns the model's answer in one
// blocking call, regardless of the underlying provider implementation (e.g., Ollama, OpenAI).
package providers

import "context"

// Metadata carries timing and token counts reported by the provider.
// Durations are in nanoseconds, as Ollama reports them; zero means unknown.
type Metadata struct {
	Model              string
	Done               bool
	TotalDuration      int64
	LoadDuration       int64
	PromptEvalCount    int
	PromptEvalDuration int64
	EvalCount          int
	EvalDuration       int64
}

// Completion is the answer text plus provider metadata.
type Completion struct {
	Text string
	Meta Metadata
}

// Generator is the interface that all generation providers must implement.
type Generator interface {
	// Name identifies the provider and model, e.g. "ollama:llama3.2".
	Name() string
	// Generate sends prompt to the model and waits for the complete answer.
	Generate(ctx context.Context, prompt string) (Completion, error)
	// Close cleans up any resources used by the provider.
	Close() error
}
