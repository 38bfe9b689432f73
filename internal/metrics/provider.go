// internal/metrics/provider.go
package metrics

import (
	"context"
	"time"

	"github.com/mwiater/reviewrag/internal/logging"
	"github.com/mwiater/reviewrag/internal/providers"
)

// Provider is a decorator that wraps a Generator to record metrics.
type Provider struct {
	wrapped    providers.Generator
	aggregator *Aggregator
	now        func() time.Time
}

// NewProvider creates a new metrics-enabled provider that wraps an existing Generator.
func NewProvider(wrapped providers.Generator, aggregator *Aggregator) *Provider {
	logging.LogEvent("[METRICS] Wrapping provider %s with metrics provider", wrapped.Name())
	return &Provider{wrapped: wrapped, aggregator: aggregator, now: time.Now}
}

func (p *Provider) Name() string { return p.wrapped.Name() }

// Generate times the wrapped call and records its outcome under the provider name.
func (p *Provider) Generate(ctx context.Context, prompt string) (providers.Completion, error) {
	start := p.now()
	completion, err := p.wrapped.Generate(ctx, prompt)
	if p.aggregator != nil {
		p.aggregator.Record(p.wrapped.Name(), completion.Meta, p.now().Sub(start), err != nil)
	}
	return completion, err
}

// Close saves the aggregated metrics, then closes the wrapped provider.
func (p *Provider) Close() error {
	var saveErr error
	if p.aggregator != nil {
		saveErr = p.aggregator.Save()
	}
	if err := p.wrapped.Close(); err != nil {
		return err
	}
	return saveErr
}
