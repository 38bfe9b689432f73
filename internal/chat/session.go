// Package chat runs the question loop: retrieve reviews, render the prompt,
// ask the model, show the answer.
package chat

import (
	"context"
	"time"

	"github.com/mwiater/reviewrag/internal/apperr"
	"github.com/mwiater/reviewrag/internal/index"
	"github.com/mwiater/reviewrag/internal/logging"
	"github.com/mwiater/reviewrag/internal/prompt"
	"github.com/mwiater/reviewrag/internal/providers"
	"github.com/mwiater/reviewrag/internal/retry"
)

// Retriever is the lookup the session needs from the index.
type Retriever interface {
	Retrieve(ctx context.Context, question string) (index.Retrieval, error)
}

// Options tunes a Session. The zero value gives no timeout, no retries and quit token "q".
type Options struct {
	QuitToken string
	// Timeout bounds each retrieval and each generation call.
	Timeout time.Duration
	Retry   retry.Policy
}

// Session holds the collaborators for one interactive run.
type Session struct {
	retriever Retriever
	generator providers.Generator
	template  *prompt.Template
	opts      Options
}

// Answer is one completed question.
type Answer struct {
	Question  string
	Text      string
	Retrieval index.Retrieval
	Prompt    string
	Elapsed   time.Duration
}

// NewSession wires the collaborators for one question loop. An empty quit token
// becomes "q" and a nil template selects prompt.Default.
func NewSession(retriever Retriever, generator providers.Generator, template *prompt.Template, opts Options) *Session {
	if opts.QuitToken == "" {
		opts.QuitToken = "q"
	}
	if template == nil {
		template = prompt.Default()
	}
	return &Session{retriever: retriever, generator: generator, template: template, opts: opts}
}

// QuitToken returns the literal input that ends the loop.
func (s *Session) QuitToken() string { return s.opts.QuitToken }

// IsQuit reports whether line is exactly the quit token.
func (s *Session) IsQuit(line string) bool { return line == s.opts.QuitToken }

// Ask answers one question. Errors carry apperr.ErrRetrieval or apperr.ErrGeneration.
func (s *Session) Ask(ctx context.Context, question string) (Answer, error) {
	start := time.Now()
	answer := Answer{Question: question}

	err := s.opts.Retry.Do(ctx, "retrieve", func(ctx context.Context) error {
		ctx, cancel := s.withTimeout(ctx)
		defer cancel()
		r, err := s.retriever.Retrieve(ctx, question)
		answer.Retrieval = r
		return err
	})
	if err != nil {
		if apperr.KindOf(err) == nil {
			err = apperr.Retrieval("retrieve", err)
		}
		return answer, err
	}
	logging.LogEvent("[CHAT] Retrieved %d reviews in %s", len(answer.Retrieval.Matches), answer.Retrieval.Elapsed.Truncate(time.Millisecond))

	rendered, err := s.template.Render(answer.Retrieval.Matches, question)
	if err != nil {
		return answer, apperr.Generation("render prompt", err)
	}
	answer.Prompt = rendered

	err = s.opts.Retry.Do(ctx, "generate", func(ctx context.Context) error {
		ctx, cancel := s.withTimeout(ctx)
		defer cancel()
		completion, err := s.generator.Generate(ctx, rendered)
		answer.Text = completion.Text
		return err
	})
	if err != nil {
		return answer, apperr.Generation("generate with "+s.generator.Name(), err)
	}

	answer.Elapsed = time.Since(start)
	return answer, nil
}

func (s *Session) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opts.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.opts.Timeout)
}
