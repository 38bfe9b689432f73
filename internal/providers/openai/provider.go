// Package openai provides a Generator backed by the OpenAI chat completions API.
package openai

import (
	"context"
	"errors"
	"fmt"

	"github.com/mwiater/reviewrag/internal/appconfig"
	"github.com/mwiater/reviewrag/internal/logging"
	"github.com/mwiater/reviewrag/internal/providers"
	goopenai "github.com/sashabaranov/go-openai"
)

// Provider sends the rendered prompt as a single user message.
type Provider struct {
	client *goopenai.Client
	model  string
	params appconfig.Parameters
	host   string
}

// New builds a Provider. endpoint.URL, when set, replaces the default API base URL.
func New(endpoint appconfig.Endpoint, apiKey string) (*Provider, error) {
	if apiKey == "" {
		return nil, errors.New("openai api key is empty")
	}
	cfg := goopenai.DefaultConfig(apiKey)
	if endpoint.URL != "" {
		cfg.BaseURL = endpoint.URL
	}
	return &Provider{
		client: goopenai.NewClientWithConfig(cfg),
		model:  endpoint.Model,
		params: endpoint.Parameters,
		host:   cfg.BaseURL,
	}, nil
}

func (p *Provider) Name() string { return "openai:" + p.model }

// Generate sends prompt as one user message and returns the first choice.
func (p *Provider) Generate(ctx context.Context, prompt string) (providers.Completion, error) {
	req := goopenai.ChatCompletionRequest{
		Model: p.model,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleUser, Content: prompt},
		},
	}
	if p.params.Temperature != nil {
		req.Temperature = float32(*p.params.Temperature)
	}
	if p.params.TopP != nil {
		req.TopP = float32(*p.params.TopP)
	}
	logging.LogRequest("RAG->LLM", p.host, p.model, "chat.completions", prompt)

	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return providers.Completion{}, fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return providers.Completion{}, errors.New("openai chat completion returned no choices")
	}
	text := resp.Choices[0].Message.Content
	logging.LogRequest("LLM->RAG", p.host, p.model, "chat.completions", text)

	model := resp.Model
	if model == "" {
		model = p.model
	}
	return providers.Completion{
		Text: text,
		Meta: providers.Metadata{
			Model:           model,
			Done:            true,
			PromptEvalCount: resp.Usage.PromptTokens,
			EvalCount:       resp.Usage.CompletionTokens,
		},
	}, nil
}

func (p *Provider) Close() error { return nil }
