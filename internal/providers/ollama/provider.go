// internal/providers/ollama/provider.go
// Package ollama provides a Generator backed by an Ollama-compatible HTTP endpoint.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mwiater/reviewrag/internal/appconfig"
	"github.com/mwiater/reviewrag/internal/logging"
	"github.com/mwiater/reviewrag/internal/providers"
)

// Provider implements providers.Generator using the Ollama /api/generate endpoint.
type Provider struct {
	host    string
	model   string
	params  appconfig.Parameters
	client  *http.Client
	timeout time.Duration
}

// New constructs a Provider for the given endpoint with the application's request timeout.
func New(endpoint appconfig.Endpoint, timeout time.Duration) *Provider {
	return &Provider{
		host:   strings.TrimRight(endpoint.URL, "/"),
		model:  endpoint.Model,
		params: endpoint.Parameters,
		client: &http.Client{
			Timeout:   timeout,
			Transport: &http.Transport{ForceAttemptHTTP2: false},
		},
		timeout: timeout,
	}
}

type generateResponse struct {
	Model              string `json:"model"`
	Response           string `json:"response"`
	Done               bool   `json:"done"`
	TotalDuration      int64  `json:"total_duration"`
	LoadDuration       int64  `json:"load_duration"`
	PromptEvalCount    int    `json:"prompt_eval_count"`
	PromptEvalDuration int64  `json:"prompt_eval_duration"`
	EvalCount          int    `json:"eval_count"`
	EvalDuration       int64  `json:"eval_duration"`
}

func (p *Provider) Name() string { return "ollama:" + p.model }

// Generate issues a non-streaming generate request and returns the full response text.
func (p *Provider) Generate(ctx context.Context, prompt string) (providers.Completion, error) {
	payload := map[string]any{
		"model":   p.model,
		"prompt":  prompt,
		"options": buildOptions(p.params),
		"stream":  false,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return providers.Completion{}, err
	}

	if pretty, perr := json.MarshalIndent(payload, "", "  "); perr == nil {
		logging.LogRequest("RAG->LLM", p.host, p.model, "generate", pretty)
	} else {
		logging.LogRequest("RAG->LLM", p.host, p.model, "generate", body)
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.host+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return providers.Completion{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return providers.Completion{}, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return providers.Completion{}, err
	}
	logging.LogRequest("LLM->RAG", p.host, p.model, "generate", respBody)

	if resp.StatusCode != http.StatusOK {
		return providers.Completion{}, fmt.Errorf("ollama: /api/generate returned %s: %s", resp.Status, strings.TrimSpace(string(respBody)))
	}

	var result generateResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return providers.Completion{}, fmt.Errorf("ollama: parse generate response: %w", err)
	}

	modelName := result.Model
	if modelName == "" {
		modelName = p.model
	}
	return providers.Completion{
		Text: result.Response,
		Meta: providers.Metadata{
			Model:              modelName,
			Done:               result.Done,
			TotalDuration:      result.TotalDuration,
			LoadDuration:       result.LoadDuration,
			PromptEvalCount:    result.PromptEvalCount,
			PromptEvalDuration: result.PromptEvalDuration,
			EvalCount:          result.EvalCount,
			EvalDuration:       result.EvalDuration,
		},
	}, nil
}

func buildOptions(params appconfig.Parameters) map[string]any {
	options := map[string]any{}
	if params.TopK != nil {
		options["top_k"] = *params.TopK
	}
	if params.TopP != nil {
		options["top_p"] = *params.TopP
	}
	if params.Temperature != nil {
		options["temperature"] = *params.Temperature
	}
	if params.RepeatPenalty != nil {
		options["repeat_penalty"] = *params.RepeatPenalty
	}
	if params.NumCtx != nil {
		options["num_ctx"] = *params.NumCtx
	}
	return options
}

// Close releases any resources held by the provider.
func (p *Provider) Close() error {
	p.client.CloseIdleConnections()
	return nil
}
