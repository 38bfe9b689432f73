// internal/providers/llamacpp/provider.go
// Package llamacpp provides a Generator backed by llama.cpp's OpenAI-compatible HTTP API.
package llamacpp

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

// Provider implements providers.Generator against a llama-server instance.
type Provider struct {
	host    string
	model   string
	params  appconfig.Parameters
	client  *http.Client
	timeout time.Duration
}

// New constructs a Provider configured with the application's request timeout.
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

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
	Timings struct {
		PromptMs    float64 `json:"prompt_ms"`
		PredictedMs float64 `json:"predicted_ms"`
	} `json:"timings"`
}

func (p *Provider) Name() string { return "llamacpp:" + p.model }

// Generate sends the prompt as one user message with streaming disabled.
func (p *Provider) Generate(ctx context.Context, prompt string) (providers.Completion, error) {
	payload := map[string]any{
		"model":    p.model,
		"messages": []map[string]string{{"role": "user", "content": prompt}},
		"stream":   false,
	}
	applyParameters(payload, p.params)

	body, err := json.Marshal(payload)
	if err != nil {
		return providers.Completion{}, err
	}
	logging.LogRequest("RAG->LLM", p.host, p.model, "chat", body)

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.host+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return providers.Completion{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return providers.Completion{}, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return providers.Completion{}, err
	}
	logging.LogRequest("LLM->RAG", p.host, p.model, "chat", raw)

	if resp.StatusCode != http.StatusOK {
		return providers.Completion{}, fmt.Errorf("llama.cpp: /v1/chat/completions returned %s: %s", resp.Status, strings.TrimSpace(string(raw)))
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return providers.Completion{}, fmt.Errorf("llama.cpp: parse chat response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return providers.Completion{}, fmt.Errorf("llama.cpp: chat response contained no choices")
	}

	modelName := parsed.Model
	if modelName == "" {
		modelName = p.model
	}
	promptNs := int64(parsed.Timings.PromptMs * float64(time.Millisecond))
	predictedNs := int64(parsed.Timings.PredictedMs * float64(time.Millisecond))
	return providers.Completion{
		Text: parsed.Choices[0].Message.Content,
		Meta: providers.Metadata{
			Model:              modelName,
			Done:               true,
			TotalDuration:      promptNs + predictedNs,
			PromptEvalCount:    parsed.Usage.PromptTokens,
			PromptEvalDuration: promptNs,
			EvalCount:          parsed.Usage.CompletionTokens,
			EvalDuration:       predictedNs,
		},
	}, nil
}

func applyParameters(payload map[string]any, params appconfig.Parameters) {
	if params.TopK != nil {
		payload["top_k"] = *params.TopK
	}
	if params.TopP != nil {
		payload["top_p"] = *params.TopP
	}
	if params.Temperature != nil {
		payload["temperature"] = *params.Temperature
	}
	if params.RepeatPenalty != nil {
		payload["repeat_penalty"] = *params.RepeatPenalty
	}
}

// Close releases any resources held by the provider.
func (p *Provider) Close() error {
	p.client.CloseIdleConnections()
	return nil
}
