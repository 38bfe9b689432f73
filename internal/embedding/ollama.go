package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type ollamaEmbeddingResponse struct {
	Embedding []float64 `json:"embedding"`
}

// Ollama requests embeddings from an Ollama host's /api/embeddings endpoint.
type Ollama struct {
	host    string
	model   string
	client  *http.Client
	timeout time.Duration
}

// NewOllama returns an embedder for model on the Ollama host. timeout bounds each request.
func NewOllama(host, model string, timeout time.Duration) *Ollama {
	return &Ollama{
		host:    strings.TrimRight(host, "/"),
		model:   model,
		client:  &http.Client{Timeout: timeout},
		timeout: timeout,
	}
}

func (o *Ollama) Name() string { return "ollama:" + o.model }

// Embed requests an embedding vector for text.
func (o *Ollama) Embed(ctx context.Context, text string) ([]float64, error) {
	if strings.TrimSpace(o.model) == "" {
		return nil, fmt.Errorf("embedding model is empty")
	}
	payload := map[string]any{
		"model":  o.model,
		"prompt": text,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal embedding request: %w", err)
	}

	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.host+"/api/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create embedding request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("embedding request failed: %s: %s", resp.Status, strings.TrimSpace(string(raw)))
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read embedding response: %w", err)
	}

	var parsed ollamaEmbeddingResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("parse embedding response: %w", err)
	}
	if len(parsed.Embedding) == 0 {
		return nil, fmt.Errorf("embedding response returned empty vector")
	}

	return parsed.Embedding, nil
}
