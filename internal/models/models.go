// internal/models/models.go
// Package models checks that the configured Ollama models are present and pulls missing ones.
package models

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
)

// OllamaHost talks to the model management endpoints of one Ollama server.
type OllamaHost struct {
	URL     string
	client  *http.Client
	timeout time.Duration
}

// NewOllamaHost returns a host client; timeout bounds each request.
func NewOllamaHost(url string, timeout time.Duration) *OllamaHost {
	return &OllamaHost{
		URL:     strings.TrimRight(url, "/"),
		client:  &http.Client{},
		timeout: timeout,
	}
}

// doRequest executes an HTTP request against the Ollama API with context cancellation support.
func (h *OllamaHost) doRequest(ctx context.Context, method, path string, body io.Reader) ([]byte, error) {
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, method, h.URL+path, body)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama is not accessible on %s: %w", h.URL, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response from %s: %w", h.URL, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s %s returned %s: %s", method, path, resp.Status, strings.TrimSpace(string(data)))
	}
	return data, nil
}

// ListModels returns the names of the models installed on the host.
func (h *OllamaHost) ListModels(ctx context.Context) ([]string, error) {
	data, err := h.doRequest(ctx, http.MethodGet, "/api/tags", nil)
	if err != nil {
		return nil, fmt.Errorf("could not list models: %w", err)
	}
	var tagsResp struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.Unmarshal(data, &tagsResp); err != nil {
		return nil, fmt.Errorf("error parsing models from %s: %w", h.URL, err)
	}
	names := make([]string, 0, len(tagsResp.Models))
	for _, m := range tagsResp.Models {
		names = append(names, m.Name)
	}
	return names, nil
}

// PullModel downloads model to the host and waits for the pull to finish.
func (h *OllamaHost) PullModel(ctx context.Context, model string) error {
	body, err := json.Marshal(map[string]any{"name": model, "stream": false})
	if err != nil {
		return err
	}
	logging.LogRequest("RAG->LLM", h.URL, model, "pull", body)
	data, err := h.doRequest(ctx, http.MethodPost, "/api/pull", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("pull %s: %w", model, err)
	}
	logging.LogRequest("LLM->RAG", h.URL, model, "pull", data)
	return nil
}

// Requirement is one model the configuration depends on.
type Requirement struct {
	Role  string
	Host  string
	Model string
}

// Status is a Requirement plus whether the host has the model.
type Status struct {
	Requirement
	Present bool
	Err     error
}

// Required lists the models served by Ollama endpoints in cfg. Other providers
// manage their own models and are skipped.
func Required(cfg *appconfig.Config) []Requirement {
	var reqs []Requirement
	for _, e := range []struct {
		role     string
		endpoint appconfig.Endpoint
	}{{"embedding", cfg.Embedding}, {"generation", cfg.Generation}} {
		if e.endpoint.Provider != "" && e.endpoint.Provider != "ollama" {
			continue
		}
		reqs = append(reqs, Requirement{Role: e.role, Host: e.endpoint.URL, Model: e.endpoint.Model})
	}
	return reqs
}

// Check asks each host which models it has and reports every requirement.
// A host that cannot be reached marks its requirements with the error.
func Check(ctx context.Context, reqs []Requirement, timeout time.Duration) []Status {
	installed := map[string][]string{}
	failures := map[string]error{}
	statuses := make([]Status, 0, len(reqs))
	for _, req := range reqs {
		if _, seen := installed[req.Host]; !seen && failures[req.Host] == nil {
			names, err := NewOllamaHost(req.Host, timeout).ListModels(ctx)
			if err != nil {
				failures[req.Host] = err
			} else {
				installed[req.Host] = names
			}
		}
		statuses = append(statuses, Status{
			Requirement: req,
			Present:     hasModel(installed[req.Host], req.Model),
			Err:         failures[req.Host],
		})
	}
	return statuses
}

// hasModel matches names the way Ollama resolves them: a missing tag means ":latest".
func hasModel(installed []string, model string) bool {
	want := normalizeTag(model)
	for _, name := range installed {
		if normalizeTag(name) == want {
			return true
		}
	}
	return false
}

func normalizeTag(name string) string {
	if !strings.Contains(name, ":") {
		return name + ":latest"
	}
	return name
}
