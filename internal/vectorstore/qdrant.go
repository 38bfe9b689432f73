package vectorstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// QdrantConfig configures the Qdrant REST backend.
type QdrantConfig struct {
	URL        string
	APIKey     string
	Collection string
	Timeout    time.Duration
}

// Qdrant is a minimal REST client. Collections use cosine distance and point IDs
// are the numeric unit IDs.
type Qdrant struct {
	url        string
	apiKey     string
	collection string
	client     *http.Client
}

// NewQdrant builds a client for cfg. No request is made until the first call.
func NewQdrant(cfg QdrantConfig) *Qdrant {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Qdrant{
		url:        strings.TrimRight(cfg.URL, "/"),
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		client:     &http.Client{Timeout: timeout},
	}
}

// Name identifies the backend in status output.
func (s *Qdrant) Name() string { return "qdrant" }

func (s *Qdrant) collectionURL() string {
	return fmt.Sprintf("%s/collections/%s", s.url, s.collection)
}

// Exists reports whether the collection is present on the server.
func (s *Qdrant) Exists(ctx context.Context) (bool, error) {
	resp, err := s.do(ctx, http.MethodGet, s.collectionURL(), nil)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, statusError(http.MethodGet, s.collectionURL(), resp)
	}
}

// Add creates the collection sized to the batch and upserts every unit as a point.
func (s *Qdrant) Add(ctx context.Context, units []Unit, vectors [][]float64) error {
	if err := checkBatch(units, vectors); err != nil {
		return err
	}
	if len(units) == 0 {
		return nil
	}

	create := map[string]any{
		"vectors": map[string]any{
			"size":     len(vectors[0]),
			"distance": "Cosine",
		},
	}
	if err := s.sendJSON(ctx, http.MethodPut, s.collectionURL(), create, nil); err != nil {
		return err
	}

	points := make([]map[string]any, len(units))
	for i, unit := range units {
		id, err := strconv.ParseUint(unit.ID, 10, 64)
		if err != nil {
			return fmt.Errorf("qdrant point id %q is not numeric", unit.ID)
		}
		points[i] = map[string]any{
			"id":     id,
			"vector": vectors[i],
			"payload": map[string]any{
				"unit_id": unit.ID,
				"text":    unit.Text,
				"rating":  unit.Metadata.Rating,
				"date":    unit.Metadata.Date,
			},
		}
	}
	body := map[string]any{"points": points}
	return s.sendJSON(ctx, http.MethodPut, s.collectionURL()+"/points?wait=true", body, nil)
}

// Query runs a server-side search and maps payloads back to units.
func (s *Qdrant) Query(ctx context.Context, vector []float64, k int) ([]Match, error) {
	if k <= 0 {
		return nil, nil
	}
	req := map[string]any{
		"vector":       vector,
		"limit":        k,
		"with_payload": true,
	}
	var resp struct {
		Result []struct {
			Score   float64 `json:"score"`
			Payload struct {
				UnitID string  `json:"unit_id"`
				Text   string  `json:"text"`
				Rating float64 `json:"rating"`
				Date   string  `json:"date"`
			} `json:"payload"`
		} `json:"result"`
	}
	if err := s.sendJSON(ctx, http.MethodPost, s.collectionURL()+"/points/search", req, &resp); err != nil {
		return nil, err
	}

	matches := make([]Match, 0, len(resp.Result))
	for _, r := range resp.Result {
		matches = append(matches, Match{
			Unit: Unit{
				ID:       r.Payload.UnitID,
				Text:     r.Payload.Text,
				Metadata: Metadata{Rating: r.Payload.Rating, Date: r.Payload.Date},
			},
			Score: r.Score,
		})
	}
	if len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

func (s *Qdrant) Drop(ctx context.Context) error {
	resp, err := s.do(ctx, http.MethodDelete, s.collectionURL(), nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 && resp.StatusCode != http.StatusNotFound {
		return statusError(http.MethodDelete, s.collectionURL(), resp)
	}
	return nil
}

func (s *Qdrant) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

func (s *Qdrant) sendJSON(ctx context.Context, method, url string, body any, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal qdrant request: %w", err)
	}
	resp, err := s.do(ctx, method, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return statusError(method, url, resp)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode qdrant response: %w", err)
		}
	}
	return nil
}

func (s *Qdrant) do(ctx context.Context, method, url string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("create qdrant request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("qdrant %s %s: %w", method, url, err)
	}
	return resp, nil
}

func statusError(method, url string, resp *http.Response) error {
	raw, _ := io.ReadAll(resp.Body)
	return fmt.Errorf("qdrant %s %s failed: %s: %s", method, url, resp.Status, strings.TrimSpace(string(raw)))
}
