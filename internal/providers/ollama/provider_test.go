// internal/providers/ollama/provider_test.go
package ollama

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mwiater/reviewrag/internal/appconfig"
)

// TestProviderGenerate verifies that the provider sends a single non-streaming
// request and returns the response text untouched.
func TestProviderGenerate(t *testing.T) {
	t.Parallel()

	var capturedBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Fatalf("read body: %v", err)
		}
		capturedBody = body
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"model":"llama3.2","response":"  The crust is great.\n","done":true,"prompt_eval_count":42,"eval_count":7,"eval_duration":1000000000}`))
	}))
	defer server.Close()

	temp := 0.2
	provider := New(appconfig.Endpoint{
		URL:        server.URL,
		Model:      "llama3.2",
		Parameters: appconfig.Parameters{Temperature: &temp},
	}, 5*time.Second)

	completion, err := provider.Generate(context.Background(), "what about the crust?")
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if completion.Text != "  The crust is great.\n" {
		t.Fatalf("response should be returned verbatim, got %q", completion.Text)
	}
	if completion.Meta.Model != "llama3.2" || !completion.Meta.Done {
		t.Fatalf("unexpected metadata: %+v", completion.Meta)
	}
	if completion.Meta.PromptEvalCount != 42 || completion.Meta.EvalCount != 7 {
		t.Fatalf("unexpected token counts: %+v", completion.Meta)
	}

	var payload map[string]any
	if err := json.Unmarshal(capturedBody, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if stream, ok := payload["stream"].(bool); !ok || stream {
		t.Fatalf("expected stream=false, got %v", payload["stream"])
	}
	if payload["prompt"] != "what about the crust?" {
		t.Fatalf("unexpected prompt: %v", payload["prompt"])
	}
	options, ok := payload["options"].(map[string]any)
	if !ok || options["temperature"] != 0.2 {
		t.Fatalf("expected temperature option, got %v", payload["options"])
	}
	if _, ok := options["top_k"]; ok {
		t.Fatalf("unset parameters should be omitted, got %v", options)
	}
}

func TestProviderGenerateErrorStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"model 'llama3.2' not found"}`))
	}))
	defer server.Close()

	provider := New(appconfig.Endpoint{URL: server.URL, Model: "llama3.2"}, 5*time.Second)
	_, err := provider.Generate(context.Background(), "hi")
	if err == nil {
		t.Fatal("expected error for non-200 response")
	}
	if !strings.Contains(err.Error(), "not found") {
		t.Fatalf("expected body in error, got %v", err)
	}
}

func TestProviderGenerateHonoursContext(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	provider := New(appconfig.Endpoint{URL: server.URL, Model: "llama3.2"}, 5*time.Second)
	if _, err := provider.Generate(ctx, "hi"); err == nil {
		t.Fatal("expected error when the context expires")
	}
}

func TestBuildOptions(t *testing.T) {
	topK := 40
	numCtx := 4096
	penalty := 1.1
	options := buildOptions(appconfig.Parameters{TopK: &topK, NumCtx: &numCtx, RepeatPenalty: &penalty})
	if len(options) != 3 {
		t.Fatalf("expected 3 options, got %v", options)
	}
	if options["top_k"] != 40 || options["num_ctx"] != 4096 || options["repeat_penalty"] != 1.1 {
		t.Fatalf("unexpected options: %v", options)
	}
}
