package reviewrag

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mwiater/reviewrag/internal/appconfig"
	"github.com/mwiater/reviewrag/internal/chat"
	"github.com/mwiater/reviewrag/internal/embedding"
	"github.com/mwiater/reviewrag/internal/providers"
	"github.com/mwiater/reviewrag/internal/vectorstore"
)

const testReviews = `Title,Date,Rating,Review
Great crust,2024-01-02,5,Thin and crispy crust.
Slow service,2024-02-10,2,Waited forty minutes for service.
Decent value,2024-03-15,3.5,Large portions for the price.
`

type keywordEmbedder struct{ calls int }

func (e *keywordEmbedder) Name() string { return "test:embed" }

func (e *keywordEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	e.calls++
	lower := strings.ToLower(text)
	return []float64{
		float64(strings.Count(lower, "crust")) + 0.01,
		float64(strings.Count(lower, "service")) + 0.01,
		float64(strings.Count(lower, "price")) + 0.01,
	}, nil
}

type cannedGenerator struct {
	prompts []string
	closed  bool
}

func (g *cannedGenerator) Name() string { return "test:gen" }

func (g *cannedGenerator) Generate(ctx context.Context, prompt string) (providers.Completion, error) {
	g.prompts = append(g.prompts, prompt)
	return providers.Completion{Text: "The crust is thin and crispy."}, nil
}

func (g *cannedGenerator) Close() error {
	g.closed = true
	return nil
}

type pipelineFakes struct {
	store     *vectorstore.Memory
	embedder  *keywordEmbedder
	generator *cannedGenerator
	dataset   string
}

// usePipelineFakes swaps the constructors for in-memory collaborators.
func usePipelineFakes(t *testing.T) *pipelineFakes {
	t.Helper()
	dataset := filepath.Join(t.TempDir(), "reviews.csv")
	if err := os.WriteFile(dataset, []byte(testReviews), 0o644); err != nil {
		t.Fatalf("write dataset: %v", err)
	}
	f := &pipelineFakes{
		store:     vectorstore.NewMemory(),
		embedder:  &keywordEmbedder{},
		generator: &cannedGenerator{},
		dataset:   dataset,
	}

	origStore, origEmbedder, origGenerator := newStore, newEmbedder, newGenerator
	origREPL, origTUI := runREPL, runTUI
	// Keeps the manifest out of the working directory; the store itself is swapped below.
	_ = rootCmd.PersistentFlags().Set("store", "memory")
	newStore = func(*appconfig.Config) (vectorstore.Store, error) { return f.store, nil }
	newEmbedder = func(*appconfig.Config) (embedding.Embedder, error) { return f.embedder, nil }
	newGenerator = func(*appconfig.Config) (providers.Generator, error) { return f.generator, nil }
	t.Cleanup(func() {
		newStore, newEmbedder, newGenerator = origStore, origEmbedder, origGenerator
		runREPL, runTUI = origREPL, origTUI
		indexForce = false
		previewShowPrompt = false
	})
	return f
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	_, err := rootCmd.ExecuteC()
	return out.String(), err
}

func TestAskAnswersQuestionsUntilQuit(t *testing.T) {
	useConfig(t, "")
	f := usePipelineFakes(t)

	out, err := execute(t, "How is the crust?\nq\n", "ask", "--dataset", f.dataset)
	if err != nil {
		t.Fatalf("ask returned error: %v", err)
	}
	if !strings.Contains(out, chat.Banner) || !strings.Contains(out, chat.Prompt) {
		t.Fatalf("expected banner and prompt, got %q", out)
	}
	if !strings.Contains(out, "The crust is thin and crispy.") {
		t.Fatalf("expected answer in output, got %q", out)
	}
	if len(f.generator.prompts) != 1 {
		t.Fatalf("expected one generation call, got %d", len(f.generator.prompts))
	}
	if !strings.Contains(f.generator.prompts[0], "[review id=0 rating=5 date=2024-01-02] Great crust Thin and crispy crust.") {
		t.Fatalf("expected best review in prompt, got %q", f.generator.prompts[0])
	}
	if !f.generator.closed {
		t.Fatal("expected generator to be closed")
	}
	// three reviews embedded plus one question
	if f.embedder.calls != 4 {
		t.Fatalf("expected 4 embed calls, got %d", f.embedder.calls)
	}
}

func TestRootRunsAskAndSkipsExistingIndex(t *testing.T) {
	useConfig(t, "")
	f := usePipelineFakes(t)

	if _, err := execute(t, "q\n", "--dataset", f.dataset); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if f.embedder.calls != 3 {
		t.Fatalf("expected ingestion to embed 3 reviews, got %d", f.embedder.calls)
	}

	if _, err := execute(t, "q\n", "--dataset", filepath.Join(t.TempDir(), "missing.csv")); err != nil {
		t.Fatalf("second run should reuse the index: %v", err)
	}
	if f.embedder.calls != 3 {
		t.Fatalf("expected no further embedding, got %d calls", f.embedder.calls)
	}
	if len(f.generator.prompts) != 0 {
		t.Fatal("quit as first input must not call the generator")
	}
}

func TestAskFailsOnMissingDataset(t *testing.T) {
	useConfig(t, "")
	usePipelineFakes(t)

	_, err := execute(t, "", "ask", "--dataset", filepath.Join(t.TempDir(), "missing.csv"))
	if err == nil {
		t.Fatal("expected an error for a missing dataset")
	}
}

func TestAskTUIFlag(t *testing.T) {
	useConfig(t, "")
	f := usePipelineFakes(t)

	var title string
	runTUI = func(ctx context.Context, s *chat.Session, name string) error {
		title = name
		return nil
	}
	runREPL = func(ctx context.Context, s *chat.Session, in io.Reader, out io.Writer) error {
		return errors.New("repl should not run with --tui")
	}

	if _, err := execute(t, "", "--tui", "--dataset", f.dataset); err != nil {
		t.Fatalf("ask --tui returned error: %v", err)
	}
	if !strings.Contains(title, "test:gen") || !strings.Contains(title, "3 reviews") {
		t.Fatalf("unexpected TUI title %q", title)
	}
}

func TestIndexCommand(t *testing.T) {
	useConfig(t, "")
	f := usePipelineFakes(t)

	out, err := execute(t, "", "index", "--dataset", f.dataset)
	if err != nil {
		t.Fatalf("index returned error: %v", err)
	}
	if !strings.Contains(out, "Indexed 3 reviews") {
		t.Fatalf("unexpected output %q", out)
	}

	out, err = execute(t, "", "index", "--dataset", f.dataset)
	if err != nil {
		t.Fatalf("second index returned error: %v", err)
	}
	if !strings.Contains(out, "already exists") || f.embedder.calls != 3 {
		t.Fatalf("expected existing index to be kept, got %q (%d embeds)", out, f.embedder.calls)
	}

	out, err = execute(t, "", "index", "--force", "--dataset", f.dataset)
	if err != nil {
		t.Fatalf("forced index returned error: %v", err)
	}
	if !strings.Contains(out, "Indexed 3 reviews") || f.embedder.calls != 6 {
		t.Fatalf("expected rebuild, got %q (%d embeds)", out, f.embedder.calls)
	}
}

func TestPreviewCommand(t *testing.T) {
	useConfig(t, "")
	f := usePipelineFakes(t)

	out, err := execute(t, "", "preview", "--prompt", "--dataset", f.dataset, "how", "is", "the", "crust")
	if err != nil {
		t.Fatalf("preview returned error: %v", err)
	}
	for _, want := range []string{"[PREVIEW] question: how is the crust", "[PREVIEW] matches: 3", "1. score=", "id=0", "--- prompt ---", "Here is the question to answer: how is the crust"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
	if len(f.generator.prompts) != 0 {
		t.Fatal("preview must not call the generator")
	}
}

func TestShowMetricsWithoutData(t *testing.T) {
	metricsPath := filepath.ToSlash(filepath.Join(t.TempDir(), "metrics.json"))
	useConfig(t, `"metricsFile": "`+metricsPath+`"`)

	out, err := execute(t, "", "show", "metrics")
	if err != nil {
		t.Fatalf("show metrics returned error: %v", err)
	}
	if !strings.Contains(out, "No generation metrics recorded yet.") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestModelsCommands(t *testing.T) {
	var pulled []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/tags":
			_, _ = w.Write([]byte(`{"models":[{"name":"mxbai-embed-large:latest"}]}`))
		case "/api/pull":
			var body struct {
				Name string `json:"name"`
			}
			_ = json.NewDecoder(r.Body).Decode(&body)
			pulled = append(pulled, body.Name)
			_, _ = w.Write([]byte(`{"status":"success"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()
	useConfig(t, `"embedding": {"url": "`+server.URL+`"}, "generation": {"url": "`+server.URL+`"}`)

	out, err := execute(t, "", "models", "list")
	if err != nil {
		t.Fatalf("models list returned error: %v", err)
	}
	if !strings.Contains(out, "installed") || !strings.Contains(out, "missing") {
		t.Fatalf("unexpected output %q", out)
	}

	out, err = execute(t, "", "models", "pull")
	if err != nil {
		t.Fatalf("models pull returned error: %v", err)
	}
	if len(pulled) != 1 || pulled[0] != appconfig.DefaultGenerationModel {
		t.Fatalf("expected only the generation model to be pulled, got %v", pulled)
	}
	if !strings.Contains(out, "Pulled "+appconfig.DefaultGenerationModel) {
		t.Fatalf("unexpected output %q", out)
	}
}
