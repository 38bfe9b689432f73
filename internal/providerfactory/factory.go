// internal/providerfactory/factory.go
package providerfactory

import (
	"fmt"
	"os"
	"strings"

	"github.com/mwiater/reviewrag/internal/appconfig"
	"github.com/mwiater/reviewrag/internal/embedding"
	"github.com/mwiater/reviewrag/internal/logging"
	"github.com/mwiater/reviewrag/internal/metrics"
	"github.com/mwiater/reviewrag/internal/providers"
	"github.com/mwiater/reviewrag/internal/providers/llamacpp"
	"github.com/mwiater/reviewrag/internal/providers/ollama"
	"github.com/mwiater/reviewrag/internal/providers/openai"
	"github.com/mwiater/reviewrag/internal/vectorstore"
)

// lookupEnv is swapped in tests.
var lookupEnv = os.Getenv

func apiKey(envName string) (string, error) {
	if envName == "" {
		return "", nil
	}
	key := strings.TrimSpace(lookupEnv(envName))
	if key == "" {
		return "", fmt.Errorf("environment variable %s is not set", envName)
	}
	return key, nil
}

// NewEmbedder returns the embedding backend named by cfg.Embedding.Provider.
func NewEmbedder(cfg *appconfig.Config) (embedding.Embedder, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config provided to provider factory")
	}
	ep := cfg.Embedding
	switch ep.Provider {
	case "", "ollama":
		return embedding.NewOllama(ep.URL, ep.Model, cfg.RequestTimeout()), nil
	case "openai":
		key, err := apiKey(ep.APIKeyEnv)
		if err != nil {
			return nil, err
		}
		return embedding.NewOpenAI(key, ep.URL, ep.Model)
	default:
		return nil, fmt.Errorf("unsupported embedding provider %q", ep.Provider)
	}
}

// NewGenerator selects the generation provider and wraps it with metrics
// collection when enabled.
func NewGenerator(cfg *appconfig.Config) (providers.Generator, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config provided to provider factory")
	}

	var generator providers.Generator
	ep := cfg.Generation
	switch ep.Provider {
	case "", "ollama":
		generator = ollama.New(ep, cfg.RequestTimeout())
	case "llamacpp":
		generator = llamacpp.New(ep, cfg.RequestTimeout())
	case "openai":
		key, err := apiKey(ep.APIKeyEnv)
		if err != nil {
			return nil, err
		}
		p, err := openai.New(ep, key)
		if err != nil {
			return nil, err
		}
		generator = p
	default:
		return nil, fmt.Errorf("unsupported generation provider %q", ep.Provider)
	}
	logging.LogEvent("Generation provider ready: %s", generator.Name())

	if cfg.Metrics {
		generator = metrics.NewProvider(generator, metrics.NewAggregator(cfg.MetricsFilePath()))
	}
	return generator, nil
}

// NewStore opens the configured vector store without touching its location.
func NewStore(cfg *appconfig.Config) (vectorstore.Store, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config provided to provider factory")
	}
	vs := cfg.VectorStore
	switch vs.Type {
	case "", "jsonl":
		return vectorstore.NewJSONL(vs.Path, vs.Collection), nil
	case "sqlite":
		return vectorstore.NewSQLite(vs.Path, vs.Collection), nil
	case "memory":
		return vectorstore.NewMemory(), nil
	case "qdrant":
		key, err := apiKey(vs.APIKeyEnv)
		if err != nil {
			return nil, err
		}
		return vectorstore.NewQdrant(vectorstore.QdrantConfig{
			URL:        vs.URL,
			APIKey:     key,
			Collection: vs.Collection,
			Timeout:    cfg.RequestTimeout(),
		}), nil
	default:
		return nil, fmt.Errorf("unsupported vector store %q", vs.Type)
	}
}

// ManifestDir is where the index manifest lives for file-backed stores, or "" when
// the store has no local directory.
func ManifestDir(cfg *appconfig.Config) string {
	switch cfg.VectorStore.Type {
	case "", "jsonl", "sqlite":
		return cfg.VectorStore.Path
	default:
		return ""
	}
}
