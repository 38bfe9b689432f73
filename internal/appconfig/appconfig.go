// internal/appconfig/appconfig.go
// Package appconfig manages loading and interpreting application configuration.
package appconfig

import (
	"strings"
	"time"
)

const (
	// DefaultConfigPath is the default path to the application's configuration file.
	DefaultConfigPath = "config/config.json"
	// DefaultDataset is the review dataset read on first ingestion.
	DefaultDataset = "realistic_restaurant_reviews.csv"
	// DefaultIndexPath is the persistent index location; its existence gates ingestion.
	DefaultIndexPath = "./reviews_index"
	// DefaultCollection names the stored collection inside the index location.
	DefaultCollection = "restaurant_reviews"
	// DefaultOllamaURL is the local Ollama endpoint.
	DefaultOllamaURL = "http://localhost:11434"
	// DefaultLlamaCppURL is the local llama-server endpoint.
	DefaultLlamaCppURL = "http://localhost:8080"
	// DefaultEmbeddingModel is the embedding model used when none is configured.
	DefaultEmbeddingModel = "mxbai-embed-large"
	// DefaultGenerationModel is the generation model used when none is configured.
	DefaultGenerationModel = "llama3.2"
	// DefaultTopK is the number of reviews retrieved per question.
	DefaultTopK = 5
	// DefaultQuitToken ends the question loop.
	DefaultQuitToken = "q"
	// defaultRequestTimeout is the default timeout for HTTP requests.
	defaultRequestTimeout = 600 * time.Second
	// defaultRetryBackoff is the first backoff step when retries are enabled.
	defaultRetryBackoff = 500 * time.Millisecond
	// defaultOpenAIKeyEnv is the environment variable holding the OpenAI API key.
	defaultOpenAIKeyEnv = "OPENAI_API_KEY"
)

// Config represents the top-level application configuration.
type Config struct {
	Dataset        string      `json:"dataset" mapstructure:"dataset" yaml:"dataset"`
	Embedding      Endpoint    `json:"embedding" mapstructure:"embedding" yaml:"embedding"`
	Generation     Endpoint    `json:"generation" mapstructure:"generation" yaml:"generation"`
	VectorStore    VectorStore `json:"vectorStore" mapstructure:"vectorStore" yaml:"vectorStore"`
	TopK           int         `json:"topK" mapstructure:"topK" yaml:"topK"`
	QuitToken      string      `json:"quitToken" mapstructure:"quitToken" yaml:"quitToken"`
	PromptTemplate string      `json:"promptTemplate,omitempty" mapstructure:"promptTemplate" yaml:"promptTemplate,omitempty"`
	TimeoutSeconds int         `json:"timeout" mapstructure:"timeout" yaml:"timeout"`
	Retries        int         `json:"retries" mapstructure:"retries" yaml:"retries"`
	RetryBackoffMs int         `json:"retryBackoffMs,omitempty" mapstructure:"retryBackoffMs" yaml:"retryBackoffMs,omitempty"`
	LogFile        string      `json:"logFile,omitempty" mapstructure:"logFile" yaml:"logFile,omitempty"`
	Debug          bool        `json:"debug" mapstructure:"debug" yaml:"debug"`
	TUI            bool        `json:"tui" mapstructure:"tui" yaml:"tui"`
	Metrics        bool        `json:"metrics" mapstructure:"metrics" yaml:"metrics"`
	MetricsFile    string      `json:"metricsFile,omitempty" mapstructure:"metricsFile" yaml:"metricsFile,omitempty"`
	ConfigPath     string      `json:"-" mapstructure:"-" yaml:"-"`
}

// Endpoint configures one model provider (embedding or generation).
type Endpoint struct {
	Provider   string     `json:"provider" mapstructure:"provider" yaml:"provider"`
	URL        string     `json:"url" mapstructure:"url" yaml:"url"`
	Model      string     `json:"model" mapstructure:"model" yaml:"model"`
	APIKeyEnv  string     `json:"apiKeyEnv,omitempty" mapstructure:"apiKeyEnv" yaml:"apiKeyEnv,omitempty"`
	Parameters Parameters `json:"parameters" mapstructure:"parameters" yaml:"parameters"`
}

// Parameters defines the subset of sampling parameters forwarded to the generation model.
type Parameters struct {
	TopK          *int     `json:"top_k,omitempty" mapstructure:"top_k" yaml:"top_k,omitempty"`
	TopP          *float64 `json:"top_p,omitempty" mapstructure:"top_p" yaml:"top_p,omitempty"`
	Temperature   *float64 `json:"temperature,omitempty" mapstructure:"temperature" yaml:"temperature,omitempty"`
	RepeatPenalty *float64 `json:"repeat_penalty,omitempty" mapstructure:"repeat_penalty" yaml:"repeat_penalty,omitempty"`
	NumCtx        *int     `json:"num_ctx,omitempty" mapstructure:"num_ctx" yaml:"num_ctx,omitempty"`
}

// VectorStore selects and configures the vector storage backend.
type VectorStore struct {
	Type       string `json:"type" mapstructure:"type" yaml:"type"`
	Path       string `json:"path" mapstructure:"path" yaml:"path"`
	Collection string `json:"collection" mapstructure:"collection" yaml:"collection"`
	URL        string `json:"url,omitempty" mapstructure:"url" yaml:"url,omitempty"`
	APIKeyEnv  string `json:"apiKeyEnv,omitempty" mapstructure:"apiKeyEnv" yaml:"apiKeyEnv,omitempty"`
}

// Default returns a configuration populated with every default value.
func Default() Config {
	var cfg Config
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills zero-valued fields with their defaults.
func (c *Config) ApplyDefaults() {
	if strings.TrimSpace(c.Dataset) == "" {
		c.Dataset = DefaultDataset
	}
	c.Embedding.applyDefaults(DefaultEmbeddingModel, "text-embedding-3-small")
	c.Generation.applyDefaults(DefaultGenerationModel, "gpt-4o-mini")
	if c.VectorStore.Type == "" {
		c.VectorStore.Type = "jsonl"
	}
	if c.VectorStore.Path == "" {
		c.VectorStore.Path = DefaultIndexPath
	}
	if c.VectorStore.Collection == "" {
		c.VectorStore.Collection = DefaultCollection
	}
	if c.VectorStore.Type == "qdrant" && c.VectorStore.URL == "" {
		c.VectorStore.URL = "http://localhost:6333"
	}
	if c.TopK <= 0 {
		c.TopK = DefaultTopK
	}
	if c.QuitToken == "" {
		c.QuitToken = DefaultQuitToken
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = int(defaultRequestTimeout.Seconds())
	}
}

func (e *Endpoint) applyDefaults(ollamaModel, openaiModel string) {
	if e.Provider == "" {
		e.Provider = "ollama"
	}
	switch e.Provider {
	case "ollama":
		if e.URL == "" {
			e.URL = DefaultOllamaURL
		}
		if e.Model == "" {
			e.Model = ollamaModel
		}
	case "llamacpp":
		if e.URL == "" {
			e.URL = DefaultLlamaCppURL
		}
		if e.Model == "" {
			e.Model = ollamaModel
		}
	case "openai":
		if e.APIKeyEnv == "" {
			e.APIKeyEnv = defaultOpenAIKeyEnv
		}
		if e.Model == "" {
			e.Model = openaiModel
		}
	}
	e.URL = strings.TrimRight(e.URL, "/")
}

// RequestTimeout returns the timeout duration for HTTP requests, falling back to the default if not specified.
func (c Config) RequestTimeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return defaultRequestTimeout
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// RetryBackoff returns the initial delay between retry attempts.
func (c Config) RetryBackoff() time.Duration {
	if c.RetryBackoffMs <= 0 {
		return defaultRetryBackoff
	}
	return time.Duration(c.RetryBackoffMs) * time.Millisecond
}

// RetryAttempts returns the configured number of extra attempts for per-question calls.
func (c Config) RetryAttempts() int {
	if c.Retries < 0 {
		return 0
	}
	return c.Retries
}

// LogFilePath returns the path to the application log file, applying a default if not set.
func (c Config) LogFilePath() string {
	if path := c.LogFile; strings.TrimSpace(path) != "" {
		return path
	}
	return "reviewrag.log"
}

// MetricsFilePath returns where generation metrics are persisted.
func (c Config) MetricsFilePath() string {
	if path := c.MetricsFile; strings.TrimSpace(path) != "" {
		return path
	}
	return "reports/data/generation_metrics.json"
}
