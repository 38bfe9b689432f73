package appconfig

import (
	"fmt"
	"io"
)

// ShowConfig prints the current configuration summary.
func ShowConfig(out io.Writer, file string, cfg *Config) {
	if file == "" {
		fmt.Fprintln(out, "No config file loaded (using defaults).")
	} else {
		fmt.Fprintf(out, "Config file: %s\n\n", file)
	}

	if cfg == nil {
		fallback := Default()
		cfg = &fallback
	}

	fmt.Fprintln(out, "Current configuration:")
	fmt.Fprintf(out, "  Dataset:           %s\n", cfg.Dataset)
	fmt.Fprintf(out, "  Embedding:         %s %s (%s)\n", cfg.Embedding.Provider, cfg.Embedding.Model, endpointURL(cfg.Embedding))
	fmt.Fprintf(out, "  Generation:        %s %s (%s)\n", cfg.Generation.Provider, cfg.Generation.Model, endpointURL(cfg.Generation))
	fmt.Fprintf(out, "  Vector Store:      %s\n", cfg.VectorStore.Type)
	fmt.Fprintf(out, "  Index Path:        %s\n", cfg.VectorStore.Path)
	fmt.Fprintf(out, "  Collection:        %s\n", cfg.VectorStore.Collection)
	if cfg.VectorStore.Type == "qdrant" {
		fmt.Fprintf(out, "  Qdrant URL:        %s\n", cfg.VectorStore.URL)
	}
	fmt.Fprintf(out, "  Top K:             %d\n", cfg.TopK)
	fmt.Fprintf(out, "  Quit Token:        %q\n", cfg.QuitToken)
	if cfg.PromptTemplate != "" {
		fmt.Fprintf(out, "  Prompt Template:   %s\n", cfg.PromptTemplate)
	}
	fmt.Fprintf(out, "  Timeout:           %s\n", cfg.RequestTimeout())
	fmt.Fprintf(out, "  Retries:           %d (backoff %s)\n", cfg.RetryAttempts(), cfg.RetryBackoff())
	fmt.Fprintf(out, "  Log File:          %s\n", cfg.LogFilePath())
	fmt.Fprintf(out, "  Debug:             %v\n", cfg.Debug)
	fmt.Fprintf(out, "  TUI:               %v\n", cfg.TUI)
	fmt.Fprintf(out, "  Metrics:           %v\n", cfg.Metrics)
}

func endpointURL(e Endpoint) string {
	if e.URL == "" {
		return "default"
	}
	return e.URL
}
