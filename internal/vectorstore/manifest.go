package vectorstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ManifestFile is written next to filesystem-backed indexes.
const ManifestFile = "manifest.json"

// Manifest describes how an index location was built.
type Manifest struct {
	Collection     string    `json:"collection"`
	Store          string    `json:"store"`
	EmbeddingModel string    `json:"embeddingModel"`
	Dimension      int       `json:"dimension"`
	Units          int       `json:"units"`
	DatasetSHA256  string    `json:"datasetSha256,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

// WriteManifest stores m as dir/manifest.json.
func WriteManifest(dir string, m Manifest) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create manifest directory: %w", err)
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ManifestFile), data, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

// ReadManifest loads dir/manifest.json. A missing file yields an error wrapping os.ErrNotExist.
func ReadManifest(dir string) (Manifest, error) {
	var m Manifest
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		return m, fmt.Errorf("read manifest: %w", err)
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("parse manifest: %w", err)
	}
	return m, nil
}
