package vectorstore

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// jsonlEntry is a single line of the JSONL index file.
type jsonlEntry struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Rating    float64   `json:"rating"`
	Date      string    `json:"date"`
	Embedding []float64 `json:"embedding"`
}

// JSONL keeps the index as one JSON object per line in <dir>/<collection>.jsonl.
// The directory itself is the storage location.
type JSONL struct {
	dir        string
	collection string

	mu      sync.Mutex
	loaded  bool
	units   []Unit
	vectors [][]float64
}

// NewJSONL returns a store rooted at dir. Nothing is touched until Add or Query.
func NewJSONL(dir, collection string) *JSONL {
	return &JSONL{dir: dir, collection: collection}
}

// Name identifies the backend in status output.
func (s *JSONL) Name() string { return "jsonl" }

func (s *JSONL) path() string {
	return filepath.Join(s.dir, s.collection+".jsonl")
}

// Exists reports whether the index directory is present.
func (s *JSONL) Exists(ctx context.Context) (bool, error) {
	return dirExists(s.dir)
}

// Add creates the directory and writes one line per unit.
func (s *JSONL) Add(ctx context.Context, units []Unit, vectors [][]float64) error {
	if err := checkBatch(units, vectors); err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create index directory: %w", err)
	}
	out, err := os.OpenFile(s.path(), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open index file: %w", err)
	}
	defer out.Close()

	writer := bufio.NewWriter(out)
	encoder := json.NewEncoder(writer)
	encoder.SetEscapeHTML(false)
	for i, unit := range units {
		if err := ctx.Err(); err != nil {
			return err
		}
		entry := jsonlEntry{
			ID:        unit.ID,
			Text:      unit.Text,
			Rating:    unit.Metadata.Rating,
			Date:      unit.Metadata.Date,
			Embedding: vectors[i],
		}
		if err := encoder.Encode(entry); err != nil {
			return fmt.Errorf("write index entry: %w", err)
		}
	}
	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flush index: %w", err)
	}

	s.mu.Lock()
	s.loaded = false
	s.mu.Unlock()
	return nil
}

// Query loads the file on first use and ranks every entry against vector.
func (s *JSONL) Query(ctx context.Context, vector []float64, k int) ([]Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		if err := s.load(); err != nil {
			return nil, err
		}
	}
	return rank(s.units, s.vectors, vector, k)
}

func (s *JSONL) load() error {
	file, err := os.Open(s.path())
	if err != nil {
		return fmt.Errorf("open index: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 8*1024*1024)

	var units []Unit
	var vectors [][]float64
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var entry jsonlEntry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			return fmt.Errorf("parse index line %d: %w", lineNo, err)
		}
		units = append(units, Unit{
			ID:       entry.ID,
			Text:     entry.Text,
			Metadata: Metadata{Rating: entry.Rating, Date: entry.Date},
		})
		vectors = append(vectors, entry.Embedding)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read index: %w", err)
	}

	s.units, s.vectors, s.loaded = units, vectors, true
	return nil
}

// Drop removes the whole directory.
func (s *JSONL) Drop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.units, s.vectors, s.loaded = nil, nil, false
	return os.RemoveAll(s.dir)
}

func (s *JSONL) Close() error { return nil }

// dirExists reports whether path exists. A non-directory at path is an error.
func dirExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if !info.IsDir() {
		return false, fmt.Errorf("index location %s is not a directory", path)
	}
	return true, nil
}
