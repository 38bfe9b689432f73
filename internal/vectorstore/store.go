// Package vectorstore persists embedded review units and answers similarity queries.
package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrDimensionMismatch is returned by Query when the stored vectors were produced by
// a different embedding model than the query vector.
var ErrDimensionMismatch = errors.New("vector dimension mismatch")

// Metadata is carried alongside each unit and echoed back in matches.
type Metadata struct {
	Rating float64 `json:"rating"`
	Date   string  `json:"date"`
}

// Unit is one retrievable piece of text. ID is the dataset row index.
type Unit struct {
	ID       string   `json:"id"`
	Text     string   `json:"text"`
	Metadata Metadata `json:"metadata"`
}

// Match is a unit plus its cosine similarity to the query vector.
type Match struct {
	Unit  Unit
	Score float64
}

// Store is a vector storage backend.
type Store interface {
	Name() string
	// Exists reports whether the storage location already holds an index.
	Exists(ctx context.Context) (bool, error)
	Add(ctx context.Context, units []Unit, vectors [][]float64) error
	// Query returns at most k matches ordered by decreasing score.
	Query(ctx context.Context, vector []float64, k int) ([]Match, error)
	Drop(ctx context.Context) error
	Close() error
}

func checkBatch(units []Unit, vectors [][]float64) error {
	if len(units) != len(vectors) {
		return fmt.Errorf("units and vectors length mismatch: %d != %d", len(units), len(vectors))
	}
	for i, v := range vectors {
		if len(v) == 0 {
			return fmt.Errorf("unit %s has an empty vector", units[i].ID)
		}
		if len(v) != len(vectors[0]) {
			return fmt.Errorf("unit %s vector dimension %d differs from %d", units[i].ID, len(v), len(vectors[0]))
		}
	}
	return nil
}

// rank scores every stored vector against query and keeps the top k.
// Ties keep insertion order.
func rank(units []Unit, vectors [][]float64, query []float64, k int) ([]Match, error) {
	matches := make([]Match, 0, len(units))
	queryNorm := vectorNorm(query)
	for i, unit := range units {
		if len(vectors[i]) != len(query) {
			return nil, fmt.Errorf("%w: unit %s has %d dimensions, query has %d; rebuild the index with `reviewrag index --force`",
				ErrDimensionMismatch, unit.ID, len(vectors[i]), len(query))
		}
		matches = append(matches, Match{
			Unit:  unit,
			Score: cosineSimilarity(query, vectors[i], queryNorm),
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if k < 0 {
		k = 0
	}
	if k > len(matches) {
		k = len(matches)
	}
	return matches[:k], nil
}

func cosineSimilarity(a, b []float64, normA float64) float64 {
	if normA == 0 {
		return 0
	}
	normB := vectorNorm(b)
	if normB == 0 {
		return 0
	}
	dot := 0.0
	for i := range a {
		dot += a[i] * b[i]
	}
	return dot / (normA * normB)
}

func vectorNorm(v []float64) float64 {
	sum := 0.0
	for _, val := range v {
		sum += val * val
	}
	return math.Sqrt(sum)
}
