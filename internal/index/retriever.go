package index

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/mwiater/reviewrag/internal/apperr"
	"github.com/mwiater/reviewrag/internal/embedding"
	"github.com/mwiater/reviewrag/internal/vectorstore"
)

// Retriever answers similarity queries against a built index.
type Retriever struct {
	store    vectorstore.Store
	embedder embedding.Embedder
	k        int
}

// Retrieval is the ordered match list plus how long the lookup took.
type Retrieval struct {
	Matches []vectorstore.Match
	Elapsed time.Duration
}

// NewRetriever binds store and embedder. k <= 0 selects DefaultTopK.
func NewRetriever(store vectorstore.Store, embedder embedding.Embedder, k int) *Retriever {
	if k <= 0 {
		k = DefaultTopK
	}
	return &Retriever{store: store, embedder: embedder, k: k}
}

// K returns the number of matches requested per query.
func (r *Retriever) K() int { return r.k }

// Retrieve embeds question and returns at most K matches ordered by decreasing score.
func (r *Retriever) Retrieve(ctx context.Context, question string) (Retrieval, error) {
	start := time.Now()
	if strings.TrimSpace(question) == "" {
		return Retrieval{}, apperr.Retrieval("retrieve", errors.New("query is empty"))
	}
	vector, err := r.embedder.Embed(ctx, question)
	if err != nil {
		return Retrieval{}, apperr.Retrieval("embed query", err)
	}
	matches, err := r.store.Query(ctx, vector, r.k)
	if err != nil {
		return Retrieval{}, apperr.Retrieval("query "+r.store.Name(), err)
	}
	if len(matches) > r.k {
		matches = matches[:r.k]
	}
	return Retrieval{Matches: matches, Elapsed: time.Since(start)}, nil
}
