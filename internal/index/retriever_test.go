package index

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/mwiater/reviewrag/internal/apperr"
	"github.com/mwiater/reviewrag/internal/vectorstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetrieveReturnsAtMostFiveOrdered(t *testing.T) {
	ctx := context.Background()
	store := vectorstore.NewMemory()
	units := make([]vectorstore.Unit, 8)
	vectors := make([][]float64, 8)
	for i := range units {
		units[i] = vectorstore.Unit{ID: fmt.Sprint(i), Text: "review"}
		vectors[i] = []float64{float64(i + 1), 1, 1}
	}
	require.NoError(t, store.Add(ctx, units, vectors))

	r := NewRetriever(store, &countingEmbedder{}, 0)
	assert.Equal(t, 5, r.K())

	retrieval, err := r.Retrieve(ctx, "crust")
	require.NoError(t, err)
	require.Len(t, retrieval.Matches, 5)
	assert.Equal(t, "7", retrieval.Matches[0].Unit.ID)
	for i := 1; i < len(retrieval.Matches); i++ {
		assert.Greater(t, retrieval.Matches[i-1].Score, retrieval.Matches[i].Score)
	}
}

func TestRetrieveErrorsAreRetrievalKind(t *testing.T) {
	ctx := context.Background()

	_, err := NewRetriever(vectorstore.NewMemory(), &countingEmbedder{err: errors.New("down")}, 5).Retrieve(ctx, "crust")
	assert.True(t, errors.Is(err, apperr.ErrRetrieval))

	store := &failingStore{Store: vectorstore.NewMemory(), queryErr: errors.New("index unreadable")}
	_, err = NewRetriever(store, &countingEmbedder{}, 5).Retrieve(ctx, "crust")
	assert.True(t, errors.Is(err, apperr.ErrRetrieval))
	assert.ErrorContains(t, err, "index unreadable")

	_, err = NewRetriever(vectorstore.NewMemory(), &countingEmbedder{}, 5).Retrieve(ctx, "   ")
	assert.True(t, errors.Is(err, apperr.ErrRetrieval))
}
