// Package index builds the review index once per storage location and hands out
// a retriever bound to it.
package index

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/mwiater/reviewrag/internal/apperr"
	"github.com/mwiater/reviewrag/internal/embedding"
	"github.com/mwiater/reviewrag/internal/logging"
	"github.com/mwiater/reviewrag/internal/reviews"
	"github.com/mwiater/reviewrag/internal/vectorstore"
)

// DefaultTopK is the number of matches a Retriever returns when none is configured.
const DefaultTopK = 5

// Options configures Ensure.
type Options struct {
	Store    vectorstore.Store
	Embedder embedding.Embedder
	// DatasetPath is the CSV read when the index has to be built.
	DatasetPath string
	// ManifestDir, when set, receives manifest.json after a build and is consulted
	// for staleness when the index already exists.
	ManifestDir    string
	Collection     string
	EmbeddingModel string
	TopK           int
	// Force drops any existing index and rebuilds it.
	Force bool
	// Status receives progress lines. Nil discards them.
	Status func(format string, args ...any)
}

// Result reports what Ensure did.
type Result struct {
	Ingested  bool
	Units     int
	Stale     bool
	Retriever *Retriever
}

// BuildUnits converts dataset rows into retrievable units, one per row, in row order.
func BuildUnits(records []reviews.Review) []vectorstore.Unit {
	units := make([]vectorstore.Unit, len(records))
	for i, r := range records {
		units[i] = vectorstore.Unit{
			ID:   strconv.Itoa(i),
			Text: r.Title + " " + r.Body,
			Metadata: vectorstore.Metadata{
				Rating: r.Rating,
				Date:   r.Date,
			},
		}
	}
	return units
}

// Ensure makes sure the store holds an index. If the storage location already exists
// it is reused as-is and the dataset is not read; otherwise the dataset is loaded,
// embedded and added to the store.
func Ensure(ctx context.Context, opts Options) (*Result, error) {
	if opts.Store == nil || opts.Embedder == nil {
		return nil, errors.New("index: store and embedder are required")
	}
	start := time.Now()
	status := func(format string, args ...any) {
		elapsed := time.Since(start).Truncate(time.Millisecond)
		msg := fmt.Sprintf("[%s] %s", elapsed, fmt.Sprintf(format, args...))
		logging.LogEvent("%s", msg)
		if opts.Status != nil {
			opts.Status("%s", msg)
		}
	}
	retriever := NewRetriever(opts.Store, opts.Embedder, opts.TopK)

	if opts.Force {
		status("[INDEX] Dropping existing %s index", opts.Store.Name())
		if err := opts.Store.Drop(ctx); err != nil {
			return nil, apperr.Storage("drop index", err)
		}
	}

	exists, err := opts.Store.Exists(ctx)
	if err != nil {
		return nil, apperr.Storage("check index location", err)
	}
	if exists {
		status("[INDEX] Reusing existing %s index", opts.Store.Name())
		result := &Result{Retriever: retriever}
		if manifest, ok := readManifest(opts.ManifestDir); ok {
			result.Units = manifest.Units
			result.Stale = checkStale(opts, manifest, status)
			checkModel(opts, manifest, status)
		}
		return result, nil
	}

	status("[INDEX] Loading dataset: %s", opts.DatasetPath)
	records, err := reviews.Load(opts.DatasetPath)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, apperr.DataLoad("load dataset "+opts.DatasetPath, errors.New("dataset has no rows"))
	}
	units := BuildUnits(records)
	status("[INDEX] Built %d units", len(units))

	texts := make([]string, len(units))
	for i, u := range units {
		texts[i] = u.Text
	}
	status("[INDEX] Embedding with %s", opts.Embedder.Name())
	vectors, err := embedding.EmbedAll(ctx, opts.Embedder, texts, func(done, total int) {
		if done == total || done%50 == 0 {
			status("[INDEX] Embedded %d/%d", done, total)
		}
	})
	if err != nil {
		return nil, apperr.Storage("embed reviews", err)
	}

	if err := opts.Store.Add(ctx, units, vectors); err != nil {
		// A half-written location would be reused on the next run.
		if dropErr := opts.Store.Drop(ctx); dropErr != nil {
			logging.LogEvent("[INDEX] Cleanup after failed add: %v", dropErr)
		}
		return nil, apperr.Storage("add units to "+opts.Store.Name(), err)
	}

	if opts.ManifestDir != "" {
		checksum, err := reviews.Checksum(opts.DatasetPath)
		if err != nil {
			logging.LogEvent("[INDEX] Dataset checksum unavailable: %v", err)
		}
		manifest := vectorstore.Manifest{
			Collection:     opts.Collection,
			Store:          opts.Store.Name(),
			EmbeddingModel: opts.EmbeddingModel,
			Dimension:      len(vectors[0]),
			Units:          len(units),
			DatasetSHA256:  checksum,
			CreatedAt:      time.Now().UTC(),
		}
		if err := vectorstore.WriteManifest(opts.ManifestDir, manifest); err != nil {
			if dropErr := opts.Store.Drop(ctx); dropErr != nil {
				logging.LogEvent("[INDEX] Cleanup after failed manifest write: %v", dropErr)
			}
			return nil, apperr.Storage("write manifest", err)
		}
	}

	status("[INDEX] Indexed %d units", len(units))
	return &Result{Ingested: true, Units: len(units), Retriever: retriever}, nil
}

// readManifest returns the manifest in dir, if there is a readable one.
func readManifest(dir string) (vectorstore.Manifest, bool) {
	if dir == "" {
		return vectorstore.Manifest{}, false
	}
	manifest, err := vectorstore.ReadManifest(dir)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logging.LogEvent("[INDEX] Manifest unreadable: %v", err)
		}
		return vectorstore.Manifest{}, false
	}
	return manifest, true
}

// checkStale compares the dataset checksum to the manifest. A mismatch is reported
// but never triggers a rebuild.
func checkStale(opts Options, manifest vectorstore.Manifest, status func(string, ...any)) bool {
	if opts.DatasetPath == "" || manifest.DatasetSHA256 == "" {
		return false
	}
	checksum, err := reviews.Checksum(opts.DatasetPath)
	if err != nil {
		logging.LogEvent("[INDEX] Dataset checksum unavailable: %v", err)
		return false
	}
	if checksum != manifest.DatasetSHA256 {
		status("[INDEX] Warning: %s changed since the index was built; run `reviewrag index --force` to rebuild", opts.DatasetPath)
		return true
	}
	return false
}

// checkModel warns when the index was built with a different embedding model.
// Queries against it fail with a dimension mismatch or return unrelated reviews.
func checkModel(opts Options, manifest vectorstore.Manifest, status func(string, ...any)) {
	if opts.EmbeddingModel == "" || manifest.EmbeddingModel == "" || opts.EmbeddingModel == manifest.EmbeddingModel {
		return
	}
	status("[INDEX] Warning: index was built with %s but the embedder is %s; run `reviewrag index --force` to rebuild",
		manifest.EmbeddingModel, opts.EmbeddingModel)
}
