package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kailas-cloud/kitfinder/internal/db"
	"github.com/kailas-cloud/kitfinder/internal/domain"
	domcat "github.com/kailas-cloud/kitfinder/internal/domain/catalog"
	"github.com/kailas-cloud/kitfinder/internal/domain/search/result"
)

// store is the consumer interface for the catalog index (ISP).
type store interface {
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	DeletePrefix(ctx context.Context, prefix string) (int, error)
	CreateIndex(ctx context.Context, schema *db.Schema) error
	DropIndex(ctx context.Context, name string) error
	IndexInfo(ctx context.Context, name string) (db.IndexInfo, error)
	SearchKNN(ctx context.Context, q db.KNNQuery) (db.KNNResult, error)
}

// IndexConfig holds vector index parameters.
type IndexConfig struct {
	Algorithm   db.VectorAlgorithm
	M           int
	EFConstruct int
}

// Repo implements usecase/index.Repository over one collection.
type Repo struct {
	store      store
	collection string
	vectorDim  int
	index      IndexConfig
}

// New creates a catalog repository for the named collection.
func New(s store, collection string, vectorDim int) *Repo {
	return &Repo{
		store:      s,
		collection: collection,
		vectorDim:  vectorDim,
		index:      IndexConfig{Algorithm: db.VectorHNSW, M: 16, EFConstruct: 200},
	}
}

// WithIndex overrides vector index parameters; zero values keep defaults.
func (r *Repo) WithIndex(cfg IndexConfig) *Repo {
	if cfg.Algorithm != "" {
		r.index.Algorithm = cfg.Algorithm
	}
	if cfg.M > 0 {
		r.index.M = cfg.M
	}
	if cfg.EFConstruct > 0 {
		r.index.EFConstruct = cfg.EFConstruct
	}
	return r
}

// EnsureIndex creates the FT index unless it already exists.
func (r *Repo) EnsureIndex(ctx context.Context) (bool, error) {
	_, err := r.store.IndexInfo(ctx, r.indexName())
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, db.ErrIndexNotFound) {
		return false, fmt.Errorf("check index %s: %w", r.collection, err)
	}

	if err := r.store.CreateIndex(ctx, catalogSchema(r.indexName(), r.keyPrefix(), r.vectorDim, r.index)); err != nil {
		if errors.Is(err, db.ErrIndexExists) {
			return false, nil
		}
		return false, fmt.Errorf("create index %s: %w", r.collection, err)
	}
	return true, nil
}

// Drop removes the FT index and every item hash of the collection.
// A missing index is not an error.
func (r *Repo) Drop(ctx context.Context) error {
	if err := r.store.DropIndex(ctx, r.indexName()); err != nil && !errors.Is(err, db.ErrIndexNotFound) {
		return fmt.Errorf("drop index %s: %w", r.collection, err)
	}
	if _, err := r.store.DeletePrefix(ctx, r.keyPrefix()); err != nil {
		return fmt.Errorf("delete %s items: %w", r.collection, err)
	}
	return nil
}

// Upsert writes entries as hashes in one pipelined round-trip.
func (r *Repo) Upsert(ctx context.Context, entries []domcat.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	items := make([]db.HashSetItem, len(entries))
	for i := range entries {
		if len(entries[i].Vector) != r.vectorDim {
			return fmt.Errorf("entry %s: vector dim %d, want %d: %w",
				entries[i].ID, len(entries[i].Vector), r.vectorDim, domain.ErrEmbeddingProviderError)
		}
		items[i] = db.HashSetItem{
			Key:    r.itemKey(entries[i].ID),
			Fields: buildHashFields(&entries[i]),
		}
	}
	if err := r.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("hset %s items: %w", r.collection, err)
	}
	return nil
}

// Count returns the number of indexed items; a missing index holds none.
func (r *Repo) Count(ctx context.Context) (int, error) {
	info, err := r.store.IndexInfo(ctx, r.indexName())
	if err != nil {
		if errors.Is(err, db.ErrIndexNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("count %s: %w", r.collection, err)
	}
	return info.NumDocs, nil
}

// SearchKNN returns up to k nearest items, nearest first.
func (r *Repo) SearchKNN(ctx context.Context, vector []float32, k int) ([]result.Result, error) {
	res, err := r.store.SearchKNN(ctx, db.KNNQuery{
		Index:  r.indexName(),
		Vector: vector,
		K:      k,
		Return: metadataFields,
	})
	if err != nil {
		return nil, fmt.Errorf("search knn %s: %w", r.collection, err)
	}

	prefix := r.keyPrefix()
	results := make([]result.Result, 0, len(res.Hits))
	for _, hit := range res.Hits {
		id := strings.TrimPrefix(hit.Key, prefix)
		results = append(results, result.New(id, hit.Similarity(), parseHashFields(hit.Fields)))
	}
	return results, nil
}

// Key patterns: kitfinder:{collection}:idx, kitfinder:{collection}:{id}

func (r *Repo) indexName() string {
	return fmt.Sprintf("%s%s:idx", domain.KeyPrefix, r.collection)
}

func (r *Repo) keyPrefix() string {
	return fmt.Sprintf("%s%s:", domain.KeyPrefix, r.collection)
}

func (r *Repo) itemKey(id string) string {
	return r.keyPrefix() + id
}
