package index

import (
	"context"

	"github.com/kailas-cloud/kitfinder/internal/domain"
	domcat "github.com/kailas-cloud/kitfinder/internal/domain/catalog"
	"github.com/kailas-cloud/kitfinder/internal/domain/search/result"
)

// Repository defines the storage contract of the semantic index.
type Repository interface {
	EnsureIndex(ctx context.Context) (bool, error)
	Drop(ctx context.Context) error
	Upsert(ctx context.Context, entries []domcat.Entry) error
	Count(ctx context.Context) (int, error)
	SearchKNN(ctx context.Context, vector []float32, k int) ([]result.Result, error)
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
