// Package index is the semantic index over the catalog: ingestion of item
// documents and nearest-neighbour queries by free text.
package index

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/kailas-cloud/kitfinder/internal/domain"
	domcat "github.com/kailas-cloud/kitfinder/internal/domain/catalog"
	"github.com/kailas-cloud/kitfinder/internal/domain/search/result"
)

// DefaultBatchSize is the number of documents embedded per provider call.
const DefaultBatchSize = 100

// Index operation names used in IndexUnavailable errors.
const (
	OpEnsure = "ensure_collection"
	OpIngest = "ingest"
	OpQuery  = "query"
	OpCount  = "count"
)

// IngestReport summarizes one ingestion run.
type IngestReport struct {
	Items  int
	Tokens int
}

// Service maintains and queries the catalog index.
type Service struct {
	repo      Repository
	embed     Embedder
	batchSize int
	logger    *zap.Logger
}

// New creates an index service.
func New(repo Repository, embed Embedder, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:      repo,
		embed:     embed,
		batchSize: DefaultBatchSize,
		logger:    logger,
	}
}

// WithBatchSize sets how many documents are embedded per call.
func (s *Service) WithBatchSize(n int) *Service {
	if n > 0 {
		s.batchSize = n
	}
	return s
}

// EnsureCollection makes sure the index exists. With recreate, the existing
// index and all stored items are dropped first.
func (s *Service) EnsureCollection(ctx context.Context, recreate bool) error {
	if recreate {
		if err := s.repo.Drop(ctx); err != nil {
			return domain.NewIndexUnavailable(OpEnsure, err)
		}
		s.logger.Info("Dropped catalog index")
	}

	created, err := s.repo.EnsureIndex(ctx)
	if err != nil {
		return domain.NewIndexUnavailable(OpEnsure, err)
	}
	if created {
		s.logger.Info("Created catalog index")
	}
	return nil
}

// Ingest embeds every item's document text and stores it under its catalog
// position. Re-ingesting the same catalog overwrites the same ids.
func (s *Service) Ingest(ctx context.Context, items []domcat.Item) (IngestReport, error) {
	if len(items) == 0 {
		return IngestReport{}, nil
	}

	texts := make([]string, len(items))
	for i := range items {
		texts[i] = items[i].Document()
	}

	emb, err := domain.EmbedAll(ctx, s.embed, texts, s.batchSize)
	if err != nil {
		return IngestReport{}, domain.NewIndexUnavailable(OpIngest, fmt.Errorf("embed documents: %w", err))
	}

	entries := make([]domcat.Entry, len(items))
	for i := range items {
		entries[i] = domcat.Entry{
			ID:     strconv.Itoa(i),
			Item:   items[i],
			Vector: emb.Embeddings[i],
		}
	}

	if err := s.repo.Upsert(ctx, entries); err != nil {
		return IngestReport{}, domain.NewIndexUnavailable(OpIngest, err)
	}

	s.logger.Info("Catalog ingested",
		zap.Int("items", len(entries)),
		zap.Int("total_tokens", emb.TotalTokens),
	)

	return IngestReport{Items: len(entries), Tokens: emb.TotalTokens}, nil
}

// Query returns up to k catalog items nearest to text, most relevant first.
func (s *Service) Query(ctx context.Context, text string, k int) ([]domcat.Item, error) {
	if k <= 0 {
		return []domcat.Item{}, nil
	}

	emb, err := s.embed.Embed(ctx, text)
	if err != nil {
		return nil, domain.NewIndexUnavailable(OpQuery, fmt.Errorf("embed query: %w", err))
	}

	hits, err := s.repo.SearchKNN(ctx, emb.Embedding, k)
	if err != nil {
		return nil, domain.NewIndexUnavailable(OpQuery, err)
	}
	if len(hits) > k {
		hits = hits[:k]
	}

	return result.Items(hits), nil
}

// Count returns the number of indexed items.
func (s *Service) Count(ctx context.Context) (int, error) {
	n, err := s.repo.Count(ctx)
	if err != nil {
		return 0, domain.NewIndexUnavailable(OpCount, err)
	}
	return n, nil
}
