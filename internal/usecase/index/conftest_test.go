package index

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/kailas-cloud/kitfinder/internal/domain"
	domcat "github.com/kailas-cloud/kitfinder/internal/domain/catalog"
	"github.com/kailas-cloud/kitfinder/internal/domain/search/result"
)

type mockRepo struct {
	ensureFn func(ctx context.Context) (bool, error)
	dropFn   func(ctx context.Context) error
	upsertFn func(ctx context.Context, entries []domcat.Entry) error
	countFn  func(ctx context.Context) (int, error)
	searchFn func(ctx context.Context, vector []float32, k int) ([]result.Result, error)
	calls    []string
}

func (m *mockRepo) EnsureIndex(ctx context.Context) (bool, error) {
	m.calls = append(m.calls, "ensure")
	if m.ensureFn != nil {
		return m.ensureFn(ctx)
	}
	return true, nil
}

func (m *mockRepo) Drop(ctx context.Context) error {
	m.calls = append(m.calls, "drop")
	if m.dropFn != nil {
		return m.dropFn(ctx)
	}
	return nil
}

func (m *mockRepo) Upsert(ctx context.Context, entries []domcat.Entry) error {
	m.calls = append(m.calls, "upsert")
	if m.upsertFn != nil {
		return m.upsertFn(ctx, entries)
	}
	return nil
}

func (m *mockRepo) Count(ctx context.Context) (int, error) {
	if m.countFn != nil {
		return m.countFn(ctx)
	}
	return 0, nil
}

func (m *mockRepo) SearchKNN(ctx context.Context, vector []float32, k int) ([]result.Result, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, vector, k)
	}
	return nil, nil
}

// mockEmbedder returns a 2-dim vector derived from the text length.
type mockEmbedder struct {
	err    error
	texts  []string
	tokens int
}

func (m *mockEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	m.texts = append(m.texts, text)
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{
		Embedding:   []float32{float32(len(text)), 1},
		TotalTokens: m.tokens,
	}, nil
}

// mockBatchEmbedder also implements domain.BatchEmbedder.
type mockBatchEmbedder struct {
	mockEmbedder
	batches [][]string
}

func (m *mockBatchEmbedder) BatchEmbed(_ context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	m.batches = append(m.batches, texts)
	if m.err != nil {
		return domain.BatchEmbeddingResult{}, m.err
	}
	out := domain.BatchEmbeddingResult{Embeddings: make([][]float32, len(texts))}
	for i, t := range texts {
		out.Embeddings[i] = []float32{float32(len(t)), 1}
		out.TotalTokens += m.tokens
	}
	return out, nil
}

func item(name string, price int64) domcat.Item {
	return domcat.NewItem(name, "60%", "Tray mount", decimal.NewFromInt(price), "hotswap", "desc", "black")
}
