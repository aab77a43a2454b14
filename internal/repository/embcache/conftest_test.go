package embcache

import (
	"context"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/kitfinder/internal/db"
	"github.com/kailas-cloud/kitfinder/internal/domain"
)

// fakeEmbedder returns vec(text) for every text: a one-element vector holding
// the text length. It records each batch it was asked for.
type fakeEmbedder struct {
	tokensPerText int
	err           error
	short         bool
	batches       [][]string
}

func vecFor(text string) []float32 { return []float32{float32(len(text))} }

func (f *fakeEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	res, err := f.BatchEmbed(ctx, []string{text})
	if err != nil {
		return domain.EmbeddingResult{}, err
	}
	return domain.EmbeddingResult{Embedding: res.Embeddings[0], TotalTokens: res.TotalTokens}, nil
}

func (f *fakeEmbedder) BatchEmbed(_ context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	f.batches = append(f.batches, append([]string(nil), texts...))
	if f.err != nil {
		return domain.BatchEmbeddingResult{}, f.err
	}
	out := domain.BatchEmbeddingResult{
		PromptTokens: f.tokensPerText * len(texts),
		TotalTokens:  f.tokensPerText * len(texts),
	}
	for _, t := range texts {
		out.Embeddings = append(out.Embeddings, vecFor(t))
	}
	if f.short {
		out.Embeddings = out.Embeddings[:len(out.Embeddings)-1]
	}
	return out, nil
}

// singleEmbedder has no native batching.
type singleEmbedder struct{ calls int }

func (s *singleEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	s.calls++
	return domain.EmbeddingResult{Embedding: vecFor(text), TotalTokens: 1}, nil
}

type write struct {
	key string
	ttl time.Duration
}

// memStore is an in-memory KV store.
type memStore struct {
	data   map[string][]byte
	writes []write
	getErr error
	setErr error
}

func newMemStore() *memStore { return &memStore{data: map[string][]byte{}} }

func (m *memStore) Get(_ context.Context, key string) ([]byte, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	v, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *memStore) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = value
	m.writes = append(m.writes, write{key: key, ttl: ttl})
	return nil
}

func (m *memStore) keysWithPrefix(prefix string) int {
	n := 0
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			n++
		}
	}
	return n
}

func newTestCache(t *testing.T, inner domain.Embedder) (*CachedEmbedder, *memStore) {
	t.Helper()
	ms := newMemStore()
	return New(inner, ms, nil, zap.NewNop()), ms
}
