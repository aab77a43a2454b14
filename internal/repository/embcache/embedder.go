// Package embcache memoizes embedding vectors in the key-value store so the
// catalog is not re-embedded on every restart and repeated queries are free.
package embcache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/kitfinder/internal/db"
	"github.com/kailas-cloud/kitfinder/internal/domain"
)

const (
	resultHit  = "hit"
	resultMiss = "miss"
)

type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// CachedEmbedder wraps an embedder with a read-through vector cache.
// Cached vectors cost no tokens.
type CachedEmbedder struct {
	inner      domain.Embedder
	store      store
	namespace  string
	dims       int
	ttl        time.Duration
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a cache in front of inner. cacheTotal takes a single "result"
// label and may be nil.
func New(
	inner domain.Embedder,
	s store,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *CachedEmbedder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedEmbedder{
		inner:      inner,
		store:      s,
		namespace:  domain.KeyPrefix + "emb_cache:",
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// WithTTL expires cached vectors after ttl. Zero keeps them forever.
func (c *CachedEmbedder) WithTTL(ttl time.Duration) *CachedEmbedder {
	c.ttl = ttl
	return c
}

// WithNamespace partitions the cache by model and vector size. Cached vectors
// of any other size are ignored.
func (c *CachedEmbedder) WithNamespace(model string, dims int) *CachedEmbedder {
	c.namespace = fmt.Sprintf("%semb_cache:%s:%d:", domain.KeyPrefix, model, dims)
	c.dims = dims
	return c
}

// Embed vectorizes one text through the cache.
func (c *CachedEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	res, err := c.BatchEmbed(ctx, []string{text})
	if err != nil {
		return domain.EmbeddingResult{}, err
	}
	return domain.EmbeddingResult{
		Embedding:    res.Embeddings[0],
		PromptTokens: res.PromptTokens,
		TotalTokens:  res.TotalTokens,
	}, nil
}

// BatchEmbed answers cached texts from the store and sends each distinct miss
// to the inner embedder once. Output order matches texts; token counts cover
// the misses only.
func (c *CachedEmbedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	out := domain.BatchEmbeddingResult{Embeddings: make([][]float32, len(texts))}
	if len(texts) == 0 {
		return out, nil
	}

	// pending maps a missed text to every position it occupies.
	pending := make(map[string][]int)
	var order []string
	for i, text := range texts {
		if vec, ok := c.lookup(ctx, text); ok {
			c.count(resultHit)
			out.Embeddings[i] = vec
			continue
		}
		c.count(resultMiss)
		if _, seen := pending[text]; !seen {
			order = append(order, text)
		}
		pending[text] = append(pending[text], i)
	}
	if len(order) == 0 {
		return out, nil
	}

	res, err := c.embedMisses(ctx, order)
	if err != nil {
		return domain.BatchEmbeddingResult{}, err
	}
	for j, text := range order {
		vec := res.Embeddings[j]
		for _, i := range pending[text] {
			out.Embeddings[i] = vec
		}
		c.save(ctx, text, vec)
	}
	out.PromptTokens = res.PromptTokens
	out.TotalTokens = res.TotalTokens
	return out, nil
}

// HealthCheck reports the inner embedder's health.
func (c *CachedEmbedder) HealthCheck(ctx context.Context) error {
	if hc, ok := c.inner.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx)
	}
	return nil
}

func (c *CachedEmbedder) embedMisses(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	var (
		res domain.BatchEmbeddingResult
		err error
	)
	if be, ok := c.inner.(domain.BatchEmbedder); ok {
		res, err = be.BatchEmbed(ctx, texts)
	} else {
		res, err = domain.BatchFallback(ctx, c.inner, texts)
	}
	if err != nil {
		return domain.BatchEmbeddingResult{}, fmt.Errorf("embed %d uncached texts: %w", len(texts), err)
	}
	if len(res.Embeddings) != len(texts) {
		return domain.BatchEmbeddingResult{}, fmt.Errorf("embed %d uncached texts: got %d vectors: %w",
			len(texts), len(res.Embeddings), domain.ErrEmbeddingProviderError)
	}
	return res, nil
}

// lookup treats every read failure as a miss; the cache never fails a call.
func (c *CachedEmbedder) lookup(ctx context.Context, text string) ([]float32, bool) {
	key := c.key(text)
	data, err := c.store.Get(ctx, key)
	switch {
	case errors.Is(err, db.ErrKeyNotFound):
		return nil, false
	case err != nil:
		c.logger.Warn("Embedding cache read failed", zap.String("key", key), zap.Error(err))
		return nil, false
	}

	vec, err := decodeVector(data, c.dims)
	if err != nil {
		c.logger.Warn("Discarding cached embedding", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return vec, true
}

func (c *CachedEmbedder) save(ctx context.Context, text string, vec []float32) {
	key := c.key(text)
	if err := c.store.SetWithTTL(ctx, key, encodeVector(vec), c.ttl); err != nil {
		c.logger.Warn("Embedding cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (c *CachedEmbedder) count(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

func (c *CachedEmbedder) key(text string) string {
	sum := sha256.Sum256([]byte(text))
	return c.namespace + hex.EncodeToString(sum[:])
}

// encodeVector lays floats out little-endian, 4 bytes each.
func encodeVector(v []float32) []byte {
	buf := make([]byte, 0, len(v)*4)
	for _, f := range v {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(f))
	}
	return buf
}

// decodeVector checks the blob against dims when dims is positive.
func decodeVector(data []byte, dims int) ([]float32, error) {
	if len(data) == 0 || len(data)%4 != 0 {
		return nil, fmt.Errorf("blob of %d bytes is not a float32 vector", len(data))
	}
	n := len(data) / 4
	if dims > 0 && n != dims {
		return nil, fmt.Errorf("vector has %d dims, want %d", n, dims)
	}
	vec := make([]float32, n)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return vec, nil
}
