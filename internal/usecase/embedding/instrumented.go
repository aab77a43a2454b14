// Package embedding wraps the embedding provider with token accounting:
// a spend guard in front of the OpenAI API and per-request usage reporting.
package embedding

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/kitfinder/internal/domain"
	"github.com/kailas-cloud/kitfinder/internal/metrics"
)

// DefaultMaxAPIBatchSize caps the number of inputs sent in one API request.
const DefaultMaxAPIBatchSize = 256

// BudgetChecker is the local interface for budget enforcement.
type BudgetChecker interface {
	Check(ctx context.Context) error
	Record(tokens int64)
	RemainingDaily() int64
	RemainingMonthly() int64
}

// InstrumentedEmbedder is the outermost embedder. Every call it forwards is
// admitted by the budget first, and its tokens are charged to the budget and
// to the request usage in ctx. Transport metrics live in transport/openai.
type InstrumentedEmbedder struct {
	inner        domain.Embedder
	provider     string
	budget       BudgetChecker
	maxBatchSize int
	log          *zap.Logger
}

// NewInstrumentedEmbedder wraps inner. A nil budget disables enforcement.
func NewInstrumentedEmbedder(
	inner domain.Embedder, provider, model string,
	budget BudgetChecker, logger *zap.Logger,
) *InstrumentedEmbedder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InstrumentedEmbedder{
		inner:        inner,
		provider:     provider,
		budget:       budget,
		maxBatchSize: DefaultMaxAPIBatchSize,
		log:          logger.With(zap.String("provider", provider), zap.String("model", model)),
	}
}

// WithMaxBatchSize overrides the per-request input cap.
func (p *InstrumentedEmbedder) WithMaxBatchSize(n int) *InstrumentedEmbedder {
	if n > 0 {
		p.maxBatchSize = n
	}
	return p
}

// Embed vectorizes a single text.
func (p *InstrumentedEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	var res domain.EmbeddingResult
	err := p.guarded(ctx, 1, func() (int, error) {
		var err error
		res, err = p.inner.Embed(ctx, text)
		return res.TotalTokens, err
	})
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}
	return res, nil
}

// BatchEmbed sends texts in chunks of at most the max batch size. Each chunk
// is admitted separately, so a budget spent mid-batch stops the rest.
func (p *InstrumentedEmbedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	if len(texts) == 0 {
		return domain.BatchEmbeddingResult{}, nil
	}

	out := domain.BatchEmbeddingResult{Embeddings: make([][]float32, 0, len(texts))}
	for lo := 0; lo < len(texts); lo += p.maxBatchSize {
		chunk := texts[lo:min(lo+p.maxBatchSize, len(texts))]

		var res domain.BatchEmbeddingResult
		err := p.guarded(ctx, len(chunk), func() (int, error) {
			var err error
			res, err = p.batch(ctx, chunk)
			return res.TotalTokens, err
		})
		if err != nil {
			return domain.BatchEmbeddingResult{}, fmt.Errorf("batch embed [%d:%d]: %w", lo, lo+len(chunk), err)
		}

		out.Embeddings = append(out.Embeddings, res.Embeddings...)
		out.PromptTokens += res.PromptTokens
		out.TotalTokens += res.TotalTokens
	}
	return out, nil
}

// HealthCheck reports the inner embedder's health.
func (p *InstrumentedEmbedder) HealthCheck(ctx context.Context) error {
	hc, ok := p.inner.(domain.HealthChecker)
	if !ok {
		return nil
	}
	if err := hc.HealthCheck(ctx); err != nil {
		return fmt.Errorf("embedding health check: %w", err)
	}
	return nil
}

// guarded runs one upstream call of the given number of inputs.
func (p *InstrumentedEmbedder) guarded(ctx context.Context, inputs int, call func() (int, error)) error {
	if p.budget != nil {
		if err := p.budget.Check(ctx); err != nil {
			p.log.Warn("Embedding call refused by budget", zap.Int("inputs", inputs), zap.Error(err))
			return err
		}
	}

	start := time.Now()
	tokens, err := call()
	if err != nil {
		p.log.Error("Embedding call failed",
			zap.Int("inputs", inputs),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
		return err
	}

	p.charge(ctx, tokens)
	p.log.Debug("Embedding call completed",
		zap.Int("inputs", inputs),
		zap.Int("total_tokens", tokens),
		zap.Duration("duration", time.Since(start)),
	)
	return nil
}

func (p *InstrumentedEmbedder) batch(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	if be, ok := p.inner.(domain.BatchEmbedder); ok {
		return be.BatchEmbed(ctx, texts)
	}
	return domain.BatchFallback(ctx, p.inner, texts)
}

// charge books tokens against the request usage and the budget. A call
// served from cache costs 0 tokens but still counts as a call.
func (p *InstrumentedEmbedder) charge(ctx context.Context, tokens int) {
	domain.UsageFromContext(ctx).Record(tokens)

	if p.budget == nil || tokens <= 0 {
		return
	}
	p.budget.Record(int64(tokens))
	metrics.EmbeddingBudgetTokensRemaining.WithLabelValues(p.provider, "daily").
		Set(float64(p.budget.RemainingDaily()))
	metrics.EmbeddingBudgetTokensRemaining.WithLabelValues(p.provider, "monthly").
		Set(float64(p.budget.RemainingMonthly()))
}
