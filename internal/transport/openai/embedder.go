// Package openai is the embedding provider adapter for the OpenAI
// embeddings API and compatible gateways.
package openai

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/kitfinder/internal/domain"
	"github.com/kailas-cloud/kitfinder/internal/metrics"
)

// Config holds the embedding provider settings.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	// Dimensions is sent with every request when positive. Leave zero for
	// models with a fixed output size such as text-embedding-ada-002.
	Dimensions int
	// ExpectDimensions rejects vectors of any other length when positive.
	ExpectDimensions int
	User             string
	Provider         string
	Logger           *zap.Logger
}

// Embedder calls POST /embeddings. One call carries every input of a batch.
type Embedder struct {
	client   *openai.Client
	model    openai.EmbeddingModel
	request  int
	expect   int
	user     string
	provider string
	logger   *zap.Logger
}

// NewEmbedder creates the provider client.
func NewEmbedder(cfg *Config) *Embedder {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Embedder{
		client:   openai.NewClientWithConfig(clientCfg),
		model:    openai.EmbeddingModel(cfg.Model),
		request:  cfg.Dimensions,
		expect:   cfg.ExpectDimensions,
		user:     cfg.User,
		provider: cfg.Provider,
		logger:   logger,
	}
}

// Embed vectorizes one text.
func (e *Embedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	res, err := e.BatchEmbed(ctx, []string{text})
	if err != nil {
		return domain.EmbeddingResult{}, err
	}
	return domain.EmbeddingResult{
		Embedding:    res.Embeddings[0],
		PromptTokens: res.PromptTokens,
		TotalTokens:  res.TotalTokens,
	}, nil
}

// BatchEmbed vectorizes texts in one API call. Vectors come back in input
// order whatever order the response lists them in.
func (e *Embedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	if len(texts) == 0 {
		return domain.BatchEmbeddingResult{}, nil
	}

	req := openai.EmbeddingRequest{
		Input:          texts,
		Model:          e.model,
		EncodingFormat: openai.EmbeddingEncodingFormatFloat,
		User:           e.user,
	}
	if e.request > 0 {
		req.Dimensions = e.request
	}

	start := time.Now()
	resp, err := e.client.CreateEmbeddings(ctx, req)
	elapsed := time.Since(start)
	if err != nil {
		kind, wrapped := classify(err)
		e.failed(kind)
		return domain.BatchEmbeddingResult{}, wrapped
	}

	embeddings, kind, err := e.arrange(resp.Data, len(texts))
	if err != nil {
		e.failed(kind)
		return domain.BatchEmbeddingResult{}, err
	}

	e.succeeded(len(texts), elapsed, resp.Usage)
	e.logger.Debug("Embeddings created",
		zap.Int("inputs", len(texts)),
		zap.Int("total_tokens", resp.Usage.TotalTokens),
		zap.Duration("duration", elapsed),
	)
	return domain.BatchEmbeddingResult{
		Embeddings:   embeddings,
		PromptTokens: resp.Usage.PromptTokens,
		TotalTokens:  resp.Usage.TotalTokens,
	}, nil
}

// HealthCheck lists models, which costs no tokens.
func (e *Embedder) HealthCheck(ctx context.Context) error {
	if _, err := e.client.ListModels(ctx); err != nil {
		_, wrapped := classify(err)
		return fmt.Errorf("list models: %w", wrapped)
	}
	return nil
}

// arrange places each vector at its input index and checks that every
// input got exactly one vector of the expected size.
func (e *Embedder) arrange(data []openai.Embedding, inputs int) ([][]float32, string, error) {
	if len(data) != inputs {
		return nil, "count_mismatch", fmt.Errorf("%d inputs, %d embeddings: %w",
			inputs, len(data), domain.ErrEmbeddingProviderError)
	}
	out := make([][]float32, inputs)
	for _, d := range data {
		if d.Index < 0 || d.Index >= inputs || out[d.Index] != nil {
			return nil, "bad_index", fmt.Errorf("embedding index %d out of place: %w",
				d.Index, domain.ErrEmbeddingProviderError)
		}
		if e.expect > 0 && len(d.Embedding) != e.expect {
			return nil, "dimension_mismatch", fmt.Errorf("embedding %d has %d dims, want %d: %w",
				d.Index, len(d.Embedding), e.expect, domain.ErrEmbeddingProviderError)
		}
		out[d.Index] = d.Embedding
	}
	return out, "", nil
}

func (e *Embedder) failed(kind string) {
	model := string(e.model)
	metrics.EmbeddingRequestsTotal.WithLabelValues(e.provider, model, "error").Inc()
	metrics.EmbeddingErrorsTotal.WithLabelValues(e.provider, model, kind).Inc()
}

func (e *Embedder) succeeded(inputs int, elapsed time.Duration, usage openai.Usage) {
	model := string(e.model)
	metrics.EmbeddingRequestsTotal.WithLabelValues(e.provider, model, "success").Inc()
	metrics.EmbeddingRequestDuration.WithLabelValues(e.provider, model).Observe(elapsed.Seconds())
	metrics.EmbeddingInputsPerCall.WithLabelValues(e.provider, model).Observe(float64(inputs))
	if usage.TotalTokens > 0 {
		metrics.EmbeddingTokensTotal.WithLabelValues(e.provider, model, "prompt").Add(float64(usage.PromptTokens))
		metrics.EmbeddingTokensTotal.WithLabelValues(e.provider, model, "total").Add(float64(usage.TotalTokens))
	}
}
