// Package youtube finds demonstration videos for catalog items through the
// YouTube Data API.
package youtube

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"
	yt "google.golang.org/api/youtube/v3"

	"github.com/kailas-cloud/kitfinder/internal/domain"
	"github.com/kailas-cloud/kitfinder/internal/metrics"
)

// WatchURLPrefix is prepended to a video id to form a playable link.
const WatchURLPrefix = "https://www.youtube.com/watch?v="

const breakerName = "youtube-search"

// BreakerConfig tunes the circuit breaker around the search API.
type BreakerConfig struct {
	// MaxRequests allowed through while half-open.
	MaxRequests uint32
	// Interval resets the failure counts while closed. Zero never resets.
	Interval time.Duration
	// Timeout is how long the breaker stays open before probing.
	Timeout time.Duration
	// ConsecutiveFailures trips the breaker.
	ConsecutiveFailures uint32
}

// Config holds the video search settings.
type Config struct {
	// APIKey for the YouTube Data API. Empty disables lookups.
	APIKey string
	// BaseURL overrides the API endpoint.
	BaseURL string
	// RequestsPerSecond throttles outgoing searches to protect the daily quota.
	RequestsPerSecond float64
	Burst             int
	Breaker           BreakerConfig
	HTTPClient        *http.Client
	Logger            *zap.Logger
}

// Client looks up the top video result for a search phrase.
type Client struct {
	service *yt.Service
	limiter *rate.Limiter
	cb      *gobreaker.CircuitBreaker[string]
	logger  *zap.Logger
}

// NewClient creates a YouTube search client. Without an API key the client is
// disabled and reports every lookup as not found.
func NewClient(ctx context.Context, cfg *Config) (*Client, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &Client{logger: logger}
	if cfg.APIKey == "" {
		logger.Warn("YouTube API key not configured, video lookups disabled")
		return c, nil
	}

	opts := []option.ClientOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithEndpoint(cfg.BaseURL))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}

	svc, err := yt.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create youtube service: %w", err)
	}
	c.service = svc

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	c.limiter = rate.NewLimiter(limit, max(cfg.Burst, 1))
	c.cb = newBreaker(cfg.Breaker, logger)

	return c, nil
}

func newBreaker(cfg BreakerConfig, logger *zap.Logger) *gobreaker.CircuitBreaker[string] {
	threshold := cfg.ConsecutiveFailures
	if threshold == 0 {
		threshold = 5
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = time.Minute
	}

	metrics.VideoBreakerState.Set(stateToFloat(gobreaker.StateClosed))

	return gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: max(cfg.MaxRequests, 1),
		Interval:    cfg.Interval,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		// A caller giving up is not a sign of an unhealthy API.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			metrics.VideoBreakerState.Set(stateToFloat(to))
		},
	})
}

// Enabled reports whether lookups reach the API.
func (c *Client) Enabled() bool { return c.service != nil }

// FindTopResult returns the watch URL of the most relevant video for query.
// found is false when the search has no video hits; that is not an error.
// Transport failures, quota errors and an open breaker wrap
// domain.ErrVideoSearchUnavailable.
func (c *Client) FindTopResult(ctx context.Context, query string) (string, bool, error) {
	if !c.Enabled() {
		metrics.VideoLookupsTotal.WithLabelValues("disabled").Inc()
		return "", false, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		metrics.VideoLookupsTotal.WithLabelValues("error").Inc()
		return "", false, fmt.Errorf("video search rate limit: %v: %w", err, domain.ErrVideoSearchUnavailable)
	}

	videoID, err := c.cb.Execute(func() (string, error) {
		return c.search(ctx, query)
	})
	if err != nil {
		metrics.VideoLookupsTotal.WithLabelValues("error").Inc()
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			c.logger.Warn("Video search rejected by circuit breaker", zap.String("query", query))
			return "", false, fmt.Errorf("video search %q: %v: %w", query, err, domain.ErrVideoSearchUnavailable)
		}
		return "", false, fmt.Errorf("video search %q: %w", query, err)
	}

	if videoID == "" {
		metrics.VideoLookupsTotal.WithLabelValues("not_found").Inc()
		return "", false, nil
	}

	metrics.VideoLookupsTotal.WithLabelValues("found").Inc()
	return WatchURLPrefix + videoID, true, nil
}

// search returns the id of the first video hit, or "" when there is none.
func (c *Client) search(ctx context.Context, query string) (string, error) {
	resp, err := c.service.Search.List([]string{"snippet"}).
		Q(query).
		Type("video").
		MaxResults(1).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("search.list: %v: %w", err, domain.ErrVideoSearchUnavailable)
	}

	for _, item := range resp.Items {
		if item.Id != nil && item.Id.VideoId != "" {
			return item.Id.VideoId, nil
		}
	}
	return "", nil
}

// HealthCheck reports the breaker state. It does not spend API quota.
func (c *Client) HealthCheck(_ context.Context) error {
	if !c.Enabled() {
		return nil
	}
	if c.cb.State() == gobreaker.StateOpen {
		return fmt.Errorf("circuit breaker open: %w", domain.ErrVideoSearchUnavailable)
	}
	return nil
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
