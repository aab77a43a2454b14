// Package search runs the kit search pipeline: preferences to query, query to
// candidates, candidates through the filter ladder, survivors to video rows.
package search

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	domcat "github.com/kailas-cloud/kitfinder/internal/domain/catalog"
	"github.com/kailas-cloud/kitfinder/internal/domain/preference"
	"github.com/kailas-cloud/kitfinder/internal/domain/search/filter"
	"github.com/kailas-cloud/kitfinder/internal/domain/search/query"
	domvideo "github.com/kailas-cloud/kitfinder/internal/domain/video"
	logpkg "github.com/kailas-cloud/kitfinder/internal/logger"
	"github.com/kailas-cloud/kitfinder/internal/metrics"
)

// Response is the outcome of one search.
type Response struct {
	Query   string
	Results []domcat.Item
	Videos  []domvideo.DisplayRow
}

// Service orchestrates a search request.
type Service struct {
	index  Index
	videos VideoAugmenter
}

// New creates a search service.
func New(index Index, videos VideoAugmenter) *Service {
	return &Service{index: index, videos: videos}
}

// Search runs the pipeline for prefs. Index failures are returned as is,
// without retry. A result count of 0 returns the query with empty tables and
// does not touch the index.
func (s *Service) Search(ctx context.Context, prefs preference.Preferences) (Response, error) {
	start := time.Now()
	log := logpkg.FromContext(ctx)

	q := query.ForPreferences(prefs)
	resp := Response{
		Query:   q,
		Results: []domcat.Item{},
		Videos:  []domvideo.DisplayRow{},
	}

	n := prefs.ResultCount()
	if n == 0 {
		metrics.SearchRequestsTotal.WithLabelValues("empty").Inc()
		return resp, nil
	}

	candidates, err := s.index.Query(ctx, q, n)
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues("error").Inc()
		return Response{}, err
	}

	rule := filter.Select(prefs.Budget(), prefs.Mounting())
	kept := filter.Apply(candidates, prefs.Budget(), prefs.Mounting(), n)

	videos, err := s.videos.AttachAll(ctx, kept)
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues("error").Inc()
		return Response{}, fmt.Errorf("attach videos: %w", err)
	}

	resp.Results = kept
	resp.Videos = videos

	elapsed := time.Since(start)
	metrics.SearchRequestsTotal.WithLabelValues("ok").Inc()
	metrics.SearchCandidatesTotal.Add(float64(len(candidates)))
	metrics.SearchKeptTotal.WithLabelValues(rule.Name).Add(float64(len(kept)))
	metrics.SearchDuration.Observe(elapsed.Seconds())

	log.Info("search",
		zap.String("query", q),
		zap.Int("n_results", n),
		zap.String("budget", prefs.Budget().String()),
		zap.String("mounting_style", prefs.Mounting().String()),
		zap.String("filter_rule", rule.Name),
		zap.Int("candidates", len(candidates)),
		zap.Int("kept", len(kept)),
		zap.Duration("duration", elapsed),
	)

	return resp, nil
}
