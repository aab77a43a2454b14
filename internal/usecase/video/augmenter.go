// Package video pairs filtered catalog items with demonstration video links.
package video

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/kitfinder/internal/domain"
	domcat "github.com/kailas-cloud/kitfinder/internal/domain/catalog"
	domvideo "github.com/kailas-cloud/kitfinder/internal/domain/video"
	logpkg "github.com/kailas-cloud/kitfinder/internal/logger"
	"github.com/kailas-cloud/kitfinder/internal/metrics"
)

// Augmenter builds one display row per item.
type Augmenter struct {
	finder Finder
}

// NewAugmenter creates an Augmenter backed by finder.
func NewAugmenter(finder Finder) *Augmenter {
	return &Augmenter{finder: finder}
}

// Attach returns the display row for item. Items without a name get the
// placeholder row without a lookup. A search without hits, or a failed
// search, links to the not-found marker. Only a cancelled or expired ctx
// fails the call.
func (a *Augmenter) Attach(ctx context.Context, item domcat.Item) (domvideo.DisplayRow, error) {
	name := item.Name()
	if strings.TrimSpace(name) == "" {
		return domvideo.Placeholder(), nil
	}

	url, found, err := a.finder.FindTopResult(ctx, name)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return domvideo.DisplayRow{}, fmt.Errorf("video for %q: %w", name, ctxErr)
		}
		if !errors.Is(err, domain.ErrVideoSearchUnavailable) {
			err = fmt.Errorf("%w: %w", domain.ErrVideoSearchUnavailable, err)
		}
		metrics.VideoFallbacksTotal.Inc()
		logpkg.FromContext(ctx).Warn("Video search failed, showing not-found link",
			zap.String("keyboard", name),
			zap.Error(err),
		)
		found = false
	}
	if !found {
		url = domvideo.NotFoundURL
	}

	return domvideo.NewRow(name, url), nil
}

// AttachAll maps items to rows in order. It stops at the first error, which
// only happens once ctx is done.
func (a *Augmenter) AttachAll(ctx context.Context, items []domcat.Item) ([]domvideo.DisplayRow, error) {
	rows := make([]domvideo.DisplayRow, 0, len(items))
	for i := range items {
		row, err := a.Attach(ctx, items[i])
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}
