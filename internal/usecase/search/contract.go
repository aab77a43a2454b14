package search

import (
	"context"

	domcat "github.com/kailas-cloud/kitfinder/internal/domain/catalog"
	domvideo "github.com/kailas-cloud/kitfinder/internal/domain/video"
)

// Index retrieves catalog candidates by semantic similarity.
type Index interface {
	Query(ctx context.Context, text string, k int) ([]domcat.Item, error)
}

// VideoAugmenter attaches a video row to every item.
type VideoAugmenter interface {
	AttachAll(ctx context.Context, items []domcat.Item) ([]domvideo.DisplayRow, error)
}
