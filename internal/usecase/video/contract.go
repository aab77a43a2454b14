package video

import "context"

// Finder looks up the top video for a search phrase.
// found is false when the search has no hits.
type Finder interface {
	FindTopResult(ctx context.Context, query string) (url string, found bool, err error)
}
