package result

import "github.com/kailas-cloud/kitfinder/internal/domain/catalog"

// Result is a single semantic index hit: the catalog item's metadata plus its
// index id and similarity score.
type Result struct {
	id    string
	score float64
	item  catalog.Item
}

// New creates a search result.
func New(id string, score float64, item catalog.Item) Result {
	return Result{id: id, score: score, item: item}
}

// ID returns the index document identifier.
func (r *Result) ID() string { return r.id }

// Score returns the similarity score (higher is closer).
func (r *Result) Score() float64 { return r.score }

// Item returns the catalog metadata of the hit.
func (r *Result) Item() catalog.Item { return r.item }

// Items strips index metadata from results, keeping order.
func Items(results []Result) []catalog.Item {
	items := make([]catalog.Item, len(results))
	for i := range results {
		items[i] = results[i].item
	}
	return items
}
