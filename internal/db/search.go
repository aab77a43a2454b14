package db

// KNNQuery asks for the K nearest hashes of an index to Vector.
type KNNQuery struct {
	Index  string
	Vector []float32
	K      int
	// Return limits the hash fields sent back; empty returns all of them.
	Return []string
}

// KNNResult holds hits nearest first.
type KNNResult struct {
	Total int
	Hits  []Hit
}

// Hit is one matched hash. Distance is the raw metric value reported by
// the server.
type Hit struct {
	Key      string
	Distance float64
	Fields   map[string]string
}

// Similarity maps a cosine distance into [0, 1], 1 being identical.
func (h Hit) Similarity() float64 {
	return min(1, max(0, 1-h.Distance))
}
