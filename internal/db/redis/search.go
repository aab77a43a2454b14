package redis

import (
	"cmp"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/kitfinder/internal/db"
)

const (
	// VectorField is the hash field holding the little-endian FLOAT32 embedding.
	VectorField = "__vector"
	scoreField  = "__vector_score"
)

// SearchKNN runs FT.SEARCH with a KNN clause and returns hits nearest first.
func (s *Store) SearchKNN(ctx context.Context, q db.KNNQuery) (db.KNNResult, error) {
	switch {
	case q.Index == "":
		return db.KNNResult{}, errors.New("index name is required")
	case len(q.Vector) == 0:
		return db.KNNResult{}, errors.New("query vector is required")
	case q.K <= 0:
		return db.KNNResult{}, errors.New("k must be positive")
	}

	args := []string{q.Index, fmt.Sprintf("*=>[KNN %d @%s $BLOB]", q.K, VectorField)}
	if len(q.Return) > 0 {
		args = append(args, "RETURN", strconv.Itoa(len(q.Return)+1))
		args = append(args, q.Return...)
		args = append(args, scoreField)
	}
	args = append(args,
		"LIMIT", "0", strconv.Itoa(q.K),
		"PARAMS", "2", "BLOB", encodeVector(q.Vector),
		"DIALECT", "2",
	)

	reply, err := s.do(ctx, s.b().Arbitrary("FT.SEARCH").Args(args...).Build()).ToArray()
	if err != nil {
		return db.KNNResult{}, &db.Error{Op: db.OpSearch, Key: q.Index, Err: err}
	}
	return decodeKNNReply(reply)
}

// decodeKNNReply reads [total, key1, [f, v, ...], key2, [...], ...].
func decodeKNNReply(reply []rueidis.RedisMessage) (db.KNNResult, error) {
	if len(reply) == 0 {
		return db.KNNResult{}, nil
	}
	total, err := reply[0].AsInt64()
	if err != nil {
		return db.KNNResult{}, fmt.Errorf("knn reply total: %w", err)
	}

	hits := make([]db.Hit, 0, (len(reply)-1)/2)
	for i := 1; i+1 < len(reply); i += 2 {
		key, err := reply[i].ToString()
		if err != nil {
			continue
		}
		pairs, err := reply[i+1].ToArray()
		if err != nil {
			continue
		}

		hit := db.Hit{Key: key, Distance: math.Inf(1), Fields: decodeFields(pairs)}
		if raw, ok := hit.Fields[scoreField]; ok {
			if d, err := strconv.ParseFloat(raw, 64); err == nil {
				hit.Distance = d
			}
			delete(hit.Fields, scoreField)
		}
		hits = append(hits, hit)
	}

	// The server does not promise order without SORTBY; ties keep reply order.
	slices.SortStableFunc(hits, func(a, b db.Hit) int {
		return cmp.Compare(a.Distance, b.Distance)
	})
	return db.KNNResult{Total: int(total), Hits: hits}, nil
}

func decodeFields(pairs []rueidis.RedisMessage) map[string]string {
	fields := make(map[string]string, len(pairs)/2)
	for j := 0; j+1 < len(pairs); j += 2 {
		name, err := pairs[j].ToString()
		if err != nil {
			continue
		}
		if value, err := pairs[j+1].ToString(); err == nil {
			fields[name] = value
		}
	}
	return fields
}

func encodeVector(v []float32) string {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(f))
	}
	return string(buf)
}
