package redis

import (
	"context"
	"encoding/binary"
	"math"
	"testing"

	"github.com/redis/rueidis/mock"
	"go.uber.org/mock/gomock"

	"github.com/kailas-cloud/kitfinder/internal/db"
)

func TestSearchKNN_NearestFirst(t *testing.T) {
	s, c := newMockStore(t)
	c.EXPECT().Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
		return cmd[0] == "FT.SEARCH" && cmd[1] == "idx" && cmd[2] == "*=>[KNN 3 @__vector $BLOB]"
	})).Return(mock.Result(mock.RedisArray(
		mock.RedisInt64(3),
		mock.RedisString("kitfinder:kits:1"),
		mock.RedisArray(mock.RedisString("__vector_score"), mock.RedisString("0.3"), mock.RedisString("name"), mock.RedisString("far")),
		mock.RedisString("kitfinder:kits:0"),
		mock.RedisArray(mock.RedisString("__vector_score"), mock.RedisString("0.1"), mock.RedisString("name"), mock.RedisString("near")),
		mock.RedisString("kitfinder:kits:2"),
		mock.RedisArray(mock.RedisString("name"), mock.RedisString("unscored")),
	)))

	res, err := s.SearchKNN(context.Background(), db.KNNQuery{
		Index: "idx", Vector: []float32{0.1, 0.2}, K: 3, Return: []string{"name"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Total != 3 || len(res.Hits) != 3 {
		t.Fatalf("expected 3 hits, got total=%d len=%d", res.Total, len(res.Hits))
	}

	wantOrder := []string{"near", "far", "unscored"}
	for i, want := range wantOrder {
		if got := res.Hits[i].Fields["name"]; got != want {
			t.Errorf("hit %d = %q, want %q", i, got, want)
		}
	}
	if d := res.Hits[0].Distance; d != 0.1 {
		t.Errorf("distance = %v, want 0.1", d)
	}
	if !math.IsInf(res.Hits[2].Distance, 1) {
		t.Errorf("unscored hit should sort last, distance = %v", res.Hits[2].Distance)
	}
	if _, ok := res.Hits[0].Fields["__vector_score"]; ok {
		t.Error("score field should be stripped from fields")
	}
}

func TestSearchKNN_ReturnAddsScore(t *testing.T) {
	s, c := newMockStore(t)
	c.EXPECT().Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
		for i := range cmd {
			if cmd[i] == "RETURN" {
				return cmd[i+1] == "3" && cmd[i+2] == "name" && cmd[i+3] == "price" && cmd[i+4] == "__vector_score"
			}
		}
		return false
	})).Return(mock.Result(mock.RedisArray(mock.RedisInt64(0))))

	res, err := s.SearchKNN(context.Background(), db.KNNQuery{
		Index: "idx", Vector: []float32{0.1}, K: 1, Return: []string{"name", "price"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Hits) != 0 {
		t.Errorf("expected no hits, got %d", len(res.Hits))
	}
}

func TestSearchKNN_Error(t *testing.T) {
	s, c := newMockStore(t)
	c.EXPECT().Do(gomock.Any(), gomock.Any()).Return(mock.ErrorResult(context.DeadlineExceeded))

	_, err := s.SearchKNN(context.Background(), db.KNNQuery{Index: "idx", Vector: []float32{0.1}, K: 10})
	if dbErr := asDBError(t, err); dbErr.Op != db.OpSearch || dbErr.Key != "idx" {
		t.Errorf("unexpected error %+v", dbErr)
	}
}

func TestSearchKNN_Validation(t *testing.T) {
	s := &Store{}
	ctx := context.Background()

	for name, q := range map[string]db.KNNQuery{
		"no index":  {Vector: []float32{0.1}, K: 10},
		"no vector": {Index: "idx", K: 10},
		"zero k":    {Index: "idx", Vector: []float32{0.1}},
	} {
		if _, err := s.SearchKNN(ctx, q); err == nil {
			t.Errorf("%s: expected validation error", name)
		}
	}
}

func TestEncodeVector(t *testing.T) {
	b := encodeVector([]float32{1.0, -2.5})
	if len(b) != 8 {
		t.Fatalf("expected 8 bytes, got %d", len(b))
	}
	if got := math.Float32frombits(binary.LittleEndian.Uint32([]byte(b[4:]))); got != -2.5 {
		t.Errorf("second component = %v, want -2.5", got)
	}
}
