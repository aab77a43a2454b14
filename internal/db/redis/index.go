package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/kitfinder/internal/db"
)

// Redis says "Unknown index name", Valkey "Index ... not found".
var indexMissing = []string{"unknown index name", "not found"}

// CreateIndex runs FT.CREATE for schema. An existing index yields db.ErrIndexExists.
func (s *Store) CreateIndex(ctx context.Context, schema *db.Schema) error {
	args, err := schema.Args()
	if err != nil {
		return fmt.Errorf("index schema: %w", err)
	}

	err = s.do(ctx, s.b().Arbitrary("FT.CREATE").Args(args...).Build()).Error()
	switch {
	case err == nil:
		return nil
	case serverErrorContains(err, "already exists"):
		return db.ErrIndexExists
	default:
		return &db.Error{Op: db.OpCreateIndex, Key: schema.Name, Err: err}
	}
}

// DropIndex removes the index definition; indexed hashes are kept.
func (s *Store) DropIndex(ctx context.Context, name string) error {
	err := s.do(ctx, s.b().Arbitrary("FT.DROPINDEX").Args(name).Build()).Error()
	switch {
	case err == nil:
		return nil
	case serverErrorContains(err, indexMissing...):
		return db.ErrIndexNotFound
	default:
		return &db.Error{Op: db.OpDropIndex, Key: name, Err: err}
	}
}

// IndexInfo reads FT.INFO.
func (s *Store) IndexInfo(ctx context.Context, name string) (db.IndexInfo, error) {
	reply, err := s.do(ctx, s.b().Arbitrary("FT.INFO").Args(name).Build()).AsMap()
	if err != nil {
		if serverErrorContains(err, indexMissing...) {
			return db.IndexInfo{}, db.ErrIndexNotFound
		}
		return db.IndexInfo{}, &db.Error{Op: db.OpIndexInfo, Key: name, Err: err}
	}

	info := db.IndexInfo{Name: name}
	raw, ok := reply["num_docs"]
	if !ok {
		return db.IndexInfo{}, &db.Error{Op: db.OpIndexInfo, Key: name, Err: errors.New("reply has no num_docs")}
	}
	if info.NumDocs, err = messageInt(raw); err != nil {
		return db.IndexInfo{}, &db.Error{Op: db.OpIndexInfo, Key: name, Err: fmt.Errorf("num_docs: %w", err)}
	}
	return info, nil
}

// messageInt reads an integer that servers send as int, bulk string or float.
func messageInt(m rueidis.RedisMessage) (int, error) {
	if n, err := m.AsInt64(); err == nil {
		return int(n), nil
	}
	str, err := m.ToString()
	if err != nil {
		return 0, err
	}
	f, err := strconv.ParseFloat(str, 64)
	if err != nil {
		return 0, err
	}
	return int(f), nil
}
