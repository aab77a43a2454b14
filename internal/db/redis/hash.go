package redis

import (
	"context"
	"fmt"
	"slices"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/kitfinder/internal/db"
)

const (
	// pipelineSize caps commands per DoMulti round-trip.
	pipelineSize = 256
	// scanCount is the SCAN COUNT hint; each page is unlinked before the next.
	scanCount = 500
)

// HSetMulti writes hashes in pipelined batches. Fields are sent in name order.
// It stops at the first failed batch; earlier batches stay written.
func (s *Store) HSetMulti(ctx context.Context, items []db.HashSetItem) error {
	for start := 0; start < len(items); start += pipelineSize {
		batch := items[start:min(start+pipelineSize, len(items))]

		cmds := make([]rueidis.Completed, 0, len(batch))
		for _, item := range batch {
			cmds = append(cmds, s.hsetCmd(item))
		}
		for i, res := range s.client.DoMulti(ctx, cmds...) {
			if err := res.Error(); err != nil {
				return &db.Error{Op: db.OpHSet, Key: batch[i].Key, Err: err}
			}
		}
	}
	return nil
}

func (s *Store) hsetCmd(item db.HashSetItem) rueidis.Completed {
	names := make([]string, 0, len(item.Fields))
	for name := range item.Fields {
		names = append(names, name)
	}
	slices.Sort(names)

	cmd := s.b().Hset().Key(item.Key).FieldValue()
	for _, name := range names {
		cmd = cmd.FieldValue(name, item.Fields[name])
	}
	return cmd.Build()
}

// DeletePrefix unlinks every key starting with prefix, one SCAN page at a time.
func (s *Store) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	if prefix == "" {
		return 0, fmt.Errorf("refusing to delete an empty prefix")
	}

	var (
		cursor  uint64
		deleted int
	)
	for {
		page, err := s.do(ctx, s.b().Scan().Cursor(cursor).Match(prefix+"*").Count(scanCount).Build()).AsScanEntry()
		if err != nil {
			return deleted, &db.Error{Op: db.OpScan, Key: prefix, Err: err}
		}
		if len(page.Elements) > 0 {
			n, err := s.do(ctx, s.b().Unlink().Key(page.Elements...).Build()).AsInt64()
			if err != nil {
				return deleted, &db.Error{Op: db.OpUnlink, Key: prefix, Err: err}
			}
			deleted += int(n)
		}
		if cursor = page.Cursor; cursor == 0 {
			return deleted, nil
		}
	}
}
