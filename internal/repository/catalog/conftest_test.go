package catalog

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/kailas-cloud/kitfinder/internal/db"
	domcat "github.com/kailas-cloud/kitfinder/internal/domain/catalog"
)

const testVectorDim = 4

// mockStore implements the consumer interface for tests.
type mockStore struct {
	hsetMultiFn    func(ctx context.Context, items []db.HashSetItem) error
	deletePrefixFn func(ctx context.Context, prefix string) (int, error)
	createIndexFn  func(ctx context.Context, schema *db.Schema) error
	dropIndexFn    func(ctx context.Context, name string) error
	indexInfoFn    func(ctx context.Context, name string) (db.IndexInfo, error)
	searchKNNFn    func(ctx context.Context, q db.KNNQuery) (db.KNNResult, error)
}

func (m *mockStore) HSetMulti(ctx context.Context, items []db.HashSetItem) error {
	if m.hsetMultiFn != nil {
		return m.hsetMultiFn(ctx, items)
	}
	return nil
}

func (m *mockStore) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	if m.deletePrefixFn != nil {
		return m.deletePrefixFn(ctx, prefix)
	}
	return 0, nil
}

func (m *mockStore) CreateIndex(ctx context.Context, schema *db.Schema) error {
	if m.createIndexFn != nil {
		return m.createIndexFn(ctx, schema)
	}
	return nil
}

func (m *mockStore) DropIndex(ctx context.Context, name string) error {
	if m.dropIndexFn != nil {
		return m.dropIndexFn(ctx, name)
	}
	return nil
}

// IndexInfo defaults to a missing index.
func (m *mockStore) IndexInfo(ctx context.Context, name string) (db.IndexInfo, error) {
	if m.indexInfoFn != nil {
		return m.indexInfoFn(ctx, name)
	}
	return db.IndexInfo{}, db.ErrIndexNotFound
}

func (m *mockStore) SearchKNN(ctx context.Context, q db.KNNQuery) (db.KNNResult, error) {
	if m.searchKNNFn != nil {
		return m.searchKNNFn(ctx, q)
	}
	return db.KNNResult{}, nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	return New(ms, "kits", testVectorDim), ms
}

func testEntry(id, name, mounting string, price int64) domcat.Entry {
	return domcat.Entry{
		ID:     id,
		Item:   domcat.NewItem(name, "60%", mounting, decimal.NewFromInt(price), "hotswap", "desc", "black"),
		Vector: []float32{0.1, 0.2, 0.3, 0.4},
	}
}
