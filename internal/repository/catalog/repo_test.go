package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/kailas-cloud/kitfinder/internal/db"
	"github.com/kailas-cloud/kitfinder/internal/domain"
	domcat "github.com/kailas-cloud/kitfinder/internal/domain/catalog"
)

// --- EnsureIndex ---

func TestEnsureIndex_Creates(t *testing.T) {
	repo, ms := newTestRepo(t)

	var created *db.Schema
	ms.createIndexFn = func(_ context.Context, schema *db.Schema) error {
		created = schema
		return nil
	}

	ok, err := repo.EnsureIndex(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Error("expected index to be created")
	}
	if created.Name != "kitfinder:kits:idx" {
		t.Errorf("unexpected index name: %s", created.Name)
	}
	if len(created.Prefixes) != 1 || created.Prefixes[0] != "kitfinder:kits:" {
		t.Errorf("unexpected prefixes: %v", created.Prefixes)
	}
	mounting := created.Fields[1]
	if mounting.Name != "mounting_style" || mounting.Kind != db.FieldTag || !mounting.Tag.CaseSensitive {
		t.Errorf("unexpected mounting field: %+v", mounting)
	}
	vec := created.Fields[len(created.Fields)-1]
	if vec.Name != "__vector" || vec.Vector.Dim != testVectorDim || vec.Vector.Algorithm != db.VectorHNSW {
		t.Errorf("unexpected vector field: %+v", vec)
	}
	if vec.Vector.M != 16 || vec.Vector.EFConstruction != 200 {
		t.Errorf("unexpected HNSW tuning: %+v", vec.Vector)
	}
	if err := created.Validate(); err != nil {
		t.Errorf("schema must be valid: %v", err)
	}
}

func TestEnsureIndex_AlreadyThere(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.indexInfoFn = func(_ context.Context, name string) (db.IndexInfo, error) {
		return db.IndexInfo{Name: name, NumDocs: 22}, nil
	}
	ms.createIndexFn = func(_ context.Context, _ *db.Schema) error {
		t.Fatal("CreateIndex must not be called")
		return nil
	}

	ok, err := repo.EnsureIndex(context.Background())
	if err != nil || ok {
		t.Fatalf("expected (false, nil), got (%v, %v)", ok, err)
	}
}

func TestEnsureIndex_InfoError(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.indexInfoFn = func(_ context.Context, _ string) (db.IndexInfo, error) {
		return db.IndexInfo{}, &db.Error{Op: db.OpIndexInfo, Err: errors.New("LOADING")}
	}

	if _, err := repo.EnsureIndex(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestEnsureIndex_RaceOnCreate(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.createIndexFn = func(_ context.Context, _ *db.Schema) error { return db.ErrIndexExists }

	if _, err := repo.EnsureIndex(context.Background()); err != nil {
		t.Fatalf("ErrIndexExists must be tolerated, got %v", err)
	}
}

func TestEnsureIndex_FlatAlgorithm(t *testing.T) {
	repo, ms := newTestRepo(t)
	repo.WithIndex(IndexConfig{Algorithm: db.VectorFlat})

	ms.createIndexFn = func(_ context.Context, schema *db.Schema) error {
		v := schema.Fields[len(schema.Fields)-1].Vector
		if v.Algorithm != db.VectorFlat || v.M != 0 {
			t.Errorf("vector = %+v, want untuned FLAT", v)
		}
		return nil
	}
	if _, err := repo.EnsureIndex(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// --- Drop ---

func TestDrop_RemovesIndexAndItems(t *testing.T) {
	repo, ms := newTestRepo(t)

	ms.dropIndexFn = func(_ context.Context, _ string) error { return db.ErrIndexNotFound }
	var prefix string
	ms.deletePrefixFn = func(_ context.Context, p string) (int, error) {
		prefix = p
		return 22, nil
	}

	if err := repo.Drop(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if prefix != "kitfinder:kits:" {
		t.Errorf("deleted prefix = %q", prefix)
	}
}

func TestDrop_IndexError(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.dropIndexFn = func(_ context.Context, _ string) error { return errors.New("connection lost") }
	ms.deletePrefixFn = func(_ context.Context, _ string) (int, error) {
		t.Fatal("items must not be deleted when the index drop failed")
		return 0, nil
	}

	if err := repo.Drop(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestDrop_DeleteError(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.deletePrefixFn = func(_ context.Context, _ string) (int, error) {
		return 3, &db.Error{Op: db.OpUnlink, Err: errors.New("READONLY")}
	}

	if err := repo.Drop(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

// --- Upsert ---

func TestUpsert_WritesHashes(t *testing.T) {
	repo, ms := newTestRepo(t)

	var written []db.HashSetItem
	ms.hsetMultiFn = func(_ context.Context, items []db.HashSetItem) error {
		written = items
		return nil
	}

	err := repo.Upsert(context.Background(), []domcat.Entry{
		testEntry("0", "Tofu60", "Tray mount", 129),
		testEntry("1", "Bakeneko", "", 60),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(written) != 2 {
		t.Fatalf("expected 2 hashes, got %d", len(written))
	}
	if written[0].Key != "kitfinder:kits:0" {
		t.Errorf("unexpected key: %s", written[0].Key)
	}
	f := written[0].Fields
	if f["name"] != "Tofu60" || f["price"] != "129" || f["mounting_style"] != "Tray mount" {
		t.Errorf("unexpected fields: %v", f)
	}
	if f["__content"] != "Tofu60 desc 60% hotswap" {
		t.Errorf("unexpected content: %q", f["__content"])
	}
	if len(f["__vector"]) != testVectorDim*4 {
		t.Errorf("vector blob length = %d", len(f["__vector"]))
	}
	if _, ok := written[1].Fields["mounting_style"]; ok {
		t.Error("empty mounting style must not be written")
	}
}

func TestUpsert_WrongDimension(t *testing.T) {
	repo, _ := newTestRepo(t)
	e := testEntry("0", "Tofu60", "", 1)
	e.Vector = []float32{1}

	err := repo.Upsert(context.Background(), []domcat.Entry{e})
	if !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Fatalf("expected ErrEmbeddingProviderError, got %v", err)
	}
}

func TestUpsert_Empty(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.hsetMultiFn = func(_ context.Context, _ []db.HashSetItem) error {
		t.Fatal("HSetMulti must not be called")
		return nil
	}
	if err := repo.Upsert(context.Background(), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// --- Count ---

func TestCount(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.indexInfoFn = func(_ context.Context, name string) (db.IndexInfo, error) {
		if name != "kitfinder:kits:idx" {
			t.Errorf("unexpected index: %s", name)
		}
		return db.IndexInfo{Name: name, NumDocs: 12}, nil
	}

	n, err := repo.Count(context.Background())
	if err != nil || n != 12 {
		t.Fatalf("expected 12, got %d (err=%v)", n, err)
	}
}

func TestCount_NoIndex(t *testing.T) {
	repo, _ := newTestRepo(t)

	n, err := repo.Count(context.Background())
	if err != nil || n != 0 {
		t.Fatalf("expected 0, got %d (err=%v)", n, err)
	}
}

// --- SearchKNN ---

func TestSearchKNN_ParsesHits(t *testing.T) {
	repo, ms := newTestRepo(t)

	ms.searchKNNFn = func(_ context.Context, q db.KNNQuery) (db.KNNResult, error) {
		if q.K != 3 || q.Index != "kitfinder:kits:idx" || len(q.Return) == 0 {
			t.Errorf("unexpected query: %+v", q)
		}
		return db.KNNResult{
			Total: 2,
			Hits: []db.Hit{
				{Key: "kitfinder:kits:4", Distance: 0.25, Fields: map[string]string{
					"name": "Tofu60", "layout": "60%", "mounting_style": "Tray mount", "price": "129.5",
				}},
				{Key: "kitfinder:kits:7", Distance: 0.5, Fields: map[string]string{
					"name": "Bakeneko", "layout": "65%",
				}},
			},
		}, nil
	}

	results, err := repo.SearchKNN(context.Background(), []float32{1, 0, 0, 0}, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].ID() != "4" || results[0].Score() != 0.75 {
		t.Errorf("unexpected first result: %s %f", results[0].ID(), results[0].Score())
	}
	first := results[0].Item()
	if first.Name() != "Tofu60" || !first.Price().Equal(decimal.RequireFromString("129.5")) {
		t.Errorf("unexpected first item: %s %s", first.Name(), first.Price())
	}
	second := results[1].Item()
	if !second.Price().IsZero() || second.MountingStyle() != "" {
		t.Errorf("missing metadata must read as zero price and empty mounting, got %s %q",
			second.Price(), second.MountingStyle())
	}
}

func TestSearchKNN_NoHits(t *testing.T) {
	repo, _ := newTestRepo(t)

	results, err := repo.SearchKNN(context.Background(), []float32{1, 0, 0, 0}, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if results == nil || len(results) != 0 {
		t.Errorf("expected empty non-nil slice, got %v", results)
	}
}

func TestSearchKNN_StoreError(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.searchKNNFn = func(_ context.Context, _ db.KNNQuery) (db.KNNResult, error) {
		return db.KNNResult{}, &db.Error{Op: db.OpSearch, Err: errors.New("timeout")}
	}

	_, err := repo.SearchKNN(context.Background(), []float32{1, 0, 0, 0}, 3)
	var dbErr *db.Error
	if !errors.As(err, &dbErr) {
		t.Fatalf("expected wrapped db.Error, got %v", err)
	}
}
