package index

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/kailas-cloud/kitfinder/internal/db"
	"github.com/kailas-cloud/kitfinder/internal/domain"
	domcat "github.com/kailas-cloud/kitfinder/internal/domain/catalog"
	"github.com/kailas-cloud/kitfinder/internal/domain/search/result"
)

func TestEnsureCollection(t *testing.T) {
	repo := &mockRepo{}
	svc := New(repo, &mockEmbedder{}, nil)

	if err := svc.EnsureCollection(context.Background(), false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(repo.calls, []string{"ensure"}) {
		t.Errorf("unexpected calls: %v", repo.calls)
	}
}

func TestEnsureCollection_Recreate(t *testing.T) {
	repo := &mockRepo{}
	svc := New(repo, &mockEmbedder{}, nil)

	if err := svc.EnsureCollection(context.Background(), true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(repo.calls, []string{"drop", "ensure"}) {
		t.Errorf("expected drop before ensure, got %v", repo.calls)
	}
}

func TestEnsureCollection_StoreError(t *testing.T) {
	repo := &mockRepo{ensureFn: func(context.Context) (bool, error) {
		return false, &db.Error{Op: db.OpCreateIndex, Err: errors.New("connection refused")}
	}}
	svc := New(repo, &mockEmbedder{}, nil)

	err := svc.EnsureCollection(context.Background(), false)
	if !errors.Is(err, domain.ErrIndexUnavailable) {
		t.Fatalf("expected ErrIndexUnavailable, got %v", err)
	}
}

func TestIngest_UsesPositionIDsAndDocumentText(t *testing.T) {
	var stored []domcat.Entry
	repo := &mockRepo{upsertFn: func(_ context.Context, entries []domcat.Entry) error {
		stored = entries
		return nil
	}}
	emb := &mockBatchEmbedder{mockEmbedder: mockEmbedder{tokens: 3}}
	svc := New(repo, emb, nil).WithBatchSize(2)

	items := []domcat.Item{item("A", 100), item("B", 200), item("C", 300)}
	report, err := svc.Ingest(context.Background(), items)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.Items != 3 || report.Tokens != 9 {
		t.Errorf("unexpected report: %+v", report)
	}
	if len(emb.batches) != 2 {
		t.Errorf("expected 2 embedding batches of size <= 2, got %d", len(emb.batches))
	}
	if emb.batches[0][0] != items[0].Document() {
		t.Errorf("expected document text %q, got %q", items[0].Document(), emb.batches[0][0])
	}
	for i, e := range stored {
		if want := []string{"0", "1", "2"}[i]; e.ID != want {
			t.Errorf("entry %d: id %q, want %q", i, e.ID, want)
		}
		if e.Item.Name() != items[i].Name() {
			t.Errorf("entry %d: item %q, want %q", i, e.Item.Name(), items[i].Name())
		}
		if len(e.Vector) != 2 {
			t.Errorf("entry %d: expected vector", i)
		}
	}
}

func TestIngest_FallsBackToSingleEmbeds(t *testing.T) {
	emb := &mockEmbedder{}
	svc := New(&mockRepo{}, emb, nil)

	if _, err := svc.Ingest(context.Background(), []domcat.Item{item("A", 1), item("B", 2)}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(emb.texts) != 2 {
		t.Errorf("expected 2 single embeds, got %d", len(emb.texts))
	}
}

func TestIngest_EmbeddingFailure(t *testing.T) {
	repo := &mockRepo{}
	emb := &mockBatchEmbedder{mockEmbedder: mockEmbedder{err: domain.ErrEmbeddingProviderError}}
	svc := New(repo, emb, nil)

	_, err := svc.Ingest(context.Background(), []domcat.Item{item("A", 1)})
	if !errors.Is(err, domain.ErrIndexUnavailable) {
		t.Fatalf("expected ErrIndexUnavailable, got %v", err)
	}
	if !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Errorf("expected provider error in chain, got %v", err)
	}
	if slices.Contains(repo.calls, "upsert") {
		t.Error("nothing must be stored after an embedding failure")
	}
}

func TestIngest_Empty(t *testing.T) {
	repo := &mockRepo{}
	report, err := New(repo, &mockEmbedder{}, nil).Ingest(context.Background(), nil)
	if err != nil || report.Items != 0 {
		t.Fatalf("unexpected result: %+v, %v", report, err)
	}
	if len(repo.calls) != 0 {
		t.Errorf("expected no repository calls, got %v", repo.calls)
	}
}

func TestQuery_ReturnsItemsInOrder(t *testing.T) {
	var gotK int
	repo := &mockRepo{searchFn: func(_ context.Context, _ []float32, k int) ([]result.Result, error) {
		gotK = k
		return []result.Result{
			result.New("2", 0.9, item("C", 300)),
			result.New("0", 0.8, item("A", 100)),
		}, nil
	}}
	emb := &mockEmbedder{}
	svc := New(repo, emb, nil)

	items, err := svc.Query(context.Background(), "60% layout", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotK != 3 {
		t.Errorf("expected k=3, got %d", gotK)
	}
	if len(items) != 2 || items[0].Name() != "C" || items[1].Name() != "A" {
		t.Errorf("unexpected items: %v", items)
	}
	if len(emb.texts) != 1 || emb.texts[0] != "60% layout" {
		t.Errorf("expected query text embedded once, got %v", emb.texts)
	}
}

func TestQuery_TruncatesToK(t *testing.T) {
	repo := &mockRepo{searchFn: func(context.Context, []float32, int) ([]result.Result, error) {
		return []result.Result{
			result.New("0", 0.9, item("A", 1)),
			result.New("1", 0.8, item("B", 1)),
			result.New("2", 0.7, item("C", 1)),
		}, nil
	}}

	items, err := New(repo, &mockEmbedder{}, nil).Query(context.Background(), "q", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 2 {
		t.Errorf("expected at most k items, got %d", len(items))
	}
}

func TestQuery_ZeroK(t *testing.T) {
	emb := &mockEmbedder{}
	items, err := New(&mockRepo{}, emb, nil).Query(context.Background(), "q", 0)
	if err != nil || len(items) != 0 {
		t.Fatalf("expected empty result, got %v, %v", items, err)
	}
	if len(emb.texts) != 0 {
		t.Error("k=0 must not embed")
	}
}

func TestQuery_StoreErrorIsIndexUnavailable(t *testing.T) {
	repo := &mockRepo{searchFn: func(context.Context, []float32, int) ([]result.Result, error) {
		return nil, &db.Error{Op: db.OpSearch, Err: errors.New("i/o timeout")}
	}}

	_, err := New(repo, &mockEmbedder{}, nil).Query(context.Background(), "q", 2)
	if !errors.Is(err, domain.ErrIndexUnavailable) {
		t.Fatalf("expected ErrIndexUnavailable, got %v", err)
	}
	var iue *domain.IndexUnavailableError
	if !errors.As(err, &iue) || iue.Op != OpQuery {
		t.Errorf("expected op %q, got %v", OpQuery, err)
	}
}

func TestQuery_EmbeddingErrorIsIndexUnavailable(t *testing.T) {
	emb := &mockEmbedder{err: domain.ErrEmbeddingProviderError}

	_, err := New(&mockRepo{}, emb, nil).Query(context.Background(), "q", 2)
	if !errors.Is(err, domain.ErrIndexUnavailable) {
		t.Fatalf("expected ErrIndexUnavailable, got %v", err)
	}
}

func TestCount(t *testing.T) {
	repo := &mockRepo{countFn: func(context.Context) (int, error) { return 42, nil }}
	n, err := New(repo, &mockEmbedder{}, nil).Count(context.Background())
	if err != nil || n != 42 {
		t.Fatalf("Count = %d, %v", n, err)
	}

	repo.countFn = func(context.Context) (int, error) { return 0, errors.New("down") }
	if _, err := New(repo, &mockEmbedder{}, nil).Count(context.Background()); !errors.Is(err, domain.ErrIndexUnavailable) {
		t.Errorf("expected ErrIndexUnavailable, got %v", err)
	}
}
