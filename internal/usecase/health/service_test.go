package health

import (
	"context"
	"errors"
	"testing"
)

// --- Mocks ---

type mockDBPinger struct {
	err error
}

func (m *mockDBPinger) Ping(_ context.Context) error { return m.err }

type mockChecker struct {
	err error
}

func (m *mockChecker) HealthCheck(_ context.Context) error { return m.err }

type mockCounter struct {
	n   int
	err error
}

func (m *mockCounter) Count(_ context.Context) (int, error) { return m.n, m.err }

// --- Tests ---

func TestCheck_AllHealthy(t *testing.T) {
	svc := New(&mockDBPinger{}, &mockChecker{}).
		WithVideo(&mockChecker{}).
		WithItemCounter(&mockCounter{n: 42})
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	for _, c := range []string{ComponentDatabase, ComponentEmbedding, ComponentVideo} {
		if r.Checks[c] != CheckOK {
			t.Errorf("expected %s %q, got %q", c, CheckOK, r.Checks[c])
		}
	}
	if r.Items != 42 {
		t.Errorf("expected 42 items, got %d", r.Items)
	}
}

func TestCheck_DBErrorIsUnhealthy(t *testing.T) {
	counter := &mockCounter{n: 42}
	svc := New(&mockDBPinger{err: errors.New("conn refused")}, &mockChecker{}).WithItemCounter(counter)
	r := svc.Check(context.Background())

	if r.Status != Unhealthy {
		t.Errorf("expected %q, got %q", Unhealthy, r.Status)
	}
	if r.Checks[ComponentDatabase] != CheckError {
		t.Errorf("expected database %q, got %q", CheckError, r.Checks[ComponentDatabase])
	}
	if r.Checks[ComponentEmbedding] != CheckOK {
		t.Errorf("expected embedding %q, got %q", CheckOK, r.Checks[ComponentEmbedding])
	}
	if r.Items != -1 {
		t.Errorf("expected unknown item count, got %d", r.Items)
	}
}

func TestCheck_EmbeddingError(t *testing.T) {
	svc := New(&mockDBPinger{}, &mockChecker{err: errors.New("timeout")})
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks[ComponentEmbedding] != CheckError {
		t.Errorf("expected embedding %q, got %q", CheckError, r.Checks[ComponentEmbedding])
	}
}

func TestCheck_VideoError(t *testing.T) {
	svc := New(&mockDBPinger{}, nil).WithVideo(&mockChecker{err: errors.New("breaker open")})
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks[ComponentVideo] != CheckError {
		t.Errorf("expected video %q, got %q", CheckError, r.Checks[ComponentVideo])
	}
}

func TestCheck_OptionalChecksAbsent(t *testing.T) {
	svc := New(&mockDBPinger{}, nil)
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	if _, ok := r.Checks[ComponentEmbedding]; ok {
		t.Error("embedding check should be absent when embedding is nil")
	}
	if _, ok := r.Checks[ComponentVideo]; ok {
		t.Error("video check should be absent when video is nil")
	}
	if r.Items != -1 {
		t.Errorf("expected unknown item count without counter, got %d", r.Items)
	}
}

func TestCheck_CountErrorLeavesItemsUnknown(t *testing.T) {
	svc := New(&mockDBPinger{}, nil).WithItemCounter(&mockCounter{err: errors.New("no index")})
	if r := svc.Check(context.Background()); r.Items != -1 {
		t.Errorf("expected -1, got %d", r.Items)
	}
}
