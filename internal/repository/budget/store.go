package budget

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/kailas-cloud/kitfinder/internal/db"
	"github.com/kailas-cloud/kitfinder/internal/domain"
)

type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	IncrBy(ctx context.Context, key string, val int64) error
	Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error
}

// Store keeps per-provider embedding token counters for the current day and
// month. Each counter expires grace after its period ends.
type Store struct {
	store store
	grace time.Duration
}

// New creates a budget store.
func New(s store, grace time.Duration) *Store {
	return &Store{store: s, grace: grace}
}

// DailyKey is the counter key of the UTC day containing at.
func DailyKey(provider string, at time.Time) string {
	return fmt.Sprintf("%sbudget:%s:daily:%s", domain.KeyPrefix, provider, at.UTC().Format("2006-01-02"))
}

// MonthlyKey is the counter key of the UTC month containing at.
func MonthlyKey(provider string, at time.Time) string {
	return fmt.Sprintf("%sbudget:%s:monthly:%s", domain.KeyPrefix, provider, at.UTC().Format("2006-01"))
}

// Add charges tokens to both periods containing at.
func (s *Store) Add(ctx context.Context, provider string, at time.Time, tokens int64) error {
	at = at.UTC()
	dayEnd := time.Date(at.Year(), at.Month(), at.Day()+1, 0, 0, 0, 0, time.UTC)
	monthEnd := time.Date(at.Year(), at.Month()+1, 1, 0, 0, 0, 0, time.UTC)

	if err := s.charge(ctx, DailyKey(provider, at), tokens, dayEnd.Sub(at)+s.grace); err != nil {
		return err
	}
	return s.charge(ctx, MonthlyKey(provider, at), tokens, monthEnd.Sub(at)+s.grace)
}

// Usage returns the spend of the day and month containing at.
// Missing counters read as zero.
func (s *Store) Usage(ctx context.Context, provider string, at time.Time) (daily, monthly int64, err error) {
	if daily, err = s.counter(ctx, DailyKey(provider, at)); err != nil {
		return 0, 0, err
	}
	if monthly, err = s.counter(ctx, MonthlyKey(provider, at)); err != nil {
		return 0, 0, err
	}
	return daily, monthly, nil
}

func (s *Store) charge(ctx context.Context, key string, tokens int64, ttl time.Duration) error {
	if err := s.store.IncrBy(ctx, key, tokens); err != nil {
		return fmt.Errorf("budget charge %s: %w", key, err)
	}
	// NX: the first write of a period fixes its expiry.
	if err := s.store.Expire(ctx, key, ttl, true); err != nil {
		return fmt.Errorf("budget expire %s: %w", key, err)
	}
	return nil
}

func (s *Store) counter(ctx context.Context, key string) (int64, error) {
	data, err := s.store.Get(ctx, key)
	if errors.Is(err, db.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("budget read %s: %w", key, err)
	}
	n, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("budget read %s: %w", key, err)
	}
	return n, nil
}
