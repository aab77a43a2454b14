package embedding

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/kitfinder/internal/domain"
)

// BudgetAction defines behavior when the token budget is exceeded.
type BudgetAction string

const (
	// BudgetActionWarn logs a warning but allows the request.
	BudgetActionWarn BudgetAction = "warn"
	// BudgetActionReject blocks the request with domain.ErrEmbeddingQuotaExceeded.
	BudgetActionReject BudgetAction = "reject"
)

// ParseBudgetAction maps a config value to an action. Anything but "reject" warns.
func ParseBudgetAction(s string) BudgetAction {
	if strings.EqualFold(strings.TrimSpace(s), string(BudgetActionReject)) {
		return BudgetActionReject
	}
	return BudgetActionWarn
}

// BudgetStore persists per-period token counters.
type BudgetStore interface {
	Add(ctx context.Context, provider string, at time.Time, tokens int64) error
	Usage(ctx context.Context, provider string, at time.Time) (daily, monthly int64, err error)
}

// BudgetStatus is a point-in-time view of token consumption.
// Limits of 0 and remaining values of -1 mean unlimited.
type BudgetStatus struct {
	Provider         string
	Action           BudgetAction
	DailyUsed        int64
	DailyLimit       int64
	DailyRemaining   int64
	MonthlyUsed      int64
	MonthlyLimit     int64
	MonthlyRemaining int64
}

// Exceeded reports whether either limit is spent.
func (s BudgetStatus) Exceeded() bool {
	return s.DailyRemaining == 0 || s.MonthlyRemaining == 0
}

// window is the spend of one calendar period. A zero limit is unlimited.
type window struct {
	limit int64
	used  int64
	start time.Time
	floor func(time.Time) time.Time
}

// roll zeroes the counter once now has left the window's period.
func (w *window) roll(now time.Time) {
	if s := w.floor(now); s.After(w.start) {
		w.start = s
		w.used = 0
	}
}

func (w *window) spent() bool { return w.limit > 0 && w.used >= w.limit }

func (w *window) remaining() int64 {
	if w.limit == 0 {
		return -1
	}
	return max(w.limit-w.used, 0)
}

// BudgetTracker enforces daily and monthly token limits in memory. With a
// store attached, spend is written behind so a restart resumes the current
// day and month instead of starting from zero.
type BudgetTracker struct {
	provider string
	action   BudgetAction
	logger   *zap.Logger

	mu    sync.Mutex
	day   window
	month window
	now   func() time.Time
	store BudgetStore
}

// NewBudgetTracker creates a budget tracker. A zero limit disables that period.
func NewBudgetTracker(
	provider string, dailyLimit, monthlyLimit int64,
	action BudgetAction, logger *zap.Logger,
) *BudgetTracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &BudgetTracker{
		provider: provider,
		action:   action,
		logger:   logger,
		day:      window{limit: dailyLimit, floor: startOfDay},
		month:    window{limit: monthlyLimit, floor: startOfMonth},
	}
	b.setClock(func() time.Time { return time.Now().UTC() })
	return b
}

// setClock replaces the time source and anchors both windows to it.
func (b *BudgetTracker) setClock(now func() time.Time) {
	b.now = now
	t := now()
	b.day.start = startOfDay(t)
	b.month.start = startOfMonth(t)
}

// WithStore attaches persistence and loads the spend of the current periods.
// A failed load is logged and leaves the counters at zero.
func (b *BudgetTracker) WithStore(ctx context.Context, store BudgetStore) *BudgetTracker {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.store = store
	daily, monthly, err := store.Usage(ctx, b.provider, b.now())
	if err != nil {
		b.logger.Warn("Failed to load budget from store", zap.String("provider", b.provider), zap.Error(err))
		return b
	}
	b.day.used, b.month.used = daily, monthly
	b.logger.Info("Budget loaded from store",
		zap.String("provider", b.provider),
		zap.Int64("daily_used", daily),
		zap.Int64("monthly_used", monthly),
	)
	return b
}

// Check admits a new call unless a limit is spent and the action is reject.
func (b *BudgetTracker) Check(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.roll()

	if !b.day.spent() && !b.month.spent() {
		return nil
	}
	if b.action == BudgetActionReject {
		return domain.ErrEmbeddingQuotaExceeded
	}
	b.logger.Warn("Token budget exceeded",
		zap.String("provider", b.provider),
		zap.Int64("daily_used", b.day.used),
		zap.Int64("daily_limit", b.day.limit),
		zap.Int64("monthly_used", b.month.used),
		zap.Int64("monthly_limit", b.month.limit),
	)
	return nil
}

// Record charges tokens to both periods.
func (b *BudgetTracker) Record(tokens int64) {
	b.mu.Lock()
	b.roll()
	b.day.used += tokens
	b.month.used += tokens
	store, at := b.store, b.now()
	b.mu.Unlock()

	if store == nil {
		return
	}
	// Detached so spend survives a cancelled request.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := store.Add(ctx, b.provider, at, tokens); err != nil {
		b.logger.Warn("Failed to persist token spend",
			zap.String("provider", b.provider), zap.Int64("tokens", tokens), zap.Error(err))
	}
}

// RemainingDaily returns tokens left today, -1 when unlimited.
func (b *BudgetTracker) RemainingDaily() int64 {
	return b.Status().DailyRemaining
}

// RemainingMonthly returns tokens left this month, -1 when unlimited.
func (b *BudgetTracker) RemainingMonthly() int64 {
	return b.Status().MonthlyRemaining
}

// Status returns a consistent snapshot of both periods.
func (b *BudgetTracker) Status() BudgetStatus {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.roll()
	return BudgetStatus{
		Provider:         b.provider,
		Action:           b.action,
		DailyUsed:        b.day.used,
		DailyLimit:       b.day.limit,
		DailyRemaining:   b.day.remaining(),
		MonthlyUsed:      b.month.used,
		MonthlyLimit:     b.month.limit,
		MonthlyRemaining: b.month.remaining(),
	}
}

// roll must be called with mu held.
func (b *BudgetTracker) roll() {
	now := b.now()
	b.day.roll(now)
	b.month.roll(now)
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func startOfMonth(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
