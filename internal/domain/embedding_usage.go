package domain

import (
	"context"
	"sync/atomic"
)

type requestUsageKey struct{}

// RequestUsage tallies the embedding calls made on behalf of one search.
// Cache hits count as calls with zero tokens.
type RequestUsage struct {
	calls  atomic.Int64
	tokens atomic.Int64
}

// NewContextWithUsage attaches a fresh tally to ctx.
func NewContextWithUsage(ctx context.Context) (context.Context, *RequestUsage) {
	u := &RequestUsage{}
	return context.WithValue(ctx, requestUsageKey{}, u), u
}

// UsageFromContext returns the tally of ctx, or nil.
func UsageFromContext(ctx context.Context) *RequestUsage {
	u, _ := ctx.Value(requestUsageKey{}).(*RequestUsage)
	return u
}

// Record adds one embedding call. No-op on a nil receiver.
func (u *RequestUsage) Record(tokens int) {
	if u == nil {
		return
	}
	u.calls.Add(1)
	u.tokens.Add(int64(tokens))
}

// Calls is the number of embedding calls recorded.
func (u *RequestUsage) Calls() int64 {
	if u == nil {
		return 0
	}
	return u.calls.Load()
}

// Tokens is the number of billed tokens recorded.
func (u *RequestUsage) Tokens() int64 {
	if u == nil {
		return 0
	}
	return u.tokens.Load()
}
