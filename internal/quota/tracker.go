// Package quota enforces the per-user, per-day question quota.
package quota

import (
	"context"
	"time"
)

// dayLayout is the server-local calendar date used as the quota window key.
const dayLayout = "2006-01-02"

// Store is the durable counter backing the tracker. IncrementUsage must be a
// single atomic increment-with-ceiling; UsageFor is a plain read.
type Store interface {
	IncrementUsage(ctx context.Context, ownerID, day string, limit int) (used int, allowed bool, err error)
	UsageFor(ctx context.Context, ownerID, day string) (int, error)
}

// Reservation is the outcome of one quota check.
type Reservation struct {
	Allowed   bool
	Used      int
	Remaining int
}

// Tracker reserves quota slots against a durable per-day counter.
type Tracker struct {
	store      Store
	dailyLimit int
}

// NewTracker creates a Tracker with the given daily question limit.
func NewTracker(store Store, dailyLimit int) *Tracker {
	return &Tracker{store: store, dailyLimit: dailyLimit}
}

// Reserve consumes one question slot for the owner on the given day. The slot
// is consumed before any downstream work runs, so a question that later fails
// still counts against the quota.
func (t *Tracker) Reserve(ctx context.Context, ownerID, day string) (Reservation, error) {
	used, allowed, err := t.store.IncrementUsage(ctx, ownerID, day, t.dailyLimit)
	if err != nil {
		return Reservation{}, err
	}
	if !allowed {
		return Reservation{Allowed: false, Used: used, Remaining: 0}, nil
	}
	return Reservation{Allowed: true, Used: used, Remaining: t.dailyLimit - used}, nil
}

// Usage reports the owner's current counter for the day without consuming a slot.
func (t *Tracker) Usage(ctx context.Context, ownerID, day string) (Reservation, error) {
	used, err := t.store.UsageFor(ctx, ownerID, day)
	if err != nil {
		return Reservation{}, err
	}
	remaining := t.dailyLimit - used
	if remaining < 0 {
		remaining = 0
	}
	return Reservation{Allowed: used < t.dailyLimit, Used: used, Remaining: remaining}, nil
}

// Limit returns the configured daily question limit.
func (t *Tracker) Limit() int {
	return t.dailyLimit
}

// Today returns the server-local date key for the current quota window.
func Today() string {
	return time.Now().Format(dayLayout)
}
