package storage

import (
	"context"
	"testing"
)

func TestIncrementUsage_FirstQuestionOfDay(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	u, _ := createTestUser(t, s, "alice")

	used, allowed, err := s.IncrementUsage(ctx, u.ID, "2026-08-30", 5)
	if err != nil {
		t.Fatalf("IncrementUsage failed: %v", err)
	}
	if !allowed || used != 1 {
		t.Errorf("got used=%d allowed=%v, want used=1 allowed=true", used, allowed)
	}
}

func TestIncrementUsage_Ceiling(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	u, _ := createTestUser(t, s, "alice")
	const limit = 3

	for i := 1; i <= limit; i++ {
		used, allowed, err := s.IncrementUsage(ctx, u.ID, "2026-08-30", limit)
		if err != nil {
			t.Fatalf("increment %d failed: %v", i, err)
		}
		if !allowed || used != i {
			t.Fatalf("increment %d: got used=%d allowed=%v", i, used, allowed)
		}
	}

	used, allowed, err := s.IncrementUsage(ctx, u.ID, "2026-08-30", limit)
	if err != nil {
		t.Fatalf("over-limit increment failed: %v", err)
	}
	if allowed {
		t.Error("increment past the ceiling was admitted")
	}
	if used != limit {
		t.Errorf("used = %d, want %d (counter must not pass the ceiling)", used, limit)
	}
}

func TestIncrementUsage_DaysAreIndependent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	u, _ := createTestUser(t, s, "alice")

	if _, _, err := s.IncrementUsage(ctx, u.ID, "2026-08-29", 1); err != nil {
		t.Fatalf("day one increment failed: %v", err)
	}
	used, allowed, err := s.IncrementUsage(ctx, u.ID, "2026-08-30", 1)
	if err != nil {
		t.Fatalf("day two increment failed: %v", err)
	}
	if !allowed || used != 1 {
		t.Errorf("new day: got used=%d allowed=%v, want fresh counter", used, allowed)
	}
}

func TestIncrementUsage_ZeroLimit(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	u, _ := createTestUser(t, s, "alice")

	used, allowed, err := s.IncrementUsage(ctx, u.ID, "2026-08-30", 0)
	if err != nil {
		t.Fatalf("IncrementUsage failed: %v", err)
	}
	if allowed || used != 0 {
		t.Errorf("got used=%d allowed=%v, want used=0 allowed=false", used, allowed)
	}
}

func TestUsageFor_NoRecord(t *testing.T) {
	s := openTestStore(t)
	u, _ := createTestUser(t, s, "alice")

	used, err := s.UsageFor(context.Background(), u.ID, "2026-08-30")
	if err != nil {
		t.Fatalf("UsageFor failed: %v", err)
	}
	if used != 0 {
		t.Errorf("used = %d, want 0", used)
	}
}
