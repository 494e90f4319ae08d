package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"budgetbuddy/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "test.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSQLiteEntriesRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	in := []core.Entry{
		{Date: core.NewDate(2025, 5, 9), Category: core.Food, Amount: core.Money{Cents: 1250}, Note: "lunch"},
		{Date: core.NewDate(2025, 5, 1), Category: core.Entertainment, Amount: core.Money{Cents: 0}},
	}
	for _, e := range in {
		if err := repo.AppendEntry(ctx, "s1", e); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	if err := repo.AppendEntry(ctx, "s1", core.Entry{Date: core.NewDate(2025, 5, 1), Category: core.Food, Amount: core.Money{Cents: -5}}); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}

	got, err := repo.ListEntries(ctx, "s1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != len(in) {
		t.Fatalf("got %d entries, want %d", len(got), len(in))
	}
	for i := range in {
		if got[i].Date.String() != in[i].Date.String() || got[i].Category != in[i].Category ||
			got[i].Amount != in[i].Amount || got[i].Note != in[i].Note {
			t.Fatalf("entry %d = %+v, want %+v", i, got[i], in[i])
		}
	}

	other, _ := repo.ListEntries(ctx, "s2")
	if len(other) != 0 {
		t.Fatalf("entries leaked into another session")
	}
}

func TestSQLiteCapsLastWriteWins(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	_ = repo.SetCap(ctx, "s1", core.Food, core.Money{Cents: 100})
	_ = repo.SetCap(ctx, "s1", core.Food, core.Money{Cents: 900})
	_ = repo.SetCap(ctx, "s1", core.Transport, core.Money{Cents: 50})

	caps, err := repo.ReadCaps(ctx, "s1")
	if err != nil {
		t.Fatalf("read caps: %v", err)
	}
	if caps.Get(core.Food).Cents != 900 || caps.Get(core.Transport).Cents != 50 || caps.Get(core.Entertainment).Cents != 0 {
		t.Fatalf("unexpected caps %+v", caps)
	}
}

func TestSQLiteTryNotifyOnce(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	key := core.NotificationKey{Year: 2025, Month: 5, Category: core.Food}

	first, err := repo.TryNotify(ctx, "s1", key)
	if err != nil || !first {
		t.Fatalf("first notify = %v, %v", first, err)
	}
	second, err := repo.TryNotify(ctx, "s1", key)
	if err != nil || second {
		t.Fatalf("second notify = %v, %v", second, err)
	}
	otherSession, _ := repo.TryNotify(ctx, "s2", key)
	if !otherSession {
		t.Fatalf("ledger must be per session")
	}
}

func TestSQLiteEndSessionAndSweep(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	clock := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return clock }

	e := core.Entry{Date: core.NewDate(2025, 5, 1), Category: core.Food, Amount: core.Money{Cents: 10}}
	_ = repo.AppendEntry(ctx, "old", e)
	_, _ = repo.TryNotify(ctx, "old", core.NotificationKey{Year: 2025, Month: 5, Category: core.Food})

	clock = clock.Add(2 * time.Hour)
	_ = repo.AppendEntry(ctx, "fresh", e)

	n, err := repo.SweepIdle(ctx, time.Hour)
	if err != nil || n != 1 {
		t.Fatalf("SweepIdle = %d, %v; want 1", n, err)
	}
	if got, _ := repo.ListEntries(ctx, "old"); len(got) != 0 {
		t.Fatalf("swept session still has %d entries", len(got))
	}
	if ok, _ := repo.TryNotify(ctx, "old", core.NotificationKey{Year: 2025, Month: 5, Category: core.Food}); !ok {
		t.Fatalf("swept session must start with an empty ledger")
	}

	if err := repo.EndSession(ctx, "fresh"); err != nil {
		t.Fatalf("end session: %v", err)
	}
	if got, _ := repo.ListEntries(ctx, "fresh"); len(got) != 0 {
		t.Fatalf("ended session still has entries")
	}
}

func TestSQLitePurge(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	_ = repo.SetCap(ctx, "s1", core.Food, core.Money{Cents: 100})
	if err := repo.Purge(ctx); err != nil {
		t.Fatalf("purge: %v", err)
	}
	caps, _ := repo.ReadCaps(ctx, "s1")
	if caps.Sum().Cents != 0 {
		t.Fatalf("caps survived purge")
	}
}
