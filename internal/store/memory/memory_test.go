package memory

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"budgetbuddy/internal/core"
)

func TestMemoryStoreIsolatesSessions(t *testing.T) {
	ctx := context.Background()
	s := New(10, time.Hour)

	e := core.Entry{Date: core.NewDate(2025, 1, 2), Category: core.Food, Amount: core.Money{Cents: 123}}
	if err := s.AppendEntry(ctx, "a", e); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := s.SetCap(ctx, "a", core.Food, core.Money{Cents: 1000}); err != nil {
		t.Fatalf("set cap: %v", err)
	}

	a, _ := s.ListEntries(ctx, "a")
	b, _ := s.ListEntries(ctx, "b")
	if len(a) != 1 || len(b) != 0 {
		t.Fatalf("unexpected entries: a=%d b=%d", len(a), len(b))
	}
	capsB, _ := s.ReadCaps(ctx, "b")
	if capsB.Get(core.Food).Cents != 0 {
		t.Fatalf("caps leaked between sessions")
	}
}

func TestMemoryStoreTryNotifyAndEnd(t *testing.T) {
	ctx := context.Background()
	s := New(10, time.Hour)
	key := core.NotificationKey{Year: 2025, Month: 1, Category: core.Transport}

	if ok, _ := s.TryNotify(ctx, "a", key); !ok {
		t.Fatal("first notify must fire")
	}
	if ok, _ := s.TryNotify(ctx, "a", key); ok {
		t.Fatal("second notify must not fire")
	}

	if err := s.EndSession(ctx, "a"); err != nil {
		t.Fatalf("end session: %v", err)
	}
	if ok, _ := s.TryNotify(ctx, "a", key); !ok {
		t.Fatal("a new session starts with an empty ledger")
	}
}

func TestMemoryStoreEvictsOldestSession(t *testing.T) {
	ctx := context.Background()
	s := New(1, time.Hour)
	e := core.Entry{Date: core.NewDate(2025, 1, 2), Category: core.Food, Amount: core.Money{Cents: 1}}

	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	_ = s.AppendEntry(ctx, "first", e)
	_ = s.AppendEntry(ctx, "second", e)

	if !strings.Contains(buf.String(), "session_id=first") {
		t.Errorf("eviction log missing session_id: %s", buf.String())
	}
	if got, _ := s.ListEntries(ctx, "first"); len(got) != 0 {
		t.Fatalf("evicted session must come back empty, got %d entries", len(got))
	}
}
