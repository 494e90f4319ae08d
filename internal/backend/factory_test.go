package backend

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"budgetbuddy/internal/config"
	"budgetbuddy/internal/core"
)

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
	if _, err := FromAppConfig(&config.Config{DataBackend: "sheets"}); err == nil {
		t.Fatal("expected error for unknown backend")
	}

	cfg, err := FromAppConfig(&config.Config{DataBackend: "memory", SessionMax: 3, SessionTTL: time.Hour})
	if err != nil {
		t.Fatalf("FromAppConfig: %v", err)
	}
	if cfg.Type != MemoryBackend || cfg.SessionMax != 3 {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"memory", Config{Type: MemoryBackend, SessionMax: 1, SessionTTL: time.Minute}, false},
		{"memory without room", Config{Type: MemoryBackend, SessionTTL: time.Minute}, true},
		{"sqlite", Config{Type: SQLiteBackend, SQLiteDBPath: "x.db"}, false},
		{"sqlite without path", Config{Type: SQLiteBackend}, true},
		{"unknown", Config{Type: "sheets"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCreateBackend(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "bb.db")

	for _, cfg := range []Config{
		{Type: MemoryBackend, SessionMax: 5, SessionTTL: time.Hour},
		{Type: SQLiteBackend, SQLiteDBPath: dbPath},
	} {
		t.Run(cfg.Type.String(), func(t *testing.T) {
			res, err := NewFactory(nil).CreateBackend(ctx, cfg)
			if err != nil {
				t.Fatalf("CreateBackend: %v", err)
			}
			defer res.Cleanup()

			if res.Publisher != nil {
				t.Fatal("alert feed should be disabled without AMQP URL")
			}
			if err := res.Backend.SetCap(ctx, "s1", core.Food, core.Money{Cents: 100}); err != nil {
				t.Fatalf("SetCap: %v", err)
			}
			caps, _ := res.Backend.ReadCaps(ctx, "s1")
			if caps.Get(core.Food).Cents != 100 {
				t.Fatalf("caps = %+v", caps)
			}
		})
	}
}

func TestCreateSQLiteBackendPurgesPreviousRun(t *testing.T) {
	ctx := context.Background()
	cfg := Config{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(t.TempDir(), "bb.db")}

	first, err := NewFactory(nil).CreateBackend(ctx, cfg)
	if err != nil {
		t.Fatalf("CreateBackend: %v", err)
	}
	_ = first.Backend.SetCap(ctx, "s1", core.Food, core.Money{Cents: 100})
	_ = first.Cleanup()

	second, err := NewFactory(nil).CreateBackend(ctx, cfg)
	if err != nil {
		t.Fatalf("CreateBackend: %v", err)
	}
	defer second.Cleanup()
	caps, _ := second.Backend.ReadCaps(ctx, "s1")
	if caps.Sum().Cents != 0 {
		t.Fatal("state from a previous process survived start-up")
	}
}
