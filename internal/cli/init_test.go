package cli

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("BUDGETBUDDY_TEST_VAR=from-dotenv\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("BUDGETBUDDY_TEST_VAR", "")
	os.Unsetenv("BUDGETBUDDY_TEST_VAR")

	LoadEnvFile(path)
	if got := os.Getenv("BUDGETBUDDY_TEST_VAR"); got != "from-dotenv" {
		t.Fatalf("env = %q", got)
	}

	LoadEnvFile(filepath.Join(t.TempDir(), "missing.env")) // ignored
}

func TestBootstrap(t *testing.T) {
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(t.TempDir()); err != nil { // no .env here
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv("DATA_BACKEND", "memory")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, logger, err := Bootstrap("test")
	if err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	if cfg.DataBackend != "memory" || logger.Component() != "test" {
		t.Fatalf("cfg=%+v component=%s", cfg, logger.Component())
	}

	t.Setenv("PORT", "not-a-port")
	if _, _, err := Bootstrap("test"); err == nil {
		t.Fatal("expected validation error")
	}
}
