package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig_Defaults(t *testing.T) {
	cfg := NewDefaultConfig()
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port default = %d, want %d", cfg.Server.Port, 8080)
	}
	if cfg.Provider.Name != "yahoo" {
		t.Errorf("Provider.Name default = %q, want yahoo", cfg.Provider.Name)
	}
	if cfg.BalanceLog.Backend != "sqlite" {
		t.Errorf("BalanceLog.Backend default = %q, want sqlite", cfg.BalanceLog.Backend)
	}
	if got := cfg.Refresh.GetInterval(); got != time.Minute {
		t.Errorf("Refresh.GetInterval() = %v, want 1m", got)
	}
}

func TestConfig_PortEnvOverride(t *testing.T) {
	t.Setenv("FOLIO_PORT", "9090")

	cfg := NewDefaultConfig()
	applyEnvOverrides(cfg)

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d after env override, want %d", cfg.Server.Port, 9090)
	}
}

func TestConfig_EODHDKeyEnvOverride(t *testing.T) {
	t.Setenv("EODHD_API_KEY", "from-env")

	cfg := NewDefaultConfig()
	applyEnvOverrides(cfg)

	if cfg.Clients.EODHD.APIKey != "from-env" {
		t.Errorf("EODHD.APIKey = %q, want %q", cfg.Clients.EODHD.APIKey, "from-env")
	}
}

func TestConfig_ProviderEnvOverrideLowercased(t *testing.T) {
	t.Setenv("FOLIO_PROVIDER", "EODHD")

	cfg := NewDefaultConfig()
	applyEnvOverrides(cfg)

	if cfg.Provider.Name != "eodhd" {
		t.Errorf("Provider.Name = %q, want eodhd", cfg.Provider.Name)
	}
}

func TestLoadConfig_MergesFilesInOrder(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "a.toml")
	second := filepath.Join(dir, "b.toml")

	if err := os.WriteFile(first, []byte("[positions]\npath = \"first.json\"\n[refresh]\ninterval = \"30s\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(second, []byte("[positions]\npath = \"second.json\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(first, filepath.Join(dir, "missing.toml"), second)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Positions.Path != "second.json" {
		t.Errorf("Positions.Path = %q, want second.json", cfg.Positions.Path)
	}
	if got := cfg.Refresh.GetInterval(); got != 30*time.Second {
		t.Errorf("Refresh.GetInterval() = %v, want 30s", got)
	}
}

func TestLoadConfig_InvalidTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(path, []byte("[positions\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestRefreshConfig_Getters(t *testing.T) {
	cfg := &RefreshConfig{Interval: "not-a-duration", FetchTimeout: "-1s", SeriesPoints: 500}
	if d := cfg.GetInterval(); d != time.Minute {
		t.Errorf("GetInterval() = %v, want 1m fallback", d)
	}
	if d := cfg.GetFetchTimeout(); d != 5*time.Second {
		t.Errorf("GetFetchTimeout() = %v, want 5s fallback", d)
	}
	if n := cfg.GetSeriesPoints(); n != 78 {
		t.Errorf("GetSeriesPoints() = %d, want 78", n)
	}
	cfg.SeriesPoints = 12
	if n := cfg.GetSeriesPoints(); n != 12 {
		t.Errorf("GetSeriesPoints() = %d, want 12", n)
	}
}

func TestProviderConfig_GetTimeout(t *testing.T) {
	cfg := &ProviderConfig{Timeout: "2s"}
	if d := cfg.GetTimeout(); d != 2*time.Second {
		t.Errorf("GetTimeout() = %v, want 2s", d)
	}
	cfg.Timeout = ""
	if d := cfg.GetTimeout(); d != 30*time.Second {
		t.Errorf("GetTimeout() = %v, want 30s", d)
	}
}
