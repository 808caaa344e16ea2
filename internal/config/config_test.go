package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap/zapcore"

	"github.com/blockberries/ledgerkit/app"
)

func strPtr(v string) *string {
	return &v
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ledgerd.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestMergeOverridesSetFields(t *testing.T) {
	dst := Default()
	Merge(&dst, File{
		ChainID:    "devnet",
		LogLevel:   "debug",
		MaxTxBytes: 512,
		Genesis:    map[string]string{"alice": "100"},
	})

	if dst.ChainID != "devnet" {
		t.Fatalf("expected chainId=devnet, got %q", dst.ChainID)
	}
	if dst.LogLevel != "debug" {
		t.Fatalf("expected logLevel=debug, got %q", dst.LogLevel)
	}
	if dst.MaxTxBytes != 512 {
		t.Fatalf("expected maxTxBytes=512, got %d", dst.MaxTxBytes)
	}
	if dst.Genesis["alice"] != "100" {
		t.Fatalf("expected genesis alice=100, got %v", dst.Genesis)
	}
	if dst.Listen != Default().Listen {
		t.Fatalf("unset listen must keep default, got %q", dst.Listen)
	}
}

func TestMergeCanDisableMetrics(t *testing.T) {
	dst := Default()
	Merge(&dst, File{})
	if dst.MetricsListen == "" {
		t.Fatal("unset metricsListen must keep default")
	}

	Merge(&dst, File{MetricsListen: strPtr("")})
	if dst.MetricsListen != "" {
		t.Fatalf("expected metrics disabled, got %q", dst.MetricsListen)
	}
}

func TestLoadFromPath(t *testing.T) {
	path := writeFile(t, `
chainId: testnet
listen: 0.0.0.0:9000
metricsListen: ""
logLevel: warn
genesis:
  alice: "1000"
  bob: "5"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ChainID != "testnet" || cfg.Listen != "0.0.0.0:9000" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.MetricsListen != "" {
		t.Fatalf("expected metrics disabled, got %q", cfg.MetricsListen)
	}
	if lvl, _ := cfg.Level(); lvl != zapcore.WarnLevel {
		t.Fatalf("expected warn level, got %s", lvl)
	}
	if len(cfg.Genesis) != 2 {
		t.Fatalf("expected 2 genesis accounts, got %v", cfg.Genesis)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing explicit path")
	}
	if _, err := Load(writeFile(t, "listen: [")); err == nil {
		t.Fatal("expected parse error")
	}
	if _, err := Load(writeFile(t, "logLevel: loud")); err == nil {
		t.Fatal("expected invalid log level error")
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv(EnvListen, " 10.0.0.1:1234 ")
	t.Setenv(EnvMetricsListen, "")
	t.Setenv(EnvLogLevel, "error")
	t.Setenv(EnvMaxTxBytes, "2048")

	cfg := Default()
	if err := ApplyEnvOverrides(&cfg); err != nil {
		t.Fatalf("ApplyEnvOverrides: %v", err)
	}
	if cfg.Listen != "10.0.0.1:1234" {
		t.Fatalf("expected trimmed listen, got %q", cfg.Listen)
	}
	if cfg.MetricsListen != "" {
		t.Fatalf("expected metrics disabled, got %q", cfg.MetricsListen)
	}
	if cfg.LogLevel != "error" {
		t.Fatalf("expected logLevel=error, got %q", cfg.LogLevel)
	}
	if cfg.MaxTxBytes != 2048 {
		t.Fatalf("expected maxTxBytes=2048, got %d", cfg.MaxTxBytes)
	}
}

func TestApplyEnvOverridesRejectsBadNumber(t *testing.T) {
	t.Setenv(EnvMaxTxBytes, "lots")
	cfg := Default()
	if err := ApplyEnvOverrides(&cfg); err == nil {
		t.Fatal("expected error for non-numeric max tx bytes")
	}
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv(EnvListen, "127.0.0.1:7000")
	cfg, err := Load(writeFile(t, "listen: 127.0.0.1:6000\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Listen != "127.0.0.1:7000" {
		t.Fatalf("expected env to win, got %q", cfg.Listen)
	}
}

func TestGenesisDoc(t *testing.T) {
	cfg := Default()
	cfg.Genesis = map[string]string{"alice": "100"}
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	doc, err := cfg.GenesisDoc(now)
	if err != nil {
		t.Fatalf("GenesisDoc: %v", err)
	}
	if doc.ChainID != cfg.ChainID || doc.InitialHeight != 1 {
		t.Fatalf("unexpected genesis: %+v", doc)
	}
	if doc.ConsensusParams.MaxTxBytes != cfg.MaxTxBytes {
		t.Fatalf("expected MaxTxBytes=%d, got %d", cfg.MaxTxBytes, doc.ConsensusParams.MaxTxBytes)
	}
	if !doc.GenesisTime.ToTime().Equal(now) {
		t.Fatalf("unexpected genesis time %v", doc.GenesisTime.ToTime())
	}

	var gs app.GenesisState
	if err := json.Unmarshal(doc.AppState, &gs); err != nil {
		t.Fatalf("decode app state: %v", err)
	}
	if gs.Balances["alice"] != "100" {
		t.Fatalf("expected alice=100 in app state, got %v", gs.Balances)
	}
}
