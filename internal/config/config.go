// Package config loads the ledgerd daemon configuration: defaults, then a
// YAML file, then environment overrides.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/blockberries/ledgerkit/app"
	"github.com/blockberries/ledgerkit/types"
)

// Environment variables read by ApplyEnvOverrides.
const (
	EnvListen        = "LEDGERKIT_LISTEN"
	EnvMetricsListen = "LEDGERKIT_METRICS_LISTEN"
	EnvLogLevel      = "LEDGERKIT_LOG_LEVEL"
	EnvMaxTxBytes    = "LEDGERKIT_MAX_TX_BYTES"
)

// Config is the resolved daemon configuration.
type Config struct {
	ChainID       string
	Listen        string
	MetricsListen string // empty disables the metrics endpoint
	LogLevel      string
	MaxTxBytes    uint64
	// Genesis maps account to decimal balance.
	Genesis map[string]string
}

// File is the YAML layout. Zero fields leave the default in place.
type File struct {
	ChainID       string            `yaml:"chainId"`
	Listen        string            `yaml:"listen"`
	MetricsListen *string           `yaml:"metricsListen"`
	LogLevel      string            `yaml:"logLevel"`
	MaxTxBytes    uint64            `yaml:"maxTxBytes"`
	Genesis       map[string]string `yaml:"genesis"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		ChainID:       "ledgerkit-local",
		Listen:        "127.0.0.1:26658",
		MetricsListen: "127.0.0.1:26660",
		LogLevel:      "info",
		MaxTxBytes:    64 * 1024,
	}
}

// Load resolves the configuration from path. An empty path tries
// configs/ledgerd.yaml and skips it if missing; an explicit path must
// exist.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = "configs/ledgerd.yaml"
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		var parsed File
		if err := yaml.Unmarshal(data, &parsed); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
		Merge(&cfg, parsed)
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return Config{}, fmt.Errorf("config: %w", err)
	}

	if err := ApplyEnvOverrides(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Merge copies every set field of src into dst.
func Merge(dst *Config, src File) {
	if src.ChainID != "" {
		dst.ChainID = src.ChainID
	}
	if src.Listen != "" {
		dst.Listen = src.Listen
	}
	if src.MetricsListen != nil {
		dst.MetricsListen = *src.MetricsListen
	}
	if src.LogLevel != "" {
		dst.LogLevel = src.LogLevel
	}
	if src.MaxTxBytes != 0 {
		dst.MaxTxBytes = src.MaxTxBytes
	}
	if src.Genesis != nil {
		dst.Genesis = src.Genesis
	}
}

// ApplyEnvOverrides applies the LEDGERKIT_* variables. A set but empty
// LEDGERKIT_METRICS_LISTEN disables metrics.
func ApplyEnvOverrides(cfg *Config) error {
	if v := strings.TrimSpace(os.Getenv(EnvListen)); v != "" {
		cfg.Listen = v
	}
	if v, ok := os.LookupEnv(EnvMetricsListen); ok {
		cfg.MetricsListen = strings.TrimSpace(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.LogLevel = v
	}
	if raw := strings.TrimSpace(os.Getenv(EnvMaxTxBytes)); raw != "" {
		n, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("config: %s: %w", EnvMaxTxBytes, err)
		}
		cfg.MaxTxBytes = n
	}
	return nil
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	if c.ChainID == "" {
		return errors.New("config: chain id is empty")
	}
	if c.Listen == "" {
		return errors.New("config: listen address is empty")
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel.
func (c Config) Level() (zapcore.Level, error) {
	lvl, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return lvl, fmt.Errorf("config: log level: %w", err)
	}
	return lvl, nil
}

// GenesisDoc builds the genesis document handed to the runtime at the
// first handshake. Genesis balances are validated by the runtime.
func (c Config) GenesisDoc(now time.Time) (types.GenesisDoc, error) {
	appState, err := json.Marshal(app.GenesisState{Balances: c.Genesis})
	if err != nil {
		return types.GenesisDoc{}, fmt.Errorf("config: genesis: %w", err)
	}
	return types.GenesisDoc{
		ChainID:       c.ChainID,
		GenesisTime:   types.TimeToTimestamp(now),
		InitialHeight: 1,
		ConsensusParams: types.ConsensusParams{
			MaxTxBytes: c.MaxTxBytes,
		},
		AppState: appState,
	}, nil
}
