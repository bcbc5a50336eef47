// Package config loads the settings of the spdctl command from an optional YAML or TOML file
// and the environment.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/arloliu/go-spd3303x/logger"
)

const (
	// EnvHost names the environment variable holding the supply address, "name[:port]".
	EnvHost = "TEST_SPD3303X"
	// EnvSerial names the environment variable holding the expected serial number.
	EnvSerial = "TEST_SPD3303X_SERIAL"

	DefaultDialTimeout    = 3 * time.Second
	DefaultRequestTimeout = 2 * time.Second
	DefaultLogLevel       = "info"
)

// ErrConfig is returned for any missing, malformed or inconsistent setting.
var ErrConfig = errors.New("config: invalid configuration")

// Config holds the spdctl settings.
type Config struct {
	Host           string
	Serial         string
	DialTimeout    time.Duration
	RequestTimeout time.Duration
	LogLevel       string
	MetricsAddr    string
}

// fileConfig is the on-disk layout shared by the YAML and TOML formats.
type fileConfig struct {
	Host           string `yaml:"host"            toml:"host"`
	Serial         string `yaml:"serial"          toml:"serial"`
	DialTimeout    string `yaml:"dial_timeout"    toml:"dial_timeout"`
	RequestTimeout string `yaml:"request_timeout" toml:"request_timeout"`
	LogLevel       string `yaml:"log_level"       toml:"log_level"`
	MetricsAddr    string `yaml:"metrics_addr"    toml:"metrics_addr"`
}

// Default returns the settings used when neither a file nor the environment sets a value.
func Default() *Config {
	return &Config{
		DialTimeout:    DefaultDialTimeout,
		RequestTimeout: DefaultRequestTimeout,
		LogLevel:       DefaultLogLevel,
	}
}

// Load reads path when it is not empty, applies the environment overrides and validates the
// result. The file format is chosen by extension: .yaml, .yml or .toml.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := readFile(path)
		if err != nil {
			return nil, err
		}
		if err := cfg.merge(raw); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func readFile(path string) (*fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfig, err)
	}

	var raw fileConfig
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		// io.EOF means an empty document, which keeps the defaults
		if err := dec.Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: parse %s: %w", ErrConfig, path, err)
		}
	case ".toml":
		meta, err := toml.Decode(string(data), &raw)
		if err != nil {
			return nil, fmt.Errorf("%w: parse %s: %w", ErrConfig, path, err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("%w: parse %s: unknown keys %v", ErrConfig, path, undecoded)
		}
	default:
		return nil, fmt.Errorf("%w: unsupported file extension %q", ErrConfig, ext)
	}

	return &raw, nil
}

func (cfg *Config) merge(raw *fileConfig) error {
	if v := strings.TrimSpace(raw.Host); v != "" {
		cfg.Host = v
	}
	if v := strings.TrimSpace(raw.Serial); v != "" {
		cfg.Serial = v
	}
	if v := strings.TrimSpace(raw.LogLevel); v != "" {
		cfg.LogLevel = v
	}
	if v := strings.TrimSpace(raw.MetricsAddr); v != "" {
		cfg.MetricsAddr = v
	}

	var err error
	if cfg.DialTimeout, err = parseDuration("dial_timeout", raw.DialTimeout, cfg.DialTimeout); err != nil {
		return err
	}
	if cfg.RequestTimeout, err = parseDuration("request_timeout", raw.RequestTimeout, cfg.RequestTimeout); err != nil {
		return err
	}

	return nil
}

func parseDuration(key string, value string, fallback time.Duration) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback, nil
	}

	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%w: parse %s: %w", ErrConfig, key, err)
	}

	return d, nil
}

func (cfg *Config) applyEnv() {
	if v, ok := os.LookupEnv(EnvHost); ok && strings.TrimSpace(v) != "" {
		cfg.Host = strings.TrimSpace(v)
	}
	if v, ok := os.LookupEnv(EnvSerial); ok && strings.TrimSpace(v) != "" {
		cfg.Serial = strings.TrimSpace(v)
	}
}

// Validate reports the first invalid setting.
func (cfg *Config) Validate() error {
	if cfg.Host == "" {
		return fmt.Errorf("%w: host is required, set %s or the host key", ErrConfig, EnvHost)
	}
	if cfg.Serial == "" {
		return fmt.Errorf("%w: serial is required, set %s or the serial key", ErrConfig, EnvSerial)
	}
	if cfg.DialTimeout <= 0 {
		return fmt.Errorf("%w: dial_timeout must be positive", ErrConfig)
	}
	if cfg.RequestTimeout <= 0 {
		return fmt.Errorf("%w: request_timeout must be positive", ErrConfig)
	}
	if _, err := logger.ParseLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("%w: %w", ErrConfig, err)
	}

	return nil
}
