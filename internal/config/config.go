// Package config handles configuration file discovery and loading.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// FileName is the configuration file searched for.
const FileName = ".toolcat.yaml"

// EnvPrefix prefixes every environment override.
const EnvPrefix = "TOOLCAT_"

// ErrNotFound is returned by FindFile when no configuration file exists in
// the working directory or any parent.
var ErrNotFound = errors.New("config file not found")

// Config holds the toolcat configuration.
type Config struct {
	// Path is the file the configuration was read from, empty for defaults.
	Path string `yaml:"-"`

	Remote RemoteConfig `yaml:"remote"`
	Server ServerConfig `yaml:"server"`
	Log    LogConfig    `yaml:"log"`
}

// RemoteConfig configures the conversion service client.
type RemoteConfig struct {
	// URL of the conversion service. Empty disables remote conversion.
	URL              string        `yaml:"url"`
	Timeout          time.Duration `yaml:"timeout"`
	BreakerThreshold uint          `yaml:"breaker_threshold"`
	BreakerDelay     time.Duration `yaml:"breaker_delay"`
}

// ServerConfig configures the conversion service when run by toolcat serve.
type ServerConfig struct {
	Addr         string `yaml:"addr"`
	MaxBodyBytes int64  `yaml:"max_body_bytes"`
}

// LogConfig configures diagnostic logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Remote: RemoteConfig{
			URL:              "http://localhost:8080",
			Timeout:          10 * time.Second,
			BreakerThreshold: 5,
			BreakerDelay:     30 * time.Second,
		},
		Server: ServerConfig{
			Addr:         ":8080",
			MaxBodyBytes: 4 << 20,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "logfmt",
		},
	}
}

// FindFile searches upward from the current directory for FileName.
func FindFile() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}

	for {
		candidate := filepath.Join(dir, FileName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("%w: no %s in working directory or parents", ErrNotFound, FileName)
}

// Load reads the configuration at path, or the discovered file when path is
// empty. Without a file the defaults apply. Environment overrides are applied
// last and the result is validated.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		found, err := FindFile()
		switch {
		case err == nil:
			path = found
		case !errors.Is(err, ErrNotFound):
			return nil, err
		}
	}

	if path != "" {
		if err := cfg.readFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	c.Path = path
	return nil
}

// applyEnv overrides fields from TOOLCAT_* variables.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	var errs []error

	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = v
		}
	}
	duration := func(name string, dst *time.Duration) {
		if v, ok := lookup(EnvPrefix + name); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = d
		}
	}

	str("REMOTE_URL", &c.Remote.URL)
	duration("REMOTE_TIMEOUT", &c.Remote.Timeout)
	duration("REMOTE_BREAKER_DELAY", &c.Remote.BreakerDelay)
	if v, ok := lookup(EnvPrefix + "REMOTE_BREAKER_THRESHOLD"); ok {
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sREMOTE_BREAKER_THRESHOLD: %w", EnvPrefix, err))
		} else {
			c.Remote.BreakerThreshold = uint(n)
		}
	}

	str("SERVER_ADDR", &c.Server.Addr)
	if v, ok := lookup(EnvPrefix + "SERVER_MAX_BODY_BYTES"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sSERVER_MAX_BODY_BYTES: %w", EnvPrefix, err))
		} else {
			c.Server.MaxBodyBytes = n
		}
	}

	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)

	if len(errs) > 0 {
		return fmt.Errorf("environment overrides: %w", errors.Join(errs...))
	}
	return nil
}

// Validate checks the configuration and reports every problem found.
func (c *Config) Validate() error {
	var errs []error

	if c.Remote.URL != "" {
		u, err := url.Parse(c.Remote.URL)
		switch {
		case err != nil:
			errs = append(errs, fmt.Errorf("remote.url: %w", err))
		case u.Scheme != "http" && u.Scheme != "https":
			errs = append(errs, fmt.Errorf("remote.url: scheme must be http or https, got %q", u.Scheme))
		case u.Host == "":
			errs = append(errs, fmt.Errorf("remote.url: missing host"))
		}
	}
	if c.Remote.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("remote.timeout must be positive, got %s", c.Remote.Timeout))
	}
	if c.Remote.BreakerDelay < 0 {
		errs = append(errs, fmt.Errorf("remote.breaker_delay must not be negative, got %s", c.Remote.BreakerDelay))
	}
	if c.Server.Addr == "" {
		errs = append(errs, fmt.Errorf("server.addr is required"))
	}
	if c.Server.MaxBodyBytes <= 0 {
		errs = append(errs, fmt.Errorf("server.max_body_bytes must be positive, got %d", c.Server.MaxBodyBytes))
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level must be debug, info, warn or error, got %q", c.Log.Level))
	}
	switch c.Log.Format {
	case "logfmt", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be logfmt or json, got %q", c.Log.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// RemoteEnabled reports whether a conversion service is configured.
func (c *Config) RemoteEnabled() bool {
	return c.Remote.URL != ""
}
