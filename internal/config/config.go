package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/anatolykoptev/go-kit/env"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// AppName names the config directory and the binary.
const AppName = "youtube-transcript-downloader"

// Defaults are the per-run choices a flag can override.
type Defaults struct {
	Language   string `toml:"language"`
	Format     string `toml:"format"`
	Timestamps bool   `toml:"timestamps"`
	OutputDir  string `toml:"output_dir"`
}

// Network configures the transport and the caller-side policies around it.
type Network struct {
	TimeoutSeconds    int     `toml:"timeout_seconds"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	Retries           int     `toml:"retries"`
	UserAgent         string  `toml:"user_agent"`
	Stealth           bool    `toml:"stealth"`
	WebshareAPIKey    string  `toml:"webshare_api_key"`
	Client            string  `toml:"client"`
	HL                string  `toml:"hl"`
}

// Cache configures the serve-mode tool output cache.
type Cache struct {
	RedisURL   string `toml:"redis_url"`
	TTLSeconds int    `toml:"ttl_seconds"`
	MaxEntries int    `toml:"max_entries"`
}

// Serve configures the MCP tool server.
type Serve struct {
	Port string `toml:"port"`
}

// Logging configures the default slog handler.
type Logging struct {
	Level string `toml:"level"`
}

// Config encapsulates all configuration values.
type Config struct {
	Defaults Defaults `toml:"defaults"`
	Network  Network  `toml:"network"`
	Cache    Cache    `toml:"cache"`
	Serve    Serve    `toml:"serve"`
	Logging  Logging  `toml:"logging"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Defaults: Defaults{Format: "txt"},
		Network: Network{
			TimeoutSeconds: 30,
			Client:         "web",
			HL:             "en",
		},
		Cache: Cache{TTLSeconds: 900, MaxEntries: 1000},
		Serve: Serve{Port: "8893"},
		Logging: Logging{Level: "info"},
	}
}

// SampleConfig returns a commented config file with the default values.
func SampleConfig() string { return sampleConfig }

// DefaultConfigPath returns $XDG_CONFIG_HOME/youtube-transcript-downloader/config.toml.
func DefaultConfigPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config directory: %w", err)
	}
	return filepath.Join(dir, AppName, "config.toml"), nil
}

// Load reads the config file at path (or the default location when empty),
// overlays the environment and validates the result. A missing file is not
// an error; exists reports whether one was read.
func Load(path string) (cfg *Config, resolved string, exists bool, err error) {
	c := Default()

	resolved, exists, err = resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolved)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		if err := toml.NewDecoder(file).Decode(&c); err != nil {
			return nil, "", false, fmt.Errorf("parse config %s: %w", resolved, err)
		}
		slog.Debug("config: file loaded", slog.String("path", resolved))
	}

	if err := c.applyEnv(); err != nil {
		return nil, "", false, err
	}
	c.normalize()

	if err := c.Validate(); err != nil {
		return nil, "", false, err
	}
	return &c, resolved, exists, nil
}

// WriteSample creates path with the sample config. It refuses to overwrite.
func WriteSample(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("create config: %w", err)
	}
	if _, err := f.WriteString(sampleConfig); err != nil {
		f.Close()
		return fmt.Errorf("write config: %w", err)
	}
	return f.Close()
}

func resolveConfigPath(path string) (string, bool, error) {
	if path == "" {
		def, err := DefaultConfigPath()
		if err != nil {
			// No home and no XDG dir: run on defaults.
			return "", false, nil //nolint:nilerr
		}
		path = def
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return path, false, nil
		}
		return "", false, fmt.Errorf("stat config: %w", err)
	}
	if info.IsDir() {
		return "", false, fmt.Errorf("config path %s is a directory", path)
	}
	return path, true, nil
}

// applyEnv overlays environment variables; the current values act as defaults.
func (c *Config) applyEnv() error {
	c.Defaults.Language = env.Str("YTT_LANG", c.Defaults.Language)
	c.Defaults.Format = env.Str("YTT_FORMAT", c.Defaults.Format)
	c.Defaults.OutputDir = env.Str("YTT_OUTPUT_DIR", c.Defaults.OutputDir)

	timeout := env.Duration("YTT_TIMEOUT", time.Duration(c.Network.TimeoutSeconds)*time.Second)
	c.Network.TimeoutSeconds = int(timeout / time.Second)
	c.Network.RequestsPerSecond = env.Float("REQUESTS_PER_SECOND", c.Network.RequestsPerSecond)
	c.Network.Retries = env.Int("YTT_RETRIES", c.Network.Retries)
	c.Network.UserAgent = env.Str("YTT_USER_AGENT", c.Network.UserAgent)
	c.Network.WebshareAPIKey = env.Str("WEBSHARE_API_KEY", c.Network.WebshareAPIKey)
	c.Network.Client = env.Str("YTT_CLIENT", c.Network.Client)
	c.Network.HL = env.Str("YTT_HL", c.Network.HL)

	c.Cache.RedisURL = env.Str("REDIS_URL", c.Cache.RedisURL)
	ttl := env.Duration("CACHE_TTL", time.Duration(c.Cache.TTLSeconds)*time.Second)
	c.Cache.TTLSeconds = int(ttl / time.Second)
	c.Cache.MaxEntries = env.Int("CACHE_MAX_ENTRIES", c.Cache.MaxEntries)

	c.Serve.Port = env.Str("MCP_PORT", c.Serve.Port)
	c.Logging.Level = env.Str("LOG_LEVEL", c.Logging.Level)

	var err error
	if c.Defaults.Timestamps, err = envBool("YTT_TIMESTAMPS", c.Defaults.Timestamps); err != nil {
		return err
	}
	if c.Network.Stealth, err = envBool("YTT_STEALTH", c.Network.Stealth); err != nil {
		return err
	}
	return nil
}

func envBool(key string, def bool) (bool, error) {
	raw := env.Str(key, "")
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return def, fmt.Errorf("%s: invalid boolean %q", key, raw)
	}
	return v, nil
}

func (c *Config) normalize() {
	c.Defaults.Language = strings.TrimSpace(c.Defaults.Language)
	c.Defaults.Format = strings.ToLower(strings.TrimSpace(c.Defaults.Format))
	c.Network.Client = strings.ToLower(strings.TrimSpace(c.Network.Client))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Defaults.OutputDir != "" {
		c.Defaults.OutputDir = expandHome(c.Defaults.OutputDir)
	}
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p[1:], "/"))
}

// Timeout is the deadline for one run; zero disables it.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Network.TimeoutSeconds) * time.Second
}

// CacheTTL is the lifetime of cached tool outputs.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLSeconds) * time.Second
}

// SlogLevel maps logging.level onto slog.
func (c *Config) SlogLevel() slog.Level {
	switch c.Logging.Level {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
