package config

import (
	"errors"
	"fmt"

	"github.com/anatolykoptev/go_transcript/internal/engine/sources"
	"github.com/anatolykoptev/go_transcript/internal/transcript"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateDefaults(); err != nil {
		return err
	}
	if err := c.validateNetwork(); err != nil {
		return err
	}
	if err := c.validateCache(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateDefaults() error {
	if _, err := transcript.ParseFormat(c.Defaults.Format); err != nil {
		return fmt.Errorf("defaults.format: %w", err)
	}
	return nil
}

func (c *Config) validateNetwork() error {
	if c.Network.TimeoutSeconds < 0 {
		return errors.New("network.timeout_seconds must not be negative")
	}
	if c.Network.RequestsPerSecond < 0 {
		return errors.New("network.requests_per_second must not be negative")
	}
	if c.Network.Retries < 0 {
		return errors.New("network.retries must not be negative")
	}
	if _, err := sources.ParseClientMode(c.Network.Client); err != nil {
		return fmt.Errorf("network.client: %w", err)
	}
	return nil
}

func (c *Config) validateCache() error {
	if c.Cache.TTLSeconds < 0 {
		return errors.New("cache.ttl_seconds must not be negative")
	}
	if c.Cache.MaxEntries < 0 {
		return errors.New("cache.max_entries must not be negative")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
		return nil
	}
	return fmt.Errorf("logging.level must be one of debug, info, warn, error (got %q)", c.Logging.Level)
}
