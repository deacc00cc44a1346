package engine

import (
	"net/http"
	"time"
)

// Config holds all engine configuration, injected from main.
type Config struct {
	HTTPClient        *http.Client   // nil = newFetchClient()
	BrowserClient     *BrowserClient // nil = plain net/http transport
	FetchTimeout      time.Duration
	MaxBodyBytes      int64
	RequestsPerSecond float64 // 0 = unlimited
	UserAgent         string  // empty = rotate browser user agents
	Language          string  // hl sent to YouTube
}

// Defaults applied by Init to zero-valued fields.
const (
	DefaultFetchTimeout = 15 * time.Second
	DefaultMaxBodyBytes = 8 << 20
	DefaultLanguage     = "en"
)

var cfg Config

// Cfg exposes the engine configuration for sub-packages (sources).
// Always points to the current cfg value.
var Cfg = &cfg

// Init initializes the engine with the given configuration.
func Init(c Config) {
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = DefaultFetchTimeout
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if c.Language == "" {
		c.Language = DefaultLanguage
	}
	cfg = c
	Cfg = &cfg
}
