package engine

import (
	"log/slog"

	stealth "github.com/anatolykoptev/go-stealth"
	"github.com/anatolykoptev/go-stealth/proxypool"
)

// Re-export stealth types and functions for engine consumers.
type BrowserClient = stealth.BrowserClient

func ChromeHeaders() map[string]string { return stealth.ChromeHeaders() }
func RandomUserAgent() string          { return stealth.RandomUserAgent() }
func IsRetryableStatus(code int) bool  { return stealth.IsRetryableStatus(code) }

// NewBrowserClient creates a TLS-fingerprinted client. With a non-empty
// webshareKey requests are routed through the Webshare proxy pool; a pool
// that fails to initialise is logged and skipped.
func NewBrowserClient(timeoutSeconds int, webshareKey string) (*BrowserClient, error) {
	opts := []stealth.ClientOption{stealth.WithTimeout(timeoutSeconds)}
	if webshareKey != "" {
		pool, err := proxypool.NewWebshare(webshareKey)
		if err != nil {
			slog.Warn("proxy pool init failed, running without proxy", slog.Any("error", err))
		} else {
			opts = append(opts, stealth.WithProxyPool(pool))
			slog.Info("proxy pool initialized", slog.Int("proxies", pool.Len()))
		}
	}
	return stealth.NewClient(opts...)
}
