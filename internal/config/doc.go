// Package config loads youtube-transcript-downloader settings.
//
// Values are layered: built-in defaults, then the TOML file, then
// environment variables. Command-line flags are applied by the caller.
package config
