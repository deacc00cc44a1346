package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anatolykoptev/go_transcript/internal/config"
	"github.com/anatolykoptev/go_transcript/internal/transcript"
)

type fakeLister struct {
	tracks []transcript.CaptionTrack
	err    error
}

func (f *fakeLister) ListTracks(_ context.Context, _ transcript.VideoID) ([]transcript.CaptionTrack, error) {
	return f.tracks, f.err
}

type fakeFetcher struct {
	lines []transcript.Line
	got   transcript.CaptionTrack
}

func (f *fakeFetcher) FetchLines(_ context.Context, t transcript.CaptionTrack) ([]transcript.Line, error) {
	f.got = t
	return f.lines, nil
}

var cliTracks = []transcript.CaptionTrack{
	{LanguageCode: "en", LanguageName: "English (auto-generated)", IsAutoGenerated: true, TrackURI: "u-en"},
	{LanguageCode: "ja", LanguageName: "Japanese", TrackURI: "u-ja"},
}

var cliLines = []transcript.Line{
	{Text: "Hello", Start: 0, Duration: 1.5},
	{Text: "World", Start: 61.25, Duration: 2},
}

type cliResult struct {
	stdout string
	stderr string
	err    error
}

// runCLI executes the root command in an isolated environment. The working
// output directory is returned alongside the result.
func runCLI(t *testing.T, lister *fakeLister, fetcher *fakeFetcher, args ...string) (cliResult, string) {
	t.Helper()
	home := t.TempDir()
	out := filepath.Join(home, "out")
	t.Setenv("XDG_CONFIG_HOME", home)
	t.Setenv("HOME", home)
	for _, k := range []string{"YTT_LANG", "YTT_FORMAT", "YTT_TIMESTAMPS", "YTT_RETRIES", "YTT_TIMEOUT", "LOG_LEVEL"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
	t.Setenv("YTT_OUTPUT_DIR", out)

	d := deps{
		newService: func(*config.Config) (*transcript.Service, error) {
			return transcript.NewService(lister, fetcher), nil
		},
		isTerminal: func(io.Writer) bool { return false },
	}
	cmd := newRootCommand(d)
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return cliResult{stdout: stdout.String(), stderr: stderr.String(), err: err}, out
}

func defaultFakes() (*fakeLister, *fakeFetcher) {
	return &fakeLister{tracks: cliTracks}, &fakeFetcher{lines: cliLines}
}

func TestHelpAndVersion(t *testing.T) {
	l, f := defaultFakes()

	res, _ := runCLI(t, l, f, "--help")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "Usage:")
	assert.Contains(t, res.stdout, "Options:")
	assert.Contains(t, res.stdout, "--list-langs")

	for _, flag := range []string{"-v", "--version"} {
		res, _ = runCLI(t, l, f, flag)
		require.NoError(t, res.err)
		assert.Equal(t, "youtube-transcript-downloader v1.0.0\n", res.stdout)
	}
}

func TestUsageErrors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"unknown long option", []string{"dQw4w9WgXcQ", "--bogus"}, "Unknown option: --bogus"},
		{"invalid format", []string{"dQw4w9WgXcQ", "-f", "vtt"}, "--format must be one of: txt, srt, json"},
		{"output without value", []string{"dQw4w9WgXcQ", "-o"}, "--output requires a filename"},
		{"lang without value", []string{"dQw4w9WgXcQ", "--lang"}, "--lang requires a language code"},
		{"missing url", nil, "a YouTube URL or video ID is required"},
		{"negative retries", []string{"dQw4w9WgXcQ", "--retries", "-1"}, "--retries must not be negative"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, f := defaultFakes()
			res, _ := runCLI(t, l, f, tt.args...)
			require.Error(t, res.err)
			assert.Contains(t, res.err.Error(), tt.wantErr)
		})
	}
}

func TestInvalidURL(t *testing.T) {
	l, f := defaultFakes()
	res, _ := runCLI(t, l, f, "https://www.youtube.com/watch?list=PL123")
	require.Error(t, res.err)
	assert.True(t, transcript.IsCode(res.err, transcript.ErrorCodeInvalidURL), "got %v", res.err)
}

func TestListLanguages(t *testing.T) {
	l, f := defaultFakes()
	res, _ := runCLI(t, l, f, "https://www.youtube.com/watch?v=dQw4w9WgXcQ", "--list-langs")
	require.NoError(t, res.err)

	assert.Contains(t, res.stdout, "Video ID: dQw4w9WgXcQ")
	assert.Contains(t, res.stdout, "Available captions:")
	assert.Contains(t, res.stdout, "  en - English (auto-generated) (auto-generated)")
	assert.Contains(t, res.stdout, "* ja - Japanese (manual)")
	assert.Empty(t, f.got.TrackURI, "listing must not fetch a payload")
}

func TestDownloadWritesDefaultFile(t *testing.T) {
	l, f := defaultFakes()
	res, out := runCLI(t, l, f, "https://youtu.be/dQw4w9WgXcQ")
	require.NoError(t, res.err)

	path := filepath.Join(out, "dQw4w9WgXcQ.txt")
	assert.Contains(t, res.stdout, "Downloaded 2 lines (ja)")
	assert.Contains(t, res.stdout, "Saved: "+path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Hello\nWorld", string(data))
	assert.Equal(t, "u-ja", f.got.TrackURI)
}

func TestDownloadLanguageFormatAndOutput(t *testing.T) {
	l, f := defaultFakes()
	target := filepath.Join(t.TempDir(), "nested", "subs.srt")
	res, _ := runCLI(t, l, f, "dQw4w9WgXcQ", "-l", "EN", "-f", "srt", "-o", target)
	require.NoError(t, res.err)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "1\n00:00:00,000 --> 00:00:01,500\nHello\n"), "got %q", data)
	assert.Contains(t, string(data), "00:01:01,250 --> 00:01:03,250")
	assert.Equal(t, "u-en", f.got.TrackURI)
	assert.Contains(t, res.stdout, "Saved: "+target)
}

func TestDownloadToStdoutWithTimestamps(t *testing.T) {
	l, f := defaultFakes()
	res, _ := runCLI(t, l, f, "dQw4w9WgXcQ", "-t", "-o", "-")
	require.NoError(t, res.err)

	assert.Equal(t, "[00:00] Hello\n[01:01] World\n", res.stdout)
	assert.Contains(t, res.stderr, "Downloaded 2 lines (ja)")
	assert.NotContains(t, res.stderr, "Saved:")
}

func TestLanguageNotFound(t *testing.T) {
	l, f := defaultFakes()
	res, _ := runCLI(t, l, f, "dQw4w9WgXcQ", "-l", "ko")
	require.Error(t, res.err)
	assert.True(t, transcript.IsCode(res.err, transcript.ErrorCodeLanguageNotFound))
	assert.Contains(t, res.err.Error(), "en, ja")
}

func TestConfigInitAndShow(t *testing.T) {
	l, f := defaultFakes()
	target := filepath.Join(t.TempDir(), "config.toml")

	res, _ := runCLI(t, l, f, "config", "init", "--path", target)
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "Wrote sample configuration to "+target)

	res, _ = runCLI(t, l, f, "config", "init", "--path", target)
	require.Error(t, res.err, "init must not overwrite an existing file")

	res, _ = runCLI(t, l, f, "config", "show", "--config", target)
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "Configuration valid")
	assert.Contains(t, res.stdout, "defaults.format")
}
