package toolserver

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/anatolykoptev/go_transcript/internal/engine"
	"github.com/anatolykoptev/go_transcript/internal/transcript"
)

type stubLister struct {
	tracks []transcript.CaptionTrack
	errs   []error // returned in order, then nil
	calls  int
}

func (s *stubLister) ListTracks(_ context.Context, _ transcript.VideoID) ([]transcript.CaptionTrack, error) {
	s.calls++
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	return s.tracks, nil
}

type stubFetcher struct {
	lines []transcript.Line
	calls int
}

func (s *stubFetcher) FetchLines(_ context.Context, _ transcript.CaptionTrack) ([]transcript.Line, error) {
	s.calls++
	return s.lines, nil
}

func newTools(t *testing.T, lister *stubLister, fetcher *stubFetcher, retries int) *tools {
	t.Helper()
	engine.InitCache("", time.Minute, 100, time.Minute)
	return &tools{
		svc: transcript.NewService(lister, fetcher),
		opts: Options{
			Retry:   engine.RetryConfig{MaxRetries: retries, InitialWait: time.Millisecond, MaxWait: time.Millisecond, Multiplier: 2},
			Timeout: time.Second,
		},
	}
}

var sampleTracks = []transcript.CaptionTrack{
	{LanguageCode: "en", LanguageName: "English", IsAutoGenerated: true, TrackURI: "u-en"},
	{LanguageCode: "ja", LanguageName: "Japanese", TrackURI: "u-ja"},
}

func TestTranscriptTool(t *testing.T) {
	lister := &stubLister{tracks: sampleTracks}
	fetcher := &stubFetcher{lines: []transcript.Line{{Text: "こんにちは", Start: 0, Duration: 1}}}
	tl := newTools(t, lister, fetcher, 0)

	out, err := tl.transcript(context.Background(), TranscriptInput{URL: "https://youtu.be/aqz-KE-bpKQ", Format: "json"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.VideoID != "aqz-KE-bpKQ" || out.Language != "ja" || out.AutoGenerated {
		t.Errorf("unexpected output: %+v", out)
	}
	if out.Extension != "json" || out.LineCount != 1 {
		t.Errorf("unexpected output: %+v", out)
	}
	if !strings.Contains(out.Content, `"text": "こんにちは"`) {
		t.Errorf("content = %q", out.Content)
	}

	// Same video through another URL shape is served from cache.
	again, err := tl.transcript(context.Background(), TranscriptInput{URL: "aqz-KE-bpKQ", Format: "json"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if again != out {
		t.Errorf("cached output differs: %+v", again)
	}
	if lister.calls != 1 || fetcher.calls != 1 {
		t.Errorf("expected one network pass, got lister=%d fetcher=%d", lister.calls, fetcher.calls)
	}
}

func TestTranscriptToolValidation(t *testing.T) {
	tests := []struct {
		name    string
		input   TranscriptInput
		wantErr string
	}{
		{"missing url", TranscriptInput{}, "url is required"},
		{"bad format", TranscriptInput{URL: "aqz-KE-bpKQ", Format: "vtt"}, "unknown format"},
		{"bad url", TranscriptInput{URL: "https://example.com/watch"}, "INVALID_URL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lister := &stubLister{tracks: sampleTracks}
			tl := newTools(t, lister, &stubFetcher{}, 0)
			_, err := tl.transcript(context.Background(), tt.input)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want mention of %q", err, tt.wantErr)
			}
			if lister.calls != 0 {
				t.Errorf("validation failure reached the network")
			}
		})
	}
}

func TestTranscriptToolRetriesTransientFailure(t *testing.T) {
	transient := transcript.NewFetchError("", "watch page request failed", &engine.StatusError{StatusCode: 503})
	lister := &stubLister{tracks: sampleTracks, errs: []error{transient}}
	tl := newTools(t, lister, &stubFetcher{lines: []transcript.Line{{Text: "hi"}}}, 2)

	out, err := tl.transcript(context.Background(), TranscriptInput{URL: "M7lc1UVf-VE"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.LineCount != 1 || lister.calls != 2 {
		t.Errorf("expected success on second attempt, calls=%d out=%+v", lister.calls, out)
	}
}

func TestTranscriptToolDoesNotRetryPermanentFailure(t *testing.T) {
	lister := &stubLister{errs: []error{transcript.NewVideoUnavailableError("", "private video")}}
	tl := newTools(t, lister, &stubFetcher{}, 3)

	_, err := tl.transcript(context.Background(), TranscriptInput{URL: "9bZkp7q19f0"})
	if !transcript.IsCode(err, transcript.ErrorCodeVideoUnavailable) {
		t.Fatalf("error = %v, want VIDEO_UNAVAILABLE", err)
	}
	if !strings.HasPrefix(err.Error(), "VIDEO_UNAVAILABLE: ") {
		t.Errorf("error %q lacks code prefix", err)
	}
	if lister.calls != 1 {
		t.Errorf("expected a single attempt, got %d", lister.calls)
	}
}

func TestLanguagesTool(t *testing.T) {
	lister := &stubLister{tracks: sampleTracks}
	fetcher := &stubFetcher{}
	tl := newTools(t, lister, fetcher, 0)

	out, err := tl.languages(context.Background(), LanguagesInput{URL: "https://www.youtube.com/watch?v=kJQP7kiw5Fk", Lang: "EN"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.VideoID != "kJQP7kiw5Fk" || len(out.Tracks) != 2 || out.Selected != "en" {
		t.Errorf("unexpected output: %+v", out)
	}
	if fetcher.calls != 0 {
		t.Error("listing languages must not fetch a payload")
	}

	_, err = tl.languages(context.Background(), LanguagesInput{URL: "kJQP7kiw5Fk", Lang: "ko"})
	var te *transcript.Error
	if !errors.As(err, &te) || te.Code != transcript.ErrorCodeLanguageNotFound {
		t.Fatalf("error = %v, want LANGUAGE_NOT_FOUND", err)
	}
}

func TestRegisterTools(t *testing.T) {
	server := mcp.NewServer(&mcp.Implementation{Name: "test", Version: "0"}, nil)
	if n := RegisterTools(server, transcript.NewService(&stubLister{}, &stubFetcher{}), Options{}); n != 2 {
		t.Errorf("registered %d tools, want 2", n)
	}
}
