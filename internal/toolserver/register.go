// Package toolserver exposes the transcript pipeline as MCP tools.
package toolserver

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/anatolykoptev/go_transcript/internal/engine"
	"github.com/anatolykoptev/go_transcript/internal/toolutil"
	"github.com/anatolykoptev/go_transcript/internal/transcript"
)

// Options are the caller-side policies applied around every tool call.
type Options struct {
	Retry   engine.RetryConfig
	Timeout time.Duration // per call; 0 = none
}

type tools struct {
	svc  *transcript.Service
	opts Options
}

// RegisterTools registers youtube_transcript and youtube_caption_languages on
// the given MCP server and returns how many tools were added.
func RegisterTools(server *mcp.Server, svc *transcript.Service, opts Options) int {
	t := &tools{svc: svc, opts: opts}

	mcp.AddTool(server, &mcp.Tool{
		Name:        "youtube_transcript",
		Description: "Download the captions of a YouTube video as plain text, SRT subtitles or a JSON array of {text, start, duration} cues. Picks the requested language, otherwise the first manually authored track, otherwise the auto-generated one.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input TranscriptInput) (*mcp.CallToolResult, TranscriptOutput, error) {
		out, err := t.transcript(ctx, input)
		return nil, out, err
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "youtube_caption_languages",
		Description: "List the caption tracks available for a YouTube video: language code, language name and whether the track is auto-generated.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input LanguagesInput) (*mcp.CallToolResult, LanguagesOutput, error) {
		out, err := t.languages(ctx, input)
		return nil, out, err
	})

	return 2
}

func (t *tools) transcript(ctx context.Context, input TranscriptInput) (TranscriptOutput, error) {
	engine.IncrToolCalls()
	if input.URL == "" {
		return TranscriptOutput{}, t.fail("youtube_transcript", fmt.Errorf("url is required"))
	}
	format := transcript.FormatTXT
	if input.Format != "" {
		f, err := transcript.ParseFormat(input.Format)
		if err != nil {
			return TranscriptOutput{}, t.fail("youtube_transcript", err)
		}
		format = f
	}
	id, err := transcript.Resolve(input.URL)
	if err != nil {
		return TranscriptOutput{}, t.fail("youtube_transcript", err)
	}

	cacheKey := engine.CacheKey("youtube_transcript", id.String(), input.Lang, format.String(), fmt.Sprint(input.Timestamps))
	if out, ok := toolutil.CacheLoadJSON[TranscriptOutput](ctx, cacheKey); ok {
		return out, nil
	}

	ctx, cancel := t.deadline(ctx)
	defer cancel()

	start := time.Now()
	var res *transcript.Result
	err = engine.TrackOperation(ctx, "youtube_transcript", func(ctx context.Context) error {
		var err error
		res, err = engine.RetryDo(ctx, t.opts.Retry, func() (*transcript.Result, error) {
			return t.svc.Download(ctx, transcript.Request{
				Input:      id.String(),
				Language:   input.Lang,
				Format:     format,
				Timestamps: input.Timestamps,
			})
		})
		return err
	})
	if err != nil {
		return TranscriptOutput{}, t.fail("youtube_transcript", err)
	}

	out := TranscriptOutput{
		VideoID:       res.VideoID.String(),
		Language:      res.Track.LanguageCode,
		LanguageName:  res.Track.LanguageName,
		AutoGenerated: res.Track.IsAutoGenerated,
		Format:        format.String(),
		Extension:     res.Extension,
		LineCount:     len(res.Lines),
		Content:       res.Content,
	}
	toolutil.CacheStoreJSON(ctx, cacheKey, out)
	slog.Info("tool: youtube_transcript",
		slog.String("id", out.VideoID),
		slog.String("lang", out.Language),
		slog.Int("lines", out.LineCount),
		slog.Duration("elapsed", time.Since(start)))
	return out, nil
}

func (t *tools) languages(ctx context.Context, input LanguagesInput) (LanguagesOutput, error) {
	engine.IncrToolCalls()
	if input.URL == "" {
		return LanguagesOutput{}, t.fail("youtube_caption_languages", fmt.Errorf("url is required"))
	}
	id, err := transcript.Resolve(input.URL)
	if err != nil {
		return LanguagesOutput{}, t.fail("youtube_caption_languages", err)
	}

	cacheKey := engine.CacheKey("youtube_caption_languages", id.String(), input.Lang)
	if out, ok := toolutil.CacheLoadJSON[LanguagesOutput](ctx, cacheKey); ok {
		return out, nil
	}

	ctx, cancel := t.deadline(ctx)
	defer cancel()

	var listing *transcript.Listing
	err = engine.TrackOperation(ctx, "youtube_caption_languages", func(ctx context.Context) error {
		var err error
		listing, err = engine.RetryDo(ctx, t.opts.Retry, func() (*transcript.Listing, error) {
			return t.svc.Languages(ctx, id.String(), input.Lang)
		})
		return err
	})
	if err != nil {
		return LanguagesOutput{}, t.fail("youtube_caption_languages", err)
	}

	out := LanguagesOutput{
		VideoID:  listing.VideoID.String(),
		Tracks:   listing.Tracks,
		Selected: listing.Selected.LanguageCode,
	}
	toolutil.CacheStoreJSON(ctx, cacheKey, out)
	slog.Info("tool: youtube_caption_languages", slog.String("id", out.VideoID), slog.Int("tracks", len(out.Tracks)))
	return out, nil
}

func (t *tools) deadline(ctx context.Context) (context.Context, context.CancelFunc) {
	if t.opts.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, t.opts.Timeout)
}

// fail counts and logs a tool error and prefixes the error code when known.
func (t *tools) fail(tool string, err error) error {
	engine.IncrToolErrors()
	code := transcript.CodeOf(err)
	slog.Warn("tool: call failed", slog.String("tool", tool), slog.String("code", string(code)), slog.Any("error", err))
	if code == "" {
		return err
	}
	return fmt.Errorf("%s: %w", code, err)
}
