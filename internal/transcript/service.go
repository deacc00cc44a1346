package transcript

import (
	"context"
	"errors"
	"log/slog"
)

// Request describes one download.
type Request struct {
	Input      string // URL or bare video id
	Language   string // optional language code
	Format     Format
	Timestamps bool
}

// Result is a completed download.
type Result struct {
	VideoID   VideoID
	Track     CaptionTrack
	Lines     []Line
	Content   string
	Extension string
}

// DefaultFilename is "<videoId>.<extension>".
func (r *Result) DefaultFilename() string {
	return string(r.VideoID) + "." + r.Extension
}

// Listing is the outcome of a catalog-only run.
type Listing struct {
	VideoID  VideoID
	Tracks   []CaptionTrack
	Selected CaptionTrack
}

// Service runs resolve → list tracks → select → fetch → format, each stage
// completing before the next starts. It holds no per-run state.
type Service struct {
	tracks TrackLister
	lines  LineFetcher
}

// NewService builds a Service over the two network-bound components.
func NewService(tracks TrackLister, lines LineFetcher) *Service {
	return &Service{tracks: tracks, lines: lines}
}

// Languages resolves input, lists its caption tracks and reports which track
// Select would pick for lang. It never fetches a payload.
func (s *Service) Languages(ctx context.Context, input, lang string) (*Listing, error) {
	id, catalog, err := s.catalog(ctx, input)
	if err != nil {
		return nil, err
	}
	selected, err := Select(catalog, lang)
	if err != nil {
		return nil, withVideo(err, id)
	}
	return &Listing{VideoID: id, Tracks: catalog, Selected: selected}, nil
}

// Download runs the whole pipeline. Any stage failure aborts the run and is
// returned unchanged; no partial result is produced.
func (s *Service) Download(ctx context.Context, req Request) (*Result, error) {
	id, catalog, err := s.catalog(ctx, req.Input)
	if err != nil {
		return nil, err
	}

	track, err := Select(catalog, req.Language)
	if err != nil {
		return nil, withVideo(err, id)
	}
	slog.Debug("transcript: track selected",
		slog.String("id", string(id)),
		slog.String("lang", track.LanguageCode),
		slog.Bool("auto", track.IsAutoGenerated))

	lines, err := s.lines.FetchLines(ctx, track)
	if err != nil {
		return nil, withVideo(err, id)
	}

	return &Result{
		VideoID:   id,
		Track:     track,
		Lines:     lines,
		Content:   FormatLines(lines, req.Format, req.Timestamps),
		Extension: req.Format.Extension(),
	}, nil
}

func (s *Service) catalog(ctx context.Context, input string) (VideoID, []CaptionTrack, error) {
	id, shape, err := ResolveShape(input)
	if err != nil {
		return "", nil, err
	}
	slog.Debug("transcript: video resolved", slog.String("id", string(id)), slog.String("shape", shape.String()))

	catalog, err := s.tracks.ListTracks(ctx, id)
	if err != nil {
		return "", nil, withVideo(err, id)
	}
	if len(catalog) == 0 {
		return "", nil, NewNoCaptionsError(id)
	}
	return id, catalog, nil
}

// withVideo fills in the video id on core errors that lack one.
func withVideo(err error, id VideoID) error {
	var te *Error
	if errors.As(err, &te) && te.VideoID == "" {
		te.VideoID = id
	}
	return err
}
