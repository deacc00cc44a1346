// Package transcript is the caption retrieval core: video id resolution,
// caption track selection, the sequential download pipeline and output
// encodings. Network access is delegated to a TrackLister and a LineFetcher.
package transcript

import (
	"context"
	"fmt"
	"strings"
)

// VideoID is YouTube's 11-character video identifier.
type VideoID string

func (id VideoID) String() string { return string(id) }

// CaptionTrack is one language variant of a video's captions.
type CaptionTrack struct {
	LanguageCode    string `json:"language_code"`
	LanguageName    string `json:"language_name"`
	IsAutoGenerated bool   `json:"auto_generated"`
	// TrackURI locates the timed-text payload. Opaque to the core.
	TrackURI string `json:"-"`
}

// Line is one timed cue. Start and Duration are seconds.
type Line struct {
	Text     string  `json:"text"`
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
}

// End returns Start + Duration.
func (l Line) End() float64 { return l.Start + l.Duration }

// Format is a closed set of output encodings.
type Format int

const (
	FormatTXT Format = iota
	FormatSRT
	FormatJSON
)

var formatNames = [...]string{
	FormatTXT:  "txt",
	FormatSRT:  "srt",
	FormatJSON: "json",
}

// Formats lists every supported format in display order.
func Formats() []Format { return []Format{FormatTXT, FormatSRT, FormatJSON} }

// FormatNames returns "txt, srt, json".
func FormatNames() string {
	names := make([]string, 0, len(formatNames))
	for _, f := range Formats() {
		names = append(names, f.String())
	}
	return strings.Join(names, ", ")
}

func (f Format) String() string {
	if f < 0 || int(f) >= len(formatNames) {
		return fmt.Sprintf("Format(%d)", int(f))
	}
	return formatNames[f]
}

// Extension returns the file extension for f; it is the format's name.
func (f Format) Extension() string { return f.String() }

// ParseFormat maps a format name to its Format. Matching is exact.
func ParseFormat(s string) (Format, error) {
	for _, f := range Formats() {
		if f.String() == s {
			return f, nil
		}
	}
	return 0, fmt.Errorf("unknown format %q (want one of: %s)", s, FormatNames())
}

// TrackLister discovers the caption tracks of a video.
type TrackLister interface {
	ListTracks(ctx context.Context, id VideoID) ([]CaptionTrack, error)
}

// LineFetcher retrieves and parses the timed-text payload of a track.
type LineFetcher interface {
	FetchLines(ctx context.Context, track CaptionTrack) ([]Line, error)
}
