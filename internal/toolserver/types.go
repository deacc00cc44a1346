package toolserver

import "github.com/anatolykoptev/go_transcript/internal/transcript"

// TranscriptInput is the youtube_transcript tool input.
type TranscriptInput struct {
	URL        string `json:"url" jsonschema:"YouTube video URL or 11-character video ID"`
	Lang       string `json:"lang,omitempty" jsonschema:"Caption language code, e.g. en, ja, pt-BR (default: first manually authored track)"`
	Format     string `json:"format,omitempty" jsonschema:"Output format: txt, srt, json (default: txt)"`
	Timestamps bool   `json:"timestamps,omitempty" jsonschema:"Prefix txt lines with [MM:SS]"`
}

// TranscriptOutput is the youtube_transcript tool result.
type TranscriptOutput struct {
	VideoID       string `json:"video_id"`
	Language      string `json:"language"`
	LanguageName  string `json:"language_name"`
	AutoGenerated bool   `json:"auto_generated"`
	Format        string `json:"format"`
	Extension     string `json:"extension"`
	LineCount     int    `json:"line_count"`
	Content       string `json:"content"`
}

// LanguagesInput is the youtube_caption_languages tool input.
type LanguagesInput struct {
	URL  string `json:"url" jsonschema:"YouTube video URL or 11-character video ID"`
	Lang string `json:"lang,omitempty" jsonschema:"Language code to check for; the result marks the track that would be downloaded"`
}

// LanguagesOutput is the youtube_caption_languages tool result.
type LanguagesOutput struct {
	VideoID  string                    `json:"video_id"`
	Tracks   []transcript.CaptionTrack `json:"tracks"`
	Selected string                    `json:"selected"`
}
