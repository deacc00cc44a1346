package sources

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strconv"

	"github.com/anatolykoptev/go_transcript/internal/engine"
	"github.com/anatolykoptev/go_transcript/internal/transcript"
)

// Timed-text payloads come in two shapes:
//
//	<transcript><text start="1.2" dur="3.4">...</text></transcript>      (seconds)
//	<timedtext format="3"><body><p t="1200" d="3400">...</p></body></timedtext>  (milliseconds)
//
// Cue text is kept as inner XML so nested <s> runs and escaped markup can be
// cleaned in one pass by engine.CleanCaptionText. Legacy cues carry one more
// entity layer than format 3 cues.

type legacyTranscript struct {
	Texts []struct {
		Start string `xml:"start,attr"`
		Dur   string `xml:"dur,attr"`
		Inner string `xml:",innerxml"`
	} `xml:"text"`
}

type format3Timedtext struct {
	Body struct {
		Paragraphs []struct {
			T     string `xml:"t,attr"`
			D     string `xml:"d,attr"`
			Inner string `xml:",innerxml"`
		} `xml:"p"`
	} `xml:"body"`
}

// FetchLines downloads the track's payload and parses it into lines.
// Errors carry no video id; the pipeline fills it in.
func (y *YouTube) FetchLines(ctx context.Context, track transcript.CaptionTrack) ([]transcript.Line, error) {
	engine.IncrTranscriptRequests()

	poToken := needsPoToken(track.TrackURI)
	if poToken {
		slog.Debug("youtube: track url requires a PoToken, payload will likely be empty",
			slog.String("lang", track.LanguageCode))
	}

	resp, err := y.client.Get(ctx, track.TrackURI, nil)
	if err != nil {
		return nil, transcript.NewFetchError("", "timed-text request failed", err)
	}
	if !resp.OK() {
		return nil, transcript.NewFetchError("", "timed-text request failed",
			&engine.StatusError{StatusCode: resp.StatusCode, URL: resp.URL})
	}
	if len(bytes.TrimSpace(resp.Body)) == 0 {
		return nil, transcript.NewFetchError("", emptyPayloadMessage(track.LanguageCode, poToken), nil)
	}

	lines, err := parseTimedText(resp.Body)
	if err != nil {
		return nil, transcript.NewParseError("", "malformed timed-text payload", err)
	}
	slog.Debug("youtube: timed-text parsed",
		slog.String("lang", track.LanguageCode), slog.Int("lines", len(lines)))
	return lines, nil
}

// emptyPayloadMessage explains an empty 200 body. YouTube serves one when a
// web-client track URL lacks a proof-of-origin token; the android client's
// URLs do not need it.
func emptyPayloadMessage(lang string, poToken bool) string {
	msg := fmt.Sprintf("empty timed-text payload for %q", lang)
	if poToken {
		msg += " (track requires a proof-of-origin token)"
	}
	return msg + "; retry with network.client = android (YTT_CLIENT=android)"
}

// parseTimedText dispatches on the root element.
func parseTimedText(data []byte) ([]transcript.Line, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return nil, errors.New("no root element")
		}
		if err != nil {
			return nil, err
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch start.Name.Local {
		case "transcript":
			var doc legacyTranscript
			if err := dec.DecodeElement(&doc, &start); err != nil {
				return nil, err
			}
			return legacyLines(doc)
		case "timedtext":
			var doc format3Timedtext
			if err := dec.DecodeElement(&doc, &start); err != nil {
				return nil, err
			}
			return format3Lines(doc)
		default:
			return nil, fmt.Errorf("unexpected root element <%s>", start.Name.Local)
		}
	}
}

func legacyLines(doc legacyTranscript) ([]transcript.Line, error) {
	lines := make([]transcript.Line, 0, len(doc.Texts))
	for i, t := range doc.Texts {
		start, err := parseTime(t.Start, 1, true)
		if err != nil {
			return nil, fmt.Errorf("text %d start: %w", i, err)
		}
		dur, err := parseTime(t.Dur, 1, false)
		if err != nil {
			return nil, fmt.Errorf("text %d dur: %w", i, err)
		}
		if text := engine.CleanCaptionText(t.Inner, engine.EscapedTwice); text != "" {
			lines = append(lines, transcript.Line{Text: text, Start: start, Duration: dur})
		}
	}
	return lines, nil
}

func format3Lines(doc format3Timedtext) ([]transcript.Line, error) {
	lines := make([]transcript.Line, 0, len(doc.Body.Paragraphs))
	for i, p := range doc.Body.Paragraphs {
		start, err := parseTime(p.T, 1000, true)
		if err != nil {
			return nil, fmt.Errorf("p %d t: %w", i, err)
		}
		dur, err := parseTime(p.D, 1000, false)
		if err != nil {
			return nil, fmt.Errorf("p %d d: %w", i, err)
		}
		if text := engine.CleanCaptionText(p.Inner, engine.EscapedOnce); text != "" {
			lines = append(lines, transcript.Line{Text: text, Start: start, Duration: dur})
		}
	}
	return lines, nil
}

// parseTime converts an attribute to seconds. An absent optional value is 0.
func parseTime(s string, unit float64, required bool) (float64, error) {
	if s == "" {
		if required {
			return 0, errors.New("missing")
		}
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, fmt.Errorf("invalid time %q", s)
	}
	return v / unit, nil
}
