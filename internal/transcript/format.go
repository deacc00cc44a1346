package transcript

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
)

// FormatLines renders lines in the given format. includeTimestamps only
// affects FormatTXT. An empty sequence renders as "" for txt and srt, and
// as "[]" for json. JSON cannot encode a NaN or infinite time; such input
// also renders as "[]" and is logged at warn level.
func FormatLines(lines []Line, f Format, includeTimestamps bool) string {
	switch f {
	case FormatTXT:
		return formatTXT(lines, includeTimestamps)
	case FormatSRT:
		return formatSRT(lines)
	case FormatJSON:
		return formatJSON(lines)
	}
	panic(fmt.Sprintf("transcript: unhandled format %v", f))
}

func formatTXT(lines []Line, includeTimestamps bool) string {
	out := make([]string, len(lines))
	for i, l := range lines {
		if includeTimestamps {
			out[i] = simpleTimestamp(l.Start) + " " + l.Text
		} else {
			out[i] = l.Text
		}
	}
	return strings.Join(out, "\n")
}

// Each block ends in "\n" and blocks are joined by "\n", leaving exactly one
// blank line between adjacent blocks.
func formatSRT(lines []Line) string {
	blocks := make([]string, len(lines))
	for i, l := range lines {
		blocks[i] = strconv.Itoa(i+1) + "\n" +
			srtTimestamp(l.Start) + " --> " + srtTimestamp(l.End()) + "\n" +
			l.Text + "\n"
	}
	return strings.Join(blocks, "\n")
}

func formatJSON(lines []Line) string {
	if lines == nil {
		lines = []Line{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(lines); err != nil {
		slog.Warn("transcript: json encoding failed, emitting empty array",
			slog.Int("lines", len(lines)), slog.Any("error", err))
		return "[]"
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

// simpleTimestamp renders "[MM:SS]" with minutes unbounded and the start
// truncated to whole seconds.
func simpleTimestamp(seconds float64) string {
	total := int64(math.Floor(seconds))
	return fmt.Sprintf("[%02d:%02d]", total/60, total%60)
}

// srtTimestamp renders "HH:MM:SS,mmm". Rounding happens once on the total
// millisecond count so a remainder of .9996 carries into the seconds.
func srtTimestamp(seconds float64) string {
	ms := int64(math.Round(seconds * 1000))
	h := ms / 3_600_000
	m := ms % 3_600_000 / 60_000
	s := ms % 60_000 / 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms%1000)
}
