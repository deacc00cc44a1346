package engine

import (
	"html"
	"strings"

	"github.com/anatolykoptev/go-kit/strutil"
	xhtml "golang.org/x/net/html"
)

// CaptionEscaping is the number of entity layers around cue markup.
type CaptionEscaping int

const (
	// EscapedOnce: markup is real XML and text is escaped once (format 3 <p>).
	EscapedOnce CaptionEscaping = 1
	// EscapedTwice: markup itself is entity-escaped (legacy <text>).
	EscapedTwice CaptionEscaping = 2
)

// CleanCaptionText decodes entities in a cue's inner XML, drops markup
// (<font>, <i>, <s>) and collapses runs of whitespace. esc peels the outer
// layer for legacy payloads; the tokenizer decodes the last one, so a literal
// "<" in the cue survives as text.
func CleanCaptionText(s string, esc CaptionEscaping) string {
	if esc >= EscapedTwice {
		s = html.UnescapeString(s)
	}
	if !strings.ContainsAny(s, "<&") {
		return collapseSpace(s)
	}

	var sb strings.Builder
	z := xhtml.NewTokenizer(strings.NewReader(s))
	for {
		tt := z.Next()
		if tt == xhtml.ErrorToken {
			break
		}
		if tt == xhtml.TextToken {
			sb.Write(z.Text())
		}
	}
	return collapseSpace(sb.String())
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// TruncateRunes caps s at limit runes, appending suffix if truncated.
// Pass suffix="" for no suffix. Safe for UTF-8 (Cyrillic, CJK, emoji).
func TruncateRunes(s string, limit int, suffix string) string {
	return strutil.TruncateWith(s, limit, suffix)
}
