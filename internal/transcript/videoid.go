package transcript

import (
	"regexp"
	"strings"
)

// URLShape names the input form a video id was recognised in.
type URLShape int

const (
	ShapeBareID URLShape = iota + 1
	ShapeWatchQuery
	ShapeShortLink
	ShapeEmbed
)

func (s URLShape) String() string {
	switch s {
	case ShapeBareID:
		return "bare_id"
	case ShapeWatchQuery:
		return "watch_query"
	case ShapeShortLink:
		return "short_link"
	case ShapeEmbed:
		return "embed"
	}
	return "unknown"
}

type idMatcher struct {
	shape URLShape
	re    *regexp.Regexp
	// skip, when set, vetoes a match of re.
	skip *regexp.Regexp
}

// idMatchers are tried in order; the first match wins.
var idMatchers = []idMatcher{
	{ShapeBareID, regexp.MustCompile(`^([A-Za-z0-9_-]{11})$`), nil},
	// The value is cut at 11 characters; anything after it, including &t=..., is ignored.
	{ShapeWatchQuery, regexp.MustCompile(`[?&]v=([A-Za-z0-9_-]{11})`), nil},
	{ShapeShortLink, regexp.MustCompile(`/([A-Za-z0-9_-]{11})/?(?:[?&#].*)?$`), nonVideoPath},
	{ShapeEmbed, regexp.MustCompile(`/embed/([A-Za-z0-9_-]{11})(?:[/?&#]|$)`), nil},
}

// nonVideoPath matches channel, user and listing pages whose last segment
// can look like an id.
var nonVideoPath = regexp.MustCompile(`(?i)/(?:c|user|channel|playlist|results|feed|hashtag|@[^/?#&]+)/[A-Za-z0-9_-]{11}/?(?:[?&#].*)?$`)

// Resolve extracts the canonical video id from a URL or bare id.
// No network access occurs.
func Resolve(input string) (VideoID, error) {
	id, _, err := ResolveShape(input)
	return id, err
}

// ResolveShape is Resolve that also reports which input form matched.
func ResolveShape(input string) (VideoID, URLShape, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return "", 0, NewInvalidURLError(input)
	}
	for _, m := range idMatchers {
		if m.skip != nil && m.skip.MatchString(s) {
			continue
		}
		if sub := m.re.FindStringSubmatch(s); len(sub) == 2 {
			return VideoID(sub[1]), m.shape, nil
		}
	}
	return "", 0, NewInvalidURLError(input)
}

// IsVideoID reports whether s is a well-formed 11-character id.
func IsVideoID(s string) bool {
	return idMatchers[0].re.MatchString(s)
}
