package sources

import (
	"strings"
)

// YouTube player-response plumbing shared by both catalog clients.

const (
	ytBaseURL          = "https://www.youtube.com"
	ytPlayerPath       = "/youtubei/v1/player"
	ytAndroidVersion   = "20.10.38"
	ytAndroidUA        = "com.google.android.youtube/" + ytAndroidVersion + " (Linux; U; Android 11) gzip"
	ytAndroidSDK       = 30
	ytDefaultGL        = "US"
	ytAndroidClientID  = "3"
	ytPlayerRespMarker = "ytInitialPlayerResponse = "
)

// --- ANDROID client types (/player endpoint) ---

type innertubeReq struct {
	VideoID        string       `json:"videoId"`
	Context        innertubeCtx `json:"context"`
	RacyCheckOk    bool         `json:"racyCheckOk"`
	ContentCheckOk bool         `json:"contentCheckOk"`
}

type innertubeCtx struct {
	Client innertubeClient `json:"client"`
}

type innertubeClient struct {
	ClientName        string `json:"clientName"`
	ClientVersion     string `json:"clientVersion"`
	AndroidSdkVersion int    `json:"androidSdkVersion,omitempty"`
	Hl                string `json:"hl,omitempty"`
	Gl                string `json:"gl,omitempty"`
}

// playerResponse is the subset of ytInitialPlayerResponse / ANDROID /player we read.
type playerResponse struct {
	PlayabilityStatus *struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	} `json:"playabilityStatus"`
	Captions *struct {
		PlayerCaptionsTracklistRenderer struct {
			CaptionTracks []captionTrack `json:"captionTracks"`
		} `json:"playerCaptionsTracklistRenderer"`
	} `json:"captions"`
}

type captionTrack struct {
	BaseURL      string  `json:"baseUrl"`
	Name         ytLabel `json:"name"`
	LanguageCode string  `json:"languageCode"`
	Kind         string  `json:"kind"` // "asr" = auto-generated
}

// ytLabel is YouTube's text container: either simpleText or a list of runs.
type ytLabel struct {
	SimpleText string `json:"simpleText"`
	Runs       []struct {
		Text string `json:"text"`
	} `json:"runs"`
}

func (l ytLabel) String() string {
	if l.SimpleText != "" {
		return strings.TrimSpace(l.SimpleText)
	}
	var sb strings.Builder
	for _, r := range l.Runs {
		sb.WriteString(r.Text)
	}
	return strings.TrimSpace(sb.String())
}

// unplayable reports the playability reason when YouTube refuses the video.
// OK, and statuses we do not recognise, return ok=false.
func (p *playerResponse) unplayable() (reason string, ok bool) {
	if p.PlayabilityStatus == nil {
		return "", false
	}
	switch p.PlayabilityStatus.Status {
	case "ERROR", "UNPLAYABLE", "LOGIN_REQUIRED":
		reason = p.PlayabilityStatus.Reason
		if reason == "" {
			reason = strings.ToLower(p.PlayabilityStatus.Status)
		}
		return reason, true
	}
	return "", false
}

func (p *playerResponse) tracks() []captionTrack {
	if p.Captions == nil {
		return nil
	}
	return p.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks
}

// extractJSON extracts a complete JSON object starting at b[0] == '{' by tracking brace depth.
func extractJSON(b []byte) []byte {
	if len(b) == 0 || b[0] != '{' {
		return nil
	}
	depth := 0
	inStr := false
	escaped := false
	for i, c := range b {
		if inStr {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inStr = false
			}
			continue
		}
		switch c {
		case '"':
			inStr = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return b[:i+1]
			}
		}
	}
	return nil
}

// needsPoToken reports whether a caption track URL requires a PoToken (browser-only).
// Tracks with &exp=xpe return an empty body server-side.
func needsPoToken(baseURL string) bool {
	return strings.Contains(baseURL, "&exp=xpe")
}
