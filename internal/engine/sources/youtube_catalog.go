package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"github.com/anatolykoptev/go_transcript/internal/engine"
	"github.com/anatolykoptev/go_transcript/internal/transcript"
)

// ClientMode selects how the caption manifest is obtained.
type ClientMode string

const (
	// ClientWeb scrapes ytInitialPlayerResponse from the watch page.
	ClientWeb ClientMode = "web"
	// ClientAndroid POSTs to the ANDROID Innertube /player endpoint.
	ClientAndroid ClientMode = "android"
)

// ParseClientMode accepts "web" and "android" (case-insensitive). Empty means web.
func ParseClientMode(s string) (ClientMode, error) {
	switch ClientMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ClientWeb:
		return ClientWeb, nil
	case ClientAndroid:
		return ClientAndroid, nil
	}
	return "", fmt.Errorf("unknown client %q (want web or android)", s)
}

// YouTube lists caption tracks and fetches timed-text payloads.
// It implements transcript.TrackLister and transcript.LineFetcher.
type YouTube struct {
	client  *engine.Client
	mode    ClientMode
	baseURL string
	hl      string
}

// Option configures a YouTube source.
type Option func(*YouTube)

// WithClientMode selects the catalog client.
func WithClientMode(m ClientMode) Option { return func(y *YouTube) { y.mode = m } }

// WithBaseURL points the source at another host. Used by tests.
func WithBaseURL(u string) Option {
	return func(y *YouTube) { y.baseURL = strings.TrimRight(u, "/") }
}

// WithInterfaceLanguage sets the hl parameter sent to YouTube.
func WithInterfaceLanguage(hl string) Option { return func(y *YouTube) { y.hl = hl } }

// NewYouTube builds a source over client.
func NewYouTube(client *engine.Client, opts ...Option) *YouTube {
	y := &YouTube{client: client, mode: ClientWeb, baseURL: ytBaseURL, hl: engine.DefaultLanguage}
	for _, o := range opts {
		o(y)
	}
	return y
}

// ListTracks returns the video's caption tracks in manifest order.
// A playable video without captions fails with NO_CAPTIONS.
func (y *YouTube) ListTracks(ctx context.Context, id transcript.VideoID) ([]transcript.CaptionTrack, error) {
	engine.IncrCatalogRequests()

	var (
		pr  *playerResponse
		err error
	)
	switch y.mode {
	case ClientAndroid:
		pr, err = y.androidPlayer(ctx, id)
	default:
		pr, err = y.watchPagePlayer(ctx, id)
	}
	if err != nil {
		return nil, err
	}
	if reason, ok := pr.unplayable(); ok {
		return nil, transcript.NewVideoUnavailableError(id, reason)
	}

	raw := pr.tracks()
	tracks := make([]transcript.CaptionTrack, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	for i, t := range raw {
		if t.LanguageCode == "" || t.BaseURL == "" {
			return nil, transcript.NewFetchError(id,
				fmt.Sprintf("malformed caption manifest: track %d lacks languageCode or baseUrl", i), nil)
		}
		key := strings.ToLower(t.LanguageCode)
		if seen[key] {
			slog.Debug("youtube: duplicate caption language dropped",
				slog.String("id", id.String()), slog.String("lang", t.LanguageCode))
			continue
		}
		seen[key] = true
		tracks = append(tracks, transcript.CaptionTrack{
			LanguageCode:    t.LanguageCode,
			LanguageName:    trackName(t),
			IsAutoGenerated: t.Kind == "asr",
			TrackURI:        y.absolute(t.BaseURL),
		})
	}
	slog.Debug("youtube: caption catalog",
		slog.String("id", id.String()), slog.String("client", string(y.mode)), slog.Int("tracks", len(tracks)))
	if len(tracks) == 0 {
		return nil, transcript.NewNoCaptionsError(id)
	}
	return tracks, nil
}

// watchPagePlayer scrapes the watch page HTML and extracts ytInitialPlayerResponse.
func (y *YouTube) watchPagePlayer(ctx context.Context, id transcript.VideoID) (*playerResponse, error) {
	q := url.Values{"v": {id.String()}, "hl": {y.hl}}
	resp, err := y.client.Get(ctx, y.baseURL+"/watch?"+q.Encode(), map[string]string{
		"Accept": "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
	})
	if err != nil {
		return nil, transcript.NewFetchError(id, "watch page request failed", err)
	}
	if err := checkPageStatus(id, resp); err != nil {
		return nil, err
	}
	if isCaptchaPage(resp.Body) {
		return nil, transcript.NewFetchError(id, "too many requests: YouTube answered with a captcha", nil)
	}

	idx := bytes.Index(resp.Body, []byte(ytPlayerRespMarker))
	if idx < 0 {
		return nil, transcript.NewFetchError(id, "ytInitialPlayerResponse not found in watch page", nil)
	}
	data := extractJSON(resp.Body[idx+len(ytPlayerRespMarker):])
	if data == nil {
		return nil, transcript.NewFetchError(id, "truncated ytInitialPlayerResponse in watch page", nil)
	}
	var pr playerResponse
	if err := json.Unmarshal(data, &pr); err != nil {
		return nil, transcript.NewFetchError(id, "decode ytInitialPlayerResponse", err)
	}
	return &pr, nil
}

// androidPlayer uses the ANDROID Innertube /player endpoint.
func (y *YouTube) androidPlayer(ctx context.Context, id transcript.VideoID) (*playerResponse, error) {
	body, err := json.Marshal(innertubeReq{
		VideoID: id.String(),
		Context: innertubeCtx{
			Client: innertubeClient{
				ClientName:        "ANDROID",
				ClientVersion:     ytAndroidVersion,
				AndroidSdkVersion: ytAndroidSDK,
				Hl:                y.hl,
				Gl:                ytDefaultGL,
			},
		},
		RacyCheckOk:    true,
		ContentCheckOk: true,
	})
	if err != nil {
		return nil, transcript.NewFetchError(id, "encode player request", err)
	}

	resp, err := y.client.Post(ctx, y.baseURL+ytPlayerPath+"?prettyPrint=false", map[string]string{
		"Content-Type":             "application/json",
		"User-Agent":               ytAndroidUA,
		"X-Youtube-Client-Name":    ytAndroidClientID,
		"X-Youtube-Client-Version": ytAndroidVersion,
	}, body)
	if err != nil {
		return nil, transcript.NewFetchError(id, "android player request failed", err)
	}
	if err := checkPageStatus(id, resp); err != nil {
		return nil, err
	}
	var pr playerResponse
	if err := json.Unmarshal(resp.Body, &pr); err != nil {
		return nil, transcript.NewFetchError(id, "decode player response", err)
	}
	return &pr, nil
}

// checkPageStatus maps the metadata response status: 404/410 mean the video
// is gone, any other non-2xx is a fetch failure.
func checkPageStatus(id transcript.VideoID, resp *engine.Response) error {
	if resp.OK() {
		return nil
	}
	statusErr := &engine.StatusError{StatusCode: resp.StatusCode, URL: resp.URL}
	switch resp.StatusCode {
	case http.StatusNotFound, http.StatusGone:
		return transcript.NewVideoUnavailableError(id, statusErr.Error())
	case http.StatusTooManyRequests:
		return transcript.NewFetchError(id, "too many requests", statusErr)
	}
	return transcript.NewFetchError(id, "unexpected status from YouTube", statusErr)
}

func isCaptchaPage(body []byte) bool {
	return bytes.Contains(body, []byte(`class="g-recaptcha"`)) ||
		bytes.Contains(body, []byte("www.google.com/sorry/"))
}

// absolute resolves a manifest baseUrl against the source host.
func (y *YouTube) absolute(u string) string {
	if strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://") {
		return u
	}
	return y.baseURL + "/" + strings.TrimLeft(u, "/")
}

// trackName prefers the manifest label, then the English name of the tag.
func trackName(t captionTrack) string {
	if name := t.Name.String(); name != "" {
		return name
	}
	return languageDisplayName(t.LanguageCode)
}

func languageDisplayName(code string) string {
	tag, err := language.Parse(code)
	if err != nil {
		return code
	}
	if name := display.English.Tags().Name(tag); name != "" {
		return name
	}
	return code
}
