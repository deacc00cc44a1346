package transcript

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCatalog struct {
	tracks []CaptionTrack
	err    error
	calls  []VideoID
}

func (f *fakeCatalog) ListTracks(_ context.Context, id VideoID) ([]CaptionTrack, error) {
	f.calls = append(f.calls, id)
	return f.tracks, f.err
}

type fakeFetcher struct {
	lines   []Line
	err     error
	fetched []CaptionTrack
}

func (f *fakeFetcher) FetchLines(_ context.Context, track CaptionTrack) ([]Line, error) {
	f.fetched = append(f.fetched, track)
	return f.lines, f.err
}

func TestServiceDownload(t *testing.T) {
	catalog := &fakeCatalog{tracks: []CaptionTrack{
		{LanguageCode: "en", IsAutoGenerated: true, TrackURI: "u-en"},
		{LanguageCode: "ja", TrackURI: "u-ja"},
	}}
	fetcher := &fakeFetcher{lines: []Line{{Text: "Hello world", Start: 1.36, Duration: 1.68}}}
	svc := NewService(catalog, fetcher)

	res, err := svc.Download(context.Background(), Request{
		Input:      "https://youtu.be/dQw4w9WgXcQ?t=3",
		Format:     FormatTXT,
		Timestamps: true,
	})
	require.NoError(t, err)

	assert.Equal(t, []VideoID{"dQw4w9WgXcQ"}, catalog.calls)
	require.Len(t, fetcher.fetched, 1)
	assert.Equal(t, "u-ja", fetcher.fetched[0].TrackURI)
	assert.Equal(t, "[00:01] Hello world", res.Content)
	assert.Equal(t, "txt", res.Extension)
	assert.Equal(t, "dQw4w9WgXcQ.txt", res.DefaultFilename())
}

func TestServiceDownloadRequestedLanguage(t *testing.T) {
	catalog := &fakeCatalog{tracks: []CaptionTrack{{LanguageCode: "en"}, {LanguageCode: "ja"}}}
	fetcher := &fakeFetcher{}
	res, err := NewService(catalog, fetcher).Download(context.Background(), Request{
		Input: "dQw4w9WgXcQ", Language: "JA", Format: FormatJSON,
	})
	require.NoError(t, err)
	assert.Equal(t, "ja", res.Track.LanguageCode)
	assert.Equal(t, "[]", res.Content)
	assert.Equal(t, "dQw4w9WgXcQ.json", res.DefaultFilename())
}

func TestServiceInvalidURLSkipsNetwork(t *testing.T) {
	catalog := &fakeCatalog{}
	_, err := NewService(catalog, &fakeFetcher{}).Download(context.Background(), Request{Input: "nope"})
	assert.True(t, IsCode(err, ErrorCodeInvalidURL))
	assert.Empty(t, catalog.calls)
}

func TestServiceErrorsPropagate(t *testing.T) {
	unavailable := NewVideoUnavailableError("dQw4w9WgXcQ", "Video unavailable")
	tests := []struct {
		name    string
		catalog *fakeCatalog
		fetcher *fakeFetcher
		lang    string
		code    ErrorCode
	}{
		{"unavailable", &fakeCatalog{err: unavailable}, &fakeFetcher{}, "", ErrorCodeVideoUnavailable},
		{"empty catalog", &fakeCatalog{}, &fakeFetcher{}, "", ErrorCodeNoCaptions},
		{"language missing", &fakeCatalog{tracks: []CaptionTrack{{LanguageCode: "en"}}}, &fakeFetcher{}, "ja", ErrorCodeLanguageNotFound},
		{"fetch failure", &fakeCatalog{tracks: []CaptionTrack{{LanguageCode: "en"}}},
			&fakeFetcher{err: NewFetchError("", "fetch timedtext", errors.New("boom"))}, "", ErrorCodeFetch},
		{"parse failure", &fakeCatalog{tracks: []CaptionTrack{{LanguageCode: "en"}}},
			&fakeFetcher{err: NewParseError("", "decode timedtext", nil)}, "", ErrorCodeParse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := NewService(tt.catalog, tt.fetcher).Download(context.Background(), Request{
				Input: "dQw4w9WgXcQ", Language: tt.lang,
			})
			assert.Nil(t, res)
			require.Error(t, err)
			assert.Equal(t, tt.code, CodeOf(err))

			var te *Error
			require.ErrorAs(t, err, &te)
			assert.Equal(t, VideoID("dQw4w9WgXcQ"), te.VideoID)
		})
	}
}

func TestServiceLanguages(t *testing.T) {
	catalog := &fakeCatalog{tracks: []CaptionTrack{
		{LanguageCode: "en", IsAutoGenerated: true},
		{LanguageCode: "fr"},
	}}
	fetcher := &fakeFetcher{}
	listing, err := NewService(catalog, fetcher).Languages(context.Background(), "dQw4w9WgXcQ", "")
	require.NoError(t, err)
	assert.Equal(t, VideoID("dQw4w9WgXcQ"), listing.VideoID)
	assert.Len(t, listing.Tracks, 2)
	assert.Equal(t, "fr", listing.Selected.LanguageCode)
	assert.Empty(t, fetcher.fetched, "listing must not fetch a payload")

	_, err = NewService(catalog, fetcher).Languages(context.Background(), "dQw4w9WgXcQ", "ja")
	assert.True(t, IsCode(err, ErrorCodeLanguageNotFound))
}
