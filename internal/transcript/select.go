package transcript

import "strings"

// Select picks a caption track from catalog.
//
// With a requested language the match is exact and case-insensitive on the
// language code. Without one, the first manually authored track wins, and
// failing that the first auto-generated track.
func Select(catalog []CaptionTrack, requestedLang string) (CaptionTrack, error) {
	if len(catalog) == 0 {
		return CaptionTrack{}, NewNoCaptionsError("")
	}

	if lang := strings.TrimSpace(requestedLang); lang != "" {
		for _, t := range catalog {
			if strings.EqualFold(t.LanguageCode, lang) {
				return t, nil
			}
		}
		return CaptionTrack{}, NewLanguageNotFoundError(lang, LanguageCodes(catalog))
	}

	for _, t := range catalog {
		if !t.IsAutoGenerated {
			return t, nil
		}
	}
	return catalog[0], nil
}

// LanguageCodes returns the language codes of catalog in order.
func LanguageCodes(catalog []CaptionTrack) []string {
	codes := make([]string, 0, len(catalog))
	for _, t := range catalog {
		codes = append(codes, t.LanguageCode)
	}
	return codes
}
