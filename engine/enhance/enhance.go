// Package enhance enriches raw video metadata at ingest time: category
// inference from the title, quality scoring from transcript density, and
// publish-date normalization. Everything here is pure and idempotent;
// re-enhancing already-enhanced metadata yields the same values.
package enhance

import (
	"math"
	"strings"
	"time"

	"github.com/tickerlens/tickerlens/engine/domain"
)

// Quality tier thresholds, evaluated top-down, first match wins.
const (
	highWPM      = 120
	highKeywords = 5
	mediumWPM    = 80
	mediumKWs    = 2
	lowWPM       = 40
)

// Enhance returns a copy of meta with inferred category, quality metrics,
// and normalized publish date filled in. content is the transcript (may be
// empty) and durationSeconds the video length (may be zero); without both,
// quality is none with zeroed metrics.
func Enhance(meta domain.VideoMetadata, content string, durationSeconds int) domain.VideoMetadata {
	out := meta
	out.Category = InferCategory(meta.Title)
	out.QualityScore, out.WordsPerMin, out.TechKeywords = ScoreQuality(content, durationSeconds)
	if meta.PublishedAt != "" {
		out.PublishedDate = NormalizeDate(meta.PublishedAt)
	}
	return out
}

// ScoreQuality derives the quality tier from speech density (words per
// minute) and distinct technical keyword hits.
func ScoreQuality(content string, durationSeconds int) (domain.Quality, int, int) {
	if content == "" || durationSeconds <= 0 {
		return domain.QualityNone, 0, 0
	}

	words := len(strings.Fields(content))
	minutes := float64(durationSeconds) / 60.0
	wpm := int(math.Floor(float64(words) / minutes))

	lower := strings.ToLower(content)
	tech := 0
	for _, kw := range technicalKeywords {
		if strings.Contains(lower, kw) {
			tech++
		}
	}

	switch {
	case wpm >= highWPM && tech >= highKeywords:
		return domain.QualityHigh, wpm, tech
	case wpm >= mediumWPM && tech >= mediumKWs:
		return domain.QualityMedium, wpm, tech
	case wpm >= lowWPM:
		return domain.QualityLow, wpm, tech
	default:
		return domain.QualityNone, wpm, tech
	}
}

// dateLayouts are tried in order for timestamps without an explicit zone.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// NormalizeDate parses an upstream timestamp (ISO-8601 with optional
// Z/offset, or bare YYYY-MM-DD) into canonical YYYY-MM-DD form. Strings
// that fail to parse pass through unchanged; date-range filters then
// compare them verbatim.
func NormalizeDate(s string) string {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return s
}
