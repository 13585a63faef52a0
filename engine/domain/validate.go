package domain

import (
	"strings"

	"github.com/tickerlens/tickerlens/engine/scraper"
)

// ValidSources enumerates accepted scrape sources.
var ValidSources = map[string]bool{
	"youtube": true,
}

// validSource returns true if the source is known. Sources with a channel
// suffix like "youtube:SpotGamma" are accepted.
func validSource(src string) bool {
	if ValidSources[src] {
		return true
	}
	for base := range ValidSources {
		if strings.HasPrefix(src, base+":") {
			return true
		}
	}
	return false
}

// ValidateScrapedVideo checks a ScrapedVideo before ingestion. A video
// that fails here is dropped; the batch continues with the next one.
func ValidateScrapedVideo(v scraper.ScrapedVideo) error {
	if strings.TrimSpace(v.Transcript) == "" {
		return NewValidationError("transcript", "", ErrInvalidVideo)
	}
	if v.VideoID == "" {
		return NewValidationError("video_id", "", ErrInvalidVideo)
	}
	if v.Title == "" {
		return NewValidationError("title", "", ErrInvalidVideo)
	}
	if !validSource(v.Source) {
		return NewValidationError("source", v.Source, ErrInvalidVideo)
	}
	return nil
}
