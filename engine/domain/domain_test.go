package domain

import (
	"errors"
	"testing"

	"github.com/tickerlens/tickerlens/engine/scraper"
)

func validVideo() scraper.ScrapedVideo {
	return scraper.ScrapedVideo{
		VideoID:    "abc123",
		Title:      "Market Update",
		Source:     "youtube",
		Transcript: "some transcript text",
	}
}

func TestValidateScrapedVideo(t *testing.T) {
	if err := ValidateScrapedVideo(validVideo()); err != nil {
		t.Fatalf("valid video rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*scraper.ScrapedVideo)
		field  string
	}{
		{"empty transcript", func(v *scraper.ScrapedVideo) { v.Transcript = "" }, "transcript"},
		{"whitespace transcript", func(v *scraper.ScrapedVideo) { v.Transcript = "  \n " }, "transcript"},
		{"missing video id", func(v *scraper.ScrapedVideo) { v.VideoID = "" }, "video_id"},
		{"missing title", func(v *scraper.ScrapedVideo) { v.Title = "" }, "title"},
		{"unknown source", func(v *scraper.ScrapedVideo) { v.Source = "vimeo" }, "source"},
	}
	for _, c := range cases {
		v := validVideo()
		c.mutate(&v)
		err := ValidateScrapedVideo(v)
		if !errors.Is(err, ErrInvalidVideo) {
			t.Errorf("%s: err = %v, want ErrInvalidVideo", c.name, err)
			continue
		}
		var verr *ValidationError
		if !errors.As(err, &verr) || verr.Field != c.field {
			t.Errorf("%s: field = %v, want %q", c.name, err, c.field)
		}
	}
}

func TestValidateAcceptsChannelSuffix(t *testing.T) {
	v := validVideo()
	v.Source = "youtube:SpotGamma"
	if err := ValidateScrapedVideo(v); err != nil {
		t.Errorf("channel-suffixed source rejected: %v", err)
	}
}

func TestQualityRankOrdering(t *testing.T) {
	order := []Quality{QualityUnknown, QualityNone, QualityLow, QualityMedium, QualityHigh}
	for i := 1; i < len(order); i++ {
		if QualityRank(order[i]) <= QualityRank(order[i-1]) {
			t.Errorf("rank(%q) <= rank(%q)", order[i], order[i-1])
		}
	}
}

func TestEffectiveDefaults(t *testing.T) {
	var m VideoMetadata
	if m.EffectiveCategory() != CategoryUncategorized {
		t.Errorf("EffectiveCategory zero value = %q", m.EffectiveCategory())
	}
	if m.EffectiveQuality() != QualityUnknown {
		t.Errorf("EffectiveQuality zero value = %q", m.EffectiveQuality())
	}
}
