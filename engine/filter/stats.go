package filter

import (
	"fmt"
	"math"

	"github.com/tickerlens/tickerlens/engine/domain"
	"github.com/tickerlens/tickerlens/pkg/fn"
)

// sample pairs a dedup key with one chunk's metadata. Untagged chunks get
// a positional key so they count individually rather than collapsing into
// one phantom video.
type sample struct {
	key  string
	meta domain.VideoMetadata
}

// Collect reduces chunk metadata into per-video statistics. Chunks sharing
// a video_id count once, with the first chunk's metadata speaking for the
// video. Category and quality maps are zero-initialized over every known
// value so consumers see absent buckets explicitly.
func Collect(metas []domain.VideoMetadata) domain.FilterStats {
	stats := domain.FilterStats{
		Categories:    map[string]int{},
		QualityLevels: map[string]int{},
	}
	for _, c := range domain.Categories() {
		stats.Categories[string(c)] = 0
	}
	for _, q := range domain.QualityLevels() {
		stats.QualityLevels[string(q)] = 0
	}

	samples := make([]sample, len(metas))
	for i, m := range metas {
		key := m.VideoID
		if key == "" {
			key = fmt.Sprintf("chunk-%d", i)
		}
		samples[i] = sample{key: key, meta: m}
	}

	for _, sm := range fn.UniqueBy(samples, func(s sample) string { return s.key }) {
		m := sm.meta

		stats.TotalDocuments++
		stats.Categories[string(m.EffectiveCategory())]++
		stats.QualityLevels[string(m.EffectiveQuality())]++

		if m.HasCaptions {
			stats.CaptionCoverage.WithCaptions++
		} else {
			stats.CaptionCoverage.WithoutCaptions++
		}

		if m.PublishedDate != "" {
			if stats.DateRange.Earliest == "" || m.PublishedDate < stats.DateRange.Earliest {
				stats.DateRange.Earliest = m.PublishedDate
			}
			if stats.DateRange.Latest == "" || m.PublishedDate > stats.DateRange.Latest {
				stats.DateRange.Latest = m.PublishedDate
			}
		}
	}

	if stats.TotalDocuments > 0 {
		pct := float64(stats.CaptionCoverage.WithCaptions) / float64(stats.TotalDocuments) * 100
		stats.CaptionCoverage.Percentage = math.Round(pct*10) / 10
	}
	return stats
}
