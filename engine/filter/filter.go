// Package filter applies per-request metadata constraints to ranked search
// results and aggregates collection-wide metadata statistics. Filtering is
// a pure conjunction over dimensions; it never re-ranks.
package filter

import (
	"fmt"
	"strings"

	"github.com/tickerlens/tickerlens/engine/domain"
)

// overFetchFactor and overFetchCap bound how far retrieval widens its
// index query when filters are active, trading latency for the chance
// that enough hits survive.
const (
	overFetchFactor = 3
	overFetchCap    = 20
)

// Apply returns the results whose metadata satisfies every active
// dimension of spec, preserving order. Dimensions with zero values are
// skipped; unknown category or quality strings in spec simply never match.
func Apply(results []domain.SearchResult, spec domain.FilterSpec) []domain.SearchResult {
	out := make([]domain.SearchResult, 0, len(results))
	for _, r := range results {
		if matches(r.Meta, spec) {
			out = append(out, r)
		}
	}
	return out
}

func matches(m domain.VideoMetadata, spec domain.FilterSpec) bool {
	if spec.RequireCaptions && !m.HasCaptions {
		return false
	}
	if len(spec.Categories) > 0 && !containsString(spec.Categories, string(m.EffectiveCategory())) {
		return false
	}
	if len(spec.QualityLevels) > 0 && !containsString(spec.QualityLevels, string(m.EffectiveQuality())) {
		return false
	}
	if spec.DateFrom != "" || spec.DateTo != "" {
		// Canonical YYYY-MM-DD compares correctly as a string; documents
		// without a published date are excluded by any date constraint.
		if m.PublishedDate == "" {
			return false
		}
		if spec.DateFrom != "" && m.PublishedDate < spec.DateFrom {
			return false
		}
		if spec.DateTo != "" && m.PublishedDate > spec.DateTo {
			return false
		}
	}
	if len(spec.Playlists) > 0 && !inAnyPlaylist(m, spec.Playlists) {
		return false
	}
	return true
}

// inAnyPlaylist matches requested playlists against both human-readable
// titles and playlist IDs, so callers can pass either.
func inAnyPlaylist(m domain.VideoMetadata, wanted []string) bool {
	for _, w := range wanted {
		if containsString(m.Playlists, w) || containsString(m.PlaylistIDs, w) {
			return true
		}
	}
	return false
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}

// HasActive reports whether spec constrains anything at all.
func HasActive(spec domain.FilterSpec) bool {
	return spec.RequireCaptions ||
		len(spec.Categories) > 0 ||
		len(spec.QualityLevels) > 0 ||
		spec.DateFrom != "" ||
		spec.DateTo != "" ||
		len(spec.Playlists) > 0
}

// OverFetch widens the index query when filters are active: 3n capped at
// 20, even when n itself exceeds the cap. Inactive filters fetch exactly n.
func OverFetch(n int, active bool) int {
	if !active {
		return n
	}
	fetch := n * overFetchFactor
	if fetch > overFetchCap {
		fetch = overFetchCap
	}
	return fetch
}

// Summary renders the active dimensions for logging, e.g.
// "captions, categories=[daily_update], from=2024-01-01".
func Summary(spec domain.FilterSpec) string {
	var parts []string
	if spec.RequireCaptions {
		parts = append(parts, "captions")
	}
	if len(spec.Categories) > 0 {
		parts = append(parts, fmt.Sprintf("categories=%v", spec.Categories))
	}
	if len(spec.QualityLevels) > 0 {
		parts = append(parts, fmt.Sprintf("quality=%v", spec.QualityLevels))
	}
	if spec.DateFrom != "" {
		parts = append(parts, "from="+spec.DateFrom)
	}
	if spec.DateTo != "" {
		parts = append(parts, "to="+spec.DateTo)
	}
	if len(spec.Playlists) > 0 {
		parts = append(parts, fmt.Sprintf("playlists=%v", spec.Playlists))
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, ", ")
}
