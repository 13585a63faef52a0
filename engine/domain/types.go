// Package domain defines core domain types, constants, and validation for
// the TickerLens retrieval pipeline. It acts as the validation gate at
// pipeline entry points.
package domain

// Category is a coarse content-type label inferred from a video title.
type Category string

const (
	CategoryDailyUpdate   Category = "daily_update"
	CategoryEducational   Category = "educational"
	CategoryInterview     Category = "interview"
	CategorySpecialEvent  Category = "special_event"
	CategoryUncategorized Category = "uncategorized"
)

// Categories lists all categories in precedence order, the fallback last.
// The order is load-bearing: title inference and statistics both follow it.
func Categories() []Category {
	return []Category{
		CategoryDailyUpdate,
		CategoryEducational,
		CategoryInterview,
		CategorySpecialEvent,
		CategoryUncategorized,
	}
}

// Quality is an ordinal tier of transcript informativeness.
type Quality string

const (
	QualityHigh    Quality = "high"
	QualityMedium  Quality = "medium"
	QualityLow     Quality = "low"
	QualityNone    Quality = "none"
	QualityUnknown Quality = "unknown"
)

// QualityLevels lists all tiers from best to unknown.
func QualityLevels() []Quality {
	return []Quality{QualityHigh, QualityMedium, QualityLow, QualityNone, QualityUnknown}
}

// QualityRank maps a tier to its ordinal position (none < low < medium < high).
// Unknown ranks below none.
func QualityRank(q Quality) int {
	switch q {
	case QualityHigh:
		return 4
	case QualityMedium:
		return 3
	case QualityLow:
		return 2
	case QualityNone:
		return 1
	default:
		return 0
	}
}

// VideoMetadata is the enriched metadata attached to every indexed chunk.
// JSON keys match the on-disk metadata.json schema. Enrichment happens once
// at ingest time; retrieval and filtering never mutate it.
type VideoMetadata struct {
	VideoID     string `json:"video_id,omitempty"`
	Title       string `json:"title,omitempty"`
	URL         string `json:"url,omitempty"`
	Source      string `json:"source,omitempty"`
	Channel     string `json:"channel,omitempty"`
	HasCaptions bool   `json:"has_captions"`

	Category     Category `json:"category,omitempty"`
	QualityScore Quality  `json:"quality_score,omitempty"`
	WordsPerMin  int      `json:"words_per_minute"`
	TechKeywords int      `json:"technical_keyword_count"`

	// PublishedAt is the raw upstream timestamp; PublishedDate is the
	// canonical YYYY-MM-DD form (or the raw string when unparseable).
	PublishedAt   string `json:"published_at,omitempty"`
	PublishedDate string `json:"published_date,omitempty"`

	// Duration is the source video length in seconds.
	Duration int `json:"duration,omitempty"`

	Playlists     []string `json:"playlists,omitempty"`
	PlaylistIDs   []string `json:"playlist_ids,omitempty"`
	PlaylistCount int      `json:"playlist_count,omitempty"`

	ChunkID    string `json:"chunk_id,omitempty"`
	ChunkIndex int    `json:"chunk_index"`
}

// EffectiveCategory returns the category, defaulting missing values to
// uncategorized for filter comparison.
func (m VideoMetadata) EffectiveCategory() Category {
	if m.Category == "" {
		return CategoryUncategorized
	}
	return m.Category
}

// EffectiveQuality returns the quality tier, defaulting missing values to
// unknown for filter comparison.
func (m VideoMetadata) EffectiveQuality() Quality {
	if m.QualityScore == "" {
		return QualityUnknown
	}
	return m.QualityScore
}

// FilterSpec is a per-request set of retrieval constraints. Empty list
// fields and zero values mean "no constraint on this dimension".
type FilterSpec struct {
	RequireCaptions bool     `json:"require_captions,omitempty"`
	Categories      []string `json:"categories,omitempty"`
	QualityLevels   []string `json:"quality_levels,omitempty"`
	DateFrom        string   `json:"date_from,omitempty"`
	DateTo          string   `json:"date_to,omitempty"`
	Playlists       []string `json:"playlists,omitempty"`
}

// SearchResult is one ranked hit from the vector index.
type SearchResult struct {
	Content string        `json:"content"`
	Score   float32       `json:"score"`
	Meta    VideoMetadata `json:"metadata"`
}

// IndexStats describes the current state of a collection.
type IndexStats struct {
	TotalDocuments     int `json:"total_documents"`
	EmbeddingDimension int `json:"embedding_dimension"`
	IndexSize          int `json:"index_size"`
}

// CaptionCoverage summarises caption availability across source videos.
type CaptionCoverage struct {
	WithCaptions    int     `json:"with_captions"`
	WithoutCaptions int     `json:"without_captions"`
	Percentage      float64 `json:"percentage"`
}

// DateRange holds lexicographic min/max published dates. Empty strings
// mean no document carried a published date.
type DateRange struct {
	Earliest string `json:"earliest,omitempty"`
	Latest   string `json:"latest,omitempty"`
}

// FilterStats aggregates metadata over unique source videos, not chunks.
type FilterStats struct {
	TotalDocuments  int             `json:"total_documents"`
	Categories      map[string]int  `json:"categories"`
	QualityLevels   map[string]int  `json:"quality_levels"`
	CaptionCoverage CaptionCoverage `json:"caption_coverage"`
	DateRange       DateRange       `json:"date_range"`
}
