package ingest

import (
	"github.com/tickerlens/tickerlens/engine/domain"
	"github.com/tickerlens/tickerlens/engine/scraper"
)

// EnhancedDoc is a validated video with enriched metadata and its
// transcript split into sentences.
type EnhancedDoc struct {
	Video     scraper.ScrapedVideo
	Meta      domain.VideoMetadata
	Sentences []string
}

// Chunk is a transcript segment sized for embedding.
type Chunk struct {
	Text  string
	Index int
	DocID string
}

// ChunkedDoc is an enhanced document split into chunks.
type ChunkedDoc struct {
	EnhancedDoc
	Chunks []Chunk
}

// docID is the stable document identity: source plus video ID.
func docID(v scraper.ScrapedVideo) string {
	return v.Source + ":" + v.VideoID
}

// metaFromVideo builds the base chunk metadata for a scraped video.
// Enrichment (category, quality, date) is layered on by the enhance stage.
func metaFromVideo(v scraper.ScrapedVideo) domain.VideoMetadata {
	return domain.VideoMetadata{
		VideoID:     v.VideoID,
		Title:       v.Title,
		URL:         v.URL,
		Source:      v.Source,
		Channel:     v.Channel,
		HasCaptions: v.HasCaptions,
		PublishedAt: v.PublishedAt,
		Duration:    v.Duration,
		Playlists:   v.Playlists,
		PlaylistIDs: v.PlaylistIDs,
	}
}
