package scraper

import "time"

// ScrapedVideo is one fully scraped YouTube video ready for ingestion.
type ScrapedVideo struct {
	VideoID     string    `json:"video_id"`
	Title       string    `json:"title"`
	Channel     string    `json:"channel"`
	URL         string    `json:"url"`
	Source      string    `json:"source"`
	Transcript  string    `json:"transcript"`
	HasCaptions bool      `json:"has_captions"`
	PublishedAt string    `json:"published_at"`
	// Duration is the video length in seconds, from contentDetails.
	Duration    int       `json:"duration"`
	Playlists   []string  `json:"playlists,omitempty"`
	PlaylistIDs []string  `json:"playlist_ids,omitempty"`
	ScrapedAt   time.Time `json:"scraped_at"`
}

// ScrapeOpts configures a scrape run.
type ScrapeOpts struct {
	// Query overrides channel discovery with a single search query.
	Query string
	// MaxResults bounds results per channel or query.
	MaxResults int
	// ChannelIDs limits the run to specific channels.
	ChannelIDs []string
	// FetchPlaylists also resolves playlist membership per video.
	FetchPlaylists bool
}

// Playlist is one channel playlist with its member video IDs.
type Playlist struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	VideoIDs []string `json:"video_ids"`
}
