// Package scraper discovers finance YouTube videos via the Data API v3,
// pulls their transcripts through the innertube caption endpoint, and
// emits ScrapedVideo items for ingestion.
package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"sync"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"

	"github.com/tickerlens/tickerlens/pkg/fn"
)

const dataAPIBase = "https://www.googleapis.com/youtube/v3"

// DefaultQueries seed search-based discovery when no channels are
// configured.
var DefaultQueries = []string{
	"options market update",
	"gamma exposure",
	"0dte options",
	"implied volatility explained",
	"dealer positioning",
	"vix term structure",
}

// ErrQuotaExhausted is returned when the Data API quota is exceeded.
var ErrQuotaExhausted = fmt.Errorf("youtube API quota exhausted")

// isoDuration matches the Data API contentDetails duration, e.g. PT1H2M3S.
var isoDuration = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?$`)

// YouTubeScraper walks channels or search queries and scrapes each video.
type YouTubeScraper struct {
	apiKey     string
	channels   []string
	limiter    *rate.Limiter
	httpClient *http.Client
	seen       sync.Map // dedup by video ID across a run
}

// NewYouTubeScraper creates a scraper. channels are Data API channel IDs;
// with none configured, discovery falls back to DefaultQueries.
func NewYouTubeScraper(apiKey string, channels []string) *YouTubeScraper {
	return &YouTubeScraper{
		apiKey:   apiKey,
		channels: channels,
		limiter:  rate.NewLimiter(rate.Every(200*time.Millisecond), 5),
		httpClient: &http.Client{
			Timeout:   30 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// VideoInfo is a discovery hit before transcript fetch.
type VideoInfo struct {
	VideoID     string `json:"video_id"`
	Title       string `json:"title"`
	Channel     string `json:"channel"`
	PublishedAt string `json:"published_at"`
}

type searchItem struct {
	ID struct {
		VideoID string `json:"videoId"`
	} `json:"id"`
	Snippet struct {
		Title        string `json:"title"`
		ChannelTitle string `json:"channelTitle"`
		PublishedAt  string `json:"publishedAt"`
	} `json:"snippet"`
}

type searchResponse struct {
	Items []searchItem `json:"items"`
}

// SearchVideos queries the Data API search endpoint. query and channelID
// may each be empty, not both.
func (s *YouTubeScraper) SearchVideos(ctx context.Context, query, channelID string, max int) fn.Result[[]VideoInfo] {
	if s.apiKey == "" {
		return fn.Errf[[]VideoInfo]("scraper: YouTube API key required for discovery")
	}
	if query == "" && channelID == "" {
		return fn.Errf[[]VideoInfo]("scraper: search needs a query or channel")
	}

	params := url.Values{
		"part":              {"snippet"},
		"type":              {"video"},
		"relevanceLanguage": {"en"},
		"maxResults":        {strconv.Itoa(max)},
		"key":               {s.apiKey},
	}
	if query != "" {
		params.Set("q", query)
	}
	if channelID != "" {
		params.Set("channelId", channelID)
		params.Set("order", "date")
	}

	var sr searchResponse
	if err := s.getJSON(ctx, dataAPIBase+"/search?"+params.Encode(), &sr); err != nil {
		return fn.Err[[]VideoInfo](err)
	}

	// Channel and playlist IDs come back without a videoId; drop them.
	hits := fn.Filter(sr.Items, func(it searchItem) bool { return it.ID.VideoID != "" })
	return fn.Ok(fn.Map(hits, func(it searchItem) VideoInfo {
		return VideoInfo{
			VideoID:     it.ID.VideoID,
			Title:       it.Snippet.Title,
			Channel:     it.Snippet.ChannelTitle,
			PublishedAt: it.Snippet.PublishedAt,
		}
	}))
}

type detailsResponse struct {
	Items []struct {
		ContentDetails struct {
			Duration string `json:"duration"`
		} `json:"contentDetails"`
	} `json:"items"`
}

// VideoDuration resolves a video's length in seconds from contentDetails.
// Zero with a nil error means the API did not report a duration.
func (s *YouTubeScraper) VideoDuration(ctx context.Context, videoID string) (int, error) {
	params := url.Values{
		"part": {"contentDetails"},
		"id":   {videoID},
		"key":  {s.apiKey},
	}
	var dr detailsResponse
	if err := s.getJSON(ctx, dataAPIBase+"/videos?"+params.Encode(), &dr); err != nil {
		return 0, err
	}
	if len(dr.Items) == 0 {
		return 0, nil
	}
	return ParseISODuration(dr.Items[0].ContentDetails.Duration), nil
}

// Scrape runs discovery and transcript fetch, streaming results. Transcript
// failures are skipped silently except quota exhaustion, which ends the run.
func (s *YouTubeScraper) Scrape(ctx context.Context, opts ScrapeOpts) <-chan fn.Result[ScrapedVideo] {
	ch := make(chan fn.Result[ScrapedVideo], 32)

	go func() {
		defer close(ch)

		maxResults := opts.MaxResults
		if maxResults <= 0 {
			maxResults = 10
		}

		channels := opts.ChannelIDs
		if len(channels) == 0 {
			channels = s.channels
		}

		type target struct{ query, channel string }
		var targets []target
		switch {
		case opts.Query != "":
			targets = []target{{query: opts.Query}}
		case len(channels) > 0:
			for _, c := range channels {
				targets = append(targets, target{channel: c})
			}
		default:
			for _, q := range DefaultQueries {
				targets = append(targets, target{query: q})
			}
		}

		var playlists []Playlist
		for _, t := range targets {
			if ctx.Err() != nil {
				return
			}
			if err := s.limiter.Wait(ctx); err != nil {
				return
			}

			videos, err := s.SearchVideos(ctx, t.query, t.channel, maxResults).Unwrap()
			if err != nil {
				if err == ErrQuotaExhausted {
					ch <- fn.Err[ScrapedVideo](err)
					return
				}
				continue
			}

			if opts.FetchPlaylists && t.channel != "" {
				if pl, err := s.ChannelPlaylists(ctx, t.channel).Unwrap(); err == nil {
					playlists = pl
				}
			}

			for _, v := range videos {
				if ctx.Err() != nil {
					return
				}
				if err := s.limiter.Wait(ctx); err != nil {
					return
				}
				r := s.ScrapeVideo(ctx, v)
				if r.IsOk() {
					r = fn.MapResult(r, func(sv ScrapedVideo) ScrapedVideo {
						return tagPlaylists(sv, playlists)
					})
					ch <- r
				}
			}
		}
	}()

	return ch
}

// ScrapeVideo fetches the transcript and duration for one discovered video.
func (s *YouTubeScraper) ScrapeVideo(ctx context.Context, v VideoInfo) fn.Result[ScrapedVideo] {
	if _, loaded := s.seen.LoadOrStore(v.VideoID, true); loaded {
		return fn.Errf[ScrapedVideo]("scraper: duplicate video %s", v.VideoID)
	}

	transcript, err := FetchTranscript(ctx, s.httpClient, v.VideoID).Unwrap()
	if err != nil {
		return fn.Err[ScrapedVideo](err)
	}

	duration := 0
	if s.apiKey != "" {
		if d, err := s.VideoDuration(ctx, v.VideoID); err == nil {
			duration = d
		}
	}

	return fn.Ok(ScrapedVideo{
		VideoID:     v.VideoID,
		Title:       v.Title,
		Channel:     v.Channel,
		URL:         "https://www.youtube.com/watch?v=" + v.VideoID,
		Source:      "youtube",
		Transcript:  transcript,
		HasCaptions: true,
		PublishedAt: v.PublishedAt,
		Duration:    duration,
		ScrapedAt:   time.Now(),
	})
}

// ScrapeVideoIDs scrapes specific video IDs; no API key needed, but
// durations then stay zero.
func (s *YouTubeScraper) ScrapeVideoIDs(ctx context.Context, ids []string) <-chan fn.Result[ScrapedVideo] {
	ch := make(chan fn.Result[ScrapedVideo], len(ids))

	go func() {
		defer close(ch)
		for _, id := range ids {
			if ctx.Err() != nil {
				return
			}
			if err := s.limiter.Wait(ctx); err != nil {
				return
			}
			ch <- s.ScrapeVideo(ctx, VideoInfo{VideoID: id})
		}
	}()

	return ch
}

func (s *YouTubeScraper) getJSON(ctx context.Context, u string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusForbidden {
		return ErrQuotaExhausted
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("scraper: data API status %d", resp.StatusCode)
	}
	return json.Unmarshal(raw, out)
}

// ParseISODuration converts a Data API PT#H#M#S duration to seconds.
// Unparseable input yields zero.
func ParseISODuration(s string) int {
	m := isoDuration.FindStringSubmatch(s)
	if m == nil {
		return 0
	}
	h, _ := strconv.Atoi(m[1])
	min, _ := strconv.Atoi(m[2])
	sec, _ := strconv.Atoi(m[3])
	return h*3600 + min*60 + sec
}
