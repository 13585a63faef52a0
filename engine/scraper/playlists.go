package scraper

import (
	"context"
	"net/url"
	"strconv"

	"github.com/tickerlens/tickerlens/pkg/fn"
)

type playlistItem struct {
	ID      string `json:"id"`
	Snippet struct {
		Title string `json:"title"`
	} `json:"snippet"`
}

type playlistsResponse struct {
	Items         []playlistItem `json:"items"`
	NextPageToken string         `json:"nextPageToken"`
}

type playlistItemsResponse struct {
	Items []struct {
		ContentDetails struct {
			VideoID string `json:"videoId"`
		} `json:"contentDetails"`
	} `json:"items"`
	NextPageToken string `json:"nextPageToken"`
}

// ChannelPlaylists lists a channel's playlists with their member video
// IDs, following pagination on both endpoints.
func (s *YouTubeScraper) ChannelPlaylists(ctx context.Context, channelID string) fn.Result[[]Playlist] {
	if s.apiKey == "" {
		return fn.Errf[[]Playlist]("scraper: YouTube API key required for playlists")
	}

	var playlists []Playlist
	pageToken := ""
	for {
		if err := s.limiter.Wait(ctx); err != nil {
			return fn.Err[[]Playlist](err)
		}
		params := url.Values{
			"part":       {"snippet"},
			"channelId":  {channelID},
			"maxResults": {"50"},
			"key":        {s.apiKey},
		}
		if pageToken != "" {
			params.Set("pageToken", pageToken)
		}

		var pr playlistsResponse
		if err := s.getJSON(ctx, dataAPIBase+"/playlists?"+params.Encode(), &pr); err != nil {
			return fn.Err[[]Playlist](err)
		}
		// Member lookups fan out per playlist; the shared limiter still
		// paces the requests.
		page := fn.Collect(fn.ParMapResult(pr.Items, 4, func(item playlistItem) fn.Result[Playlist] {
			ids, err := s.playlistVideoIDs(ctx, item.ID)
			if err != nil {
				return fn.Err[Playlist](err)
			}
			return fn.Ok(Playlist{
				ID:       item.ID,
				Title:    item.Snippet.Title,
				VideoIDs: ids,
			})
		}))
		got, err := page.Unwrap()
		if err != nil {
			return fn.Err[[]Playlist](err)
		}
		playlists = append(playlists, got...)
		if pr.NextPageToken == "" {
			return fn.Ok(playlists)
		}
		pageToken = pr.NextPageToken
	}
}

func (s *YouTubeScraper) playlistVideoIDs(ctx context.Context, playlistID string) ([]string, error) {
	var ids []string
	pageToken := ""
	for {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		params := url.Values{
			"part":       {"contentDetails"},
			"playlistId": {playlistID},
			"maxResults": {strconv.Itoa(50)},
			"key":        {s.apiKey},
		}
		if pageToken != "" {
			params.Set("pageToken", pageToken)
		}

		var ir playlistItemsResponse
		if err := s.getJSON(ctx, dataAPIBase+"/playlistItems?"+params.Encode(), &ir); err != nil {
			return nil, err
		}
		for _, item := range ir.Items {
			if item.ContentDetails.VideoID != "" {
				ids = append(ids, item.ContentDetails.VideoID)
			}
		}
		if ir.NextPageToken == "" {
			return fn.Unique(ids), nil
		}
		pageToken = ir.NextPageToken
	}
}

// tagPlaylists records which of the channel's playlists contain the video.
func tagPlaylists(v ScrapedVideo, playlists []Playlist) ScrapedVideo {
	for _, pl := range playlists {
		for _, id := range pl.VideoIDs {
			if id == v.VideoID {
				v.Playlists = append(v.Playlists, pl.Title)
				v.PlaylistIDs = append(v.PlaylistIDs, pl.ID)
				break
			}
		}
	}
	return v
}
