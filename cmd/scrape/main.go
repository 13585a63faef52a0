// Command scrape discovers finance videos on YouTube, pulls their
// transcripts, and publishes them to NATS for ingestion (or prints JSON
// with -stdout).
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"

	"github.com/tickerlens/tickerlens/engine/ingest"
	"github.com/tickerlens/tickerlens/engine/scraper"
	"github.com/tickerlens/tickerlens/pkg/config"
	"github.com/tickerlens/tickerlens/pkg/fn"
	"github.com/tickerlens/tickerlens/pkg/metrics"
	"github.com/tickerlens/tickerlens/pkg/natsutil"
)

func main() {
	_ = godotenv.Load()

	var (
		configPath = flag.String("config", "config.yaml", "path to config file")
		query      = flag.String("query", "", "search query (overrides channel discovery)")
		videoIDs   = flag.String("video-ids", "", "comma-separated video IDs to scrape directly")
		maxRes     = flag.Int("max", 0, "max results per channel or query")
		toStdout   = flag.Bool("stdout", false, "print scraped videos instead of publishing")
	)
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("config load failed", "err", err)
		os.Exit(1)
	}
	if *maxRes <= 0 {
		*maxRes = cfg.Scraper.MaxResults
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := metrics.New()
	reg.ServeAsync(cfg.MetricsPort)
	scraped := reg.Counter("scrape_videos_total", "Videos scraped successfully.")
	failed := reg.Counter("scrape_failures_total", "Videos that failed to scrape.")

	s := scraper.NewYouTubeScraper(cfg.Scraper.APIKey(), cfg.Scraper.ChannelIDs)

	var results <-chan fn.Result[scraper.ScrapedVideo]
	if *videoIDs != "" {
		results = s.ScrapeVideoIDs(ctx, strings.Split(*videoIDs, ","))
	} else {
		if cfg.Scraper.APIKey() == "" {
			logger.Error("YouTube API key required for discovery (set YOUTUBE_API_KEY or use -video-ids)")
			os.Exit(1)
		}
		results = s.Scrape(ctx, scraper.ScrapeOpts{
			Query:          *query,
			MaxResults:     *maxRes,
			ChannelIDs:     cfg.Scraper.ChannelIDs,
			FetchPlaylists: cfg.Scraper.Playlists,
		})
	}

	var nc *nats.Conn
	if !*toStdout {
		nc, err = nats.Connect(cfg.NATSURL)
		if err != nil {
			logger.Error("nats connect failed", "url", cfg.NATSURL, "err", err)
			os.Exit(1)
		}
		defer nc.Drain()
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	for r := range results {
		video, err := r.Unwrap()
		if err != nil {
			failed.Inc()
			logger.Warn("scrape failed", "err", err)
			continue
		}
		if *toStdout {
			if err := enc.Encode(video); err != nil {
				logger.Error("encode failed", "err", err)
			}
		} else if err := natsutil.Publish(ctx, nc, ingest.IngestSubject, video); err != nil {
			failed.Inc()
			logger.Error("publish failed", "video_id", video.VideoID, "err", err)
			continue
		}
		scraped.Inc()
		logger.Info("scraped", "video_id", video.VideoID, "title", video.Title)
	}

	logger.Info("scrape run done", "scraped", scraped.Value(), "failed", failed.Value())
}
