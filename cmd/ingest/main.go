// Command ingest consumes scraped videos from NATS and runs them through
// validation, enrichment, chunking, and indexing.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"

	"github.com/tickerlens/tickerlens/engine/index"
	"github.com/tickerlens/tickerlens/engine/ingest"
	"github.com/tickerlens/tickerlens/pkg/config"
	"github.com/tickerlens/tickerlens/pkg/embed"
	"github.com/tickerlens/tickerlens/pkg/metrics"
)

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	configPath := "config.yaml"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Error("config load failed", "err", err)
		os.Exit(1)
	}

	embedder, err := newEmbedder(cfg)
	if err != nil {
		logger.Error("embedder setup failed", "err", err)
		os.Exit(1)
	}

	store, err := index.Open(index.Options{
		Dir:       cfg.Index.Dir,
		Dimension: cfg.Embedder.Dimension,
	}, embedder, logger)
	if err != nil {
		logger.Error("index open failed", "dir", cfg.Index.Dir, "err", err)
		os.Exit(1)
	}

	nc, err := nats.Connect(cfg.NATSURL)
	if err != nil {
		logger.Error("nats connect failed", "url", cfg.NATSURL, "err", err)
		os.Exit(1)
	}
	defer nc.Drain()

	reg := metrics.New()
	reg.ServeAsync(cfg.MetricsPort)
	docs := reg.Gauge("index_documents", "Chunks currently in the index.")
	docs.Set(int64(store.Stats().TotalDocuments))

	sub, err := ingest.StartConsumer(nc, ingest.Deps{Store: store, Logger: logger})
	if err != nil {
		logger.Error("consumer start failed", "err", err)
		os.Exit(1)
	}
	defer sub.Unsubscribe()

	logger.Info("ingest worker running",
		"subject", ingest.IngestSubject,
		"index_dir", cfg.Index.Dir,
		"documents", store.Stats().TotalDocuments,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	docs.Set(int64(store.Stats().TotalDocuments))
	logger.Info("ingest worker stopping", "documents", store.Stats().TotalDocuments)
}

func newEmbedder(cfg *config.AppConfig) (index.Embedder, error) {
	switch cfg.Embedder.Type {
	case "openai":
		return embed.NewOpenAIClient(cfg.Embedder.BaseURL, cfg.Embedder.Model, cfg.Embedder.APIKey()), nil
	default:
		return embed.NewOllamaClient(cfg.Embedder.BaseURL, cfg.Embedder.Model), nil
	}
}
