// Command ask serves the retrieval API: filtered semantic search over the
// indexed transcripts, plus collection statistics.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/tickerlens/tickerlens/engine/domain"
	"github.com/tickerlens/tickerlens/engine/index"
	"github.com/tickerlens/tickerlens/engine/retrieval"
	"github.com/tickerlens/tickerlens/pkg/config"
	"github.com/tickerlens/tickerlens/pkg/embed"
	"github.com/tickerlens/tickerlens/pkg/metrics"
)

func main() {
	_ = godotenv.Load()

	var (
		configPath = flag.String("config", "config.yaml", "path to config file")
		port       = flag.String("port", envOr("PORT", "8080"), "HTTP listen port")
	)
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("config load failed", "err", err)
		os.Exit(1)
	}

	var embedder index.Embedder
	switch cfg.Embedder.Type {
	case "openai":
		embedder = embed.NewOpenAIClient(cfg.Embedder.BaseURL, cfg.Embedder.Model, cfg.Embedder.APIKey())
	default:
		embedder = embed.NewOllamaClient(cfg.Embedder.BaseURL, cfg.Embedder.Model)
	}

	store, err := index.Open(index.Options{
		Dir:       cfg.Index.Dir,
		Dimension: cfg.Embedder.Dimension,
	}, embedder, logger)
	if err != nil {
		logger.Error("index open failed", "dir", cfg.Index.Dir, "err", err)
		os.Exit(1)
	}

	svc := retrieval.New(store, retrieval.Options{
		DefaultTopK:   cfg.Retrieval.TopK,
		SearchTimeout: time.Duration(cfg.Retrieval.SearchTimeoutSecs) * time.Second,
	}, logger)

	reg := metrics.New()
	reg.ServeAsync(cfg.MetricsPort)
	queries := reg.Counter("ask_queries_total", "Search requests served.")
	latency := reg.Histogram("ask_query_seconds", "Search latency.", nil)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/search", func(w http.ResponseWriter, r *http.Request) {
		handleSearch(w, r, svc, queries, latency, logger)
	})
	mux.HandleFunc("/api/stats", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"index":  svc.IndexStats(),
			"filter": svc.FilterStatistics(),
		})
	})
	mux.HandleFunc("/api/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	srv := &http.Server{Addr: ":" + *port, Handler: mux}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("ask API starting", "port", *port, "documents", svc.IndexStats().TotalDocuments)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv.Shutdown(shutCtx)
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

type searchRequest struct {
	Query   string            `json:"query"`
	TopK    int               `json:"top_k"`
	Filters domain.FilterSpec `json:"filters"`
}

func handleSearch(w http.ResponseWriter, r *http.Request, svc *retrieval.Service, queries *metrics.Counter, latency *metrics.Histogram, logger *slog.Logger) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Query) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "query required"})
		return
	}

	start := time.Now()
	results, err := svc.Retrieve(r.Context(), req.Query, req.TopK, req.Filters)
	latency.Since(start)
	queries.Inc()

	if err != nil {
		logger.Error("retrieve failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "retrieval failed"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"query":   req.Query,
		"results": results,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
