// Package ingest runs scraped videos through validation, metadata
// enrichment, chunking, and indexing, and hosts the NATS consumer that
// feeds the pipeline with retry and dead-letter handling.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/tickerlens/tickerlens/engine/domain"
	"github.com/tickerlens/tickerlens/engine/enhance"
	"github.com/tickerlens/tickerlens/engine/scraper"
	"github.com/tickerlens/tickerlens/pkg/fn"
)

const (
	// IngestSubject carries scraped videos from the scraper to the indexer.
	IngestSubject = "tickerlens.ingest"
	// DLQSubject receives messages that exhausted their retries.
	DLQSubject = "tickerlens.ingest.dlq"
	// MaxRetries before a message goes to the DLQ.
	MaxRetries = 3
	// retryHeader tracks attempts across republishes.
	retryHeader = "X-Retry-Count"
)

// ChunkStore is the slice of the vector index the pipeline needs.
type ChunkStore interface {
	Add(ctx context.Context, texts []string, metas []domain.VideoMetadata) error
}

// Deps holds the pipeline's external dependencies.
type Deps struct {
	Store ChunkStore
	// AlreadyIngested, when set, short-circuits videos seen before.
	AlreadyIngested func(ctx context.Context, docID string) (bool, error)
	Logger          *slog.Logger
	// StoreRetry overrides the in-process retry on the store stage.
	// Zero means fn.DefaultRetry.
	StoreRetry fn.RetryOpts
}

// --- Pipeline Stages ---

// Validate gates the pipeline on domain validation.
var Validate fn.Stage[scraper.ScrapedVideo, scraper.ScrapedVideo] = func(_ context.Context, v scraper.ScrapedVideo) fn.Result[scraper.ScrapedVideo] {
	if err := domain.ValidateScrapedVideo(v); err != nil {
		return fn.Err[scraper.ScrapedVideo](err)
	}
	return fn.Ok(v)
}

// Enhance enriches metadata and splits the transcript into sentences.
var Enhance = fn.MapStage(func(v scraper.ScrapedVideo) EnhancedDoc {
	meta := enhance.Enhance(metaFromVideo(v), v.Transcript, v.Duration)
	meta.PlaylistCount = len(meta.Playlists)
	return EnhancedDoc{
		Video:     v,
		Meta:      meta,
		Sentences: splitSentences(v.Transcript),
	}
})

// ChunkDoc splits an enhanced document into embeddable chunks. Short
// transcripts fall back to a single chunk.
var ChunkDoc = fn.MapStage(func(doc EnhancedDoc) ChunkedDoc {
	id := docID(doc.Video)
	chunks := chunkSentences(id, doc.Sentences, DefaultChunkSize, DefaultOverlap)
	if len(chunks) == 0 {
		chunks = []Chunk{{Text: doc.Video.Transcript, Index: 0, DocID: id}}
	}
	return ChunkedDoc{EnhancedDoc: doc, Chunks: chunks}
})

// NewStore creates the stage that writes chunks and their per-chunk
// metadata to the index in one batch. Chunk IDs are deterministic, so a
// re-run of the same video yields the same IDs.
func NewStore(store ChunkStore) fn.Stage[ChunkedDoc, string] {
	return func(ctx context.Context, doc ChunkedDoc) fn.Result[string] {
		texts := make([]string, len(doc.Chunks))
		metas := make([]domain.VideoMetadata, len(doc.Chunks))
		for i, chunk := range doc.Chunks {
			texts[i] = chunk.Text
			meta := doc.Meta
			meta.ChunkIndex = chunk.Index
			meta.ChunkID = uuid.NewSHA1(uuid.NameSpaceURL,
				[]byte(fmt.Sprintf("%s-%d", chunk.DocID, chunk.Index))).String()
			metas[i] = meta
		}
		if err := store.Add(ctx, texts, metas); err != nil {
			return fn.Err[string](fmt.Errorf("ingest: store chunks: %w", err))
		}
		return fn.Ok(docID(doc.Video))
	}
}

// NewPipeline composes Validate, Enhance, Chunk, and Store, each under
// its own trace span. The store stage retries in-process before the
// consumer's message-level retry takes over.
func NewPipeline(deps Deps) fn.Stage[scraper.ScrapedVideo, string] {
	retry := deps.StoreRetry
	if retry.MaxAttempts == 0 {
		retry = fn.DefaultRetry
	}
	validated := fn.TracedStage("ingest.validate", Validate)
	enhanced := fn.TracedStage("ingest.enhance", Enhance)
	chunked := fn.TracedStage("ingest.chunk", ChunkDoc)
	stored := fn.TracedStage("ingest.store", fn.RetryStage(retry, NewStore(deps.Store)))

	return fn.Then(fn.Then(fn.Then(validated, enhanced), chunked), stored)
}

// dlqMessage is published when a video exhausts its retries.
type dlqMessage struct {
	Video   scraper.ScrapedVideo `json:"video"`
	Error   string               `json:"error"`
	Retries int                  `json:"retries"`
}

// StartConsumer subscribes to IngestSubject and runs each message through
// the pipeline. Failures are republished with an incremented retry header
// until MaxRetries, then dead-lettered.
func StartConsumer(nc *nats.Conn, deps Deps) (*nats.Subscription, error) {
	pipeline := NewPipeline(deps)
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}

	return nc.Subscribe(IngestSubject, func(msg *nats.Msg) {
		var video scraper.ScrapedVideo
		if err := json.Unmarshal(msg.Data, &video); err != nil {
			log.Error("ingest: unmarshal failed", "error", err)
			return
		}

		ctx := context.Background()

		if deps.AlreadyIngested != nil {
			id := docID(video)
			exists, err := deps.AlreadyIngested(ctx, id)
			if err != nil {
				log.Warn("ingest: dedup check failed", "error", err)
			} else if exists {
				log.Info("ingest: skipping duplicate", "doc_id", id)
				return
			}
		}

		retries := 0
		if msg.Header != nil {
			if v := msg.Header.Get(retryHeader); v != "" {
				fmt.Sscanf(v, "%d", &retries)
			}
		}

		result := pipeline(ctx, video)
		if result.IsErr() {
			_, pipeErr := result.Unwrap()
			retries++
			log.Error("ingest: pipeline failed",
				"error", pipeErr,
				"video_id", video.VideoID,
				"retry", retries,
			)

			if retries >= MaxRetries {
				dlq := dlqMessage{Video: video, Error: pipeErr.Error(), Retries: retries}
				data, _ := json.Marshal(dlq)
				if err := nc.Publish(DLQSubject, data); err != nil {
					log.Error("ingest: DLQ publish failed", "error", err)
				}
				return
			}

			retryMsg := nats.NewMsg(IngestSubject)
			retryMsg.Data = msg.Data
			retryMsg.Header = nats.Header{}
			retryMsg.Header.Set(retryHeader, fmt.Sprintf("%d", retries))
			if err := nc.PublishMsg(retryMsg); err != nil {
				log.Error("ingest: retry publish failed", "error", err)
			}
			return
		}

		id, _ := result.Unwrap()
		log.Info("ingest: done", "doc_id", id)
	})
}
