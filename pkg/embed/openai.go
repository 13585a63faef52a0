// Package embed provides embedding gateway clients that satisfy the
// index's Embedder interface: an OpenAI-compatible batched client and an
// Ollama client for local models. Both run behind a circuit breaker.
package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/tickerlens/tickerlens/pkg/fn"
	"github.com/tickerlens/tickerlens/pkg/resilience"
)

// maxEmbedBatch bounds inputs per request; larger ingest batches split
// into sequential calls.
const maxEmbedBatch = 128

// OpenAIClient talks to any /v1/embeddings-compatible server.
type OpenAIClient struct {
	baseURL string
	model   string
	apiKey  string
	client  *http.Client
	breaker *resilience.Breaker
}

// NewOpenAIClient creates a client for an OpenAI-compatible embedding
// endpoint. apiKey may be empty for unauthenticated local servers.
func NewOpenAIClient(baseURL, model, apiKey string) *OpenAIClient {
	return &OpenAIClient{
		baseURL: baseURL,
		model:   model,
		apiKey:  apiKey,
		client: &http.Client{
			Timeout:   60 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		breaker: resilience.NewBreaker(resilience.DefaultBreakerOpts),
	}
}

type openAIEmbedReq struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type openAIEmbedResp struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// EmbedBatch embeds texts in requests of at most maxEmbedBatch inputs,
// preserving input order. A 429 waits out the server's Retry-After once
// per request before failing.
func (c *OpenAIClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	var out [][]float32
	err := c.breaker.Call(ctx, func(ctx context.Context) error {
		out = out[:0]
		for _, batch := range fn.Chunk(texts, maxEmbedBatch) {
			vectors, err := c.embedBatch(ctx, batch)
			if err != nil {
				return err
			}
			out = append(out, vectors...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *OpenAIClient) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	body, err := json.Marshal(openAIEmbedReq{Model: c.model, Input: texts})
	if err != nil {
		return nil, err
	}

	for attempt := 0; ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/embeddings", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		if c.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("embed: %w", err)
		}

		if resp.StatusCode == http.StatusTooManyRequests && attempt == 0 {
			wait := retryAfter(resp)
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(wait):
			}
			continue
		}

		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("embed: status %d", resp.StatusCode)
		}

		var er openAIEmbedResp
		if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
			return nil, fmt.Errorf("embed: decode response: %w", err)
		}
		if len(er.Data) != len(texts) {
			return nil, fmt.Errorf("embed: %d vectors for %d inputs", len(er.Data), len(texts))
		}

		// The API may return items out of order; index is authoritative.
		vectors := make([][]float32, len(texts))
		for _, d := range er.Data {
			if d.Index < 0 || d.Index >= len(vectors) {
				return nil, fmt.Errorf("embed: index %d out of range", d.Index)
			}
			vectors[d.Index] = d.Embedding
		}
		return vectors, nil
	}
}

func retryAfter(resp *http.Response) time.Duration {
	if v := resp.Header.Get("Retry-After"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return time.Second
}
