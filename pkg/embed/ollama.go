package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/tickerlens/tickerlens/pkg/resilience"
)

// OllamaClient embeds through a local Ollama server. The embeddings API
// takes one prompt per call, so batches loop.
type OllamaClient struct {
	baseURL string
	model   string
	client  *http.Client
	breaker *resilience.Breaker
}

// NewOllamaClient creates an Ollama embedding client.
func NewOllamaClient(baseURL, model string) *OllamaClient {
	return &OllamaClient{
		baseURL: baseURL,
		model:   model,
		client: &http.Client{
			Timeout:   60 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		breaker: resilience.NewBreaker(resilience.DefaultBreakerOpts),
	}
}

type ollamaEmbedReq struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaEmbedResp struct {
	Embedding []float64 `json:"embedding"`
}

// EmbedBatch embeds each text in sequence. The first failure aborts the
// batch.
func (c *OllamaClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		var vec []float32
		err := c.breaker.Call(ctx, func(ctx context.Context) error {
			v, err := c.embed(ctx, text)
			if err != nil {
				return err
			}
			vec = v
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("embed [%d]: %w", i, err)
		}
		vectors[i] = vec
	}
	return vectors, nil
}

func (c *OllamaClient) embed(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(ollamaEmbedReq{Model: c.model, Prompt: text})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama: status %d", resp.StatusCode)
	}

	var er ollamaEmbedResp
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return nil, fmt.Errorf("ollama: decode response: %w", err)
	}
	out := make([]float32, len(er.Embedding))
	for i, v := range er.Embedding {
		out[i] = float32(v)
	}
	return out, nil
}
