package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"edu-assistant-platform/internal/config"
)

// GeminiRESTEmbedder talks to the Generative Language REST API directly and
// treats the response as an untyped payload. Older and newer API revisions
// have placed the vector at different nesting paths, so the decoder probes
// the known shapes in order.
type GeminiRESTEmbedder struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
}

func NewGeminiRESTEmbedder(cfg *config.Config) *GeminiRESTEmbedder {
	return &GeminiRESTEmbedder{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    strings.TrimRight(cfg.GeminiAPIURL, "/"),
		apiKey:     cfg.GeminiAPIKey,
		model:      cfg.GoogleEmbeddingsModel,
	}
}

type embedContentRequest struct {
	Content struct {
		Parts []struct {
			Text string `json:"text"`
		} `json:"parts"`
	} `json:"content"`
}

func (g *GeminiRESTEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	var reqBody embedContentRequest
	reqBody.Content.Parts = []struct {
		Text string `json:"text"`
	}{{Text: text}}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to encode embedding request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:embedContent", g.baseURL, g.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read embedding response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embedding request returned %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	vec, err := parseEmbeddingResponse(body)
	if err != nil {
		return nil, err
	}
	if err := validateVector(vec); err != nil {
		return nil, err
	}
	return vec, nil
}

// parseEmbeddingResponse probes the known response shapes in order:
// embedding.values, embeddings[0].values, then a bare array.
func parseEmbeddingResponse(body []byte) ([]float32, error) {
	var single struct {
		Embedding *struct {
			Values []float32 `json:"values"`
		} `json:"embedding"`
	}
	if err := json.Unmarshal(body, &single); err == nil && single.Embedding != nil && single.Embedding.Values != nil {
		return single.Embedding.Values, nil
	}

	var batch struct {
		Embeddings []struct {
			Values []float32 `json:"values"`
		} `json:"embeddings"`
	}
	if err := json.Unmarshal(body, &batch); err == nil && len(batch.Embeddings) > 0 && batch.Embeddings[0].Values != nil {
		return batch.Embeddings[0].Values, nil
	}

	var bare []float32
	if err := json.Unmarshal(body, &bare); err == nil && bare != nil {
		return bare, nil
	}

	return nil, ErrUnrecognizedResponse
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
