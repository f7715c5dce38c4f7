package vectorstore

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

// RESTStore implements Store over Qdrant's HTTP API, for deployments where
// only the REST port is reachable.
type RESTStore struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

func NewRESTStore(cfg *config.Config) *RESTStore {
	return &RESTStore{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    strings.TrimRight(cfg.QdrantURL, "/"),
		apiKey:     cfg.QdrantAPIKey,
	}
}

func (s *RESTStore) EnsureCollection(ctx context.Context, name string, vectorSize uint64) error {
	body := map[string]any{
		"vectors": map[string]any{
			"size":     vectorSize,
			"distance": "Cosine",
		},
	}

	status, respBody, err := s.do(ctx, http.MethodPut, "/collections/"+name, body)
	if err != nil {
		return &CreateCollectionError{Collection: name, Cause: err}
	}
	if status == http.StatusOK {
		return nil
	}
	if !restAlreadyExists(status, respBody) {
		return &CreateCollectionError{Collection: name, Cause: restError(status, respBody)}
	}

	// Collection already exists: reconcile dimensionality, never migrate.
	existing, err := s.collectionVectorSize(ctx, name)
	if err != nil {
		return &CreateCollectionError{Collection: name, Cause: err}
	}
	if existing != vectorSize {
		return &DimensionMismatchError{Collection: name, Expected: existing, Actual: vectorSize}
	}
	return nil
}

func (s *RESTStore) Upsert(ctx context.Context, collection string, points []Point) error {
	type restPoint struct {
		ID      string            `json:"id"`
		Vector  []float32         `json:"vector"`
		Payload map[string]string `json:"payload"`
	}
	restPoints := make([]restPoint, len(points))
	for i, p := range points {
		restPoints[i] = restPoint{ID: p.ID, Vector: p.Vector, Payload: p.Payload}
	}

	status, respBody, err := s.do(ctx, http.MethodPut,
		"/collections/"+collection+"/points?wait=true",
		map[string]any{"points": restPoints})
	if err != nil {
		return &UpsertError{Collection: collection, Cause: err}
	}
	if status != http.StatusOK {
		return &UpsertError{Collection: collection, Cause: restError(status, respBody)}
	}
	return nil
}

func (s *RESTStore) ListCollections(ctx context.Context) ([]string, error) {
	status, respBody, err := s.do(ctx, http.MethodGet, "/collections", nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, restError(status, respBody)
	}

	var parsed struct {
		Result struct {
			Collections []struct {
				Name string `json:"name"`
			} `json:"collections"`
		} `json:"result"`
	}
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode collections list: %w", err)
	}
	names := make([]string, len(parsed.Result.Collections))
	for i, c := range parsed.Result.Collections {
		names[i] = c.Name
	}
	return names, nil
}

func (s *RESTStore) DeleteCollection(ctx context.Context, name string) error {
	status, respBody, err := s.do(ctx, http.MethodDelete, "/collections/"+name, nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return restError(status, respBody)
	}
	return nil
}

func (s *RESTStore) Close() error { return nil }

func (s *RESTStore) collectionVectorSize(ctx context.Context, name string) (uint64, error) {
	status, respBody, err := s.do(ctx, http.MethodGet, "/collections/"+name, nil)
	if err != nil {
		return 0, err
	}
	if status != http.StatusOK {
		return 0, restError(status, respBody)
	}

	var parsed struct {
		Result struct {
			Config struct {
				Params struct {
					Vectors struct {
						Size uint64 `json:"size"`
					} `json:"vectors"`
				} `json:"params"`
			} `json:"config"`
		} `json:"result"`
	}
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return 0, fmt.Errorf("failed to decode collection info: %w", err)
	}
	return parsed.Result.Config.Params.Vectors.Size, nil
}

func (s *RESTStore) do(ctx context.Context, method, path string, body any) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return 0, nil, err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reader)
	if err != nil {
		return 0, nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return resp.StatusCode, nil, err
	}
	return resp.StatusCode, respBody, nil
}

func restAlreadyExists(status int, body []byte) bool {
	if status != http.StatusBadRequest && status != http.StatusConflict {
		return false
	}
	return strings.Contains(strings.ToLower(string(body)), "already exists")
}

func restError(status int, body []byte) error {
	msg := string(body)
	if len(msg) > 200 {
		msg = msg[:200] + "..."
	}
	return fmt.Errorf("qdrant returned %d: %s", status, msg)
}
