package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"edu-assistant-platform/internal/config"
	"edu-assistant-platform/internal/lock"
	"edu-assistant-platform/internal/vectorstore"
	"edu-assistant-platform/services"

	"github.com/gin-gonic/gin"
)

type stubEmbedder struct {
	calls    int
	dim      int
	embedErr error
}

func (s *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	s.calls++
	if s.embedErr != nil {
		return nil, s.embedErr
	}
	return make([]float32, s.dim), nil
}

type stubStore struct {
	ensureErr   error
	upsertErr   error
	ensureCalls int
	upsertCalls int
	upserted    []vectorstore.Point
	collections []string
	deleted     []string
}

func (s *stubStore) EnsureCollection(ctx context.Context, name string, vectorSize uint64) error {
	s.ensureCalls++
	return s.ensureErr
}

func (s *stubStore) Upsert(ctx context.Context, collection string, points []vectorstore.Point) error {
	s.upsertCalls++
	s.upserted = points
	if s.upsertErr != nil {
		return &vectorstore.UpsertError{Collection: collection, Cause: s.upsertErr}
	}
	return nil
}

func (s *stubStore) ListCollections(ctx context.Context) ([]string, error) {
	return s.collections, nil
}

func (s *stubStore) DeleteCollection(ctx context.Context, name string) error {
	s.deleted = append(s.deleted, name)
	return nil
}

func (s *stubStore) Close() error { return nil }

func testRouter(embedder *stubEmbedder, store *stubStore) *gin.Engine {
	return testRouterMode(embedder, store, "release")
}

func testRouterMode(embedder *stubEmbedder, store *stubStore, ginMode string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{
		GinMode:     ginMode,
		MaxFileSize: 1 << 20,
	}
	pipeline := services.NewPipeline(embedder, store, lock.NewLocalLocker(), nil, 5000)
	router := gin.New()
	SetupIngestRoutes(router, cfg, pipeline, store, nil, nil)
	return router
}

func uploadRequest(t *testing.T, filename, contentType string, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="file"; filename="%s"`, filename))
	header.Set("Content-Type", contentType)
	part, err := w.CreatePart(header)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v (body: %s)", err, rec.Body.String())
	}
	return body
}

func TestUploadTextDocument(t *testing.T) {
	embedder := &stubEmbedder{dim: 768}
	store := &stubStore{}
	router := testRouter(embedder, store)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, uploadRequest(t, "Lecture-Notes.txt", "text/plain",
		[]byte(strings.Repeat("a", 12000))))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if embedder.calls != 3 {
		t.Fatalf("expected 3 embed calls, got %d", embedder.calls)
	}
	if store.ensureCalls != 1 || store.upsertCalls != 1 {
		t.Fatalf("expected one ensure and one upsert, got %d/%d",
			store.ensureCalls, store.upsertCalls)
	}
	if len(store.upserted) != 3 {
		t.Fatalf("expected 3 points upserted, got %d", len(store.upserted))
	}

	body := decodeJSON(t, rec)
	if body["success"] != true {
		t.Fatalf("expected success response: %v", body)
	}
	details, ok := body["details"].(map[string]any)
	if !ok {
		t.Fatalf("missing details: %v", body)
	}
	if details["collection_name"] != "lecture-notes" {
		t.Fatalf("collection_name = %v", details["collection_name"])
	}
	if details["chunks_processed"] != float64(3) {
		t.Fatalf("chunks_processed = %v", details["chunks_processed"])
	}
	if details["text_length"] != float64(12000) {
		t.Fatalf("text_length = %v", details["text_length"])
	}
	if details["vector_size"] != float64(768) {
		t.Fatalf("vector_size = %v", details["vector_size"])
	}
}

func TestUploadEmptyDocument(t *testing.T) {
	embedder := &stubEmbedder{dim: 768}
	store := &stubStore{}
	router := testRouter(embedder, store)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, uploadRequest(t, "blank.txt", "text/plain", []byte("   \n\t ")))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if embedder.calls != 0 || store.ensureCalls != 0 || store.upsertCalls != 0 {
		t.Fatalf("empty document must not reach the embedder or store")
	}
	body := decodeJSON(t, rec)
	if body["error"] != "Document contains no extractable text." {
		t.Fatalf("unexpected error message: %v", body["error"])
	}
}

func TestUploadDimensionMismatch(t *testing.T) {
	embedder := &stubEmbedder{dim: 1536}
	store := &stubStore{ensureErr: &vectorstore.DimensionMismatchError{
		Collection: "notes", Expected: 768, Actual: 1536,
	}}
	router := testRouter(embedder, store)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, uploadRequest(t, "notes.txt", "text/plain",
		[]byte("some document text")))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if store.upsertCalls != 0 {
		t.Fatalf("no upsert may follow a dimension mismatch")
	}

	body := decodeJSON(t, rec)
	details, ok := body["details"].(map[string]any)
	if !ok {
		t.Fatalf("missing details: %v", body)
	}
	if details["expected_dimension"] != float64(768) {
		t.Fatalf("expected_dimension = %v", details["expected_dimension"])
	}
	if details["actual_dimension"] != float64(1536) {
		t.Fatalf("actual_dimension = %v", details["actual_dimension"])
	}
	if details["remediation"] == nil {
		t.Fatalf("mismatch response must carry remediation guidance")
	}
}

func TestUploadEmbeddingFailure(t *testing.T) {
	embedder := &stubEmbedder{dim: 768, embedErr: errors.New("provider unavailable")}
	store := &stubStore{}
	router := testRouter(embedder, store)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, uploadRequest(t, "notes.txt", "text/plain",
		[]byte("some document text")))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if store.ensureCalls != 0 || store.upsertCalls != 0 {
		t.Fatalf("store must not be touched after an embedding failure")
	}

	body := decodeJSON(t, rec)
	if body["error"] != "Failed to generate embedding for chunk 0." {
		t.Fatalf("error message must name the failing chunk, got %v", body["error"])
	}
	details, ok := body["details"].(map[string]any)
	if !ok {
		t.Fatalf("500 response must carry details: %v", body)
	}
	cause, _ := details["cause"].(string)
	if !strings.Contains(cause, "provider unavailable") {
		t.Fatalf("details.cause must carry the underlying error, got %v", details["cause"])
	}
	if _, present := details["stack"]; present {
		t.Fatalf("stack trace must not appear in release mode")
	}
}

func TestUploadUpsertFailure(t *testing.T) {
	embedder := &stubEmbedder{dim: 768}
	store := &stubStore{upsertErr: errors.New("connection reset")}
	router := testRouter(embedder, store)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, uploadRequest(t, "notes.txt", "text/plain",
		[]byte("some document text")))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	body := decodeJSON(t, rec)
	if body["error"] != "Failed to index document vectors." {
		t.Fatalf("unexpected error message: %v", body["error"])
	}
	details, ok := body["details"].(map[string]any)
	if !ok {
		t.Fatalf("500 response must carry details: %v", body)
	}
	cause, _ := details["cause"].(string)
	if !strings.Contains(cause, "connection reset") {
		t.Fatalf("details.cause must carry the underlying error, got %v", details["cause"])
	}
	if _, present := details["stack"]; present {
		t.Fatalf("stack trace must not appear in release mode")
	}
}

func TestUploadFailureStackInDebugMode(t *testing.T) {
	embedder := &stubEmbedder{dim: 768}
	store := &stubStore{upsertErr: errors.New("connection reset")}
	router := testRouterMode(embedder, store, "debug")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, uploadRequest(t, "notes.txt", "text/plain",
		[]byte("some document text")))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	body := decodeJSON(t, rec)
	details, ok := body["details"].(map[string]any)
	if !ok {
		t.Fatalf("500 response must carry details: %v", body)
	}
	stack, _ := details["stack"].(string)
	if stack == "" {
		t.Fatalf("debug mode must include a stack trace in details")
	}
}

func TestUploadUnsupportedType(t *testing.T) {
	embedder := &stubEmbedder{dim: 768}
	store := &stubStore{}
	router := testRouter(embedder, store)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, uploadRequest(t, "syllabus.xyz", "application/octet-stream",
		[]byte("opaque bytes")))

	if rec.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("status = %d, want 415", rec.Code)
	}
	if embedder.calls != 0 || store.ensureCalls != 0 || store.upsertCalls != 0 {
		t.Fatalf("unsupported upload must not reach the embedder or store")
	}
}

func TestUploadMissingFile(t *testing.T) {
	router := testRouter(&stubEmbedder{dim: 768}, &stubStore{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/upload", nil)
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	body := decodeJSON(t, rec)
	if body["error"] != "No file provided." {
		t.Fatalf("unexpected error message: %v", body["error"])
	}
}

func TestUploadOversizedFile(t *testing.T) {
	embedder := &stubEmbedder{dim: 768}
	store := &stubStore{}
	router := testRouter(embedder, store)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, uploadRequest(t, "big.txt", "text/plain",
		bytes.Repeat([]byte("x"), (1<<20)+1)))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if embedder.calls != 0 {
		t.Fatalf("oversized upload must not reach the embedder")
	}
}

func TestListCollections(t *testing.T) {
	store := &stubStore{collections: []string{"notes", "syllabus"}}
	router := testRouter(&stubEmbedder{dim: 768}, store)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/collections", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decodeJSON(t, rec)
	names, ok := body["collections"].([]any)
	if !ok || len(names) != 2 {
		t.Fatalf("unexpected collections: %v", body)
	}
}

func TestDeleteCollection(t *testing.T) {
	store := &stubStore{}
	router := testRouter(&stubEmbedder{dim: 768}, store)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/collections/notes", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if len(store.deleted) != 1 || store.deleted[0] != "notes" {
		t.Fatalf("expected delete of %q, got %v", "notes", store.deleted)
	}
}

func TestListDocumentsWithoutMongo(t *testing.T) {
	router := testRouter(&stubEmbedder{dim: 768}, &stubStore{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/documents", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decodeJSON(t, rec)
	docs, ok := body["documents"].([]any)
	if !ok || len(docs) != 0 {
		t.Fatalf("expected empty document list, got %v", body)
	}
}
