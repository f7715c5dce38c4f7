package ai

import (
	"context"
	"os"
	"testing"

	"edu-assistant-platform/internal/config"
)

func TestGeminiEmbedder(t *testing.T) {
	if os.Getenv("GEMINI_API_KEY") == "" {
		t.Skip("GEMINI_API_KEY not set")
	}
	cfg := &config.Config{
		GeminiAPIKey:          os.Getenv("GEMINI_API_KEY"),
		GoogleEmbeddingsModel: "text-embedding-004",
	}
	e, err := NewGeminiEmbedder(context.Background(), cfg)
	if err != nil {
		t.Fatalf("init error: %v", err)
	}
	defer e.Close()

	vec, err := e.Embed(context.Background(), "hello world")
	if err != nil {
		t.Fatalf("embedding error: %v", err)
	}
	if len(vec) == 0 {
		t.Fatalf("empty embedding")
	}
}
