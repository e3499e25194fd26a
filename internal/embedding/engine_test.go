package embedding

import (
	"math"
	"strings"
	"testing"
)

func TestCosineSimilarity(t *testing.T) {
	got, err := CosineSimilarity([]float32{1, 0, 0}, []float32{1, 0, 0})
	if err != nil {
		t.Fatalf("CosineSimilarity(identical) error: %v", err)
	}
	if math.Abs(got-1.0) > 1e-9 {
		t.Fatalf("CosineSimilarity(identical)=%v, want 1.0", got)
	}

	got, err = CosineSimilarity([]float32{1, 0}, []float32{0, 1})
	if err != nil {
		t.Fatalf("CosineSimilarity(orthogonal) error: %v", err)
	}
	if math.Abs(got) > 1e-9 {
		t.Fatalf("CosineSimilarity(orthogonal)=%v, want 0", got)
	}

	got, err = CosineSimilarity([]float32{1, 0}, []float32{-1, 0})
	if err != nil {
		t.Fatalf("CosineSimilarity(opposite) error: %v", err)
	}
	if math.Abs(got+1.0) > 1e-9 {
		t.Fatalf("CosineSimilarity(opposite)=%v, want -1.0", got)
	}
}

func TestCosineSimilarity_DimensionMismatch(t *testing.T) {
	if _, err := CosineSimilarity([]float32{1, 2}, []float32{1, 2, 3}); err == nil {
		t.Fatal("expected error for mismatched dimensions")
	}
}

func TestCosineSimilarity_ZeroMagnitude(t *testing.T) {
	got, err := CosineSimilarity([]float32{0, 0}, []float32{1, 1})
	if err != nil {
		t.Fatalf("CosineSimilarity(zero vector) error: %v", err)
	}
	if got != 0 {
		t.Fatalf("CosineSimilarity(zero vector)=%v, want 0", got)
	}
}

func TestFindTopK(t *testing.T) {
	query := []float32{1, 0}
	corpus := [][]float32{
		{0, 1},       // orthogonal
		{1, 0},       // identical
		{0.9, 0.1},   // close
		{-1, 0},      // opposite
		{1, 2, 3, 4}, // wrong dimension, skipped
	}

	results := FindTopK(query, corpus, 2)
	if len(results) != 2 {
		t.Fatalf("FindTopK returned %d results, want 2", len(results))
	}
	if results[0].Index != 1 {
		t.Fatalf("top result index=%d, want 1", results[0].Index)
	}
	if results[1].Index != 2 {
		t.Fatalf("second result index=%d, want 2", results[1].Index)
	}
	if results[0].Similarity < results[1].Similarity {
		t.Fatal("results not sorted by similarity descending")
	}
}

func TestFindTopK_SmallCorpus(t *testing.T) {
	results := FindTopK([]float32{1, 0}, [][]float32{{1, 0}}, 5)
	if len(results) != 1 {
		t.Fatalf("FindTopK returned %d results, want 1", len(results))
	}
}

func TestNew_UnknownProvider(t *testing.T) {
	_, err := New(Config{Provider: "chroma"})
	if err == nil {
		t.Fatal("expected error for unknown provider")
	}
	if !strings.Contains(err.Error(), "unsupported embedding provider") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNew_Ollama(t *testing.T) {
	eng, err := New(Config{Provider: "ollama", Endpoint: "http://localhost:11434", Model: "nomic-embed-text"})
	if err != nil {
		t.Fatalf("New(ollama) error: %v", err)
	}
	if eng.Name() != "ollama:nomic-embed-text" {
		t.Fatalf("Name()=%q, want ollama:nomic-embed-text", eng.Name())
	}
}

func TestNew_GenAIRequiresKey(t *testing.T) {
	if _, err := New(Config{Provider: "genai"}); err == nil {
		t.Fatal("expected error for genai without API key")
	}
}
