package rag

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"baymax/internal/llm"
	"baymax/internal/store"
)

type stubEngine struct {
	vec []float32
	err error
}

func (s *stubEngine) Embed(ctx context.Context, text string) ([]float32, error) {
	return s.vec, s.err
}

func (s *stubEngine) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = s.vec
	}
	return out, s.err
}

func (s *stubEngine) Dimensions() int { return len(s.vec) }
func (s *stubEngine) Name() string    { return "stub" }

type stubSearcher struct {
	hits    []store.Hit
	err     error
	gotVec  []float32
	gotK    int
	queried bool
}

func (s *stubSearcher) SearchSemantic(ctx context.Context, queryVec []float32, k int) ([]store.Hit, error) {
	s.queried = true
	s.gotVec = queryVec
	s.gotK = k
	return s.hits, s.err
}

func TestRetrieve(t *testing.T) {
	searcher := &stubSearcher{hits: []store.Hit{
		{Document: store.Document{ID: "doc-1", Content: "passage"}, Similarity: 0.9},
	}}
	r := NewRetriever(&stubEngine{vec: []float32{0.1, 0.2}}, searcher, 3, nil)

	hits, err := r.Retrieve(context.Background(), "apa itu demam?")
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(hits) != 1 || hits[0].ID != "doc-1" {
		t.Fatalf("hits = %+v, want doc-1", hits)
	}
	if searcher.gotK != 3 {
		t.Fatalf("search k = %d, want 3", searcher.gotK)
	}
	if diff := cmp.Diff([]float32{0.1, 0.2}, searcher.gotVec); diff != "" {
		t.Fatalf("query vector mismatch (-want +got):\n%s", diff)
	}
}

func TestRetrieveEmbedFailure(t *testing.T) {
	searcher := &stubSearcher{}
	r := NewRetriever(&stubEngine{err: errors.New("ollama down")}, searcher, 3, nil)

	if _, err := r.Retrieve(context.Background(), "q"); err == nil {
		t.Fatal("Retrieve should fail when embedding fails")
	}
	if searcher.queried {
		t.Fatal("store should not be queried when embedding fails")
	}
}

func TestNewRetrieverDefaultsTopK(t *testing.T) {
	searcher := &stubSearcher{}
	r := NewRetriever(&stubEngine{vec: []float32{1}}, searcher, 0, nil)

	if _, err := r.Retrieve(context.Background(), "q"); err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if searcher.gotK != DefaultTopK {
		t.Fatalf("search k = %d, want default %d", searcher.gotK, DefaultTopK)
	}
}

func TestBuildPrompt(t *testing.T) {
	hits := []store.Hit{
		{Document: store.Document{Content: "[demam / gejala]\nsuhu: di atas 38 derajat", Sources: []string{"WHO", "Kemenkes RI"}}},
		{Document: store.Document{Content: "[demam / penanganan]\nkompres: air hangat", Sources: []string{"Kemenkes RI", " IDAI "}}},
	}

	prompt, sources := BuildPrompt("Bagaimana menangani demam?", hits)

	if diff := cmp.Diff([]string{"IDAI", "Kemenkes RI", "WHO"}, sources); diff != "" {
		t.Fatalf("sources mismatch (-want +got):\n%s", diff)
	}

	if !strings.HasPrefix(prompt, llm.BaymaxSystemPrompt) {
		t.Fatal("prompt should start with the system directive")
	}
	wantContext := "[KONTEKS]\n[demam / gejala]\nsuhu: di atas 38 derajat\n\n---\n[demam / penanganan]\nkompres: air hangat\n\n"
	if !strings.Contains(prompt, wantContext) {
		t.Fatalf("prompt missing joined context block:\n%s", prompt)
	}
	if !strings.Contains(prompt, "[PERTANYAAN PENGGUNA]\nBagaimana menangani demam?\n\n") {
		t.Fatal("prompt missing user question section")
	}
	if !strings.Contains(prompt, "[PETUNJUK]\nGunakan informasi dari [KONTEKS]") {
		t.Fatal("prompt missing instruction section")
	}

	// Section order is fixed: context, question, instruction.
	ctxIdx := strings.Index(prompt, "[KONTEKS]")
	qIdx := strings.Index(prompt, "[PERTANYAAN PENGGUNA]")
	instIdx := strings.Index(prompt, "[PETUNJUK]")
	if !(ctxIdx < qIdx && qIdx < instIdx) {
		t.Fatalf("sections out of order: %d, %d, %d", ctxIdx, qIdx, instIdx)
	}
}

func TestBuildPromptNoHits(t *testing.T) {
	prompt, sources := BuildPrompt("pertanyaan umum", nil)

	if len(sources) != 0 {
		t.Fatalf("sources = %v, want none", sources)
	}
	if !strings.Contains(prompt, "[KONTEKS]\n\n\n[PERTANYAAN PENGGUNA]") {
		t.Fatal("empty retrieval should leave the context block empty")
	}
}
