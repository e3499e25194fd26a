package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func testDocs() ([]Document, [][]float32) {
	docs := []Document{
		{ID: "doc-1", Topic: "demam", Section: "gejala", Content: "[demam / gejala]\nsuhu: di atas 38 derajat", Sources: []string{"Kemenkes RI", "WHO"}},
		{ID: "doc-2", Topic: "batuk", Section: "penanganan", Content: "[batuk / penanganan]\nminum: air hangat", Sources: []string{"IDAI"}},
		{ID: "doc-3", Topic: "demam", Section: "penanganan", Content: "[demam / penanganan]\nkompres: air hangat"},
	}
	embeddings := [][]float32{
		{1, 0, 0},
		{0, 1, 0},
		{0.9, 0.1, 0},
	}
	return docs, embeddings
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "kb", "baymax.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenCreatesParentDir(t *testing.T) {
	s := openTestStore(t)

	n, err := s.Count(context.Background())
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 0 {
		t.Fatalf("Count = %d, want 0", n)
	}
}

func TestReplaceAllAndCount(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	docs, embeddings := testDocs()
	if err := s.ReplaceAll(ctx, docs, embeddings); err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}

	n, err := s.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != len(docs) {
		t.Fatalf("Count = %d, want %d", n, len(docs))
	}
}

func TestReplaceAllMismatchedLengths(t *testing.T) {
	s := openTestStore(t)

	docs, embeddings := testDocs()
	if err := s.ReplaceAll(context.Background(), docs, embeddings[:1]); err == nil {
		t.Fatal("ReplaceAll with mismatched lengths should fail")
	}
}

func TestReplaceAllReplacesPreviousSet(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	docs, embeddings := testDocs()
	if err := s.ReplaceAll(ctx, docs, embeddings); err != nil {
		t.Fatalf("first ReplaceAll: %v", err)
	}

	replacement := []Document{{ID: "doc-1", Topic: "asma", Section: "gejala", Content: "[asma / gejala]\nnapas: berbunyi"}}
	if err := s.ReplaceAll(ctx, replacement, [][]float32{{0, 0, 1}}); err != nil {
		t.Fatalf("second ReplaceAll: %v", err)
	}

	n, err := s.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 1 {
		t.Fatalf("Count after replace = %d, want 1", n)
	}

	hits, err := s.SearchSemantic(ctx, []float32{0, 0, 1}, 5)
	if err != nil {
		t.Fatalf("SearchSemantic: %v", err)
	}
	if len(hits) != 1 || hits[0].Topic != "asma" {
		t.Fatalf("search after replace = %+v, want the asma document", hits)
	}
}

func TestSearchSemanticRanksBySimilarity(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	docs, embeddings := testDocs()
	if err := s.ReplaceAll(ctx, docs, embeddings); err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}

	hits, err := s.SearchSemantic(ctx, []float32{1, 0, 0}, 2)
	if err != nil {
		t.Fatalf("SearchSemantic: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("len(hits) = %d, want 2", len(hits))
	}
	if hits[0].ID != "doc-1" || hits[1].ID != "doc-3" {
		t.Fatalf("hit order = %s, %s; want doc-1, doc-3", hits[0].ID, hits[1].ID)
	}
	if hits[0].Similarity < hits[1].Similarity {
		t.Fatalf("similarities out of order: %f < %f", hits[0].Similarity, hits[1].Similarity)
	}

	if diff := cmp.Diff(docs[0], hits[0].Document); diff != "" {
		t.Fatalf("top hit document mismatch (-want +got):\n%s", diff)
	}
}

func TestSearchSemanticSkipsMismatchedDimensions(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	docs := []Document{
		{ID: "doc-1", Content: "three dimensions"},
		{ID: "doc-2", Content: "two dimensions"},
	}
	embeddings := [][]float32{
		{1, 0, 0},
		{1, 0},
	}
	if err := s.ReplaceAll(ctx, docs, embeddings); err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}

	hits, err := s.SearchSemantic(ctx, []float32{1, 0, 0}, 10)
	if err != nil {
		t.Fatalf("SearchSemantic: %v", err)
	}
	if len(hits) != 1 || hits[0].ID != "doc-1" {
		t.Fatalf("hits = %+v, want only doc-1", hits)
	}
}

func TestStorePersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "baymax.db")
	ctx := context.Background()

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	docs, embeddings := testDocs()
	if err := s.ReplaceAll(ctx, docs, embeddings); err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	n, err := reopened.Count(ctx)
	if err != nil {
		t.Fatalf("Count after reopen: %v", err)
	}
	if n != len(docs) {
		t.Fatalf("Count after reopen = %d, want %d", n, len(docs))
	}
}
