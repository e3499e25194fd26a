// Package store persists embedded knowledge documents in SQLite and
// answers top-k semantic searches over them. The database is a single
// local file; embeddings are stored as JSON float arrays alongside the
// document text, and similarity is computed in-process at query time.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"baymax/internal/embedding"
)

// Document is one stored knowledge passage.
type Document struct {
	ID      string
	Topic   string
	Section string
	Content string
	Sources []string
}

// Hit is one semantic search result.
type Hit struct {
	Document
	Similarity float64
}

// Store is a SQLite-backed vector store. Writes are serialized through
// a mutex on top of a single-connection pool; SQLite handles one
// writer at a time and the busy_timeout pragma covers the rest.
type Store struct {
	db   *sql.DB
	mu   sync.Mutex
	path string
}

// Open initializes the SQLite database at the given path, creating the
// parent directory and schema as needed.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA journal_mode = WAL",
		// NORMAL is safe under WAL and much faster than FULL.
		"PRAGMA synchronous = NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	s := &Store{db: db, path: path}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		id         TEXT PRIMARY KEY,
		topic      TEXT,
		section    TEXT,
		content    TEXT NOT NULL,
		sources    TEXT,
		embedding  TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_documents_topic ON documents(topic);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

// ReplaceAll atomically replaces the entire document set. Documents
// and embeddings are parallel slices; the whole batch lands in one
// transaction so readers never observe a half-built index.
func (s *Store) ReplaceAll(ctx context.Context, docs []Document, embeddings [][]float32) error {
	if len(docs) != len(embeddings) {
		return fmt.Errorf("document/embedding count mismatch: %d != %d", len(docs), len(embeddings))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM documents"); err != nil {
		return fmt.Errorf("failed to clear documents: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO documents (id, topic, section, content, sources, embedding)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, doc := range docs {
		sourcesJSON, err := json.Marshal(doc.Sources)
		if err != nil {
			return fmt.Errorf("failed to encode sources for %s: %w", doc.ID, err)
		}
		embeddingJSON, err := json.Marshal(embeddings[i])
		if err != nil {
			return fmt.Errorf("failed to encode embedding for %s: %w", doc.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, doc.ID, doc.Topic, doc.Section, doc.Content, string(sourcesJSON), string(embeddingJSON)); err != nil {
			return fmt.Errorf("failed to insert document %s: %w", doc.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// SearchSemantic returns the k documents most similar to the query
// vector, sorted by cosine similarity descending. Rows whose stored
// embedding cannot be decoded or does not match the query dimensions
// are skipped rather than failing the search.
func (s *Store) SearchSemantic(ctx context.Context, queryVec []float32, k int) ([]Hit, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, topic, section, content, sources, embedding
		FROM documents`)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	var docs []Document
	var vectors [][]float32
	for rows.Next() {
		var doc Document
		var sourcesJSON, embeddingJSON string
		if err := rows.Scan(&doc.ID, &doc.Topic, &doc.Section, &doc.Content, &sourcesJSON, &embeddingJSON); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}

		var vec []float32
		if err := json.Unmarshal([]byte(embeddingJSON), &vec); err != nil {
			continue
		}
		if sourcesJSON != "" {
			// Tolerate rows with unreadable sources; the content
			// is still worth returning.
			_ = json.Unmarshal([]byte(sourcesJSON), &doc.Sources)
		}

		docs = append(docs, doc)
		vectors = append(vectors, vec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate documents: %w", err)
	}

	results := embedding.FindTopK(queryVec, vectors, k)
	hits := make([]Hit, 0, len(results))
	for _, r := range results {
		hits = append(hits, Hit{Document: docs[r.Index], Similarity: r.Similarity})
	}
	return hits, nil
}

// Count returns the number of stored documents.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return n, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
