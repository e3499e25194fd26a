// Package indexer builds the knowledge index: it loads the source
// files, embeds every document, and swaps the result into the vector
// store in one transaction. A watcher variant rebuilds automatically
// when the source files change on disk.
package indexer

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"baymax/internal/embedding"
	"baymax/internal/knowledge"
	"baymax/internal/store"
)

// embedBatchSize is how many documents one embedding request carries.
const embedBatchSize = 16

// embedConcurrency bounds parallel embedding requests so a local
// Ollama instance is not flooded.
const embedConcurrency = 4

// Writer is the slice of the store the indexer writes through.
type Writer interface {
	ReplaceAll(ctx context.Context, docs []store.Document, embeddings [][]float32) error
}

// Indexer rebuilds the knowledge index from the source files.
type Indexer struct {
	kbPath string
	mbPath string
	engine embedding.Engine
	writer Writer
	logger *zap.Logger
}

// New creates an indexer over the given knowledge files.
func New(kbPath, mbPath string, engine embedding.Engine, writer Writer, logger *zap.Logger) *Indexer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Indexer{
		kbPath: kbPath,
		mbPath: mbPath,
		engine: engine,
		writer: writer,
		logger: logger,
	}
}

// Build loads, embeds, and stores the full document set, returning how
// many documents were indexed. An empty document set leaves the store
// untouched: wiping a working index because the source files went
// missing would be worse than staleness.
func (ix *Indexer) Build(ctx context.Context) (int, error) {
	docs := knowledge.Load(ix.kbPath, ix.mbPath, ix.logger)
	if len(docs) == 0 {
		ix.logger.Warn("no documents found; nothing to index",
			zap.String("kb", ix.kbPath),
			zap.String("mb", ix.mbPath))
		return 0, nil
	}

	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.Text
	}

	embeddings, err := ix.embedAll(ctx, texts)
	if err != nil {
		return 0, err
	}

	stored := make([]store.Document, len(docs))
	for i, doc := range docs {
		stored[i] = store.Document{
			ID:      doc.ID,
			Topic:   doc.Topic,
			Section: doc.Section,
			Content: doc.Text,
			Sources: doc.Sources,
		}
	}

	if err := ix.writer.ReplaceAll(ctx, stored, embeddings); err != nil {
		return 0, fmt.Errorf("failed to store index: %w", err)
	}

	ix.logger.Info("knowledge index built",
		zap.Int("documents", len(docs)),
		zap.String("engine", ix.engine.Name()))
	return len(docs), nil
}

// embedAll embeds every text, batched and bounded, with results landing
// at the same index they were submitted from.
func (ix *Indexer) embedAll(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(embedConcurrency)

	for start := 0; start < len(texts); start += embedBatchSize {
		start := start
		end := start + embedBatchSize
		if end > len(texts) {
			end = len(texts)
		}

		g.Go(func() error {
			vecs, err := ix.engine.EmbedBatch(gctx, texts[start:end])
			if err != nil {
				return fmt.Errorf("failed to embed documents %d-%d: %w", start, end-1, err)
			}
			if len(vecs) != end-start {
				return fmt.Errorf("engine returned %d embeddings for %d documents", len(vecs), end-start)
			}
			copy(embeddings[start:end], vecs)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return embeddings, nil
}
