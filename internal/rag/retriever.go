// Package rag grounds answers in the local knowledge index. A query is
// embedded, matched against the stored documents, and the winning
// passages are folded into a structured prompt the language model is
// told to answer from.
package rag

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"baymax/internal/embedding"
	"baymax/internal/store"
)

// DefaultTopK is how many passages a query retrieves when the caller
// does not say otherwise.
const DefaultTopK = 4

// Searcher is the slice of the document store retrieval needs.
type Searcher interface {
	SearchSemantic(ctx context.Context, queryVec []float32, k int) ([]store.Hit, error)
}

// Retriever embeds queries and pulls the closest knowledge passages.
type Retriever struct {
	engine embedding.Engine
	store  Searcher
	topK   int
	logger *zap.Logger
}

// NewRetriever creates a retriever over the given engine and store.
func NewRetriever(engine embedding.Engine, st Searcher, topK int, logger *zap.Logger) *Retriever {
	if topK <= 0 {
		topK = DefaultTopK
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Retriever{engine: engine, store: st, topK: topK, logger: logger}
}

// Retrieve returns the stored passages closest to the question. An
// empty index yields an empty slice, not an error; the caller decides
// whether an uncontextualized answer is acceptable.
func (r *Retriever) Retrieve(ctx context.Context, question string) ([]store.Hit, error) {
	vec, err := r.engine.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	hits, err := r.store.SearchSemantic(ctx, vec, r.topK)
	if err != nil {
		return nil, fmt.Errorf("failed to search documents: %w", err)
	}

	r.logger.Debug("retrieved context",
		zap.Int("hits", len(hits)),
		zap.Int("top_k", r.topK))
	return hits, nil
}
