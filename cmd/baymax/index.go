package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"baymax/internal/embedding"
	"baymax/internal/indexer"
	"baymax/internal/logging"
	"baymax/internal/store"

	"github.com/spf13/cobra"
)

var indexWatch bool

// indexCmd rebuilds the knowledge index
var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Rebuild the knowledge index from the knowledge base files",
	Long: `Loads the knowledge base files, embeds every document, and
replaces the vector store contents in one transaction.

With --watch the command keeps running and rebuilds the index whenever
a knowledge base file changes.`,
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().BoolVar(&indexWatch, "watch", false, "Stay running and rebuild when knowledge files change")
}

func runIndex(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	engine, err := embedding.New(embedding.Config{
		Provider: cfg.Embedding.Provider,
		Endpoint: cfg.Embedding.Endpoint,
		Model:    cfg.Embedding.Model,
		APIKey:   cfg.Embedding.APIKey,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize embedding engine: %w", err)
	}

	ix := indexer.New(cfg.Knowledge.KBFile, cfg.Knowledge.MBFile, engine, st, logging.Component(logger, "indexer"))

	count, err := ix.Build(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Indexed %d documents into %s\n", count, cfg.Store.Path)

	if !indexWatch {
		return nil
	}

	w, err := ix.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := w.Start(ctx); err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	defer w.Stop()

	fmt.Printf("Watching %s and %s (Ctrl+C to stop)\n", cfg.Knowledge.KBFile, cfg.Knowledge.MBFile)
	<-ctx.Done()
	fmt.Printf("Stopped after %d rebuild(s)\n", w.Rebuilds())
	return nil
}
