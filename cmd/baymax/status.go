package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"baymax/internal/assistant"
	"baymax/internal/store"

	"github.com/spf13/cobra"
)

// statusCmd shows system status
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show baymax system status",
	RunE:  showStatus,
}

func showStatus(cmd *cobra.Command, args []string) error {
	fmt.Println("Baymax System Status")
	fmt.Println("====================")
	fmt.Printf("Assistant: %s\n", cfg.Assistant.BaseURL)
	fmt.Printf("Embedding: %s (%s)\n", cfg.Embedding.Provider, cfg.Embedding.Model)
	fmt.Printf("Local TTS: %s\n", cfg.TTS.LocalURL)
	fmt.Println()

	if cfg.Groq.APIKey != "" {
		fmt.Println("✓ Groq API key configured")
	} else {
		fmt.Println("✗ Groq API key not configured")
	}
	if cfg.TTS.ElevenLabs.APIKey != "" {
		fmt.Println("✓ ElevenLabs fallback configured")
	} else {
		fmt.Println("✗ ElevenLabs fallback not configured")
	}

	// Local index. Stat first so a missing store is reported instead of
	// being created as a side effect.
	if _, err := os.Stat(cfg.Store.Path); err != nil {
		fmt.Printf("✗ Vector store missing: %s (run 'baymax index')\n", cfg.Store.Path)
	} else if st, err := store.Open(cfg.Store.Path); err != nil {
		fmt.Printf("✗ Vector store unavailable: %v\n", err)
	} else {
		if n, err := st.Count(cmd.Context()); err == nil {
			fmt.Printf("✓ Vector store: %s (%d documents)\n", cfg.Store.Path, n)
		} else {
			fmt.Printf("✗ Vector store unreadable: %v\n", err)
		}
		_ = st.Close()
	}

	// Remote service
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	client := assistant.NewClient(cfg.Assistant.BaseURL)
	health, err := client.HealthCheck(ctx)
	if err != nil {
		fmt.Printf("✗ Assistant service unreachable: %v\n", err)
		return nil
	}
	fmt.Printf("✓ %s: %s (%d documents indexed)\n", health.Service, health.Status, health.Documents)
	return nil
}
