package main

import (
	"fmt"
	"os"

	"baymax/cmd/baymax/chat"
	"baymax/internal/config"
	"baymax/internal/logging"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Global flags
	verbose    bool
	configPath string
	serverURL  string

	// Shared state built by PersistentPreRunE
	cfg    *config.Config
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "baymax",
	Short: "Baymax - personal health assistant",
	Long: `Baymax is a calm personal health assistant.

The serve command runs the assistant API: retrieval-grounded answers
over a local knowledge base, Groq completions, and speech synthesis.
The other commands are clients of that API.

Run without arguments to start the interactive chat interface.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = loadConfig()
		if err != nil {
			return err
		}

		// The interactive chat owns the terminal; stderr logging would
		// tear the alt screen, so it gets a nop logger.
		if cmd.Use == "baymax" && cmd.CalledAs() == "baymax" {
			logger = logging.Nop()
			return nil
		}

		level := cfg.Logging.Level
		if verbose {
			level = "debug"
		}
		logger, err = logging.New(level, cfg.Logging.File)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// Default behavior: launch interactive chat
		return chat.Run(chat.Options{
			BaseURL:      cfg.Assistant.BaseURL,
			VoiceMode:    cfg.Chat.VoiceMode,
			UseRetrieval: cfg.Chat.UseRetrieval,
			Player:       cfg.Chat.Player,
		})
	},
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: baymax.yaml, or BAYMAX_CONFIG env)")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "Assistant service URL (overrides config)")

	// Add commands to root
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(statusCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig resolves the config path (flag, then BAYMAX_CONFIG, then
// baymax.yaml in the working directory), loads it, and applies the
// global flag overrides. A missing file falls back to defaults.
func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		path = os.Getenv("BAYMAX_CONFIG")
	}
	if path == "" {
		path = "baymax.yaml"
	}

	c, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if serverURL != "" {
		c.Assistant.BaseURL = serverURL
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}
