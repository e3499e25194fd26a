// Package logging builds the zap loggers used across baymax.
// Commands construct one logger at startup and hand named children to
// the components they wire up; the chat TUI uses Nop so nothing writes
// to the terminal while the alt screen is active.
package logging

import (
	"fmt"

	"go.uber.org/zap"
)

// New builds a production logger. level is one of debug/info/warn/error
// (empty means info). When file is non-empty it is added as a second
// sink next to stderr.
func New(level, file string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if level != "" {
		lvl, err := zap.ParseAtomicLevel(level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", level, err)
		}
		cfg.Level = lvl
	}
	cfg.OutputPaths = []string{"stderr"}
	if file != "" {
		cfg.OutputPaths = append(cfg.OutputPaths, file)
	}
	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}

// Nop returns a logger that discards everything.
func Nop() *zap.Logger {
	return zap.NewNop()
}

// Component returns a child logger named after a subsystem, so log lines
// carry which part of the process emitted them.
func Component(logger *zap.Logger, name string) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger.Named(name)
}
