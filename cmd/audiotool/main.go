package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/bai0012/audio-toolkit-gui/internal/config"
)

func main() {
	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true})

	homeDir, err := os.UserHomeDir()
	if err != nil {
		logger.Fatalf("resolve user home: %v", err)
	}

	runner := NewRunner(RunnerOpts{
		Store:  config.NewJSONStore(filepath.Join(homeDir, ".audio-toolkit", "settings.json")),
		Logger: logger,
	})

	app := &cli.Command{
		Name:     "audiotool",
		Usage:    "Split, convert, and retag audio collections",
		Version:  "1.2.0",
		Commands: runner.register(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := app.Run(ctx, os.Args); err != nil {
		logger.Fatalf("audiotool: %v", err)
	}
}
