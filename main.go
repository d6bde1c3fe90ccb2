package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/dhcgn/mbox2db/config"
	"github.com/dhcgn/mbox2db/extract"
	"github.com/dhcgn/mbox2db/mbox"
	"github.com/dhcgn/mbox2db/progress"
	"github.com/dhcgn/mbox2db/runner"
	"github.com/dhcgn/mbox2db/sqlite"
	"github.com/dhcgn/mbox2db/stats"
)

var rootCmd = &cobra.Command{
	Use:   "mbox2db [mbox file]",
	Short: "Convert an mbox archive into a SQLite database of emails",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig(cmd, args)
		if err != nil {
			return err
		}

		logger, cleanup, err := setupLogger(cfg)
		if err != nil {
			return err
		}
		defer func() {
			_ = cleanup()
		}()

		slog.SetDefault(logger)
		logger.Info("starting mbox2db", "mbox", cfg.InputPath, "workers", cfg.Workers, "dryRun", cfg.DryRun)

		return run(cfg, logger)
	},
}

func main() {
	config.RegisterFlags(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	r := runner.New(cfg, logger)
	stats.NewReporter(r, logger)

	scanner, err := mbox.Open(cfg.InputPath)
	if err != nil {
		return fmt.Errorf("mbox.Open: %w", err)
	}

	if _, err := extract.NewProducer(scanner, extract.NewAssembler(), r, cfg.Workers, logger); err != nil {
		return fmt.Errorf("extract.NewProducer: %w", err)
	}

	outputPath := sqlite.ResolveOutputPath(cfg.OutputPath, cfg.Destructive)
	writerOpts := sqlite.Options{
		Path:      outputPath,
		Overwrite: cfg.Destructive,
		DryRun:    cfg.DryRun,
	}

	if _, err := sqlite.NewWriter(writerOpts, r, logger); err != nil {
		return fmt.Errorf("sqlite.NewWriter: %w", err)
	}

	progress.NewReporter(r, progress.New(cfg.LogLevel), progress.Options{
		Output: outputPath,
		DryRun: cfg.DryRun,
		Policy: r.Policy(),
	})

	return r.Start()
}

func setupLogger(cfg config.Config) (*slog.Logger, func() error, error) {
	level := new(slog.LevelVar)
	level.Set(slog.LevelInfo)

	switch cfg.LogLevel {
	case "debug":
		level.Set(slog.LevelDebug)
	case "info":
		level.Set(slog.LevelInfo)
	case "warn":
		level.Set(slog.LevelWarn)
	case "error":
		level.Set(slog.LevelError)
	}

	opts := &slog.HandlerOptions{Level: level}
	cleanup := func() error { return nil }

	if cfg.LogDir != "" {
		if err := os.MkdirAll(cfg.LogDir, 0o755); err != nil {
			return nil, cleanup, err
		}

		logFilePath := filepath.Join(cfg.LogDir, fmt.Sprintf("mbox2db-%s.log", time.Now().Format("20060102T150405")))
		file, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, cleanup, err
		}

		handler := slog.NewTextHandler(io.MultiWriter(os.Stdout, file), opts)
		cleanup = func() error {
			return file.Close()
		}
		return slog.New(handler), cleanup, nil
	}

	handler := slog.NewTextHandler(os.Stdout, opts)
	return slog.New(handler), cleanup, nil
}
