package config

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// Config captures all command-line options required to run the converter.
type Config struct {
	InputPath           string
	OutputPath          string
	Destructive         bool
	IncludeSpam         bool
	IncludeTrash        bool
	IncludeSpamAndTrash bool
	SkipDuplicates      bool
	Workers             int
	DryRun              bool
	LogLevel            string
	LogDir              string
}

// RegisterFlags attaches all CLI flags to the provided command. The mbox
// file itself is the positional argument.
func RegisterFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringP("output", "o", "", "Output database path (default: YYYY-MM-DD-emails.db, auto-incremented)")
	flags.BoolP("destructive", "d", false, "Write to emails.db, replacing an existing file")
	flags.Bool("include-spam", false, "Include emails labeled Spam")
	flags.Bool("include-trash", false, "Include emails labeled Trash")
	flags.Bool("include-spam-and-trash", false, "Include emails labeled Spam or Trash")
	flags.Bool("skip-duplicates", false, "Skip byte-identical duplicate messages")
	flags.Int("workers", 1, "Number of parallel message decoders (1 = sequential)")
	flags.Bool("dry-run", false, "Parse the archive and report stats without writing a database")
	flags.String("log-level", "info", "Logging level: debug, info, warn, error")
	flags.String("log-dir", "", "Directory for log files (in addition to stdout)")
}

// LoadConfig converts the parsed Cobra flags and the positional mbox path
// into a Config struct with validation.
func LoadConfig(cmd *cobra.Command, args []string) (Config, error) {
	flags := cmd.Flags()

	outputPath, err := flags.GetString("output")
	if err != nil {
		return Config{}, err
	}
	destructive, err := flags.GetBool("destructive")
	if err != nil {
		return Config{}, err
	}
	includeSpam, err := flags.GetBool("include-spam")
	if err != nil {
		return Config{}, err
	}
	includeTrash, err := flags.GetBool("include-trash")
	if err != nil {
		return Config{}, err
	}
	includeSpamAndTrash, err := flags.GetBool("include-spam-and-trash")
	if err != nil {
		return Config{}, err
	}
	skipDuplicates, err := flags.GetBool("skip-duplicates")
	if err != nil {
		return Config{}, err
	}
	workers, err := flags.GetInt("workers")
	if err != nil {
		return Config{}, err
	}
	dryRun, err := flags.GetBool("dry-run")
	if err != nil {
		return Config{}, err
	}
	logLevel, err := flags.GetString("log-level")
	if err != nil {
		return Config{}, err
	}
	logDir, err := flags.GetString("log-dir")
	if err != nil {
		return Config{}, err
	}

	var inputPath string
	if len(args) > 0 {
		inputPath = args[0]
	}

	logLevel = strings.ToLower(logLevel)
	if logLevel == "warning" {
		logLevel = "warn"
	}

	cfg := Config{
		InputPath:           inputPath,
		OutputPath:          outputPath,
		Destructive:         destructive,
		IncludeSpam:         includeSpam,
		IncludeTrash:        includeTrash,
		IncludeSpamAndTrash: includeSpamAndTrash,
		SkipDuplicates:      skipDuplicates,
		Workers:             workers,
		DryRun:              dryRun,
		LogLevel:            logLevel,
		LogDir:              logDir,
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func validateConfig(cfg Config) error {
	if strings.TrimSpace(cfg.InputPath) == "" {
		return fmt.Errorf("path to the mbox file is required")
	}
	if cfg.Workers < 1 {
		return fmt.Errorf("--workers must be at least 1")
	}
	if cfg.Destructive && cfg.OutputPath != "" {
		return fmt.Errorf("--destructive and --output are mutually exclusive")
	}

	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid --log-level: %s", cfg.LogLevel)
	}

	return nil
}
