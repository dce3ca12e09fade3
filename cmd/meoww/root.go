package main

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/meoww-bot/meoww/internal/app"
	"github.com/meoww-bot/meoww/internal/platform/config"
)

// Set at build time with -ldflags "-X main.version=...".
var version = "dev"

// Flag overrides.
var (
	logLevel string
	sources  string
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "meoww",
		Short:         "meoww previews gallery, art and video links on Discord",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Set LOG_LEVEL (overrides environment variable)")
	rootCmd.PersistentFlags().StringVar(&sources, "sources", "", "Set ENABLED_SOURCES, a comma separated list (overrides environment variable)")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newPreviewCmd())
	rootCmd.AddCommand(newViewCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// loadConfig loads configuration with respect to command line flags.
func loadConfig() (*config.Config, error) {
	if logLevel != "" {
		_ = os.Setenv("LOG_LEVEL", logLevel)
	}

	if sources != "" {
		_ = os.Setenv("ENABLED_SOURCES", sources)
	}

	return config.Load()
}

func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	if cfg.AppEnv == "local" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).Level(level).With().Timestamp().Logger()
	}

	return zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()
}

// setup loads the configuration and builds the application.
func setup() (*app.App, *zerolog.Logger, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}

	logger := newLogger(cfg)

	application, err := app.New(cfg, &logger)
	if err != nil {
		return nil, nil, err
	}

	return application, &logger, nil
}
