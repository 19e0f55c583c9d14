// Package cli defines the command-line interface for viewrender.
package cli

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-viewrender/internal/config"
	"github.com/goliatone/go-viewrender/internal/logging"
)

// Options stores global CLI options shared between commands.
type Options struct {
	ConfigPath  string
	Engine      string
	TemplateDir string
	LogLevel    logging.Level
}

// Execute builds the root command, runs it with the provided args and logger,
// and returns any error.
func Execute(args []string, logger *slog.Logger) error {
	return execute(args, logger, os.Stdout, os.Stderr)
}

func execute(args []string, logger *slog.Logger, stdout, stderr io.Writer) error {
	if logger == nil {
		logger = logging.NewLogger(stderr, logging.LevelInfo)
	}

	rootCmd := newRootCommand(&Options{LogLevel: logging.LevelInfo}, logger, stderr)
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true

	return rootCmd.ExecuteContext(context.Background())
}

func newRootCommand(opts *Options, logger *slog.Logger, logOut io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "viewrender",
		Short: "viewrender renders templates with helpers, partials and layouts",
		Long:  "viewrender renders pongo2, html/template or Starlark templates with view helpers, partials and layout wrapping, from the command line or over HTTP.",
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("log-level") {
				level := logging.ParseLevel(cmd.Flag("log-level").Value.String())
				opts.LogLevel = level
				logger = logging.NewLogger(logOut, level)
			}
			cmd.SetContext(context.WithValue(cmd.Context(), loggerKey{}, logger))
			logger.Debug("logger initialized", "level", slog.Level(opts.LogLevel))
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "Path to a YAML or CUE configuration file")
	cmd.PersistentFlags().StringVar(&opts.Engine, "engine", "", "Template engine (pongo, html, starlark)")
	cmd.PersistentFlags().StringVar(&opts.TemplateDir, "templates", "", "Template directory (defaults to the embedded demo templates)")
	cmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")

	cmd.AddCommand(
		newRenderCommand(opts),
		newServeCommand(opts),
	)

	return cmd
}

// commandLogger returns the logger a command runs with once cfg is loaded.
// An explicit --log-level flag wins over the configured level.
func commandLogger(cmd *cobra.Command, cfg config.Config) *slog.Logger {
	logger := LoggerFromContext(cmd.Context())
	if cmd.Flags().Changed("log-level") || strings.TrimSpace(cfg.LogLevel) == "" {
		return logger
	}
	return logging.NewLogger(cmd.ErrOrStderr(), logging.ParseLevel(cfg.LogLevel))
}

// loggerKey is a private context key used to store a logger in command contexts.
type loggerKey struct{}

// LoggerFromContext extracts a logger from the context or falls back to a
// default logger.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return logging.NewLogger(os.Stderr, logging.LevelInfo)
	}
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok && l != nil {
		return l
	}
	return logging.NewLogger(os.Stderr, logging.LevelInfo)
}
