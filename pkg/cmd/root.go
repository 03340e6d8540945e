// Package cmd implements the docmask command line.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/codeready-toolchain/docmask/pkg/config"
	"github.com/codeready-toolchain/docmask/pkg/pii"
	"github.com/codeready-toolchain/docmask/pkg/telemetry"
	"github.com/codeready-toolchain/docmask/pkg/version"
)

// options holds global flags and the state prepared before a subcommand runs.
type options struct {
	configDir  string
	logLevel   string
	logFormat  string
	categories []string
	otel       bool

	cfg      *config.Config
	shutdown telemetry.ShutdownFunc
}

// NewRootCommand builds the docmask command tree.
func NewRootCommand() *cobra.Command {
	o := &options{}

	root := &cobra.Command{
		Use:   "docmask",
		Short: "Detect and mask PII in extracted document text",
		Long: `docmask classifies words and text spans as personally identifiable
information and produces masked replacements.

Documents are read as PDF or as token JSON. Output is redacted text or
redaction directives with render instructions for an external renderer.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return o.prepare(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return o.flush()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&o.configDir, "config-dir", getEnv("CONFIG_DIR", "."), "directory holding docmask.yaml and .env")
	flags.StringVar(&o.logLevel, "log-level", string(config.LogLevelInfo), "log level (debug, info, warn, error)")
	flags.StringVar(&o.logFormat, "log-format", string(config.LogFormatText), "log format (text, json)")
	flags.StringSliceVar(&o.categories, "categories", nil, "categories to detect, overriding the config file (e.g. email,ssn)")
	flags.BoolVar(&o.otel, "otel", false, "enable OpenTelemetry traces and metrics on stderr")

	root.AddCommand(
		newClassifyCmd(o),
		newMaskCmd(o),
		newRedactTextCmd(o),
		newDirectivesCmd(o),
		newServeCmd(o),
		newVersionCmd(),
	)
	return root
}

// Execute runs the root command against os.Args.
func Execute() error {
	return NewRootCommand().Execute()
}

func (o *options) prepare(cmd *cobra.Command) error {
	if err := setupLogging(cmd.ErrOrStderr(), o.logLevel, o.logFormat); err != nil {
		return err
	}

	envPath := filepath.Join(o.configDir, ".env")
	if err := godotenv.Load(envPath); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("Could not load .env file, continuing with existing environment",
				"path", envPath, "error", err)
		}
	} else {
		slog.Debug("Loaded environment", "path", envPath)
	}

	cfg, err := config.Initialize(cmd.Context(), o.configDir)
	if err != nil {
		return fmt.Errorf("failed to initialize configuration: %w", err)
	}
	if len(o.categories) > 0 {
		set, err := pii.ParseCategorySet(o.categories)
		if err != nil {
			return fmt.Errorf("invalid --categories: %w", err)
		}
		cfg.Categories = set
	}
	o.cfg = cfg

	shutdown, err := telemetry.Setup(version.AppName, version.GitCommit,
		o.otel || cfg.Telemetry.Enabled, cmd.ErrOrStderr())
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	o.shutdown = shutdown
	return nil
}

func (o *options) flush() error {
	if o.shutdown == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return o.shutdown(ctx)
}

// setupLogging installs the default slog logger. Logs go to w so stdout
// stays clean for piping.
func setupLogging(w io.Writer, level, format string) error {
	lvl := config.LogLevel(level)
	if !lvl.IsValid() {
		return fmt.Errorf("invalid --log-level %q", level)
	}
	f := config.LogFormat(format)
	if !f.IsValid() {
		return fmt.Errorf("invalid --log-format %q", format)
	}

	handlerOpts := &slog.HandlerOptions{Level: lvl.SlogLevel()}
	var h slog.Handler
	if f == config.LogFormatJSON {
		h = slog.NewJSONHandler(w, handlerOpts)
	} else {
		h = slog.NewTextHandler(w, handlerOpts)
	}
	slog.SetDefault(slog.New(h))
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
