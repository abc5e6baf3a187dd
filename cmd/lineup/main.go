package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/channel"
	"github.com/spf13/cobra"

	"github.com/vito/lineup/pkg/lineup"
	"github.com/vito/lineup/pkg/lsp"
)

// Config holds the application configuration
type Config struct {
	Debug      bool
	ConfigFile string
	LSP        bool
	LSPLogFile string
}

func main() {
	var cfg Config

	rootCmd := &cobra.Command{
		Use:   "lineup [flags]",
		Short: "Width-aware formatter for .lu sources",
		Long: `lineup lays out lists (arguments, parameters, fields, imports and
patterns) within a maximum line width while keeping every comment.`,
		Example: `  # Format files in place
  lineup fmt -w main.lu ./src

  # Fail if anything needs formatting
  lineup fmt --check ./src

  # Serve formatting to an editor
  lineup --lsp`,
		Args: cobra.NoArgs,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			slog.SetDefault(newLogger(cmd.ErrOrStderr(), cfg.Debug))
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.LSP {
				return runLSP(cmd.Context(), cfg)
			}
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&cfg.Debug, "debug", "d", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&cfg.ConfigFile, "config", "", "Path to lineup.toml (searched for from the working directory if not specified)")
	rootCmd.Flags().BoolVar(&cfg.LSP, "lsp", false, "Run in Language Server Protocol mode")
	rootCmd.Flags().StringVar(&cfg.LSPLogFile, "lsp-log-file", "", "Path to LSP log file (stderr if not specified)")

	rootCmd.AddCommand(fmtCmd(&cfg))
	rootCmd.AddCommand(debugCmd(&cfg))

	if err := fang.Execute(context.Background(), rootCmd,
		fang.WithVersion("v0.1.0"),
		fang.WithCommit("dev"),
		fang.WithErrorHandler(func(w io.Writer, styles fang.Styles, err error) {
			_, _ = fmt.Fprintln(w, err.Error())
		}),
	); err != nil {
		os.Exit(1)
	}
}

// newLogger backs slog with a charm logger writing to w.
func newLogger(w io.Writer, debug bool) *slog.Logger {
	level := log.InfoLevel
	if debug {
		level = log.DebugLevel
	}
	return slog.New(log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	}))
}

// loadConfig reads --config, or the lineup.toml found by walking up from
// the working directory, or the defaults.
func loadConfig(cfg Config) (*lineup.Config, error) {
	if cfg.ConfigFile != "" {
		return lineup.LoadConfig(cfg.ConfigFile)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	path, config, err := lineup.FindConfig(cwd)
	if err != nil {
		return nil, err
	}
	if path != "" {
		slog.Debug("loaded config", "path", path)
	}
	return config, nil
}

func runLSP(ctx context.Context, cfg Config) error {
	var logDest io.Writer
	if cfg.LSPLogFile != "" {
		logFile, err := os.Create(cfg.LSPLogFile)
		if err != nil {
			return fmt.Errorf("open lsp log: %w", err)
		}
		defer logFile.Close() //nolint:errcheck
		logDest = logFile
	} else {
		logDest = os.Stderr
	}

	logger := newLogger(logDest, cfg.Debug)
	slog.SetDefault(logger)

	// Without --config every document finds its own lineup.toml.
	var override *lineup.Config
	if cfg.ConfigFile != "" {
		var err error
		override, err = lineup.LoadConfig(cfg.ConfigFile)
		if err != nil {
			return err
		}
	}

	logger.InfoContext(ctx, "starting LSP server")

	srv := jrpc2.NewServer(lsp.NewHandler(override), &jrpc2.ServerOptions{
		AllowPush: true,
		Logger:    func(text string) { logger.Debug(text) },
	})
	srv.Start(channel.LSP(stdrwc{}, stdrwc{}))

	logger.InfoContext(ctx, "LSP server closed", "error", srv.Wait())
	return nil
}

type stdrwc struct{}

func (stdrwc) Read(p []byte) (int, error) {
	return os.Stdin.Read(p)
}

func (stdrwc) Write(p []byte) (int, error) {
	return os.Stdout.Write(p)
}

func (stdrwc) Close() error {
	if err := os.Stdin.Close(); err != nil {
		return err
	}
	return os.Stdout.Close()
}
