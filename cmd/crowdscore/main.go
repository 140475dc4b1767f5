// Package main provides the CLI entrypoint for crowdscore.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/abrezinsky/crowdscore/internal/config"
	"github.com/abrezinsky/crowdscore/internal/logger"
	"github.com/abrezinsky/crowdscore/internal/repository"
)

var version = "dev"

// rootOptions are the flags shared by every command
type rootOptions struct {
	configPath string
	dbPath     string
	logLevel   string
	logFormat  string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	serve := &serveOptions{}

	rootCmd := &cobra.Command{
		Use:          "crowdscore",
		Short:        "Round-by-round boxing scorecards for the crowd",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, opts, serve)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", config.DefaultConfigPath(), "path to the TOML config file")
	pf.StringVar(&opts.dbPath, "db", "", "SQLite database path (default from config or XDG data dir)")
	pf.StringVar(&opts.logLevel, "log-level", "info", "log level: debug, info, warn, error")
	pf.StringVar(&opts.logFormat, "log-format", "text", "log format: text or json")

	// Bare `crowdscore` serves, so it takes the serve flags too
	addServeFlags(rootCmd, serve)

	rootCmd.AddCommand(newServeCmd(opts))
	rootCmd.AddCommand(newTUICmd(opts))
	rootCmd.AddCommand(newFightsCmd(opts))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "crowdscore %s\n", version)
		},
	}
}

// loadConfig reads the config file and lets explicitly set flags win.
func loadConfig(cmd *cobra.Command, opts *rootOptions) (config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to load config: %w", err)
	}
	applyStringFlag(cmd, "db", &cfg.DBPath, opts.dbPath)
	applyStringFlag(cmd, "log-level", &cfg.LogLevel, opts.logLevel)
	applyStringFlag(cmd, "log-format", &cfg.LogFormat, opts.logFormat)
	return cfg, nil
}

func applyStringFlag(cmd *cobra.Command, name string, target *string, value string) {
	if cmd.Flags().Changed(name) {
		*target = value
	}
}

func applyIntFlag(cmd *cobra.Command, name string, target *int, value int) {
	if cmd.Flags().Changed(name) {
		*target = value
	}
}

func applyFloatFlag(cmd *cobra.Command, name string, target *float64, value float64) {
	if cmd.Flags().Changed(name) {
		*target = value
	}
}

func newLogger(w io.Writer, cfg config.Config) *logger.SlogLogger {
	return logger.NewWithOptions(w, logger.ParseLevel(cfg.LogLevel), logger.ParseFormat(cfg.LogFormat))
}

func ensureDataDir(dbPath string) error {
	if dbPath == ":memory:" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	return nil
}

// openRepository creates the database directory when needed.
func openRepository(path string) (*repository.Repository, error) {
	if err := ensureDataDir(path); err != nil {
		return nil, err
	}
	repo, err := repository.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	return repo, nil
}
