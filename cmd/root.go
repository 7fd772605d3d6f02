// Package cmd is the raven-session command line.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/javanhut/raven-session/config"
	"github.com/javanhut/raven-session/keybindings"
	"github.com/javanhut/raven-session/logging"
)

var (
	version = "dev"
	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:   "raven-session",
	Short: "A tabbed, split-pane terminal session manager",
	Long: `raven-session keeps an ordered set of tabs, each holding a tree of split
terminal panes, and drives it from a small command language read on stdin.`,
	Version:      version,
	SilenceUsage: true,
	RunE:         runSession,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: ~/.config/raven-session/config.toml)")
	registerOverrideFlags(rootCmd.Flags())
}

func runSession(cmd *cobra.Command, args []string) error {
	overrides := newOverrides(cmd.Flags())

	path := cfgFile
	if path == "" {
		path = config.GetConfigPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := applyOverrides(cfg, overrides); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}

	log, err := logging.New(logging.Config{Level: cfg.Log.Level, Development: cfg.Log.Development})
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer func() { _ = log.Sync() }()
	log = log.With(zap.String("window", uuid.NewString()))

	keys := keybindings.DefaultBindings()
	if err := keys.Merge(cfg.Keybindings); err != nil {
		return fmt.Errorf("invalid keybindings: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err = run(ctx, runConfig{
		cfg:         cfg,
		configPath:  path,
		overrides:   overrides,
		keys:        keys,
		metricsAddr: overrides.GetString(keyMetricsAddr),
		in:          cmd.InOrStdin(),
		out:         cmd.OutOrStdout(),
		log:         log,
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
