package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/yukepa21-lab/kajishift-app/internal/app"
	"github.com/yukepa21-lab/kajishift-app/internal/config"
	"github.com/yukepa21-lab/kajishift-app/internal/logging"
)

var (
	configPath string
	logLevel   string

	cfg    config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "kajishift",
	Short: "Shift and chore coordination for two-person households",
	Long: `kajishift tracks each partner's work shifts and the day's chores,
kept in sync with the shared remote store.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path := configPath
		if path == "" {
			p, err := config.DefaultPath()
			if err != nil {
				return fmt.Errorf("resolve config path: %w", err)
			}
			path = p
		}

		var err error
		cfg, err = config.Load(path)
		if err != nil {
			return err
		}
		if logLevel != "" {
			cfg.LogLevel = logLevel
		}
		logger = logging.Setup(cfg.LogLevel)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: user config dir)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
}

// withApp builds the app, resolves the session, runs fn, and tears down.
// SIGINT/SIGTERM cancel the context so in-flight calls return promptly.
func withApp(fn func(ctx context.Context, a *app.App) error) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.Start(ctx); err != nil {
		logger.Warn("initial load incomplete", "error", err)
	}
	return fn(ctx, a)
}

// requireSignIn fails fast with a hint when no session exists.
func requireSignIn(a *app.App) error {
	if a.Identity() == nil {
		return fmt.Errorf("not signed in (run: kajishift login)")
	}
	return nil
}
