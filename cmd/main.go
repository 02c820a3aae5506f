package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"mail-telegram-bridge/internal/config"
	"mail-telegram-bridge/internal/dispatcher"
	"mail-telegram-bridge/internal/health"
	imapclient "mail-telegram-bridge/internal/imap"
	"mail-telegram-bridge/internal/logging"
	"mail-telegram-bridge/internal/models"
	"mail-telegram-bridge/internal/poller"
	"mail-telegram-bridge/internal/telegram"
)

const envFile = ".env"

var (
	configPath string
	logLevel   string
	once       bool
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "mail-telegram-bridge",
		Short:        "Relay unseen IMAP messages and their attachments to a Telegram chat",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath, envFile)
			if err != nil {
				return fmt.Errorf("reading configuration: %w", err)
			}
			if logLevel != "" {
				cfg.Log.Level = logLevel
			}
			if err := logging.Configure(cfg.Log.Level, cfg.Log.Format); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return run(ctx, cfg)
		},
	}

	rootCmd.Flags().StringVarP(&configPath, "config", "c", "config.yaml", "Optional YAML configuration file")
	rootCmd.Flags().BoolVar(&once, "once", false, "Run a single poll cycle and exit")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "Override the configured log level")

	return rootCmd
}

func run(ctx context.Context, cfg *models.Config) error {
	bot, err := telegram.NewBotClient(cfg.Telegram.BotToken, cfg.Telegram.Timeout)
	if err != nil {
		return fmt.Errorf("telegram: %w", err)
	}

	dispatcher.CleanupStaleStaging(cfg.TempDir)
	svc := dispatcher.NewService(bot, cfg.Telegram.ChatID, cfg.TempDir)
	status := health.NewStatus()
	factory := func() imapclient.Client {
		return imapclient.NewStandardClient(cfg.Mail.Timeout)
	}
	p := poller.NewPoller(cfg, factory, svc, status)

	if once {
		result := p.RunCycle(ctx)
		if !result.OK() {
			return fmt.Errorf("poll cycle failed: %w", result.Err)
		}
		return nil
	}

	if cfg.HealthAddr != "" {
		go func() {
			if err := health.Serve(ctx, cfg.HealthAddr, status); err != nil {
				logging.Log.WithError(err).Error("Health endpoint stopped")
			}
		}()
	}

	err = p.Run(ctx)
	if errors.Is(err, context.Canceled) {
		logging.Log.Info("Shutting down")
		return nil
	}
	return err
}
