package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"tutorbot/internal/config"
	"tutorbot/internal/provider"
	"tutorbot/internal/relay"
	"tutorbot/internal/telegram"

	"github.com/spf13/cobra"
)

var (
	version    = "0.1.0"
	logger     *slog.Logger
	configPath string // overridable via --config flag
)

func main() {
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	root := &cobra.Command{
		Use:   "tutorbot",
		Short: "TutorBot: Telegram webhook relay for an A/L tutoring bot",
		Long:  "TutorBot receives Telegram webhook updates, relays questions to Gemini, and replies to the chat.",
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to optional config.yaml (env vars override it)")

	root.AddCommand(serveCmd())
	root.AddCommand(registerCmd())
	root.AddCommand(doctorCmd())
	root.AddCommand(versionCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the webhook HTTP server",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger = newLogger(cfg.LogLevel)

	// Graceful shutdown on signals.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gemini := provider.NewGemini(provider.GeminiConfig{
		APIKey:  cfg.GeminiAPIKey,
		URL:     cfg.GeminiURL,
		Timeout: cfg.CompleteTimeout.Std(),
		Logger:  logger,
	})

	tg, err := telegram.NewClient(telegram.ClientConfig{
		Token:     cfg.BotToken,
		ParseMode: cfg.ParseMode,
		Timeout:   cfg.SendTimeout.Std(),
		Logger:    logger,
	})
	if err != nil {
		return err
	}

	handler := relay.NewHandler(relay.HandlerConfig{
		Secret:    cfg.WebhookSecret,
		Completer: gemini,
		Messenger: tg,
		Logger:    logger,
	})

	server := relay.NewServer(relay.ServerConfig{
		Addr:        cfg.ListenAddr,
		WebhookPath: cfg.WebhookPath,
		Handler:     handler,
		Logger:      logger,
	})

	logger.Info("tutorbot starting",
		"version", version,
		"bot", tg.Username(),
		"webhook_path", cfg.WebhookPath+"/<secret>",
	)
	return server.Start(ctx)
}

func registerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "register",
		Short: "Register the webhook URL with Telegram",
		Long:  "Calls setWebhook so Telegram pushes updates to PUBLIC_URL + webhookPath + /<secret>.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if cfg.PublicURL == "" {
				return fmt.Errorf("%s (publicUrl) is required to register the webhook", config.EnvPublicURL)
			}

			tg, err := telegram.NewClient(telegram.ClientConfig{
				Token:     cfg.BotToken,
				ParseMode: cfg.ParseMode,
				Timeout:   cfg.SendTimeout.Std(),
				Logger:    logger,
			})
			if err != nil {
				return err
			}

			url := strings.TrimRight(cfg.PublicURL, "/") + cfg.WebhookPath + "/" + cfg.WebhookSecret
			if err := tg.RegisterWebhook(url); err != nil {
				return err
			}
			fmt.Printf("Webhook registered for @%s\n", tg.Username())
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("tutorbot v%s\n", version)
		},
	}
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
