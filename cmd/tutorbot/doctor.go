package main

import (
	"context"
	"fmt"
	"time"

	"tutorbot/internal/config"
	"tutorbot/internal/provider"
	"tutorbot/internal/telegram"

	"github.com/spf13/cobra"
)

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Run diagnostic checks on the relay setup",
		Long: `Verifies that the relay's configuration and credentials are usable:
config loads, the Telegram token answers getMe, and the Gemini key is set.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("TutorBot Doctor v%s\n", version)
			fmt.Printf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n")

			passed := 0
			failed := 0

			// 1. Config loads and validates
			cfg, err := config.Load(configPath)
			if err != nil {
				printFail("Config", err.Error())
				failed++
				fmt.Printf("\n%d passed, %d failed\n", passed, failed)
				fmt.Printf("\nSet %s, %s and %s (or a config file) and retry.\n",
					config.EnvBotToken, config.EnvGeminiKey, config.EnvWebhookSecret)
				return nil
			}
			printPass("Config", "valid")
			passed++

			// 2. Telegram token answers getMe
			tg, err := telegram.NewClient(telegram.ClientConfig{
				Token:     cfg.BotToken,
				ParseMode: cfg.ParseMode,
				Timeout:   10 * time.Second,
				Logger:    logger,
			})
			if err != nil {
				printFail("Telegram", err.Error())
				failed++
			} else {
				printPass("Telegram", "@"+tg.Username())
				passed++
			}

			// 3. Gemini credentials present
			gemini := provider.NewGemini(provider.GeminiConfig{
				APIKey: cfg.GeminiAPIKey,
				URL:    cfg.GeminiURL,
				Logger: logger,
			})
			if err := gemini.Healthy(context.Background()); err != nil {
				printFail("Gemini", err.Error())
				failed++
			} else {
				printPass("Gemini", "API key configured")
				passed++
			}

			// 4. Webhook registration target
			if cfg.PublicURL == "" {
				printWarn("Webhook URL", "PUBLIC_URL not set; 'tutorbot register' will fail")
			} else {
				printPass("Webhook URL", cfg.PublicURL+cfg.WebhookPath+"/<secret>")
				passed++
			}

			fmt.Printf("\n%d passed, %d failed\n", passed, failed)
			return nil
		},
	}
}

func printPass(check, detail string) {
	fmt.Printf("  [PASS] %-20s %s\n", check, detail)
}

func printFail(check, detail string) {
	fmt.Printf("  [FAIL] %-20s %s\n", check, detail)
}

func printWarn(check, detail string) {
	fmt.Printf("  [WARN] %-20s %s\n", check, detail)
}
