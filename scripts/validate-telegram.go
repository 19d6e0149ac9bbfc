// Command validate-telegram checks the Telegram share-notifier configuration
// end to end: config loading, chat id format, bot construction, and a live
// GetMe call against the Bot API.
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/go-telegram/bot"
	"github.com/joho/godotenv"

	"github.com/spuriolabs/spurio/internal/config"
)

func main() {
	fmt.Println("🔧 Validating Telegram notifier configuration...")

	if err := godotenv.Load(); err != nil {
		fmt.Printf("⚠️  Warning: Could not load .env file: %v\n", err)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("❌ Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := validateTelegramConfig(cfg.Telegram); err != nil {
		fmt.Printf("❌ %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("✅ TELEGRAM_BOT_TOKEN is configured (length: %d)\n", len(cfg.Telegram.BotToken))
	fmt.Printf("✅ TELEGRAM_CHAT_ID is configured: %s\n", cfg.Telegram.ChatID)
	fmt.Printf("✅ Share threshold: %.2f\n", cfg.Telegram.ShareThreshold)

	b, err := bot.New(cfg.Telegram.BotToken)
	if err != nil {
		fmt.Printf("❌ Failed to create Telegram bot: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("✅ Telegram bot created successfully")

	fmt.Println("🔍 Testing bot API connection...")
	botInfo, err := b.GetMe(context.Background())
	if err != nil {
		fmt.Printf("❌ Failed to get bot info: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("✅ Bot API connection successful!")
	fmt.Printf("   Bot Name: %s\n", botInfo.FirstName)
	fmt.Printf("   Bot Username: @%s\n", botInfo.Username)
	fmt.Printf("   Bot ID: %d\n", botInfo.ID)

	fmt.Println("\n🎉 All Telegram notifier configuration checks passed!")
}

// validateTelegramConfig checks the static parts of the notifier config.
func validateTelegramConfig(cfg config.TelegramConfig) error {
	if cfg.BotToken == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN is not configured")
	}
	if cfg.ChatID == "" {
		return fmt.Errorf("TELEGRAM_CHAT_ID is not configured")
	}
	if _, err := strconv.ParseInt(cfg.ChatID, 10, 64); err != nil {
		return fmt.Errorf("TELEGRAM_CHAT_ID %q is not a numeric chat id", cfg.ChatID)
	}
	return nil
}
