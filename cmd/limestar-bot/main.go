package main

import (
	"log"

	"github.com/limestar/limestar/pkg/limestar/ai"
	"github.com/limestar/limestar/pkg/limestar/bot"
	"github.com/limestar/limestar/pkg/limestar/config"
	"github.com/limestar/limestar/pkg/limestar/database"
	"github.com/limestar/limestar/pkg/limestar/models"
	"github.com/limestar/limestar/pkg/limestar/processor"
	"github.com/limestar/limestar/pkg/limestar/scraper"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := database.Connect(cfg.DatabasePath); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	db := database.GetDB()

	if err := models.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	fetcher := scraper.New()
	aiClient := ai.NewClient(ai.Config{
		APIKey:  cfg.OpenAIAPIKey,
		BaseURL: cfg.OpenAIBaseURL,
		Model:   cfg.OpenAIModelName,
	})
	proc := processor.New(db, fetcher, aiClient)

	b, err := bot.New(cfg.TelegramBotToken, cfg.TelegramAllowedUsers, db, proc)
	if err != nil {
		log.Fatalf("Failed to create bot: %v", err)
	}

	log.Println("LimeStar Telegram Bot 启动中...")
	b.Run()
}
