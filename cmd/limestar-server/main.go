package main

import (
	"fmt"
	"log"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/limestar/limestar/pkg/limestar/admin"
	"github.com/limestar/limestar/pkg/limestar/ai"
	"github.com/limestar/limestar/pkg/limestar/auth"
	"github.com/limestar/limestar/pkg/limestar/config"
	"github.com/limestar/limestar/pkg/limestar/database"
	"github.com/limestar/limestar/pkg/limestar/importexport"
	"github.com/limestar/limestar/pkg/limestar/links"
	"github.com/limestar/limestar/pkg/limestar/models"
	"github.com/limestar/limestar/pkg/limestar/processor"
	"github.com/limestar/limestar/pkg/limestar/redirect"
	"github.com/limestar/limestar/pkg/limestar/scraper"
	"github.com/limestar/limestar/pkg/limestar/search"
	"github.com/limestar/limestar/pkg/limestar/tags"
)

const version = "0.1.0"

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
	log.Println("Database migrations completed")

	// Construct collaborators once and inject them
	fetcher := scraper.New()
	aiClient := ai.NewClient(ai.Config{
		APIKey:  cfg.OpenAIAPIKey,
		BaseURL: cfg.OpenAIBaseURL,
		Model:   cfg.OpenAIModelName,
	})
	proc := processor.New(db, fetcher, aiClient)

	r := gin.Default()
	r.Use(cors.Default())

	r.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"name":    "LimeStar",
			"version": version,
			"status":  "running",
		})
	})
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "healthy"})
	})

	api := r.Group("/api")
	{
		authHandler := auth.NewHandler(cfg.WebAdminPassword)
		authHandler.RegisterRoutes(api.Group("/auth"))
		if !authHandler.Enabled() {
			log.Println("WEB_ADMIN_PASSWORD not set - web admin disabled")
		}

		linksHandler := links.NewHandler(db, proc)
		linksHandler.RegisterRoutes(api)
		linksHandler.RegisterProtectedRoutes(api.Group("", auth.Middleware()))

		tagsHandler := tags.NewHandler(db)
		tagsHandler.RegisterRoutes(api)
		tagsHandler.RegisterProtectedRoutes(api.Group("", auth.Middleware()))

		searchHandler := search.NewHandler(db)
		searchHandler.RegisterRoutes(api)

		importExportHandler := importexport.NewHandler(db)
		importExportHandler.RegisterRoutes(api.Group("", auth.Middleware()))

		adminHandler := admin.NewHandler(proc)
		adminHandler.RegisterRoutes(api.Group("/admin"), api.Group("/admin", auth.Middleware()))
	}

	redirectHandler := redirect.NewHandler(db)
	redirectHandler.RegisterRoutes(r)

	addr := fmt.Sprintf(":%d", cfg.Port)
	log.Printf("Starting LimeStar server on %s", addr)
	if err := r.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
