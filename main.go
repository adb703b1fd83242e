package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"

	"github.com/Atlas-Projects/BubbleMapsBot/internal/appcron"
	"github.com/Atlas-Projects/BubbleMapsBot/internal/bubblemaps"
	"github.com/Atlas-Projects/BubbleMapsBot/internal/cache"
	"github.com/Atlas-Projects/BubbleMapsBot/internal/coingecko"
	"github.com/Atlas-Projects/BubbleMapsBot/internal/config"
	"github.com/Atlas-Projects/BubbleMapsBot/internal/db"
	"github.com/Atlas-Projects/BubbleMapsBot/internal/handlers"
	"github.com/Atlas-Projects/BubbleMapsBot/internal/models"
	"github.com/Atlas-Projects/BubbleMapsBot/internal/screenshot"
	"github.com/Atlas-Projects/BubbleMapsBot/internal/store"
)

func main() {
	cfg := config.Load()

	db.Connect(cfg.DatabaseDSN)
	if err := db.GetDB().AutoMigrate(&models.TokenScreenshot{}, &models.SuccessfulToken{}); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	if cfg.RedisEnabled {
		db.ConnectRedis(cfg.RedisAddr, cfg.RedisDB)
	}
	hot := cache.New(db.GetRedis(), cfg.CacheTTL)

	if err := screenshot.Install(); err != nil {
		log.Fatalf("Failed to install browser: %v", err)
	}
	browser := screenshot.NewBrowser()
	if err := browser.Start(); err != nil {
		log.Fatalf("Failed to start browser: %v", err)
	}

	screenshots := store.NewScreenshots(db.GetDB())
	tokens := store.NewTokens(db.GetDB())

	maps := bubblemaps.NewClient(cfg.BubblemapsAPIURL, cfg.IframeBaseURL, hot, tokens, cfg.SupportedChains)
	market := coingecko.NewClient(cfg.CoingeckoAPIURL)

	engine := screenshot.NewEngine(browser, cfg.IframeBaseURL, cfg.RenderConcurrency)
	shots := screenshot.NewService(maps, hot, screenshots, engine, cfg.ScreenshotCache)

	app := fiber.New()
	handlers.MountController(app, &handlers.Controller{
		Shots:  shots,
		Maps:   maps,
		Market: market,
	})
	appcron.MountController(app.Group("/cron"), shots, tokens)
	refresh := appcron.SetupRefreshCron(shots, tokens)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatalf("Server stopped: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down")
	refresh.Stop()
	if err := app.Shutdown(); err != nil {
		log.Printf("Server shutdown: %v", err)
	}
	if err := browser.Stop(); err != nil {
		log.Printf("Browser shutdown: %v", err)
	}
}
