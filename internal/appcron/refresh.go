// Package appcron keeps the durable screenshot tier warm by periodically
// re-capturing every token that previously resolved.
package appcron

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/robfig/cron/v3"

	"github.com/Atlas-Projects/BubbleMapsBot/internal/models"
	"github.com/Atlas-Projects/BubbleMapsBot/internal/screenshot"
)

type BatchCapturer interface {
	CaptureAll(keys []screenshot.AssetKey) [][]byte
}

type TokenLister interface {
	All() ([]models.SuccessfulToken, error)
}

// SetupRefreshCron schedules the refresh job every 6 hours.
func SetupRefreshCron(shots BatchCapturer, tokens TokenLister) *cron.Cron {
	c := cron.New()

	_, err := c.AddFunc("0 */6 * * *", func() {
		runRefreshJob(shots, tokens)
	})
	if err != nil {
		log.Fatalf("Failed to add cron job: %v", err)
	}

	c.Start()
	log.Println("Screenshot refresh cron job scheduled to run every 6 hours")
	return c
}

// MountController adds a manual trigger for the refresh job.
func MountController(router fiber.Router, shots BatchCapturer, tokens TokenLister) {
	router.Post("/refresh/run", func(c *fiber.Ctx) error {
		go runRefreshJob(shots, tokens)
		return c.JSON(fiber.Map{
			"message": "Screenshot refresh job started",
		})
	})
}

func runRefreshJob(shots BatchCapturer, tokens TokenLister) {
	log.Println("Starting screenshot refresh job")

	rows, err := tokens.All()
	if err != nil {
		log.Printf("Error listing successful tokens: %v", err)
		return
	}
	if len(rows) == 0 {
		log.Println("No successful tokens recorded, nothing to refresh")
		return
	}

	keys := make([]screenshot.AssetKey, 0, len(rows))
	for _, row := range rows {
		keys = append(keys, screenshot.AssetKey{Chain: row.Chain, Token: row.TokenID})
	}

	images := shots.CaptureAll(keys)
	log.Printf("Screenshot refresh job completed: %d/%d captures succeeded", len(images), len(keys))
}
