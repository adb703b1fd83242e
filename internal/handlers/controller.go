// Package handlers exposes the capture pipeline and the token data APIs
// over HTTP. Each capture failure kind maps to its own user-facing
// message; internal causes stay in the logs.
package handlers

import (
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/Atlas-Projects/BubbleMapsBot/internal/bubblemaps"
	"github.com/Atlas-Projects/BubbleMapsBot/internal/screenshot"
	"github.com/Atlas-Projects/BubbleMapsBot/pkg/img"
)

// previewMaxMPXS is the megapixel budget for preview JPEGs.
const previewMaxMPXS = 0.5

// maxRenderDelay is the largest settle delay a caller may request, in
// seconds.
const maxRenderDelay = 60

type CaptureService interface {
	Capture(chain, token string, delay time.Duration) ([]byte, error)
}

type MapAPI interface {
	Metadata(chain, token string) (*bubblemaps.Metadata, error)
	MapAvailable(chain, token string) bool
	ResolveChain(token string) (string, *bubblemaps.Metadata, error)
	Distribution(chain, token string) ([]bubblemaps.MapNode, error)
	AddressDetails(chain, token, address string) (*bubblemaps.MapNode, error)
	IframeURL(chain, token string) string
	SupportedChains() []string
}

type MarketAPI interface {
	MarketData(platform, address string) (map[string]any, error)
}

type Controller struct {
	Shots  CaptureService
	Maps   MapAPI
	Market MarketAPI
}

func MountController(router fiber.Router, c *Controller) {
	router.Get("/mapshot/:chain/:token", c.Mapshot)
	router.Post("/mapshot", c.MapshotByToken)
	router.Get("/availability/:chain/:token", c.Availability)
	router.Get("/metadata/:chain/:token", c.Metadata)
	router.Get("/market/:chain/:token", c.MarketData)
	router.Get("/distribution/:chain/:token", c.Distribution)
	router.Get("/address/:chain/:token/:address", c.AddressDetails)
	router.Get("/chains", c.Chains)
}

func (ctl *Controller) Chains(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"chains": ctl.Maps.SupportedChains(),
	})
}

func (ctl *Controller) Mapshot(c *fiber.Ctx) error {
	chain := c.Params("chain")
	token := c.Params("token")
	delay := clampDelay(c.QueryInt("delay", 10))
	preview := c.QueryBool("preview", false)

	return ctl.sendMapshot(c, chain, token, delay, preview)
}

// clampDelay bounds the render settle delay to the range the POST body
// validation allows. An oversized delay would hold the per-token lock
// and a render slot for its whole duration.
func clampDelay(delay int) int {
	if delay < 0 {
		return 0
	}
	if delay > maxRenderDelay {
		return maxRenderDelay
	}
	return delay
}

func (ctl *Controller) MapshotByToken(c *fiber.Ctx) error {
	var body MapshotBody
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	if err := body.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	chain := body.Chain
	if chain == "" {
		resolved, _, err := ctl.Maps.ResolveChain(body.Token)
		if err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Token not found on any supported chain.",
			})
		}
		chain = resolved
	}

	delay := body.Delay
	if delay == 0 {
		delay = 10
	}
	return ctl.sendMapshot(c, chain, body.Token, delay, body.Preview)
}

func (ctl *Controller) sendMapshot(c *fiber.Ctx, chain, token string, delay int, preview bool) error {
	log.Printf("Capturing mapshot for %s:%s (delay %ds)", chain, token, delay)

	shot, err := ctl.Shots.Capture(chain, token, time.Duration(delay)*time.Second)
	if err != nil {
		return captureError(c, err)
	}

	c.Set("X-Map-URL", ctl.Maps.IframeURL(chain, token))

	if preview {
		jpg, err := img.Downscale(shot, previewMaxMPXS)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		c.Context().SetContentType("image/jpeg")
		return c.Status(fiber.StatusOK).Send(jpg)
	}

	c.Context().SetContentType("image/png")
	return c.Status(fiber.StatusOK).Send(shot)
}

func captureError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, screenshot.ErrNoUpdateInfo):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "No Bubblemaps update information is available for this token.",
		})
	case errors.Is(err, screenshot.ErrUnavailable):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "No Bubblemap is available for this token.",
		})
	default:
		log.Printf("Mapshot capture failed: %v", err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "Failed to generate the map screenshot. Please try again.",
		})
	}
}

func (ctl *Controller) Availability(c *fiber.Ctx) error {
	available := ctl.Maps.MapAvailable(c.Params("chain"), c.Params("token"))
	return c.JSON(fiber.Map{
		"available": available,
	})
}

func (ctl *Controller) Metadata(c *fiber.Ctx) error {
	md, err := ctl.Maps.Metadata(c.Params("chain"), c.Params("token"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "No metadata available for this token.",
		})
	}
	return c.JSON(md)
}

func (ctl *Controller) MarketData(c *fiber.Ctx) error {
	data, err := ctl.Market.MarketData(c.Params("chain"), c.Params("token"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "No market data available for this token.",
		})
	}
	return c.JSON(data)
}

func (ctl *Controller) Distribution(c *fiber.Ctx) error {
	nodes, err := ctl.Maps.Distribution(c.Params("chain"), c.Params("token"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "No map data available for this token.",
		})
	}

	top := c.QueryInt("top", 0)
	if top > 0 && top < len(nodes) {
		nodes = nodes[:top]
	}
	return c.JSON(fiber.Map{
		"holders": nodes,
	})
}

func (ctl *Controller) AddressDetails(c *fiber.Ctx) error {
	node, err := ctl.Maps.AddressDetails(c.Params("chain"), c.Params("token"), c.Params("address"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "No map data available for this token.",
		})
	}
	if node == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Address not found in this token's map.",
		})
	}
	return c.JSON(node)
}
