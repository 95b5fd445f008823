package delivery

import (
	"github.com/gofiber/fiber/v2"

	"storefront/internal/view"
)

// PageHandler отдает статические страницы витрины
type PageHandler struct {
	landing view.LandingContent
}

// NewPageHandler создает handler главной страницы
func NewPageHandler(landing view.LandingContent) *PageHandler {
	return &PageHandler{landing: landing}
}

// Landing - GET /
func (h *PageHandler) Landing(c *fiber.Ctx) error {
	return respondHTML(c, fiber.StatusOK, view.LandingPage(h.landing))
}

// Health - GET /healthz
func (h *PageHandler) Health(c *fiber.Ctx) error {
	return respondOK(c, fiber.Map{"status": "ok"})
}
