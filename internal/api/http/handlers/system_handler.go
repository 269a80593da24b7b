package handlers

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-chat/internal/observability"
)

var providerDisplayNames = map[string]string{
	"gemini":    "Gemini",
	"openai":    "OpenAI",
	"anthropic": "Anthropic",
}

// SystemHandler serves the banner and the metrics snapshot.
type SystemHandler struct {
	banner  string
	metrics *observability.Metrics
}

// NewSystemHandler constructs handler for the given oracle provider.
func NewSystemHandler(provider string, metrics *observability.Metrics) *SystemHandler {
	name, ok := providerDisplayNames[provider]
	if !ok {
		name = strings.ToUpper(provider)
	}
	return &SystemHandler{
		banner:  fmt.Sprintf("Helpdesk AI (%s) Chat is running 🚀", name),
		metrics: metrics,
	}
}

// Root GET /.
func (h *SystemHandler) Root(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"message": h.banner})
}

// Metrics GET /metrics.
func (h *SystemHandler) Metrics(c *fiber.Ctx) error {
	return c.JSON(h.metrics.Snapshot())
}
