package status

import (
	"time"

	"platform-common/core/telemetry"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles health and telemetry probe requests.
type Handler struct {
	logger   *zap.Logger
	reporter telemetry.Reporter
}

// NewHandler creates a new HTTP handler.
func NewHandler(logger *zap.Logger, reporter telemetry.Reporter) *Handler {
	return &Handler{logger: logger, reporter: reporter}
}

// RegisterRoutes registers the status routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	app.Get("/health", h.HandleHealth)
	app.Get("/ping-telemetry", h.HandlePingTelemetry)
}

// HandleHealth is the liveness probe endpoint.
// @Summary Health Check
// @Description Verify the service is running.
// @Tags status
// @Produce json
// @Success 200 {object} map[string]string "Liveness message"
// @Router /health [get]
func (h *Handler) HandleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"message": "Service is alive"})
}

// HandlePingTelemetry verifies the telemetry pipeline end to end by capturing
// a test event and returning its ID.
// @Summary Ping Telemetry
// @Description Capture a test event and return the telemetry event ID.
// @Tags status
// @Produce json
// @Success 200 {object} map[string]string "Telemetry event ID"
// @Router /ping-telemetry [get]
func (h *Handler) HandlePingTelemetry(c *fiber.Ctx) error {
	eventID := h.reporter.CaptureMessage("telemetry connectivity check", map[string]string{
		"probe": "ping-telemetry",
		"time":  time.Now().UTC().Format(time.RFC3339),
	})
	if eventID == "" {
		eventID = "no-event-id-generated"
	}

	h.logger.Info("Telemetry ping captured", zap.String("event_id", eventID))
	return c.JSON(fiber.Map{"telemetry_event_id": eventID})
}
