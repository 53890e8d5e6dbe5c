package params

import (
	"errors"

	"platform-common/core/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for parameters.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the parameter routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/params")
	group.Get("/*", h.HandleGetParameter)
	group.Put("/*", h.HandlePutParameter)
	group.Delete("/*", h.HandleDeleteParameter)
}

type paramPayload struct {
	Value       string `json:"value"`
	Description string `json:"description,omitempty"`
}

// HandleGetParameter returns the decrypted value of a parameter.
// @Summary Get Parameter
// @Description Fetch and decrypt a SecureString parameter by name or ARN.
// @Tags params
// @Produce json
// @Param name path string true "Parameter name or ARN"
// @Success 200 {object} map[string]string "Parameter value"
// @Failure 404 {object} map[string]string "Not Found"
// @Router /params/{name} [get]
func (h *Handler) HandleGetParameter(c *fiber.Ctx) error {
	name := c.Params("*")
	l := logger.WithRayID(h.service.logger, c)

	value, err := h.service.GetSecureParameter(c.Context(), name)
	if err != nil {
		if errors.Is(err, ErrParameterNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
		}
		l.Error("Failed to get parameter", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{"name": name, "value": value})
}

// HandlePutParameter creates or overwrites a SecureString parameter.
// @Summary Put Parameter
// @Description Create or overwrite a SecureString parameter.
// @Tags params
// @Accept json
// @Produce json
// @Param name path string true "Parameter name"
// @Param payload body paramPayload true "Parameter value"
// @Success 201 {object} map[string]string "Parameter ARN"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /params/{name} [put]
func (h *Handler) HandlePutParameter(c *fiber.Ctx) error {
	name := c.Params("*")
	l := logger.WithRayID(h.service.logger, c)

	var payload paramPayload
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if payload.Value == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "value is required"})
	}

	arn, err := h.service.CreateSecureParameter(c.Context(), name, payload.Value, payload.Description)
	if err != nil {
		l.Error("Failed to put parameter", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"arn": arn})
}

// HandleDeleteParameter removes a parameter.
// @Summary Delete Parameter
// @Description Delete a parameter by name or ARN.
// @Tags params
// @Produce json
// @Param name path string true "Parameter name or ARN"
// @Success 200 {object} map[string]string "Deleted parameter"
// @Failure 404 {object} map[string]string "Not Found"
// @Router /params/{name} [delete]
func (h *Handler) HandleDeleteParameter(c *fiber.Ctx) error {
	name := c.Params("*")
	l := logger.WithRayID(h.service.logger, c)

	if err := h.service.DeleteParameter(c.Context(), name); err != nil {
		if errors.Is(err, ErrParameterNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
		}
		l.Error("Failed to delete parameter", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{"deleted": name})
}
