package params

import (
	"platform-common/core/telemetry"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Feature implements the loader.Feature interface.
type Feature struct {
	enabled bool
	service *Service
	handler *Handler
}

// NewFeature creates a new Params feature.
func NewFeature(api API, cfg Config, logger *zap.Logger, reporter telemetry.Reporter) *Feature {
	svc := NewService(api, logger, reporter)
	h := NewHandler(svc)
	return &Feature{enabled: cfg.Enabled, service: svc, handler: h}
}

// Name returns the name of the feature.
func (f *Feature) Name() string {
	return "params"
}

// IsEnabled checks if the feature is enabled.
func (f *Feature) IsEnabled() bool {
	return f.enabled
}

// Load registers the feature's routes.
func (f *Feature) Load(app fiber.Router) error {
	f.handler.RegisterRoutes(app)
	return nil
}
