package vectorstore

import (
	"platform-common/core/telemetry"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Feature implements the loader.Feature interface.
type Feature struct {
	cfg     Config
	service *Service
	handler *Handler
}

// NewFeature creates a new Vectorstore feature.
func NewFeature(cfg Config, logger *zap.Logger, reporter telemetry.Reporter) *Feature {
	svc := NewService(cfg, logger, reporter)
	h := NewHandler(svc)
	return &Feature{cfg: cfg, service: svc, handler: h}
}

// Name returns the name of the feature.
func (f *Feature) Name() string {
	return "vectorstore"
}

// IsEnabled checks if the feature is enabled. A feature without a base URL
// cannot reach the vector service and stays off.
func (f *Feature) IsEnabled() bool {
	return f.cfg.Enabled && f.cfg.BaseURL != ""
}

// Load registers the feature's routes.
func (f *Feature) Load(app fiber.Router) error {
	f.handler.RegisterRoutes(app)
	return nil
}
