package collections

import (
	"platform-common/core/storage"
	"platform-common/core/telemetry"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Feature implements the loader.Feature interface.
type Feature struct {
	service *Service
	handler *Handler
}

// NewFeature creates a new Collections feature.
func NewFeature(client storage.Client, bucket string, logger *zap.Logger, reporter telemetry.Reporter, opts ...Option) *Feature {
	svc := NewService(client, bucket, logger, reporter, opts...)
	h := NewHandler(svc)
	return &Feature{service: svc, handler: h}
}

// Name returns the name of the feature.
func (f *Feature) Name() string {
	return "collections"
}

// IsEnabled checks if the feature is enabled.
func (f *Feature) IsEnabled() bool {
	return true
}

// Load registers the feature's routes.
func (f *Feature) Load(app fiber.Router) error {
	f.handler.RegisterRoutes(app)
	return nil
}
