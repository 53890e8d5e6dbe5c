package vectorstore

import (
	"platform-common/core/logger"
	"platform-common/core/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for vector collections.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the vector collection routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/vector-collections")
	group.Post("/:name", h.HandleCreateCollection)
	group.Delete("/:name", h.HandleDeleteCollection)
	group.Delete("/:name/points/:externalID", h.HandleDeletePoints)
}

// HandleCreateCollection provisions a vector collection.
// @Summary Create Vector Collection
// @Description Provision a vector collection. Sharding and replication are query tunable.
// @Tags vectorstore
// @Produce json
// @Param name path string true "Collection Name"
// @Param shard_count query int false "Shard count (default 6)"
// @Param embedding_dimension query int false "Embedding dimension (default 1024)"
// @Param distance_metric query string false "COSINE, DOT or EUCLID (default COSINE)"
// @Param orgid query string false "Organization ID for dedicated clusters"
// @Param platform_cluster_id query string false "Dedicated cluster ID"
// @Success 200 {object} map[string]interface{} "Vector service response"
// @Failure 502 {object} map[string]string "Vector service failure"
// @Router /vector-collections/{name} [post]
func (h *Handler) HandleCreateCollection(c *fiber.Ctx) error {
	name := c.Params("name")
	l := logger.WithRayID(h.service.logger, c)

	opts := CreateCollectionOptions{
		ShardCount:         utils.ToInt(c.Query("shard_count")),
		EmbeddingDimension: utils.ToInt(c.Query("embedding_dimension")),
		DistanceMetric:     c.Query("distance_metric"),
		StrictMode:         utils.ToBool(c.Query("strict_mode_enabled")),
		ReplicationFactor:  utils.ToInt(c.Query("replication_factor")),
		ClusterID:          c.Query("platform_cluster_id"),
		OrgID:              c.Query("orgid"),
	}
	opts.WriteConsistencyFactor = utils.ToInt(c.Query("write_consistency_factor"))

	result, err := h.service.CreateCollection(c.Context(), name, opts)
	if err != nil {
		l.Error("Failed to create vector collection", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(result)
}

// HandleDeleteCollection drops a vector collection.
// @Summary Delete Vector Collection
// @Description Drop a vector collection.
// @Tags vectorstore
// @Produce json
// @Param name path string true "Collection Name"
// @Param orgid query string false "Organization ID for dedicated clusters"
// @Param platform_cluster_id query string false "Dedicated cluster ID"
// @Success 200 {object} map[string]interface{} "Vector service response"
// @Failure 502 {object} map[string]string "Vector service failure"
// @Router /vector-collections/{name} [delete]
func (h *Handler) HandleDeleteCollection(c *fiber.Ctx) error {
	name := c.Params("name")
	l := logger.WithRayID(h.service.logger, c)

	result, err := h.service.DeleteCollection(c.Context(), name,
		c.Query("orgid"), c.Query("platform_cluster_id"))
	if err != nil {
		l.Error("Failed to delete vector collection", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(result)
}

// HandleDeletePoints removes points by external ID.
// @Summary Delete Vector Points
// @Description Delete every point carrying the external ID from the collection.
// @Tags vectorstore
// @Produce json
// @Param name path string true "Collection Name"
// @Param externalID path string true "External ID"
// @Param orgid query string false "Organization ID for dedicated clusters"
// @Param platform_cluster_id query string false "Dedicated cluster ID"
// @Success 200 {object} map[string]interface{} "Vector service response"
// @Failure 502 {object} map[string]string "Vector service failure"
// @Router /vector-collections/{name}/points/{externalID} [delete]
func (h *Handler) HandleDeletePoints(c *fiber.Ctx) error {
	name, externalID := c.Params("name"), c.Params("externalID")
	l := logger.WithRayID(h.service.logger, c)

	result, err := h.service.DeletePointsByExternalID(c.Context(), name, externalID,
		c.Query("orgid"), c.Query("platform_cluster_id"))
	if err != nil {
		l.Error("Failed to delete vector points", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(result)
}
