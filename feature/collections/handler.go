package collections

import (
	"errors"
	"time"

	"platform-common/core/logger"
	"platform-common/core/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for collections and their objects.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the collection routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/collections")
	group.Get("/:org", h.HandleListCollections)
	group.Post("/:org/:name", h.HandleCreateCollection)
	group.Delete("/:org/:name", h.HandleDeleteCollection)
	group.Get("/:org/:name/objects", h.HandleListObjects)

	objects := app.Group("/objects")
	objects.Get("/meta/*", h.HandleHeadObject)
	objects.Get("/url/*", h.HandlePresignedURL)
	objects.Get("/content/*", h.HandleGetContent)
	objects.Delete("/*", h.HandleDeleteObject)
	objects.Get("/tags/*", h.HandleGetTags)
	objects.Put("/tags/*", h.HandlePutTags)
	objects.Patch("/tags/*", h.HandleAppendTags)
}

// tagPayload is the request body shared by the tag write routes.
type tagPayload struct {
	Tags        []Tag    `json:"tags"`
	ExcludeKeys []string `json:"exclude_keys,omitempty"`
}

// errStatus maps service errors to HTTP status codes.
func errStatus(err error) int {
	switch {
	case IsNotFound(err):
		return fiber.StatusNotFound
	case IsValidation(err):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

// HandleListCollections lists the collections of an organization.
// @Summary List Collections
// @Description List the collection names belonging to an organization.
// @Tags collections
// @Produce json
// @Param org path string true "Organization ID"
// @Success 200 {object} map[string][]string "Collection names"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /collections/{org} [get]
func (h *Handler) HandleListCollections(c *fiber.Ctx) error {
	org := c.Params("org")
	l := logger.WithRayID(h.service.logger, c)

	names, err := h.service.ListCollections(c.Context(), org)
	if err != nil {
		l.Error("Failed to list collections", zap.Error(err))
		return c.Status(errStatus(err)).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{"collections": names})
}

// HandleCreateCollection creates a collection for an organization.
// @Summary Create Collection
// @Description Create a collection namespace and its marker object.
// @Tags collections
// @Produce json
// @Param org path string true "Organization ID"
// @Param name path string true "Collection Name"
// @Success 201 {object} map[string]string "Collection prefix"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /collections/{org}/{name} [post]
func (h *Handler) HandleCreateCollection(c *fiber.Ctx) error {
	org, name := c.Params("org"), c.Params("name")
	l := logger.WithRayID(h.service.logger, c)

	prefix, err := h.service.CreateCollection(c.Context(), org, name)
	if err != nil {
		l.Error("Failed to create collection", zap.Error(err))
		return c.Status(errStatus(err)).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"prefix": prefix})
}

// HandleDeleteCollection removes a collection and all objects under it.
// @Summary Delete Collection
// @Description Delete every object under the collection prefix, marker included.
// @Tags collections
// @Produce json
// @Param org path string true "Organization ID"
// @Param name path string true "Collection Name"
// @Success 200 {object} DeleteCollectionResult "Deletion summary"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /collections/{org}/{name} [delete]
func (h *Handler) HandleDeleteCollection(c *fiber.Ctx) error {
	org, name := c.Params("org"), c.Params("name")
	l := logger.WithRayID(h.service.logger, c)

	result, err := h.service.DeleteCollection(c.Context(), CollectionPrefix(org, name))
	if err != nil {
		l.Error("Failed to delete collection", zap.Error(err))
		return c.Status(errStatus(err)).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(result)
}

// HandleListObjects lists the objects of a collection with enriched metadata.
// @Summary List Objects
// @Description List the objects under a collection prefix, markers excluded.
// @Tags collections
// @Produce json
// @Param org path string true "Organization ID"
// @Param name path string true "Collection Name"
// @Success 200 {object} map[string][]ObjectSummary "Object summaries"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /collections/{org}/{name}/objects [get]
func (h *Handler) HandleListObjects(c *fiber.Ctx) error {
	org, name := c.Params("org"), c.Params("name")
	l := logger.WithRayID(h.service.logger, c)

	objects, err := h.service.ListObjects(c.Context(), CollectionPrefix(org, name)+"/")
	if err != nil {
		l.Error("Failed to list objects", zap.Error(err))
		return c.Status(errStatus(err)).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{"objects": objects, "count": len(objects)})
}

// HandleHeadObject returns the metadata of a single object.
// @Summary Get Object Metadata
// @Description Return size, content type and custom metadata for an object.
// @Tags objects
// @Produce json
// @Param key path string true "Object Key"
// @Success 200 {object} ObjectMeta "Object metadata"
// @Failure 404 {object} map[string]string "Not Found"
// @Router /objects/meta/{key} [get]
func (h *Handler) HandleHeadObject(c *fiber.Ctx) error {
	key := c.Params("*")
	l := logger.WithRayID(h.service.logger, c)

	meta, ok, err := h.service.Exists(c.Context(), key)
	if err != nil {
		l.Error("Failed to stat object", zap.Error(err))
		return c.Status(errStatus(err)).JSON(fiber.Map{"error": err.Error()})
	}
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "object not found: " + key})
	}

	return c.JSON(meta)
}

// HandlePresignedURL returns a time-limited download URL for an object.
// @Summary Get Presigned URL
// @Description Generate a presigned read URL. Expiry and disposition are query tunable.
// @Tags objects
// @Produce json
// @Param key path string true "Object Key"
// @Param expiry_seconds query int false "URL lifetime in seconds (default 3600)"
// @Param download query bool false "Force attachment disposition"
// @Success 200 {object} map[string]string "Presigned URL"
// @Failure 502 {object} map[string]string "URL generation failed"
// @Router /objects/url/{key} [get]
func (h *Handler) HandlePresignedURL(c *fiber.Ctx) error {
	key := c.Params("*")
	expiry := time.Duration(utils.ToInt(c.Query("expiry_seconds"))) * time.Second
	asDownload := utils.ToBool(c.Query("download"))

	url := h.service.PresignedURL(c.Context(), key, expiry, asDownload)
	if url == "" {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "could not generate presigned URL for " + key,
		})
	}

	return c.JSON(fiber.Map{"url": url})
}

// HandleGetContent streams the object's payload.
// @Summary Get Object Content
// @Description Stream the raw object bytes with the stored content type.
// @Tags objects
// @Produce octet-stream
// @Param key path string true "Object Key"
// @Success 200 {file} binary "Object content"
// @Failure 404 {object} map[string]string "Not Found"
// @Router /objects/content/{key} [get]
func (h *Handler) HandleGetContent(c *fiber.Ctx) error {
	key := c.Params("*")
	l := logger.WithRayID(h.service.logger, c)

	rc, meta, err := h.service.Open(c.Context(), key)
	if err != nil {
		var nf *NotFoundError
		if errors.As(err, &nf) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
		}
		l.Error("Failed to open object", zap.Error(err))
		return c.Status(errStatus(err)).JSON(fiber.Map{"error": err.Error()})
	}

	if meta.ContentType != "" {
		c.Set(fiber.HeaderContentType, meta.ContentType)
	}
	return c.SendStream(rc, int(meta.Size))
}

// HandleDeleteObject removes a single object.
// @Summary Delete Object
// @Description Delete one object by key.
// @Tags objects
// @Produce json
// @Param key path string true "Object Key"
// @Success 200 {object} map[string]string "Deleted key"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /objects/{key} [delete]
func (h *Handler) HandleDeleteObject(c *fiber.Ctx) error {
	key := c.Params("*")
	l := logger.WithRayID(h.service.logger, c)

	if err := h.service.DeleteObject(c.Context(), key); err != nil {
		l.Error("Failed to delete object", zap.Error(err))
		return c.Status(errStatus(err)).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{"deleted": key})
}

// HandleGetTags returns the object's tags.
// @Summary Get Object Tags
// @Description Fetch the object's tag set as a key/value mapping.
// @Tags objects
// @Produce json
// @Param key path string true "Object Key"
// @Success 200 {object} map[string]map[string]string "Tags"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /objects/tags/{key} [get]
func (h *Handler) HandleGetTags(c *fiber.Ctx) error {
	key := c.Params("*")
	l := logger.WithRayID(h.service.logger, c)

	objectTags, err := h.service.GetTags(c.Context(), key)
	if err != nil {
		l.Error("Failed to get tags", zap.Error(err))
		return c.Status(errStatus(err)).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{"tags": objectTags})
}

// HandlePutTags replaces the object's tag set.
// @Summary Replace Object Tags
// @Description Replace the object's entire tag set.
// @Tags objects
// @Accept json
// @Produce json
// @Param key path string true "Object Key"
// @Param payload body tagPayload true "Tags to set"
// @Success 200 {object} map[string]int "Tag count"
// @Failure 400 {object} map[string]string "Validation Error"
// @Router /objects/tags/{key} [put]
func (h *Handler) HandlePutTags(c *fiber.Ctx) error {
	key := c.Params("*")
	l := logger.WithRayID(h.service.logger, c)

	var payload tagPayload
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	if err := h.service.PutTags(c.Context(), key, payload.Tags); err != nil {
		l.Error("Failed to set tags", zap.Error(err))
		return c.Status(errStatus(err)).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{"count": len(payload.Tags)})
}

// HandleAppendTags merges tags into the object's existing set.
// @Summary Append Object Tags
// @Description Merge tags into the existing set. New values win on key clash; exclude_keys drops existing keys.
// @Tags objects
// @Accept json
// @Produce json
// @Param key path string true "Object Key"
// @Param payload body tagPayload true "Tags to append"
// @Success 200 {object} map[string]string "Status"
// @Failure 400 {object} map[string]string "Validation Error"
// @Router /objects/tags/{key} [patch]
func (h *Handler) HandleAppendTags(c *fiber.Ctx) error {
	key := c.Params("*")
	l := logger.WithRayID(h.service.logger, c)

	var payload tagPayload
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	if err := h.service.AppendTags(c.Context(), key, payload.Tags, payload.ExcludeKeys); err != nil {
		l.Error("Failed to append tags", zap.Error(err))
		return c.Status(errStatus(err)).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{"status": "ok"})
}
