package handlers

import (
	"net/http"
	"path/filepath"
	"strings"

	"crop-monitor-service/internal/services"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

type DashboardHandler struct {
	dashboardService *services.DashboardService
}

func NewDashboardHandler(dashboardService *services.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService}
}

func (h *DashboardHandler) Register(app *fiber.App) {
	group := app.Group("/api/dashboard")

	group.Get("/grid", h.Grid)                 // GET /api/dashboard/grid - per-zone snapshot
	group.Get("/images", h.Images)             // GET /api/dashboard/images - recent capture browser
	group.Get("/images/:id/file", h.ImageFile) // GET /api/dashboard/images/:id/file
}

// Grid returns the per-zone field snapshot: status, latest fused
// prediction and whether unacknowledged alerts exist.
func (h *DashboardHandler) Grid(c fiber.Ctx) error {
	cells, err := h.dashboardService.GridSnapshot(c.Context())
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(http.StatusOK).JSON(CreateSuccessResponse(cells))
}

func (h *DashboardHandler) Images(c fiber.Ctx) error {
	var sensorID *uuid.UUID
	if raw := c.Query("zone_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return c.Status(http.StatusBadRequest).JSON(
				CreateErrorResponse("INVALID_REQUEST", "Invalid zone_id"))
		}
		sensorID = &id
	}

	images, err := h.dashboardService.BrowseImages(c.Context(), sensorID)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(http.StatusOK).JSON(CreateSuccessResponse(images))
}

// ImageFile streams the stored image bytes for one capture.
func (h *DashboardHandler) ImageFile(c fiber.Ctx) error {
	imageID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(
			CreateErrorResponse("INVALID_REQUEST", "Invalid image ID"))
	}

	data, objectName, err := h.dashboardService.ImageBytes(c.Context(), imageID)
	if err != nil {
		return respondError(c, err)
	}

	c.Set(fiber.HeaderContentType, imageContentType(objectName))
	return c.Status(http.StatusOK).Send(data)
}

func imageContentType(objectName string) string {
	switch strings.ToLower(filepath.Ext(objectName)) {
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	default:
		return "image/jpeg"
	}
}
