package handlers

import (
	"log"
	"net/http"

	"crop-monitor-service/internal/models"
	"crop-monitor-service/internal/services"

	"github.com/gofiber/fiber/v3"
)

type ConfigHandler struct {
	configService *services.ConfigService
}

func NewConfigHandler(configService *services.ConfigService) *ConfigHandler {
	return &ConfigHandler{configService: configService}
}

func (h *ConfigHandler) Register(app *fiber.App) {
	group := app.Group("/api/config")

	group.Post("/", h.CreateConfig)      // POST /api/config - create and activate a field configuration
	group.Get("/active", h.ActiveConfig) // GET /api/config/active
}

// CreateConfig activates a new field configuration, replacing the
// current active one and regenerating the zone grid.
func (h *ConfigHandler) CreateConfig(c fiber.Ctx) error {
	var req models.FarmConfigCreate
	if err := c.Bind().Body(&req); err != nil {
		log.Printf("[config] error parsing request: %v", err)
		return c.Status(http.StatusBadRequest).JSON(
			CreateErrorResponse("INVALID_REQUEST", "Invalid request body: "+err.Error()))
	}

	resp, err := h.configService.Create(c.Context(), req)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(http.StatusCreated).JSON(CreateSuccessResponse(resp))
}

func (h *ConfigHandler) ActiveConfig(c fiber.Ctx) error {
	resp, err := h.configService.GetActive(c.Context())
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(http.StatusOK).JSON(CreateSuccessResponse(resp))
}
