package handlers

import (
	"net/http"
	"strconv"

	"crop-monitor-service/internal/models"
	"crop-monitor-service/internal/repository"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

type AlertHandler struct {
	alertRepo *repository.AlertRepository
}

func NewAlertHandler(alertRepo *repository.AlertRepository) *AlertHandler {
	return &AlertHandler{alertRepo: alertRepo}
}

func (h *AlertHandler) Register(app *fiber.App) {
	group := app.Group("/api/alerts")

	group.Get("/", h.ListAlerts)                 // GET /api/alerts
	group.Put("/:id/acknowledge", h.Acknowledge) // PUT /api/alerts/:id/acknowledge
	group.Delete("/:id", h.DeleteAlert)          // DELETE /api/alerts/:id
}

func (h *AlertHandler) ListAlerts(c fiber.Ctx) error {
	filter := repository.AlertFilter{}

	if raw := c.Query("acknowledged"); raw != "" {
		acknowledged, err := strconv.ParseBool(raw)
		if err != nil {
			return c.Status(http.StatusBadRequest).JSON(
				CreateErrorResponse("INVALID_REQUEST", "acknowledged must be true or false"))
		}
		filter.Acknowledged = &acknowledged
	}

	if raw := c.Query("severity"); raw != "" {
		severity := models.AlertSeverity(raw)
		if severity != models.SeverityWarning && severity != models.SeverityCritical {
			return c.Status(http.StatusBadRequest).JSON(
				CreateErrorResponse("INVALID_REQUEST", "severity must be warning or critical"))
		}
		filter.Severity = &severity
	}

	if raw := c.Query("sensor_id"); raw != "" {
		sensorID, err := uuid.Parse(raw)
		if err != nil {
			return c.Status(http.StatusBadRequest).JSON(
				CreateErrorResponse("INVALID_REQUEST", "Invalid sensor_id"))
		}
		filter.SensorID = &sensorID
	}

	filter.Limit, _ = strconv.Atoi(c.Query("limit", "100"))

	alerts, err := h.alertRepo.List(c.Context(), filter)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(http.StatusOK).JSON(CreateSuccessResponse(alerts))
}

func (h *AlertHandler) Acknowledge(c fiber.Ctx) error {
	alertID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(
			CreateErrorResponse("INVALID_REQUEST", "Invalid alert ID"))
	}

	alert, err := h.alertRepo.Acknowledge(c.Context(), alertID)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(http.StatusOK).JSON(CreateSuccessResponse(alert))
}

func (h *AlertHandler) DeleteAlert(c fiber.Ctx) error {
	alertID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(
			CreateErrorResponse("INVALID_REQUEST", "Invalid alert ID"))
	}

	if err := h.alertRepo.Delete(c.Context(), alertID); err != nil {
		return respondError(c, err)
	}

	return c.Status(http.StatusOK).JSON(CreateSuccessResponse(fiber.Map{"deleted": alertID}))
}
