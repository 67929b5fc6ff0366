package handlers

import (
	"log"
	"net/http"

	"crop-monitor-service/internal/models"
	"crop-monitor-service/internal/services"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

type SensorHandler struct {
	sensorService    *services.SensorService
	ingestionService *services.IngestionService
}

func NewSensorHandler(sensorService *services.SensorService, ingestionService *services.IngestionService) *SensorHandler {
	return &SensorHandler{
		sensorService:    sensorService,
		ingestionService: ingestionService,
	}
}

func (h *SensorHandler) Register(app *fiber.App) {
	group := app.Group("/api/sensors")

	group.Get("/", h.ListSensors)                 // GET /api/sensors - zones of the active configuration
	group.Put("/:id/status", h.UpdateStatus)      // PUT /api/sensors/:id/status
	group.Post("/:id/reading", h.SubmitReading)   // POST /api/sensors/:id/reading
	group.Post("/bulk-reading", h.SubmitReadings) // POST /api/sensors/bulk-reading
}

func (h *SensorHandler) ListSensors(c fiber.Ctx) error {
	sensors, err := h.sensorService.ListActive(c.Context())
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(http.StatusOK).JSON(CreateSuccessResponse(sensors))
}

// UpdateStatus is the operator override for zone status. It is the only
// way a zone leaves the offline state.
func (h *SensorHandler) UpdateStatus(c fiber.Ctx) error {
	sensorID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(
			CreateErrorResponse("INVALID_REQUEST", "Invalid sensor ID"))
	}

	var req models.SensorStatusUpdate
	if err := c.Bind().Body(&req); err != nil {
		log.Printf("[sensor] error parsing request: %v", err)
		return c.Status(http.StatusBadRequest).JSON(
			CreateErrorResponse("INVALID_REQUEST", "Invalid request body: "+err.Error()))
	}

	sensor, err := h.sensorService.UpdateStatus(c.Context(), sensorID, req.Status)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(http.StatusOK).JSON(CreateSuccessResponse(sensor))
}

// SubmitReading ingests one manual reading for a zone and evaluates
// threshold alerts.
func (h *SensorHandler) SubmitReading(c fiber.Ctx) error {
	sensorID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(
			CreateErrorResponse("INVALID_REQUEST", "Invalid sensor ID"))
	}

	var req models.SensorReadingCreate
	if err := c.Bind().Body(&req); err != nil {
		log.Printf("[sensor] error parsing request: %v", err)
		return c.Status(http.StatusBadRequest).JSON(
			CreateErrorResponse("INVALID_REQUEST", "Invalid request body: "+err.Error()))
	}

	reading, err := h.ingestionService.IngestReading(c.Context(), sensorID, services.ReadingValues{
		N:            req.N,
		P:            req.P,
		K:            req.K,
		SoilMoisture: req.SoilMoisture,
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(http.StatusCreated).JSON(CreateSuccessResponse(reading))
}

// SubmitReadings ingests a batch of readings. Unresolvable zones are
// skipped rather than failing the whole batch.
func (h *SensorHandler) SubmitReadings(c fiber.Ctx) error {
	var req []models.BulkSensorReading
	if err := c.Bind().Body(&req); err != nil {
		log.Printf("[sensor] error parsing request: %v", err)
		return c.Status(http.StatusBadRequest).JSON(
			CreateErrorResponse("INVALID_REQUEST", "Invalid request body: "+err.Error()))
	}

	resp, err := h.ingestionService.IngestBatch(c.Context(), req)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(http.StatusCreated).JSON(CreateSuccessResponse(resp))
}
