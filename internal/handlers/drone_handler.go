package handlers

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"crop-monitor-service/internal/repository"
	"crop-monitor-service/internal/services"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

type DroneHandler struct {
	ingestionService *services.IngestionService
	imageRepo        *repository.ImageRepository
}

func NewDroneHandler(ingestionService *services.IngestionService, imageRepo *repository.ImageRepository) *DroneHandler {
	return &DroneHandler{
		ingestionService: ingestionService,
		imageRepo:        imageRepo,
	}
}

func (h *DroneHandler) Register(app *fiber.App) {
	group := app.Group("/api/drone")

	group.Post("/upload", h.Upload)  // POST /api/drone/upload - fused drone capture ingestion
	group.Get("/flights", h.Flights) // GET /api/drone/flights - recent captures
}

// Upload runs the full fused ingestion pipeline for one drone capture:
// store the image, classify it together with the sensor values, and
// persist reading, analysis and alerts in one transaction.
func (h *DroneHandler) Upload(c fiber.Ctx) error {
	sensorID, err := uuid.Parse(c.FormValue("zone_id"))
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(
			CreateErrorResponse("INVALID_REQUEST", "Invalid or missing zone_id"))
	}

	values, err := readingValuesFromForm(c)
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(
			CreateErrorResponse("INVALID_REQUEST", err.Error()))
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(
			CreateErrorResponse("INVALID_REQUEST", "Missing image file: "+err.Error()))
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(
			CreateErrorResponse("INVALID_REQUEST", "Could not open uploaded file: "+err.Error()))
	}
	defer file.Close()

	imageBytes, err := io.ReadAll(file)
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(
			CreateErrorResponse("INVALID_REQUEST", "Could not read uploaded file: "+err.Error()))
	}

	resp, err := h.ingestionService.IngestFused(c.Context(), sensorID, fileHeader.Filename, imageBytes, values)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(http.StatusCreated).JSON(CreateSuccessResponse(resp))
}

// Flights lists recent drone captures, newest first.
func (h *DroneHandler) Flights(c fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	offset, _ := strconv.Atoi(c.Query("offset", "0"))

	var sensorID *uuid.UUID
	if raw := c.Query("zone_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return c.Status(http.StatusBadRequest).JSON(
				CreateErrorResponse("INVALID_REQUEST", "Invalid zone_id"))
		}
		sensorID = &id
	}

	var since *time.Time
	if raw := c.Query("since"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return c.Status(http.StatusBadRequest).JSON(
				CreateErrorResponse("INVALID_REQUEST", "since must be RFC3339"))
		}
		since = &t
	}

	images, err := h.imageRepo.ListRecent(c.Context(), sensorID, since, limit, offset)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(http.StatusOK).JSON(CreateSuccessResponse(images))
}

func readingValuesFromForm(c fiber.Ctx) (services.ReadingValues, error) {
	var values services.ReadingValues
	fields := []struct {
		name string
		dst  *float64
	}{
		{"n", &values.N},
		{"p", &values.P},
		{"k", &values.K},
		{"soil_moisture", &values.SoilMoisture},
	}
	for _, f := range fields {
		parsed, err := strconv.ParseFloat(c.FormValue(f.name), 64)
		if err != nil {
			return values, fmt.Errorf("invalid or missing form value %s", f.name)
		}
		*f.dst = parsed
	}
	return values, nil
}
