package handlers

import (
	"log"
	"net/http"
	"strconv"

	"crop-monitor-service/internal/models"
	"crop-monitor-service/internal/services"

	"github.com/gofiber/fiber/v3"
)

type AnalysisHandler struct {
	analysisService  *services.AnalysisService
	dashboardService *services.DashboardService
}

func NewAnalysisHandler(analysisService *services.AnalysisService, dashboardService *services.DashboardService) *AnalysisHandler {
	return &AnalysisHandler{
		analysisService:  analysisService,
		dashboardService: dashboardService,
	}
}

func (h *AnalysisHandler) Register(app *fiber.App) {
	group := app.Group("/api/analysis")

	group.Post("/disease", h.AnalyzeDisease)        // POST /api/analysis/disease - image-only classification
	group.Get("/disease/results", h.DiseaseResults) // GET /api/analysis/disease/results
	group.Get("/crop", h.CropAnalysis)              // GET /api/analysis/crop - latest fused result per zone
}

// AnalyzeDisease runs the image-only disease model against a stored
// drone image. Re-running on the same image returns the stored result.
func (h *AnalysisHandler) AnalyzeDisease(c fiber.Ctx) error {
	var req models.DiseaseAnalysisRequest
	if err := c.Bind().Body(&req); err != nil {
		log.Printf("[analysis] error parsing request: %v", err)
		return c.Status(http.StatusBadRequest).JSON(
			CreateErrorResponse("INVALID_REQUEST", "Invalid request body: "+err.Error()))
	}

	result, err := h.analysisService.ClassifyImage(c.Context(), req.DroneImageID)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(http.StatusOK).JSON(CreateSuccessResponse(result))
}

func (h *AnalysisHandler) DiseaseResults(c fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "50"))

	results, err := h.analysisService.ListDiseaseResults(c.Context(), limit)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(http.StatusOK).JSON(CreateSuccessResponse(results))
}

func (h *AnalysisHandler) CropAnalysis(c fiber.Ctx) error {
	zones, err := h.dashboardService.CropAnalysis(c.Context())
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(http.StatusOK).JSON(CreateSuccessResponse(zones))
}
