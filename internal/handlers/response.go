package handlers

import (
	"errors"
	"net/http"
	"time"

	"crop-monitor-service/internal/apperr"

	"github.com/gofiber/fiber/v3"
)

type SuccessResponse struct {
	Success bool  `json:"success"`
	Data    any   `json:"data"`
	Meta    *Meta `json:"meta,omitempty"`
}

type ErrorResponse struct {
	Success bool     `json:"success"`
	Error   APIError `json:"error"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type Meta struct {
	Timestamp time.Time `json:"timestamp"`
}

func CreateErrorResponse(code, message string) ErrorResponse {
	return ErrorResponse{
		Success: false,
		Error: APIError{
			Code:    code,
			Message: message,
		},
	}
}

func CreateSuccessResponse(data any) SuccessResponse {
	return SuccessResponse{
		Success: true,
		Data:    data,
		Meta: &Meta{
			Timestamp: time.Now(),
		},
	}
}

// respondError translates service errors into the API envelope.
func respondError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return c.Status(http.StatusNotFound).JSON(
			CreateErrorResponse("NOT_FOUND", err.Error()))
	case errors.Is(err, apperr.ErrValidation):
		return c.Status(http.StatusBadRequest).JSON(
			CreateErrorResponse("VALIDATION_FAILED", err.Error()))
	case errors.Is(err, apperr.ErrInference):
		return c.Status(http.StatusBadGateway).JSON(
			CreateErrorResponse("MODEL_UNAVAILABLE", err.Error()))
	default:
		return c.Status(http.StatusInternalServerError).JSON(
			CreateErrorResponse("INTERNAL_ERROR", err.Error()))
	}
}
