package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"GarchSentinel/internal/backtest"
	"GarchSentinel/internal/strategy"
)

// APIResponse is the envelope of every /api response except /api/run.
type APIResponse struct {
	Status  int         `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// DataResponse writes the envelope with the given status code.
func DataResponse(c echo.Context, statusCode int, data interface{}) error {
	return c.JSON(statusCode, APIResponse{
		Status:  statusCode,
		Message: http.StatusText(statusCode),
		Data:    data,
	})
}

// SuccessResponse writes a 200 envelope.
func SuccessResponse(c echo.Context, data interface{}) error {
	return DataResponse(c, http.StatusOK, data)
}

// BadRequestResponse writes a 400 envelope.
func BadRequestResponse(c echo.Context, data interface{}) error {
	return DataResponse(c, http.StatusBadRequest, data)
}

// PartialResponse writes a 200 envelope carrying fallback data, with message
// explaining why the full result is unavailable.
func PartialResponse(c echo.Context, message string, data interface{}) error {
	return c.JSON(http.StatusOK, APIResponse{
		Status:  http.StatusOK,
		Message: message,
		Data:    data,
	})
}

// ErrorResponse maps domain errors to 400 and everything else to 500.
func ErrorResponse(c echo.Context, err error) error {
	if isClientError(err) {
		return c.JSON(http.StatusBadRequest, APIResponse{
			Status:  http.StatusBadRequest,
			Message: err.Error(),
		})
	}
	log.Error().Err(err).Str("path", c.Path()).Msg("request failed")
	return c.JSON(http.StatusInternalServerError, APIResponse{
		Status:  http.StatusInternalServerError,
		Message: err.Error(),
	})
}

func isClientError(err error) bool {
	for _, target := range []error{
		strategy.ErrInsufficientData,
		strategy.ErrInvalidVolatility,
		backtest.ErrEmptyInput,
		backtest.ErrInvalidPrice,
		backtest.ErrTooFewPredictions,
		errBadInput,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
