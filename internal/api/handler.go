package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"GarchSentinel/internal/backtest"
	"GarchSentinel/internal/model"
	"GarchSentinel/internal/scheduler"
	"GarchSentinel/internal/strategy"
)

// Service is the part of the scheduler the API exposes.
type Service interface {
	RunCycle(ctx context.Context) (*scheduler.CycleResult, error)
	RecentPredictions(ctx context.Context, limit int) ([]model.Prediction, error)
	Backtest(ctx context.Context, limit int, opts backtest.Options) (model.PerformanceReport, error)
	Compare(ctx context.Context, limit int) ([]backtest.ComparisonResult, error)
	Validate(ctx context.Context, limit int) (backtest.ValidationReport, error)
}

// Handler serves the /api routes.
type Handler struct {
	svc Service
}

// NewHandler creates a Handler.
func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the /api group.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/predictions", h.Predictions)
	g.GET("/backtest", h.Backtest)
	g.GET("/compare", h.Compare)
	g.GET("/validate", h.Validate)
	g.POST("/classify", h.Classify)
	g.POST("/simulate", h.Simulate)
	g.POST("/run", h.Run)
}

// Predictions lists recorded predictions, oldest first.
func (h *Handler) Predictions(c echo.Context) error {
	req := &ListRequest{}
	if verr := ReadAndValidateRequest(c, req); verr != nil {
		return BadRequestResponse(c, verr)
	}
	preds, err := h.svc.RecentPredictions(c.Request().Context(), req.Limit)
	if err != nil {
		return ErrorResponse(c, err)
	}
	if preds == nil {
		preds = []model.Prediction{}
	}
	return SuccessResponse(c, preds)
}

// Backtest replays recorded predictions.
func (h *Handler) Backtest(c echo.Context) error {
	req := &BacktestRequest{}
	if verr := ReadAndValidateRequest(c, req); verr != nil {
		return BadRequestResponse(c, verr)
	}
	opts := backtest.Options{InitialCapital: req.InitialCapital, Start: backtest.StartMode(req.Start)}
	report, err := h.svc.Backtest(c.Request().Context(), req.Limit, opts)
	if errors.Is(err, backtest.ErrEmptyInput) {
		return PartialResponse(c, err.Error(), report)
	}
	if err != nil {
		return ErrorResponse(c, err)
	}
	return SuccessResponse(c, report)
}

// Compare evaluates the configured policies over recorded history.
func (h *Handler) Compare(c echo.Context) error {
	req := &ListRequest{}
	if verr := ReadAndValidateRequest(c, req); verr != nil {
		return BadRequestResponse(c, verr)
	}
	results, err := h.svc.Compare(c.Request().Context(), req.Limit)
	if err != nil {
		return ErrorResponse(c, err)
	}
	return SuccessResponse(c, results)
}

// Validate scores the reliability of recorded predictions.
func (h *Handler) Validate(c echo.Context) error {
	req := &ValidateRequest{}
	if verr := ReadAndValidateRequest(c, req); verr != nil {
		return BadRequestResponse(c, verr)
	}
	report, err := h.svc.Validate(c.Request().Context(), req.Limit)
	if err != nil {
		return ErrorResponse(c, err)
	}
	return SuccessResponse(c, report)
}

// Classify classifies a single forecast against a caller-supplied window.
func (h *Handler) Classify(c echo.Context) error {
	req := &ClassifyRequest{}
	if verr := ReadAndValidateRequest(c, req); verr != nil {
		return BadRequestResponse(c, verr)
	}
	policy, err := strategy.PolicyByName(req.Policy,
		strategy.DynamicPolicy{MinSamples: req.MinSamples, BufferRatio: req.BufferRatio},
		strategy.StaticPolicy{Low: req.StaticLow, High: req.StaticHigh})
	if err != nil {
		return ErrorResponse(c, fmt.Errorf("%w: %v", errBadInput, err))
	}
	sig, tp, err := strategy.NewClassifier(policy, nil).Classify(*req.PredictedVolatility, req.Window)
	if err != nil {
		return ErrorResponse(c, err)
	}
	return SuccessResponse(c, strategy.Decision{Signal: sig, Thresholds: tp, Policy: policy.Name()})
}

// Simulate runs the portfolio simulator over the posted observations.
func (h *Handler) Simulate(c echo.Context) error {
	req := &SimulateRequest{}
	if verr := ReadAndValidateRequest(c, req); verr != nil {
		return BadRequestResponse(c, verr)
	}
	obs := make([]model.Observation, len(req.Observations))
	for i, o := range req.Observations {
		sig, err := model.ParseSignal(o.Signal)
		if err != nil {
			return ErrorResponse(c, fmt.Errorf("%w: observation %d: %v", errBadInput, i, err))
		}
		obs[i] = model.Observation{Timestamp: o.Timestamp, Price: o.Price, Signal: sig}
	}
	report, err := backtest.Simulate(obs, backtest.Options{
		InitialCapital: req.InitialCapital,
		Start:          backtest.StartMode(req.Start),
	})
	if errors.Is(err, backtest.ErrEmptyInput) {
		return PartialResponse(c, err.Error(), report)
	}
	if err != nil {
		return ErrorResponse(c, err)
	}
	return SuccessResponse(c, report)
}

// Run executes one signal cycle and answers in the flat run-handler shape.
func (h *Handler) Run(c echo.Context) error {
	res, err := h.svc.RunCycle(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, RunResponse{Status: "error", Message: err.Error()})
	}
	p := res.Prediction
	return c.JSON(http.StatusOK, RunResponse{
		Status:     "success",
		Timestamp:  &p.Timestamp,
		Asset:      p.Asset,
		Price:      p.Price,
		Volatility: p.PredictedVolatility,
		Signal:     string(p.Signal),
		Notified:   res.Notified,
	})
}
