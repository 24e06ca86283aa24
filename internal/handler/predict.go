package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"polyforecast/internal/gateway"
	"polyforecast/internal/models"
	"polyforecast/internal/repository"
)

// Predictor is the pipeline surface the HTTP layer depends on.
type Predictor interface {
	Predict(ctx context.Context, rawRef, requesterID string) (*models.Prediction, error)
}

type PredictHandler struct {
	Pipeline Predictor
	Repo     repository.PredictionRepository
	Logger   *zap.Logger
}

type predictRequest struct {
	// Reference is a market URL, slug or free-text question.
	Reference   string `json:"reference" binding:"required"`
	RequesterID string `json:"requester_id"`
}

func (h *PredictHandler) Register(r *gin.Engine) {
	v1 := r.Group("/api/v1")
	v1.POST("/predict", h.predict)
	v1.GET("/predictions", h.listPredictions)
}

func (h *PredictHandler) predict(c *gin.Context) {
	var req predictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid request body", map[string]any{"error": err.Error()})
		return
	}

	prediction, err := h.Pipeline.Predict(c.Request.Context(), req.Reference, req.RequesterID)
	if err != nil {
		h.renderPredictError(c, req.Reference, err)
		return
	}

	meta := map[string]any{
		"timed_out": prediction.TimedOut,
		"source":    prediction.Event.Source,
	}
	Ok(c, prediction, meta)
}

func (h *PredictHandler) renderPredictError(c *gin.Context, reference string, err error) {
	var lowProb *gateway.LowProbabilityError
	switch {
	case errors.Is(err, gateway.ErrReferenceUnparseable):
		Error(c, http.StatusBadRequest, "reference unparseable", nil)
	case errors.As(err, &lowProb):
		Error(c, http.StatusUnprocessableEntity, "event below probability floor", map[string]any{
			"max_probability": lowProb.Max,
			"threshold":       lowProb.Threshold,
		})
	case errors.Is(err, gateway.ErrAllSourcesFailed), errors.Is(err, gateway.ErrMarketNotFound):
		Error(c, http.StatusNotFound, "market not found", nil)
	case errors.Is(err, context.DeadlineExceeded):
		Error(c, http.StatusGatewayTimeout, "prediction deadline exceeded", nil)
	default:
		h.Logger.Error("prediction failed",
			zap.String("component", "handler"),
			zap.String("reference", reference),
			zap.Error(err))
		Error(c, http.StatusInternalServerError, "prediction failed", nil)
	}
}

func (h *PredictHandler) listPredictions(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusServiceUnavailable, "persistence disabled", nil)
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	records, err := h.Repo.ListRecentPredictions(c.Request.Context(), limit)
	if err != nil {
		h.Logger.Error("list predictions failed",
			zap.String("component", "handler"),
			zap.Error(err))
		Error(c, http.StatusInternalServerError, "query failed", nil)
		return
	}
	Ok(c, records, map[string]any{"count": len(records)})
}
