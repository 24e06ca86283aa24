package repository

import (
	"context"

	"polyforecast/internal/models"
)

// PredictionRepository persists prediction records. The pipeline only ever
// appends and the API only ever reads recent history.
type PredictionRepository interface {
	InsertPrediction(ctx context.Context, record *models.PredictionRecord) error
	ListRecentPredictions(ctx context.Context, limit int) ([]models.PredictionRecord, error)
}
