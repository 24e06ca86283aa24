package gormrepository

import (
	"context"

	"gorm.io/gorm"

	"polyforecast/internal/models"
)

type Repository struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) InsertPrediction(ctx context.Context, record *models.PredictionRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *Repository) ListRecentPredictions(ctx context.Context, limit int) ([]models.PredictionRecord, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var records []models.PredictionRecord
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&records).Error
	return records, err
}
