package models

import (
	"time"

	"gorm.io/datatypes"
)

// PredictionRecord is the persisted form of a Prediction written by the log
// sink. Outcome payloads are stored as JSON; the record is append-only.
type PredictionRecord struct {
	ID                uint64         `gorm:"primaryKey;autoIncrement" json:"id"`
	Question          string         `gorm:"type:text;not null" json:"question"`
	MarketSlug        string         `gorm:"type:text;index" json:"market_slug"`
	MarketID          string         `gorm:"type:text" json:"market_id"`
	Category          string         `gorm:"type:text" json:"category"`
	FamilyType        string         `gorm:"type:text" json:"family_type"`
	RequesterID       string         `gorm:"type:text;index" json:"requester_id"`
	IsMock            bool           `json:"is_mock"`
	TimedOut          bool           `json:"timed_out"`
	OutcomesJSON      datatypes.JSON `gorm:"type:jsonb" json:"outcomes_json"`
	NormalizationJSON datatypes.JSON `gorm:"type:jsonb" json:"normalization_json"`
	SignalJSON        datatypes.JSON `gorm:"type:jsonb" json:"signal_json"`
	CreatedAt         time.Time      `gorm:"autoCreateTime" json:"created_at"`
}

func (PredictionRecord) TableName() string { return "prediction_records" }
