package repository

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"polyforecast/internal/models"
)

// LogSink writes finished predictions to the repository without ever blocking
// or failing the request path. Writes are asynchronous and rate limited; a
// prediction arriving inside the minimum interval is dropped.
type LogSink struct {
	repo        PredictionRepository
	logger      *zap.Logger
	minInterval time.Duration

	mu        sync.Mutex
	lastWrite time.Time
}

func NewLogSink(repo PredictionRepository, minInterval time.Duration, logger *zap.Logger) *LogSink {
	if minInterval <= 0 {
		minInterval = 5 * time.Second
	}
	return &LogSink{
		repo:        repo,
		logger:      logger,
		minInterval: minInterval,
	}
}

// Record queues one prediction for persistence. The write happens on its own
// goroutine with its own deadline so request cancellation cannot abort it.
func (s *LogSink) Record(_ context.Context, p *models.Prediction) {
	s.mu.Lock()
	if time.Since(s.lastWrite) < s.minInterval {
		s.mu.Unlock()
		s.logger.Debug("prediction record dropped by rate limit",
			zap.String("component", "log_sink"),
			zap.String("slug", p.Event.MarketSlug))
		return
	}
	s.lastWrite = time.Now()
	s.mu.Unlock()

	record := toRecord(p)
	go func() {
		writeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.repo.InsertPrediction(writeCtx, record); err != nil {
			s.logger.Warn("prediction record write failed",
				zap.String("component", "log_sink"),
				zap.String("slug", record.MarketSlug),
				zap.Error(err))
		}
	}()
}

func toRecord(p *models.Prediction) *models.PredictionRecord {
	record := &models.PredictionRecord{
		Question:    p.Event.Question,
		MarketSlug:  p.Event.MarketSlug,
		MarketID:    p.Event.MarketID,
		Category:    string(p.Event.Category),
		FamilyType:  string(p.Event.FamilyType),
		RequesterID: p.RequesterID,
		IsMock:      p.Event.IsMock,
		TimedOut:    p.TimedOut,
	}
	record.OutcomesJSON = marshalJSON(p.Outcomes)
	record.NormalizationJSON = marshalJSON(p.Normalization)
	if p.TradeSignal != nil {
		record.SignalJSON = marshalJSON(p.TradeSignal)
	}
	return record
}

func marshalJSON(v interface{}) datatypes.JSON {
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return datatypes.JSON(data)
}
