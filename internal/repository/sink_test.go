package repository

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"go.uber.org/zap"

	"polyforecast/internal/models"
)

type captureRepo struct {
	inserted chan *models.PredictionRecord
}

func newCaptureRepo() *captureRepo {
	return &captureRepo{inserted: make(chan *models.PredictionRecord, 8)}
}

func (r *captureRepo) InsertPrediction(_ context.Context, record *models.PredictionRecord) error {
	r.inserted <- record
	return nil
}

func (r *captureRepo) ListRecentPredictions(_ context.Context, _ int) ([]models.PredictionRecord, error) {
	return nil, nil
}

func samplePrediction() *models.Prediction {
	prob := 58.0
	return &models.Prediction{
		Event: &models.Event{
			Question:   "Will it happen?",
			MarketSlug: "will-it-happen",
			Category:   models.CategoryEconomy,
			FamilyType: models.FamilyBinary,
		},
		Outcomes: []models.FusedOutcome{
			{OutcomeName: "Yes", BlendedProb: &prob, ModelCount: 3},
		},
		Normalization: models.NormalizationInfo{FamilyType: models.FamilyBinary},
		TradeSignal:   &models.TradeSignal{Signal: models.SignalBuy, EV: 8},
		RequesterID:   "tester",
		Timestamp:     time.Now().UTC(),
	}
}

func TestLogSinkWritesRecord(t *testing.T) {
	repo := newCaptureRepo()
	sink := NewLogSink(repo, time.Millisecond, zap.NewNop())

	sink.Record(context.Background(), samplePrediction())

	select {
	case record := <-repo.inserted:
		if record.Question != "Will it happen?" || record.MarketSlug != "will-it-happen" {
			t.Fatalf("record = %+v", record)
		}
		if record.Category != "economy" || record.FamilyType != "binary" {
			t.Fatalf("classification not persisted: %+v", record)
		}
		var outcomes []models.FusedOutcome
		if err := json.Unmarshal(record.OutcomesJSON, &outcomes); err != nil {
			t.Fatalf("outcomes json: %v", err)
		}
		if len(outcomes) != 1 || outcomes[0].ModelCount != 3 {
			t.Fatalf("outcomes payload = %+v", outcomes)
		}
		var signal models.TradeSignal
		if err := json.Unmarshal(record.SignalJSON, &signal); err != nil {
			t.Fatalf("signal json: %v", err)
		}
		if signal.Signal != models.SignalBuy {
			t.Fatalf("signal payload = %+v", signal)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("record never written")
	}
}

func TestLogSinkRateLimits(t *testing.T) {
	repo := newCaptureRepo()
	sink := NewLogSink(repo, time.Hour, zap.NewNop())

	sink.Record(context.Background(), samplePrediction())
	sink.Record(context.Background(), samplePrediction())

	select {
	case <-repo.inserted:
	case <-time.After(2 * time.Second):
		t.Fatalf("first record never written")
	}
	select {
	case <-repo.inserted:
		t.Fatalf("second record should have been dropped")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestLogSinkOmitsSignalWhenAbsent(t *testing.T) {
	p := samplePrediction()
	p.TradeSignal = nil
	record := toRecord(p)
	if record.SignalJSON != nil {
		t.Fatalf("signal json should be empty, got %s", record.SignalJSON)
	}
}
