package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"polyforecast/internal/client/clob"
	"polyforecast/internal/models"
)

func floatPtr(f float64) *float64 { return &f }

func lowProbGateway() *Gateway {
	return &Gateway{Logger: zap.NewNop()}
}

func TestCheckLowProbabilityTriggers(t *testing.T) {
	ev := &models.Event{
		Question:          "Longshot?",
		MarketProbability: floatPtr(0.4),
		Outcomes:          []models.Outcome{{Name: "Yes", MarketProbability: floatPtr(0.4), Active: true}},
	}
	err := lowProbGateway().CheckLowProbability(context.Background(), ev, 1.0)
	var lowProb *LowProbabilityError
	if !errors.As(err, &lowProb) {
		t.Fatalf("err = %v, want LowProbabilityError", err)
	}
	if lowProb.Max != 0.4 || lowProb.Threshold != 1.0 {
		t.Fatalf("error payload = %+v", lowProb)
	}
}

func TestCheckLowProbabilityPassesAboveThreshold(t *testing.T) {
	ev := &models.Event{
		Question: "Plausible?",
		Outcomes: []models.Outcome{
			{Name: "A", MarketProbability: floatPtr(0.2), Active: true},
			{Name: "B", MarketProbability: floatPtr(5.0), Active: true},
		},
	}
	// Best candidate (5.0) clears the floor even though another sits below it.
	if err := lowProbGateway().CheckLowProbability(context.Background(), ev, 1.0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCheckLowProbabilityIgnoresUnusableCandidates(t *testing.T) {
	ev := &models.Event{
		Question:          "Odd data",
		MarketProbability: floatPtr(0), // zero is not a usable candidate
		Outcomes: []models.Outcome{
			{Name: "A", MarketProbability: floatPtr(150), Active: true}, // >100, unusable
			{Name: "B", Active: true},                                  // nil
		},
	}
	// No usable candidates: the filter stays out of the way.
	if err := lowProbGateway().CheckLowProbability(context.Background(), ev, 1.0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCheckLowProbabilityClobLastResort(t *testing.T) {
	var priceCalls, bookCalls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/price":
			priceCalls++
			fmt.Fprint(w, `{"price": "0.005"}`)
		case "/book":
			bookCalls++
			http.NotFound(w, r)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	g := &Gateway{
		Logger: zap.NewNop(),
		Clob:   clob.NewClient(srv.Client(), srv.URL),
	}
	ev := &models.Event{
		Question: "Longshot without market prices",
		Outcomes: []models.Outcome{{Name: "Yes", TokenID: "tok-1", Active: true}},
	}

	err := g.CheckLowProbability(context.Background(), ev, 1.0)
	var lowProb *LowProbabilityError
	if !errors.As(err, &lowProb) {
		t.Fatalf("err = %v, want LowProbabilityError from the 0.5%% quote", err)
	}
	if lowProb.Max != 0.5 {
		t.Fatalf("max candidate = %v, want 0.5", lowProb.Max)
	}
	if priceCalls != 1 || bookCalls != 0 {
		t.Fatalf("calls = %d price / %d book, want the quote to settle it", priceCalls, bookCalls)
	}
}

func TestCheckLowProbabilitySkipsMock(t *testing.T) {
	ev := &models.Event{
		Question:          "Mock",
		IsMock:            true,
		MarketProbability: floatPtr(0.01),
	}
	if err := lowProbGateway().CheckLowProbability(context.Background(), ev, 1.0); err != nil {
		t.Fatalf("mock events must never be screened: %v", err)
	}
}

func TestCheckLowProbabilityDisabledThreshold(t *testing.T) {
	ev := &models.Event{
		Question:          "Any",
		MarketProbability: floatPtr(0.01),
	}
	if err := lowProbGateway().CheckLowProbability(context.Background(), ev, 0); err != nil {
		t.Fatalf("zero threshold disables the filter: %v", err)
	}
}
