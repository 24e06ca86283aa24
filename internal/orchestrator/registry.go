package orchestrator

import (
	"fmt"
	"os"
	"sort"

	"polyforecast/internal/config"
)

// Model is one resolved registry entry. API keys are read from the
// environment once at startup so config files never carry secrets.
type Model struct {
	ID          string
	DisplayName string
	Endpoint    string
	APIKey      string
	BaseWeight  float64
	// Fallback is an optional model ID on the same endpoint tried once
	// when the primary fails all retries.
	Fallback string
}

// Registry is the immutable set of enabled models.
type Registry struct {
	models  map[string]Model
	ordered []string
}

// NewRegistry resolves enabled config entries. API keys come from the named
// environment variables; an empty key is kept and simply sends no
// Authorization header, for gateways that front their own auth.
func NewRegistry(entries []config.ModelConfig) (*Registry, error) {
	r := &Registry{models: map[string]Model{}}
	for _, e := range entries {
		if !e.Enabled {
			continue
		}
		m := Model{
			ID:          e.ID,
			DisplayName: e.DisplayName,
			Endpoint:    e.Endpoint,
			BaseWeight:  e.BaseWeight,
			Fallback:    e.Fallback,
		}
		if e.APIKeyEnv != "" {
			m.APIKey = os.Getenv(e.APIKeyEnv)
		}
		r.models[m.ID] = m
		r.ordered = append(r.ordered, m.ID)
	}
	if len(r.models) == 0 {
		return nil, fmt.Errorf("registry: no enabled models")
	}
	sort.Strings(r.ordered)
	return r, nil
}

// IDs returns enabled model IDs in lexicographic order.
func (r *Registry) IDs() []string {
	out := make([]string, len(r.ordered))
	copy(out, r.ordered)
	return out
}

func (r *Registry) Get(id string) (Model, bool) {
	m, ok := r.models[id]
	return m, ok
}

// Weight returns the configured base weight, zero for unknown models.
func (r *Registry) Weight(id string) float64 {
	return r.models[id].BaseWeight
}

func (r *Registry) Len() int { return len(r.models) }
