// Package enrich gathers optional auxiliary context (world sentiment, news
// digests) for prompts. Everything here is best-effort: any failure yields a
// smaller context, never a pipeline error.
package enrich

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"polyforecast/internal/config"
	"polyforecast/internal/models"
)

const worldSentimentCacheKey = "world_sentiment"

type Manager struct {
	cfg        config.EnrichmentConfig
	httpClient *http.Client
	assistant  *Assistant
	cache      *fileCache
	logger     *zap.Logger

	mu       sync.Mutex
	lastCall map[string]time.Time
}

func NewManager(cfg config.EnrichmentConfig, httpClient *http.Client, assistant *Assistant, logger *zap.Logger) *Manager {
	return &Manager{
		cfg:        cfg,
		httpClient: httpClient,
		assistant:  assistant,
		cache:      newFileCache(cfg.CacheDir, 3*time.Hour),
		logger:     logger,
		lastCall:   map[string]time.Time{},
	}
}

// Context assembles the enrichment block for one event. Nil means nothing was
// available, which is a fully supported state.
func (m *Manager) Context(ctx context.Context, ev *models.Event) *models.EnrichmentContext {
	var enriched models.EnrichmentContext
	any := false

	if m.cfg.WorldSentiment {
		if s := m.worldSentiment(ctx); s != nil {
			enriched.WorldTemperature = &s.Temperature
			enriched.WorldDescription = s.Description
			any = true
		}
	}
	if m.cfg.News {
		if summary := m.newsSummary(ctx, ev); summary != "" {
			enriched.NewsSummary = summary
			any = true
		}
	}
	if !any {
		return nil
	}
	return &enriched
}

// Refresh warms the shared world sentiment cache; the cron runner calls it on
// a schedule so request-path lookups mostly hit cache.
func (m *Manager) Refresh(ctx context.Context) {
	if !m.cfg.WorldSentiment {
		return
	}
	s, err := computeWorldSentiment(ctx, m.httpClient)
	if err != nil {
		m.logger.Warn("world sentiment refresh failed",
			zap.String("component", "enrich"),
			zap.Error(err))
		return
	}
	m.cache.put(worldSentimentCacheKey, s)
	m.logger.Info("world sentiment refreshed",
		zap.String("component", "enrich"),
		zap.Float64("temperature", s.Temperature),
		zap.String("description", s.Description))
}

func (m *Manager) worldSentiment(ctx context.Context) *worldSentiment {
	var cached worldSentiment
	if m.cache.get(worldSentimentCacheKey, &cached) {
		return &cached
	}
	if !m.allow("gdelt_sentiment") {
		return nil
	}
	s, err := computeWorldSentiment(ctx, m.httpClient)
	if err != nil {
		m.logger.Warn("world sentiment lookup failed",
			zap.String("component", "enrich"),
			zap.Error(err))
		return nil
	}
	m.cache.put(worldSentimentCacheKey, s)
	return s
}

func (m *Manager) newsSummary(ctx context.Context, ev *models.Event) string {
	keywords := extractKeywords(ev.Question, 3)
	if len(keywords) == 0 {
		return ""
	}
	key := "news_" + strings.Join(keywords, "_")

	var cached string
	if m.cache.get(key, &cached) {
		return cached
	}
	if !m.allow("gdelt_news") {
		return ""
	}

	articles, err := fetchGDELTArticles(ctx, m.httpClient, strings.Join(keywords, " "), 10)
	if err != nil {
		m.logger.Warn("news lookup failed",
			zap.String("component", "enrich"),
			zap.Strings("keywords", keywords),
			zap.Error(err))
		return ""
	}
	if len(articles) == 0 {
		return ""
	}

	summary := m.summarize(ctx, articles)
	if summary != "" {
		m.cache.put(key, summary)
	}
	return summary
}

// summarize condenses headlines through the assistant chain when enabled,
// otherwise joins the top titles directly.
func (m *Manager) summarize(ctx context.Context, articles []gdeltArticle) string {
	if !m.cfg.Assistant || m.assistant == nil {
		titles := make([]string, 0, 3)
		for _, a := range articles {
			if t := strings.TrimSpace(a.Title); t != "" {
				titles = append(titles, t)
			}
			if len(titles) == 3 {
				break
			}
		}
		return strings.Join(titles, "; ")
	}

	var b strings.Builder
	b.WriteString("Summarize the following headlines in at most three sentences, focusing on facts relevant to forecasting:\n")
	for i, a := range articles {
		if i == 10 {
			break
		}
		fmt.Fprintf(&b, "- %s\n", a.Title)
	}
	text, source := m.assistant.Complete(ctx, b.String())
	if source == FallbackDefaultSource {
		return ""
	}
	return text
}

// allow enforces the per-upstream minimum interval between live calls.
func (m *Manager) allow(upstream string) bool {
	interval := m.cfg.MinInterval
	if interval <= 0 {
		return true
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if last, ok := m.lastCall[upstream]; ok && time.Since(last) < interval {
		return false
	}
	m.lastCall[upstream] = time.Now()
	return true
}
