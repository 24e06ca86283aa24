package enrich

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"polyforecast/internal/config"
)

// FallbackDefaultSource marks assistant output that came from the built-in
// default after the whole provider chain failed.
const FallbackDefaultSource = "fallback_default"

const defaultAssistantText = "No auxiliary summary is available."

// Invoker matches the chat client; tests stub it.
type Invoker interface {
	Invoke(ctx context.Context, endpoint, apiKey, model, prompt string) (string, error)
}

// Assistant runs cheap auxiliary completions (news digests, keyword
// expansion) over an ordered fallback chain of models. Unlike forecast
// models, assistant providers share one endpoint and key.
type Assistant struct {
	chain    []string
	endpoint string
	apiKey   string
	timeout  time.Duration
	invoker  Invoker
	logger   *zap.Logger
}

func NewAssistant(cfg config.AssistantConfig, invoker Invoker, logger *zap.Logger) *Assistant {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	apiKey := ""
	if cfg.APIKeyEnv != "" {
		apiKey = os.Getenv(cfg.APIKeyEnv)
	}
	return &Assistant{
		chain:    cfg.Chain,
		endpoint: cfg.Endpoint,
		apiKey:   apiKey,
		timeout:  timeout,
		invoker:  invoker,
		logger:   logger,
	}
}

// Complete walks the chain until one provider answers. The returned source is
// the model that produced the text, or FallbackDefaultSource when the chain
// was empty or fully exhausted; Complete itself never fails.
func (a *Assistant) Complete(ctx context.Context, prompt string) (text, source string) {
	for _, model := range a.chain {
		if ctx.Err() != nil {
			break
		}
		out, err := a.callOne(ctx, model, prompt)
		if err != nil {
			a.logger.Warn("assistant provider failed",
				zap.String("component", "enrich"),
				zap.String("model", model),
				zap.Error(err))
			continue
		}
		return out, model
	}
	return defaultAssistantText, FallbackDefaultSource
}

func (a *Assistant) callOne(ctx context.Context, model, prompt string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	out, err := a.invoker.Invoke(callCtx, a.endpoint, a.apiKey, model, prompt)
	if err != nil {
		return "", err
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", fmt.Errorf("empty completion from %s", model)
	}
	return out, nil
}
