package enrich

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"polyforecast/internal/config"
)

type chainInvoker struct {
	mu      sync.Mutex
	calls   []string
	answers map[string]string
}

func (c *chainInvoker) Invoke(_ context.Context, _, _, model, _ string) (string, error) {
	c.mu.Lock()
	c.calls = append(c.calls, model)
	c.mu.Unlock()
	if out, ok := c.answers[model]; ok {
		return out, nil
	}
	return "", errors.New("provider unavailable")
}

func newTestAssistant(chain []string, invoker Invoker) *Assistant {
	return NewAssistant(config.AssistantConfig{
		Chain:    chain,
		Endpoint: "https://example.com/v1/chat/completions",
		Timeout:  time.Second,
	}, invoker, zap.NewNop())
}

func TestAssistantFirstProviderWins(t *testing.T) {
	invoker := &chainInvoker{answers: map[string]string{"primary": "summary text"}}
	assistant := newTestAssistant([]string{"primary", "secondary"}, invoker)

	text, source := assistant.Complete(context.Background(), "summarize")
	if text != "summary text" || source != "primary" {
		t.Fatalf("got (%q, %q)", text, source)
	}
	if len(invoker.calls) != 1 {
		t.Fatalf("calls = %v, want only primary", invoker.calls)
	}
}

func TestAssistantFallsThroughChain(t *testing.T) {
	invoker := &chainInvoker{answers: map[string]string{"tertiary": "rescued"}}
	assistant := newTestAssistant([]string{"primary", "secondary", "tertiary"}, invoker)

	text, source := assistant.Complete(context.Background(), "summarize")
	if text != "rescued" || source != "tertiary" {
		t.Fatalf("got (%q, %q)", text, source)
	}
	if len(invoker.calls) != 3 {
		t.Fatalf("calls = %v, want all three", invoker.calls)
	}
}

func TestAssistantExhaustedChainYieldsSentinel(t *testing.T) {
	invoker := &chainInvoker{}
	assistant := newTestAssistant([]string{"a", "b"}, invoker)

	text, source := assistant.Complete(context.Background(), "summarize")
	if source != FallbackDefaultSource {
		t.Fatalf("source = %q, want %q", source, FallbackDefaultSource)
	}
	if text == "" {
		t.Fatalf("sentinel response must carry default text")
	}
}

func TestAssistantEmptyChainYieldsSentinel(t *testing.T) {
	assistant := newTestAssistant(nil, &chainInvoker{})
	if _, source := assistant.Complete(context.Background(), "x"); source != FallbackDefaultSource {
		t.Fatalf("source = %q, want sentinel", source)
	}
}

func TestAssistantTreatsBlankCompletionAsFailure(t *testing.T) {
	invoker := &chainInvoker{answers: map[string]string{"a": "   ", "b": "real"}}
	assistant := newTestAssistant([]string{"a", "b"}, invoker)

	text, source := assistant.Complete(context.Background(), "x")
	if text != "real" || source != "b" {
		t.Fatalf("got (%q, %q), want blank skipped", text, source)
	}
}
