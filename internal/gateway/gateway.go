package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"polyforecast/internal/client/clob"
	"polyforecast/internal/client/gamma"
	"polyforecast/internal/models"
)

// Source resolves an event reference against one upstream. Sources are tried
// in declared order; ErrMarketNotFound moves the cascade along, any other
// failure is logged and also moves it along.
type Source interface {
	Name() string
	Resolve(ctx context.Context, ref models.EventReference) (*models.Event, error)
}

// Gateway owns the cascading resolution of references into canonical events.
type Gateway struct {
	Sources       []Source
	Clob          *clob.Client
	Logger        *zap.Logger
	SourceTimeout time.Duration
	MarketTimeout time.Duration
}

// New builds the default three-source cascade: structured Gamma lookup,
// Gamma public search, HTML scrape of the market page.
func New(gammaClient *gamma.Client, clobClient *clob.Client, httpClient *http.Client, logger *zap.Logger, sourceTimeout, marketTimeout time.Duration) *Gateway {
	if sourceTimeout <= 0 {
		sourceTimeout = 8 * time.Second
	}
	if marketTimeout <= 0 {
		marketTimeout = 25 * time.Second
	}
	return &Gateway{
		Sources: []Source{
			&gammaSlugSource{client: gammaClient},
			&gammaSearchSource{client: gammaClient},
			&scrapeSource{httpClient: httpClient},
		},
		Clob:          clobClient,
		Logger:        logger,
		SourceTimeout: sourceTimeout,
		MarketTimeout: marketTimeout,
	}
}

// Resolve walks the source cascade under the gateway budget. The returned
// event always has a non-empty question and at least one outcome.
func (g *Gateway) Resolve(ctx context.Context, ref models.EventReference) (*models.Event, error) {
	if ref.IsZero() {
		return nil, ErrReferenceUnparseable
	}
	ctx, cancel := context.WithTimeout(ctx, g.MarketTimeout)
	defer cancel()

	var lastErr error
	for _, src := range g.Sources {
		ev, err := g.resolveOne(ctx, src, ref)
		if err == nil {
			if verr := validateEvent(ev); verr != nil {
				g.Logger.Warn("source returned invalid event",
					zap.String("component", "gateway"),
					zap.String("stage", src.Name()),
					zap.Error(verr))
				lastErr = verr
				continue
			}
			g.Logger.Info("event resolved",
				zap.String("component", "gateway"),
				zap.String("stage", src.Name()),
				zap.String("slug", ev.MarketSlug),
				zap.Int("outcomes", len(ev.Outcomes)))
			return ev, nil
		}
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", ErrAllSourcesFailed, ctx.Err())
		}
		if !errors.Is(err, ErrMarketNotFound) {
			g.Logger.Warn("source failed",
				zap.String("component", "gateway"),
				zap.String("stage", src.Name()),
				zap.Error(err))
		}
		lastErr = err
	}
	if lastErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrAllSourcesFailed, lastErr)
	}
	return nil, ErrAllSourcesFailed
}

// resolveOne runs one source under its own timeout with transient retries
// (two attempts of one second backoff, bounded by the enclosing deadline).
func (g *Gateway) resolveOne(ctx context.Context, src Source, ref models.EventReference) (*models.Event, error) {
	var ev *models.Event
	operation := func() error {
		callCtx, cancel := context.WithTimeout(ctx, g.SourceTimeout)
		defer cancel()
		resolved, err := src.Resolve(callCtx, ref)
		if err != nil {
			if isTransient(err) {
				return err
			}
			return backoff.Permanent(err)
		}
		ev = resolved
		return nil
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(time.Second), 2), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, err
	}
	return ev, nil
}

// isTransient reports whether an upstream failure is worth retrying: network
// errors and 429/5xx statuses. Not-found and decode failures are final.
func isTransient(err error) bool {
	if errors.Is(err, ErrMarketNotFound) {
		return false
	}
	var gerr *gamma.APIError
	if errors.As(err, &gerr) {
		return gerr.Status == http.StatusTooManyRequests || gerr.Status >= 500
	}
	var cerr *clob.APIError
	if errors.As(err, &cerr) {
		return cerr.Status == http.StatusTooManyRequests || cerr.Status >= 500
	}
	// Request-level failures (DNS, reset, timeout) come through wrapped.
	return errors.Is(err, context.DeadlineExceeded) || isNetworkErr(err)
}

func isNetworkErr(err error) bool {
	type timeouter interface{ Timeout() bool }
	var t timeouter
	if errors.As(err, &t) {
		return true
	}
	type temporary interface{ Temporary() bool }
	var tmp temporary
	return errors.As(err, &tmp)
}

func validateEvent(ev *models.Event) error {
	if ev == nil || ev.Question == "" {
		return fmt.Errorf("event missing question")
	}
	if len(ev.Outcomes) == 0 {
		return fmt.Errorf("event %q has no usable outcomes", ev.Question)
	}
	return nil
}

// gammaSlugSource is the primary structured source: event groups first (they
// carry the multi-outcome expansion), then plain markets.
type gammaSlugSource struct {
	client *gamma.Client
}

func (s *gammaSlugSource) Name() string { return "gamma_slug" }

func (s *gammaSlugSource) Resolve(ctx context.Context, ref models.EventReference) (*models.Event, error) {
	if ref.Kind == models.ReferenceFreeText {
		return nil, ErrMarketNotFound
	}
	now := time.Now().UTC()

	groups, err := s.client.EventsBySlug(ctx, ref.Value)
	if err == nil {
		for _, g := range groups {
			ev := groupToEvent(g, s.Name(), now)
			if len(ev.Outcomes) > 0 {
				return ev, nil
			}
		}
	} else if isTransient(err) {
		return nil, err
	}

	markets, err := s.client.MarketsBySlug(ctx, ref.Value)
	if err != nil {
		return nil, err
	}
	for _, m := range markets {
		ev := marketToEvent(m, s.Name(), now)
		if len(ev.Outcomes) > 0 {
			return ev, nil
		}
	}
	return nil, ErrMarketNotFound
}

// gammaSearchSource is the secondary query source; it accepts any reference
// kind and takes the best hit.
type gammaSearchSource struct {
	client *gamma.Client
}

func (s *gammaSearchSource) Name() string { return "gamma_search" }

func (s *gammaSearchSource) Resolve(ctx context.Context, ref models.EventReference) (*models.Event, error) {
	result, err := s.client.Search(ctx, ref.Value, 5)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	for _, g := range result.Events {
		ev := groupToEvent(g, s.Name(), now)
		if len(ev.Outcomes) > 0 {
			return ev, nil
		}
	}
	for _, m := range result.Markets {
		ev := marketToEvent(m, s.Name(), now)
		if len(ev.Outcomes) > 0 {
			return ev, nil
		}
	}
	return nil, ErrMarketNotFound
}
