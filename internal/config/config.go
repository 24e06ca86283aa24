package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	DB       DBConfig       `mapstructure:"db"`
	Cron     CronConfig     `mapstructure:"cron"`
	Gamma    GammaConfig    `mapstructure:"gamma"`
	ClobREST ClobRESTConfig `mapstructure:"clob_rest"`

	Models     []ModelConfig    `mapstructure:"models"`
	Fusion     FusionConfig     `mapstructure:"fusion"`
	Trade      TradeConfig      `mapstructure:"trade"`
	Timeouts   TimeoutsConfig   `mapstructure:"timeouts"`
	Gateway    GatewayConfig    `mapstructure:"gateway"`
	Assistant  AssistantConfig  `mapstructure:"assistant"`
	Enrichment EnrichmentConfig `mapstructure:"enrichment"`
	LogSink    LogSinkConfig    `mapstructure:"log_sink"`
}

type AppConfig struct {
	Env string `mapstructure:"env"`
}

type ServerConfig struct {
	HTTPAddr string `mapstructure:"http_addr"`
}

type LogConfig struct {
	Level             string `mapstructure:"level"`
	Encoding          string `mapstructure:"encoding"`
	Development       bool   `mapstructure:"development"`
	Sampling          bool   `mapstructure:"sampling"`
	DisableCaller     bool   `mapstructure:"disable_caller"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
}

type DBConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

type CronConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	EnrichmentRefresh string `mapstructure:"enrichment_refresh"`
}

type GammaConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type ClobRESTConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// ModelConfig describes one entry of the model registry. The registry is read
// once at startup and is immutable afterwards.
type ModelConfig struct {
	ID          string  `mapstructure:"id"`
	DisplayName string  `mapstructure:"display_name"`
	Endpoint    string  `mapstructure:"endpoint"`
	APIKeyEnv   string  `mapstructure:"api_key_env"`
	BaseWeight  float64 `mapstructure:"base_weight"`
	Enabled     bool    `mapstructure:"enabled"`
	Fallback    string  `mapstructure:"fallback"`
}

type FusionConfig struct {
	MarketBlendAlpha  float64            `mapstructure:"market_blend_alpha"`
	ConfidenceFactors map[string]float64 `mapstructure:"confidence_factors"`
	// Calibrators maps an event category to a bounded linear scale factor.
	// A missing entry means identity.
	Calibrators  map[string]float64 `mapstructure:"calibrators"`
	WeightSource string             `mapstructure:"weight_source"`
}

type TradeConfig struct {
	EVBuyThreshold  float64 `mapstructure:"ev_buy_threshold"`
	EVSellThreshold float64 `mapstructure:"ev_sell_threshold"`
	RiskThreshold   float64 `mapstructure:"risk_threshold"`
	RiskCeiling     float64 `mapstructure:"risk_ceiling"`
}

type TimeoutsConfig struct {
	ModelCall time.Duration `mapstructure:"model_call"`
	// Batch of zero means auto: min(2*model_call, remaining deadline).
	Batch  time.Duration `mapstructure:"batch"`
	Total  time.Duration `mapstructure:"total"`
	Market time.Duration `mapstructure:"market"`
	Source time.Duration `mapstructure:"source"`
}

type GatewayConfig struct {
	LowProbabilityThreshold float64 `mapstructure:"low_probability_threshold"`
	AllowMock               bool    `mapstructure:"allow_mock"`
	MaxModelConcurrency     int     `mapstructure:"max_model_concurrency"`
	MaxOutcomeConcurrency   int     `mapstructure:"max_outcome_concurrency"`
}

type AssistantConfig struct {
	// Chain is the ordered list of provider model IDs tried for assistant-only
	// tasks. Exhausting it yields the sentinel default response.
	Chain     []string      `mapstructure:"chain"`
	Endpoint  string        `mapstructure:"endpoint"`
	APIKeyEnv string        `mapstructure:"api_key_env"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

type EnrichmentConfig struct {
	News           bool          `mapstructure:"news"`
	WorldSentiment bool          `mapstructure:"world_sentiment"`
	Assistant      bool          `mapstructure:"assistant"`
	CacheDir       string        `mapstructure:"cache_dir"`
	MinInterval    time.Duration `mapstructure:"min_interval"`
	NewsFeeds      []string      `mapstructure:"news_feeds"`
}

type LogSinkConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	MinInterval time.Duration `mapstructure:"min_interval"`
}

func Load(path string, envOnly bool) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("PF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()

	v.SetDefault("app.env", "dev")
	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.development", true)
	v.SetDefault("log.sampling", false)
	v.SetDefault("log.disable_caller", false)
	v.SetDefault("log.disable_stacktrace", false)
	v.SetDefault("db.max_open_conns", 10)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime", "30m")
	v.SetDefault("db.conn_max_idle_time", "5m")
	v.SetDefault("cron.enabled", false)
	v.SetDefault("cron.enrichment_refresh", "@every 30m")
	v.SetDefault("gamma.base_url", "https://gamma-api.polymarket.com")
	v.SetDefault("gamma.timeout", "8s")
	v.SetDefault("clob_rest.base_url", "https://clob.polymarket.com")
	v.SetDefault("clob_rest.timeout", "8s")

	v.SetDefault("fusion.market_blend_alpha", 0.8)
	v.SetDefault("fusion.confidence_factors", map[string]float64{
		"low":    0.5,
		"medium": 1.0,
		"high":   1.5,
	})
	v.SetDefault("fusion.weight_source", "config")

	v.SetDefault("trade.ev_buy_threshold", 2.0)
	v.SetDefault("trade.ev_sell_threshold", 2.0)
	v.SetDefault("trade.risk_threshold", 0.6)
	v.SetDefault("trade.risk_ceiling", 0.9)

	v.SetDefault("timeouts.model_call", "15s")
	v.SetDefault("timeouts.batch", "0s")
	v.SetDefault("timeouts.total", "120s")
	v.SetDefault("timeouts.market", "25s")
	v.SetDefault("timeouts.source", "8s")

	v.SetDefault("gateway.low_probability_threshold", 1.0)
	v.SetDefault("gateway.allow_mock", true)
	v.SetDefault("gateway.max_model_concurrency", 5)
	v.SetDefault("gateway.max_outcome_concurrency", 3)

	v.SetDefault("assistant.timeout", "20s")
	v.SetDefault("assistant.api_key_env", "PF_ASSISTANT_API_KEY")

	v.SetDefault("enrichment.news", false)
	v.SetDefault("enrichment.world_sentiment", false)
	v.SetDefault("enrichment.assistant", false)
	v.SetDefault("enrichment.cache_dir", ".cache")
	v.SetDefault("enrichment.min_interval", "30s")

	v.SetDefault("log_sink.enabled", false)
	v.SetDefault("log_sink.min_interval", "5s")

	if !envOnly {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations the pipeline cannot run with. Any error here
// is fatal at startup; there is no partial service.
func (c Config) Validate() error {
	enabled := 0
	seen := map[string]bool{}
	for _, m := range c.Models {
		if m.ID == "" {
			return fmt.Errorf("config: model with empty id")
		}
		if seen[m.ID] {
			return fmt.Errorf("config: duplicate model id %q", m.ID)
		}
		seen[m.ID] = true
		if m.BaseWeight <= 0 {
			return fmt.Errorf("config: model %q base_weight must be > 0, got %v", m.ID, m.BaseWeight)
		}
		if m.Enabled {
			if m.Endpoint == "" {
				return fmt.Errorf("config: model %q enabled without endpoint", m.ID)
			}
			enabled++
		}
	}
	if enabled == 0 {
		return fmt.Errorf("config: no enabled models")
	}
	if c.Fusion.MarketBlendAlpha < 0 || c.Fusion.MarketBlendAlpha > 1 {
		return fmt.Errorf("config: fusion.market_blend_alpha must be in [0,1], got %v", c.Fusion.MarketBlendAlpha)
	}
	for label, f := range c.Fusion.ConfidenceFactors {
		if f <= 0 {
			return fmt.Errorf("config: confidence factor %q must be > 0, got %v", label, f)
		}
	}
	for category, scale := range c.Fusion.Calibrators {
		if scale <= 0 {
			return fmt.Errorf("config: calibrator for %q must be > 0, got %v", category, scale)
		}
	}
	if c.Timeouts.ModelCall <= 0 || c.Timeouts.Total <= 0 || c.Timeouts.Market <= 0 {
		return fmt.Errorf("config: timeouts must be positive")
	}
	if c.Gateway.LowProbabilityThreshold < 0 || c.Gateway.LowProbabilityThreshold > 100 {
		return fmt.Errorf("config: gateway.low_probability_threshold must be in [0,100]")
	}
	if c.Gateway.MaxModelConcurrency <= 0 || c.Gateway.MaxOutcomeConcurrency <= 0 {
		return fmt.Errorf("config: concurrency limits must be positive")
	}
	return nil
}

// BatchTimeout resolves the per-outcome batch deadline: an explicit value wins,
// otherwise twice the per-model timeout.
func (c Config) BatchTimeout() time.Duration {
	if c.Timeouts.Batch > 0 {
		return c.Timeouts.Batch
	}
	return 2 * c.Timeouts.ModelCall
}
