package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Scorer    ScorerConfig    `yaml:"scorer" mapstructure:"scorer"`
	Resolver  ResolverConfig  `yaml:"resolver" mapstructure:"resolver"`
	Extract   ExtractConfig   `yaml:"extract" mapstructure:"extract"`
	Sentiment SentimentConfig `yaml:"sentiment" mapstructure:"sentiment"`
	Batch     BatchConfig     `yaml:"batch" mapstructure:"batch"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the run-persistence backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"` // "sqlite" or "postgres"
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	SQLitePath  string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
}

// AnthropicConfig holds Anthropic API settings for the semantic extraction
// tier. An empty key disables the tier entirely; extraction then runs
// pattern-only.
type AnthropicConfig struct {
	Key       string  `yaml:"key" mapstructure:"key"`
	Model     string  `yaml:"model" mapstructure:"model"`
	MaxTokens int64   `yaml:"max_tokens" mapstructure:"max_tokens"`
	RatePerS  float64 `yaml:"rate_per_s" mapstructure:"rate_per_s"`
}

// ScorerConfig holds the WARM rule table: thresholds and penalty points for
// each forensic check, plus the high-risk cut used by the 2-bucket policy
// and the tone divergence check.
type ScorerConfig struct {
	PledgeCriticalPct     float64 `yaml:"pledge_critical_pct" mapstructure:"pledge_critical_pct"`
	PledgeCriticalPenalty float64 `yaml:"pledge_critical_penalty" mapstructure:"pledge_critical_penalty"`
	PledgeModeratePct     float64 `yaml:"pledge_moderate_pct" mapstructure:"pledge_moderate_pct"`
	PledgeModeratePenalty float64 `yaml:"pledge_moderate_penalty" mapstructure:"pledge_moderate_penalty"`

	CashQualityCriticalRatio   float64 `yaml:"cash_quality_critical_ratio" mapstructure:"cash_quality_critical_ratio"`
	CashQualityCriticalPenalty float64 `yaml:"cash_quality_critical_penalty" mapstructure:"cash_quality_critical_penalty"`
	CashQualityWeakRatio       float64 `yaml:"cash_quality_weak_ratio" mapstructure:"cash_quality_weak_ratio"`
	CashQualityWeakPenalty     float64 `yaml:"cash_quality_weak_penalty" mapstructure:"cash_quality_weak_penalty"`

	DSODays    float64 `yaml:"dso_days" mapstructure:"dso_days"`
	DSOPenalty float64 `yaml:"dso_penalty" mapstructure:"dso_penalty"`

	RPTIntensityPct     float64 `yaml:"rpt_intensity_pct" mapstructure:"rpt_intensity_pct"`
	RPTIntensityPenalty float64 `yaml:"rpt_intensity_penalty" mapstructure:"rpt_intensity_penalty"`

	HighRiskThreshold  float64 `yaml:"high_risk_threshold" mapstructure:"high_risk_threshold"`
	SmallSampleCeiling int     `yaml:"small_sample_ceiling" mapstructure:"small_sample_ceiling"`
}

// ResolverConfig configures header-to-attribute resolution.
type ResolverConfig struct {
	SimilarityFloor float64 `yaml:"similarity_floor" mapstructure:"similarity_floor"`
	AliasFile       string  `yaml:"alias_file" mapstructure:"alias_file"`
}

// ExtractConfig configures the hybrid fact extractor.
type ExtractConfig struct {
	RelativeTolerance  float64 `yaml:"relative_tolerance" mapstructure:"relative_tolerance"`
	BackendTimeoutSecs int     `yaml:"backend_timeout_secs" mapstructure:"backend_timeout_secs"`
	PatternConfidence  float64 `yaml:"pattern_confidence" mapstructure:"pattern_confidence"`
}

// SentimentConfig configures the tone divergence scorer.
type SentimentConfig struct {
	PolarityThreshold     float64 `yaml:"polarity_threshold" mapstructure:"polarity_threshold"`
	SubjectivityThreshold float64 `yaml:"subjectivity_threshold" mapstructure:"subjectivity_threshold"`
}

// BatchConfig configures batch scoring concurrency.
type BatchConfig struct {
	MaxConcurrentRecords int `yaml:"max_concurrent_records" mapstructure:"max_concurrent_records"`
}

// ServerConfig configures the scoring API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("FORENSIC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.sqlite_path", "forensic.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("batch.max_concurrent_records", 8)
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.max_tokens", 512)
	v.SetDefault("anthropic.rate_per_s", 2.0)
	v.SetDefault("scorer.pledge_critical_pct", 50)
	v.SetDefault("scorer.pledge_critical_penalty", 25)
	v.SetDefault("scorer.pledge_moderate_pct", 20)
	v.SetDefault("scorer.pledge_moderate_penalty", 10)
	v.SetDefault("scorer.cash_quality_critical_ratio", 0.5)
	v.SetDefault("scorer.cash_quality_critical_penalty", 30)
	v.SetDefault("scorer.cash_quality_weak_ratio", 0.8)
	v.SetDefault("scorer.cash_quality_weak_penalty", 15)
	v.SetDefault("scorer.dso_days", 120)
	v.SetDefault("scorer.dso_penalty", 20)
	v.SetDefault("scorer.rpt_intensity_pct", 10)
	v.SetDefault("scorer.rpt_intensity_penalty", 10)
	v.SetDefault("scorer.high_risk_threshold", 50)
	v.SetDefault("scorer.small_sample_ceiling", 30)
	v.SetDefault("resolver.similarity_floor", 0.55)
	v.SetDefault("extract.relative_tolerance", 0.02)
	v.SetDefault("extract.backend_timeout_secs", 30)
	v.SetDefault("extract.pattern_confidence", 0.6)
	v.SetDefault("sentiment.polarity_threshold", 0.1)
	v.SetDefault("sentiment.subjectivity_threshold", 0.5)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
