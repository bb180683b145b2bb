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
	Zillow    ZillowConfig    `yaml:"zillow" mapstructure:"zillow"`
	Realtor   RealtorConfig   `yaml:"realtor" mapstructure:"realtor"`
	Nominatim NominatimConfig `yaml:"nominatim" mapstructure:"nominatim"`
	Twilio    TwilioConfig    `yaml:"twilio" mapstructure:"twilio"`
	Resend    ResendConfig    `yaml:"resend" mapstructure:"resend"`
	Search    SearchConfig    `yaml:"search" mapstructure:"search"`
	Ranking   RankingConfig   `yaml:"ranking" mapstructure:"ranking"`
	Pricing   PricingConfig   `yaml:"pricing" mapstructure:"pricing"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key            string `yaml:"key" mapstructure:"key"`
	ExtractModel   string `yaml:"extract_model" mapstructure:"extract_model"`
	RankModel      string `yaml:"rank_model" mapstructure:"rank_model"`
	MaxTokens      int    `yaml:"max_tokens" mapstructure:"max_tokens"`
	TimeoutSecs    int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RequestRetries int    `yaml:"request_retries" mapstructure:"request_retries"`
}

// ZillowConfig holds Zillow RapidAPI credentials.
type ZillowConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	Host    string `yaml:"host" mapstructure:"host"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// RealtorConfig holds Realtor RapidAPI credentials.
type RealtorConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	Host    string `yaml:"host" mapstructure:"host"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// NominatimConfig configures the OpenStreetMap geocoder.
type NominatimConfig struct {
	BaseURL   string `yaml:"base_url" mapstructure:"base_url"`
	UserAgent string `yaml:"user_agent" mapstructure:"user_agent"`
}

// TwilioConfig holds Twilio WhatsApp settings.
type TwilioConfig struct {
	AccountSID string `yaml:"account_sid" mapstructure:"account_sid"`
	AuthToken  string `yaml:"auth_token" mapstructure:"auth_token"`
	FromNumber string `yaml:"from_number" mapstructure:"from_number"`
}

// ResendConfig holds Resend email settings.
type ResendConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	BaseURL   string `yaml:"base_url" mapstructure:"base_url"`
	FromEmail string `yaml:"from_email" mapstructure:"from_email"`
	ToEmail   string `yaml:"to_email" mapstructure:"to_email"`
}

// SearchConfig configures the multi-source listing search.
type SearchConfig struct {
	Sources        []string `yaml:"sources" mapstructure:"sources"`
	MaxConcurrent  int      `yaml:"max_concurrent" mapstructure:"max_concurrent"`
	TimeoutSecs    int      `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxPerLocation int      `yaml:"max_per_location" mapstructure:"max_per_location"`
}

// RankingConfig configures score combination.
type RankingConfig struct {
	MustHaveWeight   float64 `yaml:"must_have_weight" mapstructure:"must_have_weight"`
	NiceToHaveWeight float64 `yaml:"nice_to_have_weight" mapstructure:"nice_to_have_weight"`
	FailPenalty      float64 `yaml:"fail_penalty" mapstructure:"fail_penalty"`
}

// PricingConfig holds per-model token pricing (USD per million tokens).
type PricingConfig struct {
	Anthropic map[string]ModelPricing `yaml:"anthropic" mapstructure:"anthropic"`
}

// ModelPricing holds per-model token pricing.
type ModelPricing struct {
	Input  float64 `yaml:"input" mapstructure:"input"`
	Output float64 `yaml:"output" mapstructure:"output"`
}

// ServerConfig configures the HTTP API server.
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
	v.SetEnvPrefix("HOMEMATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults. Credential keys get empty defaults so viper resolves their
	// HOMEMATCH_* environment variables during Unmarshal.
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("store.database_url", "")
	v.SetDefault("anthropic.key", "")
	v.SetDefault("zillow.key", "")
	v.SetDefault("realtor.key", "")
	v.SetDefault("twilio.account_sid", "")
	v.SetDefault("twilio.auth_token", "")
	v.SetDefault("twilio.from_number", "")
	v.SetDefault("resend.key", "")
	v.SetDefault("resend.to_email", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("anthropic.extract_model", "claude-sonnet-4-5-20250929")
	v.SetDefault("anthropic.rank_model", "claude-sonnet-4-5-20250929")
	v.SetDefault("anthropic.max_tokens", 4096)
	v.SetDefault("anthropic.timeout_secs", 120)
	v.SetDefault("anthropic.request_retries", 2)
	v.SetDefault("zillow.host", "real-estate101.p.rapidapi.com")
	v.SetDefault("zillow.base_url", "https://real-estate101.p.rapidapi.com")
	v.SetDefault("realtor.host", "realtor16.p.rapidapi.com")
	v.SetDefault("realtor.base_url", "https://realtor16.p.rapidapi.com")
	v.SetDefault("nominatim.base_url", "https://nominatim.openstreetmap.org")
	v.SetDefault("nominatim.user_agent", "homematch/1.0 (ops@sellsgroup.com)")
	v.SetDefault("resend.base_url", "https://api.resend.com")
	v.SetDefault("resend.from_email", "matches@sellsgroup.com")
	v.SetDefault("search.sources", []string{"zillow", "realtor"})
	v.SetDefault("search.max_concurrent", 4)
	v.SetDefault("search.timeout_secs", 60)
	v.SetDefault("search.max_per_location", 20)
	v.SetDefault("ranking.must_have_weight", 0.6)
	v.SetDefault("ranking.nice_to_have_weight", 0.4)
	v.SetDefault("ranking.fail_penalty", 0.5)

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
