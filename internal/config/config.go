// Package config loads workbench configuration from file and
// environment and owns global logger setup.
package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Providers ProvidersConfig `yaml:"providers" mapstructure:"providers"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Registry  RegistryConfig  `yaml:"registry" mapstructure:"registry"`
	Sectors   SectorsConfig   `yaml:"sectors" mapstructure:"sectors"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the persistence backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"` // "sqlite" or "postgres"
	Path        string `yaml:"path" mapstructure:"path"`     // sqlite file
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ProvidersConfig configures the external enrichment providers.
type ProvidersConfig struct {
	TimeoutSecs int             `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	Geocode     EndpointConfig  `yaml:"geocode" mapstructure:"geocode"`
	Weather     EndpointConfig  `yaml:"weather" mapstructure:"weather"`
	News        EndpointConfig  `yaml:"news" mapstructure:"news"`
	Quote       EndpointConfig  `yaml:"quote" mapstructure:"quote"`
	Wiki        EndpointConfig  `yaml:"wiki" mapstructure:"wiki"`
	StaticMap   StaticMapConfig `yaml:"static_map" mapstructure:"static_map"`
}

// EndpointConfig holds a provider base URL.
type EndpointConfig struct {
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// StaticMapConfig configures the static map renderer.
type StaticMapConfig struct {
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Zoom    int    `yaml:"zoom" mapstructure:"zoom"`
}

// AnthropicConfig holds LLM analyst settings. An empty key selects
// simulation mode.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// RegistryConfig holds company registry API settings. An empty key
// degrades to empty financials.
type RegistryConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// SectorsConfig optionally overrides the built-in sector catalog.
type SectorsConfig struct {
	CatalogPath string `yaml:"catalog_path" mapstructure:"catalog_path"`
}

// ServerConfig configures the HTTP facade.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// ProviderTimeout returns the per-provider timeout as a duration.
func (p ProvidersConfig) ProviderTimeout() time.Duration {
	return time.Duration(p.TimeoutSecs) * time.Second
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("AQUARISK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "aquarisk.db")
	v.SetDefault("providers.timeout_secs", 5)
	v.SetDefault("providers.geocode.base_url", "https://nominatim.openstreetmap.org")
	v.SetDefault("providers.weather.base_url", "https://api.open-meteo.com")
	v.SetDefault("providers.news.base_url", "https://news.google.com/rss/search")
	v.SetDefault("providers.quote.base_url", "https://query1.finance.yahoo.com")
	v.SetDefault("providers.wiki.base_url", "https://fr.wikipedia.org")
	v.SetDefault("providers.static_map.base_url", "https://staticmap.openstreetmap.de")
	v.SetDefault("providers.static_map.zoom", 10)
	v.SetDefault("anthropic.key", "")
	v.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("anthropic.max_tokens", 1024)
	v.SetDefault("registry.key", "")
	v.SetDefault("registry.base_url", "https://api.pappers.fr/v2")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

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
