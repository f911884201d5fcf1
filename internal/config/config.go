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
	Data      DataConfig      `yaml:"data" mapstructure:"data"`
	Routing   RoutingConfig   `yaml:"routing" mapstructure:"routing"`
	Overpass  OverpassConfig  `yaml:"overpass" mapstructure:"overpass"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Policy    PolicyConfig    `yaml:"policy" mapstructure:"policy"`
	Scan      ScanConfig      `yaml:"scan" mapstructure:"scan"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the incident store backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"` // csv, sqlite, postgres
	Path        string `yaml:"path" mapstructure:"path"`     // csv/sqlite file
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// DataConfig configures external dataset locations and the cache directory.
type DataConfig struct {
	Dir          string `yaml:"dir" mapstructure:"dir"`
	RoadsURL     string `yaml:"roads_url" mapstructure:"roads_url"`
	LuminanceURL string `yaml:"luminance_url" mapstructure:"luminance_url"`
	// RoadsShapefile and LuminanceRaster point at already-downloaded files
	// and bypass the fetch step.
	RoadsShapefile  string `yaml:"roads_shapefile" mapstructure:"roads_shapefile"`
	LuminanceRaster string `yaml:"luminance_raster" mapstructure:"luminance_raster"`
	ReportsDir      string `yaml:"reports_dir" mapstructure:"reports_dir"`
}

// RoutingConfig configures the walking-route service.
type RoutingConfig struct {
	OSRMBase    string `yaml:"osrm_base" mapstructure:"osrm_base"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// OverpassConfig configures the OpenStreetMap road source.
type OverpassConfig struct {
	Endpoint    string `yaml:"endpoint" mapstructure:"endpoint"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// AnthropicConfig holds Anthropic API settings for narrative generation.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int    `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// PolicyConfig configures the campus policy context service.
type PolicyConfig struct {
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// ScanConfig configures campus scan runs.
type ScanConfig struct {
	Hour              int     `yaml:"hour" mapstructure:"hour"`
	TopN              int     `yaml:"top_n" mapstructure:"top_n"`
	MinRiskScore      float64 `yaml:"min_risk_score" mapstructure:"min_risk_score"`
	Concurrency       int     `yaml:"concurrency" mapstructure:"concurrency"`
	LocationsCSV      string  `yaml:"locations_csv" mapstructure:"locations_csv"`
	SurveyWeightsFile string  `yaml:"survey_weights_file" mapstructure:"survey_weights_file"`
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
	v.SetEnvPrefix("CAMPUSWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "csv")
	v.SetDefault("store.path", "data/incidents.csv")
	v.SetDefault("data.dir", "data")
	v.SetDefault("data.reports_dir", "reports")
	v.SetDefault("data.roads_url", "https://www2.census.gov/geo/tiger/TIGER2025/ROADS/tl_2025_29019_roads.zip")
	v.SetDefault("routing.osrm_base", "https://router.project-osrm.org/route/v1/foot")
	v.SetDefault("routing.timeout_secs", 15)
	v.SetDefault("overpass.endpoint", "https://overpass-api.de/api/interpreter")
	v.SetDefault("overpass.timeout_secs", 25)
	v.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("anthropic.max_tokens", 1500)
	v.SetDefault("policy.timeout_secs", 10)
	v.SetDefault("scan.hour", 22)
	v.SetDefault("scan.top_n", 5)
	v.SetDefault("scan.min_risk_score", 0.5)
	v.SetDefault("scan.concurrency", 8)
	v.SetDefault("server.port", 8080)
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

// Validate checks the fields the given mode depends on. Modes: scan,
// serve, narrative.
func (c *Config) Validate(mode string) error {
	var problems []string

	checkCommon := func() {
		if c.Scan.Concurrency < 1 || c.Scan.Concurrency > 64 {
			problems = append(problems, "scan.concurrency must be between 1 and 64")
		}
		if c.Scan.MinRiskScore < 0 || c.Scan.MinRiskScore > 10 {
			problems = append(problems, "scan.min_risk_score must be between 0 and 10")
		}
		switch c.Store.Driver {
		case "csv", "sqlite":
			if c.Store.Path == "" {
				problems = append(problems, "store.path is required for driver "+c.Store.Driver)
			}
		case "postgres":
			if c.Store.DatabaseURL == "" {
				problems = append(problems, "store.database_url is required for driver postgres")
			}
		default:
			problems = append(problems, "store.driver must be csv, sqlite, or postgres")
		}
	}

	switch mode {
	case "scan":
		checkCommon()
	case "serve":
		checkCommon()
		if c.Server.Port <= 0 {
			problems = append(problems, "server.port must be > 0")
		}
	case "narrative":
		checkCommon()
		if c.Anthropic.Key == "" {
			problems = append(problems, "anthropic.key is required")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.New("config: " + strings.Join(problems, "; "))
	}
	return nil
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
