package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
	Map     MapConfig     `yaml:"map" mapstructure:"map"`
	Tiles   TilesConfig   `yaml:"tiles" mapstructure:"tiles"`
	Dataset DatasetConfig `yaml:"dataset" mapstructure:"dataset"`
	Admin   AdminConfig   `yaml:"admin" mapstructure:"admin"`
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port              int      `yaml:"port" mapstructure:"port"`
	CORSOrigins       []string `yaml:"cors_origins" mapstructure:"cors_origins"`
	SessionTTLMinutes int      `yaml:"session_ttl_minutes" mapstructure:"session_ttl_minutes"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// MapConfig configures the public map view.
type MapConfig struct {
	CenterLat          float64 `yaml:"center_lat" mapstructure:"center_lat"`
	CenterLng          float64 `yaml:"center_lng" mapstructure:"center_lng"`
	DefaultZoom        int     `yaml:"default_zoom" mapstructure:"default_zoom"`
	FitPadding         int     `yaml:"fit_padding" mapstructure:"fit_padding"`
	FlowLabelZoom      int     `yaml:"flow_label_zoom" mapstructure:"flow_label_zoom"`
	POILabelZoom       int     `yaml:"poi_label_zoom" mapstructure:"poi_label_zoom"`
	ClusterRadius      float64 `yaml:"cluster_radius" mapstructure:"cluster_radius"`
	DisableClusterZoom int     `yaml:"disable_cluster_zoom" mapstructure:"disable_cluster_zoom"`
}

// TilesConfig configures the basemap proxy.
type TilesConfig struct {
	UpstreamURL     string `yaml:"upstream_url" mapstructure:"upstream_url"`
	Format          string `yaml:"format" mapstructure:"format"`
	Attribution     string `yaml:"attribution" mapstructure:"attribution"`
	CacheEntries    int    `yaml:"cache_entries" mapstructure:"cache_entries"`
	CacheTTLMinutes int    `yaml:"cache_ttl_minutes" mapstructure:"cache_ttl_minutes"`
}

// DatasetConfig locates the map dataset. An empty path uses the built-in one.
type DatasetConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// AdminConfig configures the admin REST API client.
type AdminConfig struct {
	BaseURL          string  `yaml:"base_url" mapstructure:"base_url"`
	Token            string  `yaml:"token" mapstructure:"token"`
	TimeoutSecs      int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RateLimit        float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	RetryAttempts    int     `yaml:"retry_attempts" mapstructure:"retry_attempts"`
	BreakerThreshold int     `yaml:"breaker_threshold" mapstructure:"breaker_threshold"`
	RefreshMinutes   int     `yaml:"refresh_minutes" mapstructure:"refresh_minutes"`
}

// StoreConfig configures the work-area snapshot store.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("CORPSITE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.session_ttl_minutes", 60)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("map.center_lat", 0.9)
	v.SetDefault("map.center_lng", 101.9)
	v.SetDefault("map.default_zoom", 8)
	v.SetDefault("map.fit_padding", 50)
	v.SetDefault("map.flow_label_zoom", 11)
	v.SetDefault("map.poi_label_zoom", 10)
	v.SetDefault("map.cluster_radius", 80)
	v.SetDefault("map.disable_cluster_zoom", 16)
	v.SetDefault("tiles.upstream_url", "https://tile.openstreetmap.org/{z}/{x}/{y}.png")
	v.SetDefault("tiles.format", "png")
	v.SetDefault("tiles.attribution", "&copy; OpenStreetMap contributors")
	v.SetDefault("tiles.cache_entries", 2048)
	v.SetDefault("tiles.cache_ttl_minutes", 60)
	v.SetDefault("dataset.path", "")
	v.SetDefault("admin.base_url", "http://localhost:8000/api")
	v.SetDefault("admin.token", "")
	v.SetDefault("admin.timeout_secs", 10)
	v.SetDefault("admin.rate_limit", 5)
	v.SetDefault("admin.retry_attempts", 3)
	v.SetDefault("admin.breaker_threshold", 5)
	v.SetDefault("admin.refresh_minutes", 5)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "corpsite.db")
	v.SetDefault("store.max_conns", 4)

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

// Validate checks value ranges.
func (c *Config) Validate() error {
	var errs []string
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port %d out of range", c.Server.Port))
	}
	if c.Server.SessionTTLMinutes < 1 {
		errs = append(errs, "server.session_ttl_minutes must be positive")
	}
	if c.Map.CenterLat < -90 || c.Map.CenterLat > 90 || c.Map.CenterLng < -180 || c.Map.CenterLng > 180 {
		errs = append(errs, fmt.Sprintf("map center %v,%v out of range", c.Map.CenterLat, c.Map.CenterLng))
	}
	for name, z := range map[string]int{
		"map.default_zoom":         c.Map.DefaultZoom,
		"map.flow_label_zoom":      c.Map.FlowLabelZoom,
		"map.poi_label_zoom":       c.Map.POILabelZoom,
		"map.disable_cluster_zoom": c.Map.DisableClusterZoom,
	} {
		if z < 0 || z > 19 {
			errs = append(errs, fmt.Sprintf("%s %d outside 0..19", name, z))
		}
	}
	if c.Map.ClusterRadius <= 0 {
		errs = append(errs, "map.cluster_radius must be positive")
	}
	if !strings.Contains(c.Tiles.UpstreamURL, "{z}") {
		errs = append(errs, fmt.Sprintf("tiles.upstream_url %q has no {z} placeholder", c.Tiles.UpstreamURL))
	}
	switch c.Store.Driver {
	case "sqlite", "postgres", "none":
	default:
		errs = append(errs, fmt.Sprintf("store.driver %q must be sqlite, postgres or none", c.Store.Driver))
	}
	if c.Store.Driver == "postgres" && c.Store.DatabaseURL == "" {
		errs = append(errs, "store.database_url is required for postgres")
	}
	if len(errs) > 0 {
		return eris.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
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
