package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/jengzang/places-backend-go/internal/logger"
)

// Config holds the application configuration
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Log        logger.Config    `mapstructure:"log"`
	Detection  DetectionConfig  `mapstructure:"detection"`
	Stats      StatsConfig      `mapstructure:"stats"`
	Lock       LockConfig       `mapstructure:"lock"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Enrichment EnrichmentConfig `mapstructure:"enrichment"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port            string        `mapstructure:"port" validate:"required"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" validate:"gte=0"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" validate:"gte=0"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
	Mode            string        `mapstructure:"mode" validate:"oneof=debug release test"`
}

// DatabaseConfig holds SQLite settings
type DatabaseConfig struct {
	Path         string        `mapstructure:"path" validate:"required"`
	BusyTimeout  time.Duration `mapstructure:"busy_timeout" validate:"gte=0"`
	MaxOpenConns int           `mapstructure:"max_open_conns" validate:"gte=1"`
}

// AuthConfig holds bearer token settings. An empty secret disables authentication.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
}

// DetectionConfig holds the stay detection thresholds
type DetectionConfig struct {
	ClusterRadius float64       `mapstructure:"cluster_radius" validate:"gt=0"`
	MaxGap        time.Duration `mapstructure:"max_gap" validate:"gt=0"`
	MinStay       time.Duration `mapstructure:"min_stay" validate:"gte=0"`
	MatchRadius   float64       `mapstructure:"match_radius" validate:"gt=0,lte=10000"`
	PlaceRadius   float64       `mapstructure:"place_radius" validate:"gt=0"`
	BatchSize     int           `mapstructure:"batch_size" validate:"gte=2,lte=100000"`
	RunTimeout    time.Duration `mapstructure:"run_timeout" validate:"gt=0"`
}

// StatsConfig holds travel statistics settings
type StatsConfig struct {
	MaxGap time.Duration `mapstructure:"max_gap" validate:"gte=0"` // 0 disables the gap ceiling
}

// LockConfig selects the per-subject lock backend
type LockConfig struct {
	Backend string        `mapstructure:"backend" validate:"oneof=memory redis"`
	TTL     time.Duration `mapstructure:"ttl" validate:"gt=0"`
	Wait    time.Duration `mapstructure:"wait" validate:"gte=0"`
}

// RedisConfig holds the Redis connection used by the redis lock backend
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port" validate:"gte=0,lte=65535"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db" validate:"gte=0"`
	PoolSize int    `mapstructure:"pool_size" validate:"gte=0"`
}

// EnrichmentConfig holds the reverse geocoding settings
type EnrichmentConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	BaseURL     string        `mapstructure:"base_url" validate:"omitempty,url"`
	UserAgent   string        `mapstructure:"user_agent" validate:"required_if=Enabled true"`
	Timeout     time.Duration `mapstructure:"timeout" validate:"gt=0"`
	MinInterval time.Duration `mapstructure:"min_interval" validate:"gte=0"`
}

// RateLimitConfig holds per-client request limits
type RateLimitConfig struct {
	Requests int           `mapstructure:"requests" validate:"gte=0"` // 0 disables rate limiting
	Window   time.Duration `mapstructure:"window" validate:"gt=0"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)
	v.SetDefault("server.mode", "release")

	v.SetDefault("database.path", "./data/places/places.db")
	v.SetDefault("database.busy_timeout", 5*time.Second)
	v.SetDefault("database.max_open_conns", 10)

	v.SetDefault("auth.jwt_secret", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("detection.cluster_radius", 50.0)
	v.SetDefault("detection.max_gap", 30*time.Minute)
	v.SetDefault("detection.min_stay", 5*time.Minute)
	v.SetDefault("detection.match_radius", 50.0)
	v.SetDefault("detection.place_radius", 50.0)
	v.SetDefault("detection.batch_size", 1000)
	v.SetDefault("detection.run_timeout", 2*time.Minute)

	v.SetDefault("stats.max_gap", time.Duration(0))

	v.SetDefault("lock.backend", "memory")
	v.SetDefault("lock.ttl", 30*time.Second)
	v.SetDefault("lock.wait", 10*time.Second)

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 10)

	v.SetDefault("enrichment.enabled", false)
	v.SetDefault("enrichment.base_url", "https://nominatim.openstreetmap.org")
	v.SetDefault("enrichment.user_agent", "places-backend/1.0")
	v.SetDefault("enrichment.timeout", 30*time.Second)
	v.SetDefault("enrichment.min_interval", time.Second)

	v.SetDefault("rate_limit.requests", 100)
	v.SetDefault("rate_limit.window", time.Minute)
}

// Load reads the configuration. Values come from defaults, then the optional config file
// (configFile, or config.yaml in . and ./config), then PLACES_* environment variables.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("PLACES")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks field constraints and cross-field rules
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	if c.Lock.Backend == "redis" && c.Redis.Host == "" {
		return errors.New("invalid config: redis.host is required for the redis lock backend")
	}

	return nil
}
