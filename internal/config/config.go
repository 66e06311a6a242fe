package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig         `mapstructure:"server"`
	Database   DatabaseConfig       `mapstructure:"database"`
	Redis      RedisConfig          `mapstructure:"redis"`
	Neo4j      Neo4jConfig          `mapstructure:"neo4j"`
	Kafka      KafkaConfig          `mapstructure:"kafka"`
	Auth       AuthConfig           `mapstructure:"auth"`
	Logging    LoggingConfig        `mapstructure:"logging"`
	Engine     RecommendationConfig `mapstructure:"recommendation"`
	Monitoring MonitoringConfig     `mapstructure:"monitoring"`
	Security   SecurityConfig       `mapstructure:"security"`
}

type ServerConfig struct {
	Port              string        `mapstructure:"port"`
	Mode              string        `mapstructure:"mode"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	URL            string        `mapstructure:"url"`
	MaxConnections int           `mapstructure:"max_connections"`
	MaxIdleTime    time.Duration `mapstructure:"max_idle_time"`
	MaxLifetime    time.Duration `mapstructure:"max_lifetime"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

// RedisConfig separates request-path state (rate limits, sessions) from the
// profile snapshot cache.
type RedisConfig struct {
	Hot  RedisInstanceConfig `mapstructure:"hot"`
	Warm RedisInstanceConfig `mapstructure:"warm"`
}

type RedisInstanceConfig struct {
	URL        string        `mapstructure:"url"`
	MaxRetries int           `mapstructure:"max_retries"`
	PoolSize   int           `mapstructure:"pool_size"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

type Neo4jConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	URL      string `mapstructure:"url"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type KafkaConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Brokers []string `mapstructure:"brokers"`
	GroupID string   `mapstructure:"group_id"`
	Topics  struct {
		PreferenceUpdates    string `mapstructure:"preference_updates"`
		PreferenceUpdatesDLQ string `mapstructure:"preference_updates_dlq"`
	} `mapstructure:"topics"`
}

type AuthConfig struct {
	JWTSecret string            `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration     `mapstructure:"token_ttl"`
	APIKeys   map[string]string `mapstructure:"api_keys"` // key -> tier
	RateLimit RateLimitConfig   `mapstructure:"rate_limit"`
}

type RateLimitConfig struct {
	Default int           `mapstructure:"default"`
	Premium int           `mapstructure:"premium"`
	Window  time.Duration `mapstructure:"window"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// RecommendationConfig tunes the scoring engine. Defaults reproduce the
// reference weights; changing them changes ranking output.
type RecommendationConfig struct {
	Weights       ScoreWeights     `mapstructure:"weights"`
	Feedback      FeedbackConfig   `mapstructure:"feedback"`
	Similarity    SimilarityConfig `mapstructure:"similarity"`
	Diversity     DiversityConfig  `mapstructure:"diversity"`
	RecencyMonths float64          `mapstructure:"recency_months"`
	Workers       int              `mapstructure:"workers"`
	PoolSize      int              `mapstructure:"pool_size"`
	Caching       CachingConfig    `mapstructure:"caching"`
}

type ScoreWeights struct {
	ContentBased       float64 `mapstructure:"content_based"`
	Collaborative      float64 `mapstructure:"collaborative"`
	PersonalPreference float64 `mapstructure:"personal_preference"`
	Recency            float64 `mapstructure:"recency"`
}

type FeedbackConfig struct {
	DecayDays       float64 `mapstructure:"decay_days"`
	CompletionBoost float64 `mapstructure:"completion_boost"`
}

type SimilarityConfig struct {
	GenreWeight float64 `mapstructure:"genre_weight"`
	YearWeight  float64 `mapstructure:"year_weight"`
	ThemeWeight float64 `mapstructure:"theme_weight"`
	YearScale   float64 `mapstructure:"year_scale"`
}

type DiversityConfig struct {
	GenreCapDivisor int `mapstructure:"genre_cap_divisor"`
}

type CachingConfig struct {
	ProfileTTL time.Duration `mapstructure:"profile_ttl"`
}

type MonitoringConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	MetricsPath string `mapstructure:"metrics_path"`
}

type SecurityConfig struct {
	CORS CORSConfig `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("app")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	setDefaults(v)

	// Environment variable overrides
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		// Config file is optional, continue with env vars and defaults
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// DefaultRecommendationConfig returns the engine defaults without touching
// the environment. Used by tests and library callers.
func DefaultRecommendationConfig() RecommendationConfig {
	v := viper.New()
	setDefaults(v)

	var config Config
	_ = v.Unmarshal(&config)
	return config.Engine
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "development")
	v.SetDefault("server.read_header_timeout", "10s")
	v.SetDefault("server.shutdown_timeout", "30s")

	// Database defaults
	v.SetDefault("database.max_connections", 25)
	v.SetDefault("database.max_idle_time", "15m")
	v.SetDefault("database.max_lifetime", "1h")
	v.SetDefault("database.connect_timeout", "10s")

	// Redis defaults
	v.SetDefault("redis.hot.max_retries", 3)
	v.SetDefault("redis.hot.pool_size", 10)
	v.SetDefault("redis.hot.timeout", "5s")
	v.SetDefault("redis.warm.max_retries", 3)
	v.SetDefault("redis.warm.pool_size", 5)
	v.SetDefault("redis.warm.timeout", "10s")

	v.SetDefault("neo4j.enabled", true)

	// Kafka defaults
	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.group_id", "preference-appliers")
	v.SetDefault("kafka.topics.preference_updates", "preference-updates")
	v.SetDefault("kafka.topics.preference_updates_dlq", "preference-updates-dlq")

	// Auth defaults
	v.SetDefault("auth.token_ttl", "24h")
	v.SetDefault("auth.rate_limit.default", 1000)
	v.SetDefault("auth.rate_limit.premium", 10000)
	v.SetDefault("auth.rate_limit.window", "1h")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	// Scoring weights
	v.SetDefault("recommendation.weights.content_based", 0.4)
	v.SetDefault("recommendation.weights.collaborative", 0.3)
	v.SetDefault("recommendation.weights.personal_preference", 0.2)
	v.SetDefault("recommendation.weights.recency", 0.1)

	v.SetDefault("recommendation.feedback.decay_days", 30.0)
	v.SetDefault("recommendation.feedback.completion_boost", 1.2)

	v.SetDefault("recommendation.similarity.genre_weight", 0.4)
	v.SetDefault("recommendation.similarity.year_weight", 0.2)
	v.SetDefault("recommendation.similarity.theme_weight", 0.4)
	v.SetDefault("recommendation.similarity.year_scale", 10.0)

	v.SetDefault("recommendation.diversity.genre_cap_divisor", 3)
	v.SetDefault("recommendation.recency_months", 24.0)
	v.SetDefault("recommendation.workers", 8)
	v.SetDefault("recommendation.pool_size", 200)
	v.SetDefault("recommendation.caching.profile_ttl", "10m")

	// Monitoring defaults
	v.SetDefault("monitoring.enabled", true)
	v.SetDefault("monitoring.metrics_path", "/metrics")

	// Security defaults
	v.SetDefault("security.cors.allowed_origins", []string{"*"})
	v.SetDefault("security.cors.allowed_methods", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	v.SetDefault("security.cors.allowed_headers", []string{"*"})
}
