package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
	CORS     CORSConfig
	Log      LogConfig
	Analyzer AnalyzerConfig
	Balancer BalancerConfig
	Advisory AdvisoryConfig
	Weights  WeightsConfig
	Exports  ExportsConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// AuthConfig holds the shared secret used to verify actor identity tokens.
type AuthConfig struct {
	TokenSecret string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// AnalyzerConfig governs cache behaviour and async refresh for conflict analysis.
type AnalyzerConfig struct {
	CacheTTL       time.Duration
	RefreshWorkers int
	RefreshRetries int
}

// BalancerConfig tunes lunch wave distribution.
type BalancerConfig struct {
	DefaultMethod    string
	RebalanceRetries int
}

// AdvisoryConfig points at the external schedule advisory service.
type AdvisoryConfig struct {
	Enabled bool
	BaseURL string
	Timeout time.Duration
}

// WeightsConfig carries the constraint weight set; it is validated at startup
// and treated as an immutable snapshot afterwards.
type WeightsConfig struct {
	TeacherConflict      int
	RoomConflict         int
	Capacity             int
	WorkloadBalance      int
	TeacherQualification int
	StudentPreference    int
}

// ExportsConfig toggles report export endpoints.
type ExportsConfig struct {
	Enabled bool
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Auth = AuthConfig{TokenSecret: v.GetString("AUTH_TOKEN_SECRET")}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Analyzer = AnalyzerConfig{
		CacheTTL:       parseDuration(v.GetString("ANALYZER_CACHE_TTL"), 5*time.Minute),
		RefreshWorkers: v.GetInt("ANALYZER_REFRESH_WORKERS"),
		RefreshRetries: v.GetInt("ANALYZER_REFRESH_RETRIES"),
	}

	cfg.Balancer = BalancerConfig{
		DefaultMethod:    v.GetString("BALANCER_DEFAULT_METHOD"),
		RebalanceRetries: v.GetInt("BALANCER_REBALANCE_RETRIES"),
	}

	cfg.Advisory = AdvisoryConfig{
		Enabled: v.GetBool("ENABLE_ADVISORY"),
		BaseURL: v.GetString("ADVISORY_BASE_URL"),
		Timeout: parseDuration(v.GetString("ADVISORY_TIMEOUT"), 5*time.Second),
	}

	cfg.Weights = WeightsConfig{
		TeacherConflict:      v.GetInt("WEIGHT_TEACHER_CONFLICT"),
		RoomConflict:         v.GetInt("WEIGHT_ROOM_CONFLICT"),
		Capacity:             v.GetInt("WEIGHT_CAPACITY"),
		WorkloadBalance:      v.GetInt("WEIGHT_WORKLOAD_BALANCE"),
		TeacherQualification: v.GetInt("WEIGHT_TEACHER_QUALIFICATION"),
		StudentPreference:    v.GetInt("WEIGHT_STUDENT_PREFERENCE"),
	}

	cfg.Exports = ExportsConfig{Enabled: v.GetBool("ENABLE_EXPORTS")}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "scheduler")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("AUTH_TOKEN_SECRET", "dev_secret")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ANALYZER_CACHE_TTL", "5m")
	v.SetDefault("ANALYZER_REFRESH_WORKERS", 1)
	v.SetDefault("ANALYZER_REFRESH_RETRIES", 3)

	v.SetDefault("BALANCER_DEFAULT_METHOD", "BALANCED")
	v.SetDefault("BALANCER_REBALANCE_RETRIES", 3)

	v.SetDefault("ENABLE_ADVISORY", false)
	v.SetDefault("ADVISORY_BASE_URL", "http://localhost:11434")
	v.SetDefault("ADVISORY_TIMEOUT", "5s")

	// Weights default to the required strictly descending priority order.
	v.SetDefault("WEIGHT_TEACHER_CONFLICT", 100)
	v.SetDefault("WEIGHT_ROOM_CONFLICT", 90)
	v.SetDefault("WEIGHT_CAPACITY", 80)
	v.SetDefault("WEIGHT_WORKLOAD_BALANCE", 60)
	v.SetDefault("WEIGHT_TEACHER_QUALIFICATION", 50)
	v.SetDefault("WEIGHT_STUDENT_PREFERENCE", 30)

	v.SetDefault("ENABLE_EXPORTS", false)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
