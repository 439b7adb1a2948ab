package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"
)

type AppConfig struct {
	Environment string
	Port        string
	ServiceName string

	Store StoreConfig

	JWTSecret  string
	SessionTTL time.Duration

	RateLimitEnabled bool
	RateLimitConfigs map[string]RateLimitConfig

	EnforceHTTPS   bool
	AllowedOrigins []string

	TelemetryEnabled bool
	LokiURL          string
	OTLPEndpoint     string
	MetricsPort      string
}

type StoreConfig struct {
	Driver        string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
	DatabasePath  string
	DatabaseURL   string
	LogQueries    bool
}

type RateLimitConfig struct {
	Requests int
	Window   time.Duration
	// ByUser keys the counter on the session principal instead of the client IP.
	ByUser bool
}

func (c *AppConfig) IsDevelopment() bool {
	return c.Environment == EnvDevelopment
}

func (c *AppConfig) IsProduction() bool {
	return c.Environment == EnvProduction
}

func GetDefaultConfig() *AppConfig {
	return &AppConfig{
		Environment: EnvProduction,
		Port:        "8080",
		ServiceName: "taskmanager",
		Store: StoreConfig{
			Driver:       "memory",
			RedisAddr:    "localhost:6379",
			RedisPrefix:  "taskmanager:",
			DatabasePath: "taskmanager.db",
		},
		JWTSecret:        "development-secret",
		SessionTTL:       7 * 24 * time.Hour,
		RateLimitEnabled: true,
		RateLimitConfigs: DefaultRateLimits(),
		EnforceHTTPS:     true,
		AllowedOrigins:   []string{"http://localhost:3000"},
		MetricsPort:      "9090",
		OTLPEndpoint:     "localhost:4317",
	}
}

// DefaultRateLimits is keyed by "METHOD route" as registered on the router.
func DefaultRateLimits() map[string]RateLimitConfig {
	return map[string]RateLimitConfig{
		"POST /auth/signup":   {Requests: 5, Window: time.Minute},
		"POST /auth/login":    {Requests: 10, Window: time.Minute},
		"GET /tasks":          {Requests: 100, Window: time.Minute, ByUser: true},
		"POST /tasks":         {Requests: 30, Window: time.Minute, ByUser: true},
		"GET /tasks/:id":      {Requests: 100, Window: time.Minute, ByUser: true},
		"PATCH /tasks/:id":    {Requests: 30, Window: time.Minute, ByUser: true},
		"DELETE /tasks/:id":   {Requests: 30, Window: time.Minute, ByUser: true},
		DefaultRateLimitRoute: {Requests: 60, Window: time.Minute},
	}
}

// Load reads an optional config.yaml from the working directory and then
// lets environment variables override every key. An unset ENVIRONMENT means
// production, which requires JWT_SECRET.
func Load() (*AppConfig, error) {
	defaults := GetDefaultConfig()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AutomaticEnv()

	v.SetDefault("environment", defaults.Environment)
	v.SetDefault("port", defaults.Port)
	v.SetDefault("service_name", defaults.ServiceName)
	v.SetDefault("store_driver", defaults.Store.Driver)
	v.SetDefault("redis_addr", defaults.Store.RedisAddr)
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("redis_prefix", defaults.Store.RedisPrefix)
	v.SetDefault("database_path", defaults.Store.DatabasePath)
	v.SetDefault("database_url", "")
	v.SetDefault("log_queries", false)
	v.SetDefault("jwt_secret", "")
	v.SetDefault("session_ttl", defaults.SessionTTL)
	v.SetDefault("rate_limit_enabled", defaults.RateLimitEnabled)
	v.SetDefault("allowed_origins", strings.Join(defaults.AllowedOrigins, ","))
	v.SetDefault("telemetry_enabled", false)
	v.SetDefault("loki_url", "")
	v.SetDefault("otlp_endpoint", defaults.OTLPEndpoint)
	v.SetDefault("metrics_port", defaults.MetricsPort)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError

		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	// HTTPS enforcement follows the environment unless set explicitly.
	v.SetDefault("enforce_https", strings.EqualFold(v.GetString("environment"), EnvProduction))

	cfg := &AppConfig{
		Environment: strings.ToLower(v.GetString("environment")),
		Port:        v.GetString("port"),
		ServiceName: v.GetString("service_name"),
		Store: StoreConfig{
			Driver:        strings.ToLower(v.GetString("store_driver")),
			RedisAddr:     v.GetString("redis_addr"),
			RedisPassword: v.GetString("redis_password"),
			RedisDB:       v.GetInt("redis_db"),
			RedisPrefix:   v.GetString("redis_prefix"),
			DatabasePath:  v.GetString("database_path"),
			DatabaseURL:   v.GetString("database_url"),
			LogQueries:    v.GetBool("log_queries"),
		},
		JWTSecret:        v.GetString("jwt_secret"),
		SessionTTL:       v.GetDuration("session_ttl"),
		RateLimitEnabled: v.GetBool("rate_limit_enabled"),
		RateLimitConfigs: DefaultRateLimits(),
		EnforceHTTPS:     v.GetBool("enforce_https"),
		AllowedOrigins:   splitList(v.GetString("allowed_origins")),
		TelemetryEnabled: v.GetBool("telemetry_enabled"),
		LokiURL:          v.GetString("loki_url"),
		OTLPEndpoint:     v.GetString("otlp_endpoint"),
		MetricsPort:      v.GetString("metrics_port"),
	}

	if cfg.JWTSecret == "" {
		if cfg.IsProduction() {
			return nil, errors.New("JWT_SECRET is required in production")
		}

		cfg.JWTSecret = defaults.JWTSecret
	}

	return cfg, nil
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))

	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}

	return out
}
