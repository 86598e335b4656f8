package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	DB        DBConfig
	Provider  ProviderConfig
	Session   SessionConfig
	Profile   ProfileConfig
	Log       LogConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig
	Email     EmailConfig
	Metrics   MetricsConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
}

// IsProduction reports whether the server runs in production mode.
func (s *ServerConfig) IsProduction() bool {
	return strings.EqualFold(s.Environment, "production")
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`
	// URL, when set, takes precedence over the individual fields.
	URL string `mapstructure:"url"`
}

// DSN returns the PostgreSQL connection string.
func (d *DBConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// ProviderConfig holds identity provider (Supabase Auth) settings.
type ProviderConfig struct {
	URL            string        `mapstructure:"url"`
	AnonKey        string        `mapstructure:"anon_key"`
	ServiceRoleKey string        `mapstructure:"service_role_key"`
	JWTSecret      string        `mapstructure:"jwt_secret"`
	SettingsPath   string        `mapstructure:"settings_path"`
	Timeout        time.Duration `mapstructure:"timeout"`
	FederatedName  string        `mapstructure:"federated_name"`
}

// APIKey returns the key sent in the apikey header, preferring the service role key.
func (p *ProviderConfig) APIKey() string {
	if p.ServiceRoleKey != "" {
		return p.ServiceRoleKey
	}
	return p.AnonKey
}

// SessionConfig holds cookie settings for the session surface.
type SessionConfig struct {
	AccessCookieName  string `mapstructure:"access_cookie_name"`
	RefreshCookieName string `mapstructure:"refresh_cookie_name"`
	CookiePath        string `mapstructure:"cookie_path"`
	CookieDomain      string `mapstructure:"cookie_domain"`
}

// ProfileConfig selects how profile completeness is computed.
type ProfileConfig struct {
	Completeness string `mapstructure:"completeness"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// RateLimitConfig holds auth route rate limiting settings.
type RateLimitConfig struct {
	Driver        string        `mapstructure:"driver"`
	Max           int           `mapstructure:"max"`
	Window        time.Duration `mapstructure:"window"`
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"`
}

// EmailConfig holds email delivery settings.
type EmailConfig struct {
	Provider    string `mapstructure:"provider"`
	Region      string `mapstructure:"region"`
	AccessKey   string `mapstructure:"access_key"`
	SecretKey   string `mapstructure:"secret_key"`
	FromAddress string `mapstructure:"from_address"`
	FromName    string `mapstructure:"from_name"`
	FrontendURL string `mapstructure:"frontend_url"`
}

// MetricsConfig holds Prometheus exposition settings.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Load reads configuration from environment variables with the AUTHBRIDGE_ prefix.
// A .env file in the working directory is loaded first when present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix("AUTHBRIDGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":3000")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.environment", "development")

	// DB defaults
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "authbridge")
	v.SetDefault("db.password", "authbridge_secret")
	v.SetDefault("db.name", "authbridge_db")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 25)
	v.SetDefault("db.max_idle", 10)
	v.SetDefault("db.url", "")

	// Provider defaults
	v.SetDefault("provider.url", "http://localhost:54321")
	v.SetDefault("provider.anon_key", "")
	v.SetDefault("provider.service_role_key", "")
	v.SetDefault("provider.jwt_secret", "")
	v.SetDefault("provider.settings_path", "/auth/v1/settings")
	v.SetDefault("provider.timeout", "10s")
	v.SetDefault("provider.federated_name", "google")

	// Session cookie defaults
	v.SetDefault("session.access_cookie_name", "sb-access-token")
	v.SetDefault("session.refresh_cookie_name", "refresh_token")
	v.SetDefault("session.cookie_path", "/api")
	v.SetDefault("session.cookie_domain", "")

	v.SetDefault("profile.completeness", "federated")

	// Log defaults
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "console")

	// CORS defaults (localhost origins for development)
	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000,http://localhost:5173,http://127.0.0.1:5173")

	// Rate limit defaults
	v.SetDefault("rate_limit.driver", "memory")
	v.SetDefault("rate_limit.max", 20)
	v.SetDefault("rate_limit.window", "15m")
	v.SetDefault("rate_limit.redis_addr", "localhost:6379")
	v.SetDefault("rate_limit.redis_password", "")
	v.SetDefault("rate_limit.redis_db", 0)

	// Email defaults
	v.SetDefault("email.provider", "noop")
	v.SetDefault("email.region", "ap-south-1")
	v.SetDefault("email.from_address", "noreply@authbridge.local")
	v.SetDefault("email.from_name", "AuthBridge")
	v.SetDefault("email.frontend_url", "http://localhost:3000")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":                 "AUTHBRIDGE_SERVER_PORT",
		"server.read_timeout":         "AUTHBRIDGE_SERVER_READ_TIMEOUT",
		"server.write_timeout":        "AUTHBRIDGE_SERVER_WRITE_TIMEOUT",
		"server.environment":          "AUTHBRIDGE_SERVER_ENVIRONMENT",
		"db.host":                     "AUTHBRIDGE_DB_HOST",
		"db.port":                     "AUTHBRIDGE_DB_PORT",
		"db.user":                     "AUTHBRIDGE_DB_USER",
		"db.password":                 "AUTHBRIDGE_DB_PASSWORD",
		"db.name":                     "AUTHBRIDGE_DB_NAME",
		"db.sslmode":                  "AUTHBRIDGE_DB_SSLMODE",
		"db.max_open":                 "AUTHBRIDGE_DB_MAX_OPEN",
		"db.max_idle":                 "AUTHBRIDGE_DB_MAX_IDLE",
		"db.url":                      "DATABASE_URL",
		"provider.url":                "SUPABASE_URL",
		"provider.anon_key":           "SUPABASE_KEY",
		"provider.service_role_key":   "SUPABASE_SERVICE_ROLE_KEY",
		"provider.jwt_secret":         "SUPABASE_JWT_SECRET",
		"provider.settings_path":      "AUTHBRIDGE_PROVIDER_SETTINGS_PATH",
		"provider.timeout":            "AUTHBRIDGE_PROVIDER_TIMEOUT",
		"provider.federated_name":     "AUTHBRIDGE_PROVIDER_FEDERATED_NAME",
		"session.access_cookie_name":  "AUTHBRIDGE_SESSION_ACCESS_COOKIE_NAME",
		"session.refresh_cookie_name": "AUTHBRIDGE_SESSION_REFRESH_COOKIE_NAME",
		"session.cookie_path":         "AUTHBRIDGE_SESSION_COOKIE_PATH",
		"session.cookie_domain":       "AUTHBRIDGE_SESSION_COOKIE_DOMAIN",
		"profile.completeness":        "AUTHBRIDGE_PROFILE_COMPLETENESS",
		"log.level":                   "AUTHBRIDGE_LOG_LEVEL",
		"log.format":                  "AUTHBRIDGE_LOG_FORMAT",
		"cors.allowed_origins":        "AUTHBRIDGE_CORS_ALLOWED_ORIGINS",
		"rate_limit.driver":           "AUTHBRIDGE_RATE_LIMIT_DRIVER",
		"rate_limit.max":              "AUTHBRIDGE_RATE_LIMIT_MAX",
		"rate_limit.window":           "AUTHBRIDGE_RATE_LIMIT_WINDOW",
		"rate_limit.redis_addr":       "AUTHBRIDGE_RATE_LIMIT_REDIS_ADDR",
		"rate_limit.redis_password":   "AUTHBRIDGE_RATE_LIMIT_REDIS_PASSWORD",
		"rate_limit.redis_db":         "AUTHBRIDGE_RATE_LIMIT_REDIS_DB",
		"email.provider":              "AUTHBRIDGE_EMAIL_PROVIDER",
		"email.region":                "AUTHBRIDGE_EMAIL_REGION",
		"email.access_key":            "AUTHBRIDGE_EMAIL_ACCESS_KEY",
		"email.secret_key":            "AUTHBRIDGE_EMAIL_SECRET_KEY",
		"email.from_address":          "AUTHBRIDGE_EMAIL_FROM_ADDRESS",
		"email.from_name":             "AUTHBRIDGE_EMAIL_FROM_NAME",
		"email.frontend_url":          "AUTHBRIDGE_EMAIL_FRONTEND_URL",
		"metrics.enabled":             "AUTHBRIDGE_METRICS_ENABLED",
		"metrics.path":                "AUTHBRIDGE_METRICS_PATH",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Hosting platforms set PORT. Use it if AUTHBRIDGE_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("AUTHBRIDGE_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
	}
	cfg.DB = DBConfig{
		Host:     v.GetString("db.host"),
		Port:     v.GetInt("db.port"),
		User:     v.GetString("db.user"),
		Password: v.GetString("db.password"),
		Name:     v.GetString("db.name"),
		SSLMode:  v.GetString("db.sslmode"),
		MaxOpen:  v.GetInt("db.max_open"),
		MaxIdle:  v.GetInt("db.max_idle"),
		URL:      v.GetString("db.url"),
	}
	cfg.Provider = ProviderConfig{
		URL:            strings.TrimRight(v.GetString("provider.url"), "/"),
		AnonKey:        v.GetString("provider.anon_key"),
		ServiceRoleKey: v.GetString("provider.service_role_key"),
		JWTSecret:      v.GetString("provider.jwt_secret"),
		SettingsPath:   v.GetString("provider.settings_path"),
		Timeout:        v.GetDuration("provider.timeout"),
		FederatedName:  v.GetString("provider.federated_name"),
	}
	cfg.Session = SessionConfig{
		AccessCookieName:  v.GetString("session.access_cookie_name"),
		RefreshCookieName: v.GetString("session.refresh_cookie_name"),
		CookiePath:        v.GetString("session.cookie_path"),
		CookieDomain:      v.GetString("session.cookie_domain"),
	}
	cfg.Profile = ProfileConfig{
		Completeness: strings.ToLower(v.GetString("profile.completeness")),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}
	cfg.CORS = CORSConfig{
		AllowedOrigins: splitCSV(v.GetString("cors.allowed_origins")),
	}
	cfg.RateLimit = RateLimitConfig{
		Driver:        strings.ToLower(v.GetString("rate_limit.driver")),
		Max:           v.GetInt("rate_limit.max"),
		Window:        v.GetDuration("rate_limit.window"),
		RedisAddr:     v.GetString("rate_limit.redis_addr"),
		RedisPassword: v.GetString("rate_limit.redis_password"),
		RedisDB:       v.GetInt("rate_limit.redis_db"),
	}
	cfg.Email = EmailConfig{
		Provider:    v.GetString("email.provider"),
		Region:      v.GetString("email.region"),
		AccessKey:   v.GetString("email.access_key"),
		SecretKey:   v.GetString("email.secret_key"),
		FromAddress: v.GetString("email.from_address"),
		FromName:    v.GetString("email.from_name"),
		FrontendURL: v.GetString("email.frontend_url"),
	}
	cfg.Metrics = MetricsConfig{
		Enabled: v.GetBool("metrics.enabled"),
		Path:    v.GetString("metrics.path"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Profile.Completeness {
	case "federated", "extended":
	default:
		return fmt.Errorf("config: unknown profile completeness policy %q", c.Profile.Completeness)
	}
	switch c.RateLimit.Driver {
	case "memory", "redis", "off":
	default:
		return fmt.Errorf("config: unknown rate limit driver %q", c.RateLimit.Driver)
	}
	if c.Provider.URL == "" {
		return errors.New("config: provider url is required")
	}
	// Global sign-out mints a user token with the project secret.
	if c.Provider.JWTSecret == "" {
		return errors.New("config: provider jwt secret is required")
	}
	return nil
}

// splitCSV parses a comma-separated list, dropping blanks.
func splitCSV(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}
