package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port    string
	GinMode string

	LogLevel string

	// Submission log storage
	DBDriver   string
	DBPath     string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Backend origins, named after the variables the frontend build has always used.
	APIURL            string
	APIBrowserURL     string
	BackendURL        string
	BackendBrowserURL string

	InternalBackendHost string
	BrowserBackendHost  string

	WebhookVerifyToken string

	HTTPTimeout     time.Duration
	CacheGCInterval time.Duration
	ImageCacheTTL   time.Duration

	// EnvFileLoaded is false when no .env file was found.
	EnvFileLoaded bool
	// ConfigFile is the config file viper read, if any.
	ConfigFile string
}

var defaults = map[string]any{
	"PORT":                            "8080",
	"GIN_MODE":                        "debug",
	"LOG_LEVEL":                       "info",
	"DB_DRIVER":                       "sqlite",
	"DB_PATH":                         "./archway.db",
	"DB_HOST":                         "localhost",
	"DB_PORT":                         "5432",
	"DB_USER":                         "postgres",
	"DB_PASSWORD":                     "",
	"DB_NAME":                         "archway",
	"DB_SSLMODE":                      "disable",
	"NEXT_PUBLIC_API_URL":             "",
	"NEXT_PUBLIC_API_BROWSER_URL":     "",
	"NEXT_PUBLIC_BACKEND_URL":         "http://backend:8000",
	"NEXT_PUBLIC_BACKEND_BROWSER_URL": "http://localhost:8000",
	"INTERNAL_BACKEND_HOST":           "backend:8000",
	"BROWSER_BACKEND_HOST":            "localhost:8000",
	"WEBHOOK_VERIFY_TOKEN":            "",
	"HTTP_TIMEOUT":                    "10s",
	"CACHE_GC_INTERVAL":               "5m",
	"IMAGE_CACHE_TTL":                 "24h",
}

// LoadConfig reads .env (if present), an optional config.yaml and the process
// environment, in increasing order of precedence.
func LoadConfig() (*Config, error) {
	envLoaded := godotenv.Load() == nil

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg, err := FromViper(v)
	if err != nil {
		return nil, err
	}
	cfg.EnvFileLoaded = envLoaded

	return cfg, nil
}

// FromViper builds a Config from v, applying defaults and environment overrides.
func FromViper(v *viper.Viper) (*Config, error) {
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	cfg := &Config{
		Port:     v.GetString("PORT"),
		GinMode:  v.GetString("GIN_MODE"),
		LogLevel: v.GetString("LOG_LEVEL"),

		DBDriver:   strings.ToLower(v.GetString("DB_DRIVER")),
		DBPath:     v.GetString("DB_PATH"),
		DBHost:     v.GetString("DB_HOST"),
		DBPort:     v.GetString("DB_PORT"),
		DBUser:     v.GetString("DB_USER"),
		DBPassword: v.GetString("DB_PASSWORD"),
		DBName:     v.GetString("DB_NAME"),
		DBSSLMode:  v.GetString("DB_SSLMODE"),

		APIURL:            v.GetString("NEXT_PUBLIC_API_URL"),
		APIBrowserURL:     v.GetString("NEXT_PUBLIC_API_BROWSER_URL"),
		BackendURL:        strings.TrimSuffix(v.GetString("NEXT_PUBLIC_BACKEND_URL"), "/"),
		BackendBrowserURL: strings.TrimSuffix(v.GetString("NEXT_PUBLIC_BACKEND_BROWSER_URL"), "/"),

		InternalBackendHost: v.GetString("INTERNAL_BACKEND_HOST"),
		BrowserBackendHost:  v.GetString("BROWSER_BACKEND_HOST"),

		WebhookVerifyToken: v.GetString("WEBHOOK_VERIFY_TOKEN"),

		HTTPTimeout:     v.GetDuration("HTTP_TIMEOUT"),
		CacheGCInterval: v.GetDuration("CACHE_GC_INTERVAL"),
		ImageCacheTTL:   v.GetDuration("IMAGE_CACHE_TTL"),

		ConfigFile: v.ConfigFileUsed(),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.DBDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q: want sqlite or postgres", c.DBDriver)
	}

	if c.HTTPTimeout <= 0 {
		return errors.New("HTTP_TIMEOUT must be positive")
	}
	if c.CacheGCInterval <= 0 {
		return errors.New("CACHE_GC_INTERVAL must be positive")
	}
	if c.ImageCacheTTL <= 0 {
		return errors.New("IMAGE_CACHE_TTL must be positive")
	}

	return nil
}

// PostgresDSN returns the connection string for the postgres driver.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBSSLMode)
}
