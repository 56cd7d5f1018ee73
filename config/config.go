package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	Env               string `mapstructure:"ENV"`
	JWTSecret         string `mapstructure:"JWT_SECRET"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// Booking backend.
	APIBaseURL        string `mapstructure:"API_BASE_URL"`
	APITimeoutSeconds int    `mapstructure:"API_TIMEOUT_SECONDS"`

	// Booking window rules.
	StartGraceSeconds int    `mapstructure:"START_GRACE_SECONDS"`
	MaxMonthsAhead    int    `mapstructure:"MAX_MONTHS_AHEAD"`
	Timezone          string `mapstructure:"TIMEZONE"`
	DraftIdleMinutes  int    `mapstructure:"DRAFT_IDLE_MINUTES"`
	MaxDraftsPerUser  int    `mapstructure:"MAX_DRAFTS_PER_USER"`
	MaxDocumentMB     int    `mapstructure:"MAX_DOCUMENT_MB"`

	// Redis configuration.
	RedisAddr               string `mapstructure:"REDIS_ADDR"`
	RedisPassword           string `mapstructure:"REDIS_PASSWORD"`
	RedisCacheDB            int    `mapstructure:"REDIS_CACHE_DB"`
	RedisQueueDB            int    `mapstructure:"REDIS_QUEUE_DB"`
	ResourceCacheTTLMinutes int    `mapstructure:"RESOURCE_CACHE_TTL_MINUTES"`

	// "queue" hands notifications to asynq, "direct" calls the backend inline.
	NotifyMode string `mapstructure:"NOTIFY_MODE"`
	// NotifyServiceToken is the bearer the queue worker sends with.
	NotifyServiceToken string `mapstructure:"NOTIFY_SERVICE_TOKEN"`
}

var AppConfig Config

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	// Set default values.
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("JWT_SECRET", "")
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 100)
	viper.SetDefault("API_BASE_URL", "http://localhost:8000/api")
	viper.SetDefault("API_TIMEOUT_SECONDS", 30)
	viper.SetDefault("START_GRACE_SECONDS", 60)
	viper.SetDefault("MAX_MONTHS_AHEAD", 3)
	viper.SetDefault("TIMEZONE", "Local")
	viper.SetDefault("DRAFT_IDLE_MINUTES", 30)
	viper.SetDefault("MAX_DRAFTS_PER_USER", 5)
	viper.SetDefault("MAX_DOCUMENT_MB", 5)
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_CACHE_DB", 0)
	viper.SetDefault("REDIS_QUEUE_DB", 3)
	viper.SetDefault("RESOURCE_CACHE_TTL_MINUTES", 10)
	viper.SetDefault("NOTIFY_MODE", "queue")
	viper.SetDefault("NOTIFY_SERVICE_TOKEN", "")

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}

// APITimeout is the bound applied to every call against the booking backend.
func APITimeout() time.Duration {
	if AppConfig.APITimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(AppConfig.APITimeoutSeconds) * time.Second
}

// Location resolves TIMEZONE, falling back to the host zone.
func Location() *time.Location {
	name := AppConfig.Timezone
	if name == "" || name == "Local" {
		return time.Local
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		log.Printf("Unknown TIMEZONE %q, using local zone", name)
		return time.Local
	}
	return loc
}
