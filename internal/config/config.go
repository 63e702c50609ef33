package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App    AppConfig
	API    APIConfig
	Chat   ChatConfig
	Events EventsConfig
	Mock   MockConfig
	Otel   OtelConfig
}

type AppConfig struct {
	Environment string
	LogFilePath string
}

type APIConfig struct {
	BaseURL  string
	Token    string
	Username string
	Password string
	Timeout  time.Duration
}

type ChatConfig struct {
	DirectoryCacheTTL time.Duration
	ProviderCacheTTL  time.Duration
	ReconcileSkew     time.Duration
}

type EventsConfig struct {
	NatsURL      string // empty disables the NATS sink
	RedisURL     string // empty disables the Redis sink
	RedisChannel string
}

// MockConfig only matters to cmd/mockapi.
type MockConfig struct {
	Port      string
	JWTSecret string
	Username  string
	Password  string
}

type OtelConfig struct {
	Enabled  bool
	Endpoint string
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Environment: getEnv("GO_ENV", "development"),
			LogFilePath: getEnv("LOG_FILE_PATH", "docchat.log"),
		},
		API: APIConfig{
			BaseURL:  getEnv("API_BASE_URL", "http://localhost:8000/api"),
			Token:    getEnv("API_TOKEN", ""),
			Username: getEnv("API_USERNAME", ""),
			Password: getEnv("API_PASSWORD", ""),
			Timeout:  getEnvAsSeconds("API_TIMEOUT_SECONDS", 120),
		},
		Chat: ChatConfig{
			DirectoryCacheTTL: getEnvAsSeconds("DIRECTORY_CACHE_TTL_SECONDS", 30),
			ProviderCacheTTL:  getEnvAsSeconds("PROVIDER_CACHE_TTL_SECONDS", 300),
			ReconcileSkew:     getEnvAsSeconds("RECONCILE_SKEW_SECONDS", 120),
		},
		Events: EventsConfig{
			NatsURL:      getEnv("NATS_URL", ""),
			RedisURL:     getEnv("REDIS_URL", ""),
			RedisChannel: getEnv("EVENTS_REDIS_CHANNEL", "chat_events"),
		},
		Mock: MockConfig{
			Port:      getEnv("MOCK_API_PORT", "8000"),
			JWTSecret: getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
			Username:  getEnv("MOCK_USERNAME", "admin"),
			Password:  getEnv("MOCK_PASSWORD", "admin123"),
		},
		Otel: OtelConfig{
			Enabled:  getEnv("OTEL_ENABLED", "false") == "true",
			Endpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsSeconds(key string, fallback int) time.Duration {
	return time.Duration(getEnvAsInt(key, fallback)) * time.Second
}
