// Package config loads process configuration from the environment
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Defaults used when the environment leaves a value unset
const (
	DefaultAPIURL     = "http://localhost:8000"
	DefaultAPITimeout = 10 * time.Second
)

// Token store backends
const (
	TokenStoreFile   = "file"
	TokenStoreMemory = "memory"
	TokenStoreRedis  = "redis"
)

// Config holds everything the dashboard needs at startup
type Config struct {
	Env    string
	API    APIConfig
	Logger LoggerConfig
	Store  StoreConfig
	Report ReportConfig
}

type APIConfig struct {
	BaseURL string
	Timeout time.Duration
}

type LoggerConfig struct {
	Level string
}

type StoreConfig struct {
	Backend       string
	Profile       string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// ReportConfig configures optional archiving of exported reports
type ReportConfig struct {
	Bucket         string
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioUseSSL    bool
	MinioRegion    string
}

// ArchiveEnabled reports whether exported reports should be uploaded
func (r ReportConfig) ArchiveEnabled() bool {
	return r.Bucket != "" && r.MinioEndpoint != ""
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return b
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}

// Load reads a .env file when present and then the process environment
func Load() *Config {
	// A missing .env file is the normal case outside development
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds the config from the current environment only
func FromEnv() *Config {
	return &Config{
		Env: getEnvOrDefault("DASHBOARD_ENV", "development"),
		API: APIConfig{
			BaseURL: strings.TrimRight(getEnvOrDefault("DASHBOARD_API_URL", DefaultAPIURL), "/"),
			Timeout: getEnvDuration("DASHBOARD_API_TIMEOUT", DefaultAPITimeout),
		},
		Logger: LoggerConfig{
			Level: strings.ToLower(getEnvOrDefault("DASHBOARD_LOG_LEVEL", "info")),
		},
		Store: StoreConfig{
			Backend:       strings.ToLower(getEnvOrDefault("DASHBOARD_TOKEN_STORE", TokenStoreFile)),
			Profile:       getEnvOrDefault("DASHBOARD_PROFILE", "default"),
			RedisAddr:     getEnvOrDefault("DASHBOARD_REDIS_ADDR", "localhost:6379"),
			RedisPassword: os.Getenv("DASHBOARD_REDIS_PASSWORD"),
			RedisDB:       getEnvInt("DASHBOARD_REDIS_DB", 0),
		},
		Report: ReportConfig{
			Bucket:         os.Getenv("DASHBOARD_REPORT_BUCKET"),
			MinioEndpoint:  os.Getenv("DASHBOARD_MINIO_ENDPOINT"),
			MinioAccessKey: os.Getenv("DASHBOARD_MINIO_ACCESS_KEY"),
			MinioSecretKey: os.Getenv("DASHBOARD_MINIO_SECRET_KEY"),
			MinioUseSSL:    getEnvBool("DASHBOARD_MINIO_USE_SSL", false),
			MinioRegion:    getEnvOrDefault("DASHBOARD_MINIO_REGION", "us-east-1"),
		},
	}
}
