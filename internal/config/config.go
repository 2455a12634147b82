package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database  DatabaseConfig
	JWT       JWTConfig
	App       AppConfig
	Storage   StorageConfig
	Redis     RedisConfig
	Analytics AnalyticsConfig
	Scheduler SchedulerConfig
	Metrics   MetricsConfig
	RateLimit RateLimitConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConns int
	MinConns int
}

// JWTConfig holds the secret used to verify bearer tokens
type JWTConfig struct {
	Secret string
}

// AppConfig holds application configuration
type AppConfig struct {
	Port           int
	Env            string
	LogLevel       string
	AllowedOrigins []string
}

// StorageConfig selects where model snapshots live
type StorageConfig struct {
	Type     string // local | bolt
	BasePath string
	BoltPath string
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
	TTL      time.Duration
}

// AnalyticsConfig tunes feature extraction and clustering
type AnalyticsConfig struct {
	DefaultClusters       int
	PunctualityThreshold  string // HH:MM
	PunctualityGrace      time.Duration
	TargetDailyHours      float64
	Timezone              string
	NInit                 int
	MaxIterations         int
	Tolerance             float64
	Seed                  int64
	MaxFitRetries         int
	FitTimeout            time.Duration
	ExtractionConcurrency int
	RulesFile             string
	WorkerRole            string
}

type SchedulerConfig struct {
	Enabled      bool
	RetrainCron  string
	FitOnStartup bool
}

type MetricsConfig struct {
	Enabled bool
	Path    string
}

// RateLimitConfig throttles retrain requests per client
type RateLimitConfig struct {
	RetrainPerMinute int
	Burst            int
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	config := &Config{}
	var err error

	// Database configuration
	config.Database = DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "cmlabs-hris"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
	}
	if config.Database.Port, err = getEnvAsInt("DB_PORT", 5432); err != nil {
		return nil, err
	}
	if config.Database.MaxConns, err = getEnvAsInt("DB_MAX_CONNS", 10); err != nil {
		return nil, err
	}
	if config.Database.MinConns, err = getEnvAsInt("DB_MIN_CONNS", 1); err != nil {
		return nil, err
	}

	// Application configuration
	config.App = AppConfig{
		Env:            getEnv("APP_ENV", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		AllowedOrigins: getEnvSlice("ALLOWED_ORIGINS"),
	}
	if config.App.Port, err = getEnvAsInt("APP_PORT", 8080); err != nil {
		return nil, err
	}
	if len(config.App.AllowedOrigins) == 0 {
		config.App.AllowedOrigins = []string{"http://localhost:3000"}
	}

	// JWT configuration
	config.JWT = JWTConfig{
		Secret: getEnv("JWT_SECRET_KEY", ""),
	}

	// Snapshot storage
	config.Storage = StorageConfig{
		Type:     getEnv("STORAGE_TYPE", "local"),
		BasePath: getEnv("STORAGE_BASE_PATH", "./models"),
		BoltPath: getEnv("STORAGE_BOLT_PATH", "./models/snapshots.db"),
	}

	// Redis configuration
	config.Redis = RedisConfig{
		Host:     getEnv("REDIS_HOST", "localhost"),
		Password: getEnv("REDIS_PASSWORD", ""),
	}
	if config.Redis.Enabled, err = getEnvAsBool("REDIS_ENABLED", false); err != nil {
		return nil, err
	}
	if config.Redis.Port, err = getEnvAsInt("REDIS_PORT", 6379); err != nil {
		return nil, err
	}
	if config.Redis.DB, err = getEnvAsInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if config.Redis.TTL, err = getEnvAsDuration("REDIS_TTL", 10*time.Minute); err != nil {
		return nil, err
	}

	// Analytics configuration
	if config.Analytics, err = loadAnalytics(); err != nil {
		return nil, err
	}

	// Scheduler configuration
	config.Scheduler = SchedulerConfig{
		RetrainCron: getEnv("SCHEDULER_RETRAIN_CRON", "0 2 1 * *"),
	}
	if config.Scheduler.Enabled, err = getEnvAsBool("SCHEDULER_ENABLED", true); err != nil {
		return nil, err
	}
	if config.Scheduler.FitOnStartup, err = getEnvAsBool("FIT_ON_STARTUP", false); err != nil {
		return nil, err
	}

	config.Metrics = MetricsConfig{
		Path: getEnv("METRICS_PATH", "/metrics"),
	}
	if config.Metrics.Enabled, err = getEnvAsBool("METRICS_ENABLED", true); err != nil {
		return nil, err
	}

	if config.RateLimit.RetrainPerMinute, err = getEnvAsInt("RETRAIN_RATE_PER_MINUTE", 6); err != nil {
		return nil, err
	}
	if config.RateLimit.Burst, err = getEnvAsInt("RETRAIN_RATE_BURST", 2); err != nil {
		return nil, err
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

func loadAnalytics() (AnalyticsConfig, error) {
	a := AnalyticsConfig{
		PunctualityThreshold: getEnv("PUNCTUALITY_THRESHOLD", "09:00"),
		Timezone:             getEnv("ANALYTICS_TIMEZONE", "Asia/Jakarta"),
		RulesFile:            getEnv("INSIGHT_RULES_FILE", ""),
		WorkerRole:           getEnv("ANALYTICS_WORKER_ROLE", "employee"),
	}
	var err error
	if a.DefaultClusters, err = getEnvAsInt("DEFAULT_CLUSTERS", 3); err != nil {
		return a, err
	}
	if a.PunctualityGrace, err = getEnvAsDuration("PUNCTUALITY_GRACE", 15*time.Minute); err != nil {
		return a, err
	}
	if a.TargetDailyHours, err = getEnvAsFloat("TARGET_DAILY_HOURS", 8); err != nil {
		return a, err
	}
	if a.NInit, err = getEnvAsInt("KMEANS_N_INIT", 10); err != nil {
		return a, err
	}
	if a.MaxIterations, err = getEnvAsInt("KMEANS_MAX_ITER", 300); err != nil {
		return a, err
	}
	if a.Tolerance, err = getEnvAsFloat("KMEANS_TOLERANCE", 1e-4); err != nil {
		return a, err
	}
	seed, err := getEnvAsInt("KMEANS_SEED", 42)
	if err != nil {
		return a, err
	}
	a.Seed = int64(seed)
	if a.MaxFitRetries, err = getEnvAsInt("KMEANS_MAX_RETRIES", 3); err != nil {
		return a, err
	}
	if a.FitTimeout, err = getEnvAsDuration("FIT_TIMEOUT", 2*time.Minute); err != nil {
		return a, err
	}
	if a.ExtractionConcurrency, err = getEnvAsInt("EXTRACTION_CONCURRENCY", 8); err != nil {
		return a, err
	}
	return a, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if c.Storage.Type != "local" && c.Storage.Type != "bolt" {
		return fmt.Errorf("STORAGE_TYPE must be local or bolt, got %q", c.Storage.Type)
	}
	if c.Analytics.DefaultClusters < 1 {
		return fmt.Errorf("DEFAULT_CLUSTERS must be at least 1")
	}
	if _, err := time.Parse("15:04", c.Analytics.PunctualityThreshold); err != nil {
		return fmt.Errorf("PUNCTUALITY_THRESHOLD must be HH:MM: %w", err)
	}
	if _, err := time.LoadLocation(c.Analytics.Timezone); err != nil {
		return fmt.Errorf("invalid ANALYTICS_TIMEZONE: %w", err)
	}
	if c.Analytics.TargetDailyHours <= 0 {
		return fmt.Errorf("TARGET_DAILY_HOURS must be positive")
	}
	if c.Analytics.ExtractionConcurrency < 1 {
		return fmt.Errorf("EXTRACTION_CONCURRENCY must be at least 1")
	}
	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// RedisAddr returns host:port for the redis client
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getEnvAsFloat(key string, fallback float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func getEnvAsBool(key string, fallback bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

func getEnvAsDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getEnvSlice(env string) []string {
	value := getEnv(env, "")
	if value == "" {
		return []string{}
	}
	var result []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}
