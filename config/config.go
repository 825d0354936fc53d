package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/EManishKumarSFDEV/SfDeploymentTracker/pkg/logger"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
	DriverRedis    = "redis"
)

type Config struct {
	Port          string        `yaml:"port"`
	DatabaseURL   string        `yaml:"databaseURL"`
	StoreDriver   string        `yaml:"storeDriver"`
	RedisURL      string        `yaml:"redisURL"`
	SessionDriver string        `yaml:"sessionDriver"`
	JWTSecret     string        `yaml:"jwtSecret"`
	SessionTTL    time.Duration `yaml:"sessionTTL"`
	PageSize      int           `yaml:"pageSize"`
	CORSOrigin    string        `yaml:"corsOrigin"`
	LogLevel      string        `yaml:"logLevel"`
}

// Load reads .env (if present), the environment, and then the YAML file
// named by CONFIG_FILE. Non-empty YAML values override the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Sugar.Info("No .env file found, using environment variables from OS")
	}

	cfg := Config{
		Port:          getenv("PORT", "8080"),
		DatabaseURL:   databaseURL(),
		StoreDriver:   getenv("STORE_DRIVER", DriverPostgres),
		RedisURL:      getenv("REDIS_URL", "redis://localhost:6379/0"),
		SessionDriver: getenv("SESSION_DRIVER", DriverRedis),
		JWTSecret:     strings.TrimSpace(os.Getenv("JWT_SECRET")),
		SessionTTL:    getenvDuration("SESSION_TTL", 24*time.Hour),
		PageSize:      getenvInt("PAGE_SIZE", 10),
		CORSOrigin:    getenv("CORS_ORIGIN", "*"),
		LogLevel:      getenv("LOG_LEVEL", "info"),
	}

	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if err := cfg.overlay(path); err != nil {
			return cfg, err
		}
	}
	return cfg, cfg.Validate()
}

func (c *Config) overlay(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	var file Config
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	if file.Port != "" {
		c.Port = file.Port
	}
	if file.DatabaseURL != "" {
		c.DatabaseURL = file.DatabaseURL
	}
	if file.StoreDriver != "" {
		c.StoreDriver = file.StoreDriver
	}
	if file.RedisURL != "" {
		c.RedisURL = file.RedisURL
	}
	if file.SessionDriver != "" {
		c.SessionDriver = file.SessionDriver
	}
	if file.JWTSecret != "" {
		c.JWTSecret = file.JWTSecret
	}
	if file.SessionTTL > 0 {
		c.SessionTTL = file.SessionTTL
	}
	if file.PageSize > 0 {
		c.PageSize = file.PageSize
	}
	if file.CORSOrigin != "" {
		c.CORSOrigin = file.CORSOrigin
	}
	if file.LogLevel != "" {
		c.LogLevel = file.LogLevel
	}
	return nil
}

func (c Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET must be set")
	}
	if c.StoreDriver != DriverPostgres && c.StoreDriver != DriverMemory {
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.SessionDriver != DriverRedis && c.SessionDriver != DriverMemory {
		return fmt.Errorf("unknown SESSION_DRIVER %q", c.SessionDriver)
	}
	if c.StoreDriver == DriverPostgres && c.DatabaseURL == "" {
		return errors.New("DATABASE_URL (or user/password/host/port/dbname) must be set for the postgres driver")
	}
	if c.PageSize <= 0 {
		return errors.New("PAGE_SIZE must be positive")
	}
	return nil
}

// databaseURL prefers DATABASE_URL and falls back to the discrete
// user/password/host/port/dbname variables.
func databaseURL() string {
	if url := strings.TrimSpace(os.Getenv("DATABASE_URL")); url != "" {
		return url
	}
	dbUser := strings.TrimSpace(os.Getenv("user"))
	dbPass := strings.TrimSpace(os.Getenv("password"))
	dbHost := strings.TrimSpace(os.Getenv("host"))
	dbPort := strings.TrimSpace(os.Getenv("port"))
	dbName := strings.TrimSpace(os.Getenv("dbname"))
	if dbHost == "" || dbName == "" {
		return ""
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=require", dbUser, dbPass, dbHost, dbPort, dbName)
}

func getenv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func getenvInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}
