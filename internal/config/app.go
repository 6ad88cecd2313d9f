package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"prompthub/internal/logger"

	"github.com/sirupsen/logrus"
)

// AppConfig holds all application configuration
type AppConfig struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Generation GenerationConfig
	Classifier ClassifierConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port string
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// RedisConfig holds config cache connection settings. An empty Addr means
// the in-process cache backend is used instead.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// GenerationConfig holds defaults for the generation boundary. Credential,
// model and temperature are per-tenant; these only fill gaps.
type GenerationConfig struct {
	DefaultModel        string
	DefaultTemperature  float64
	SummarizationPrompt string
}

// ClassifierConfig holds the optional answering-machine pre-check service
type ClassifierConfig struct {
	URL              string
	DefaultThreshold float64
	Timeout          time.Duration
}

// LoadConfig loads and validates application configuration from environment
func LoadConfig() (*AppConfig, error) {
	config := &AppConfig{}

	config.Server = ServerConfig{
		Port: getEnvOrDefault("SERVER_PORT", "8080"),
	}

	config.Database = DatabaseConfig{
		Host:     getEnvOrDefault("DB_HOST", "postgres"),
		Port:     getEnvOrDefault("DB_PORT", "5432"),
		User:     getEnvOrDefault("DB_USER", "postgres"),
		Password: getEnvOrDefault("DB_PASSWORD", "postgres"),
		Name:     getEnvOrDefault("DB_NAME", "prompthub"),
		SSLMode:  getEnvOrDefault("DB_SSLMODE", "disable"),
	}

	config.Redis = RedisConfig{
		Addr:     os.Getenv("REDIS_ADDR"),
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       getEnvAsInt("REDIS_DB", 0),
	}
	if config.Redis.Addr == "" {
		logger.Log.Warn("REDIS_ADDR not set, using in-process config cache")
	}

	config.Generation = GenerationConfig{
		DefaultModel:        getEnvOrDefault("GENERATION_DEFAULT_MODEL", "gemini-2.5-flash"),
		DefaultTemperature:  getEnvAsFloat("GENERATION_DEFAULT_TEMPERATURE", 0.7),
		SummarizationPrompt: getEnvOrDefault("GENERATION_SUMMARIZATION_PROMPT", getDefaultSummarizationPrompt()),
	}

	config.Classifier = ClassifierConfig{
		URL:              os.Getenv("CLASSIFIER_URL"),
		DefaultThreshold: getEnvAsFloat("CLASSIFIER_THRESHOLD", 0.75),
		Timeout:          getEnvAsDuration("CLASSIFIER_TIMEOUT", 5*time.Second),
	}

	return config, nil
}

// GetDSN returns the database connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// Helper functions for environment variable parsing

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		logger.Log.WithFields(logrus.Fields{"key": key, "default": defaultValue}).Warn("Invalid integer value, using default")
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		logger.Log.WithFields(logrus.Fields{"key": key, "default": defaultValue}).Warn("Invalid float value, using default")
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		logger.Log.WithFields(logrus.Fields{"key": key, "default": defaultValue}).Warn("Invalid duration value, using default")
		return defaultValue
	}
	return value
}

func getDefaultSummarizationPrompt() string {
	return `Summarize the following dialogue history briefly and to the point. Preserve facts, intentions and open questions. Provide only the summary, without any preamble.`
}
