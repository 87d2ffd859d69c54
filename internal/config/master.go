package config

import (
	"os"
	"strconv"
	"time"
)

type AppConfig struct {
	DebugMode      bool
	HTTPPort       int
	PostgresConfig *PostgresConfig
	RedisConfig    *RedisConfig
	SandboxConfig  *SandboxConfig
	GradingConfig  *GradingConfig
	JwtConfig      *JwtConfig
}

func NewSystemConfig() *AppConfig {
	return &AppConfig{
		DebugMode:      os.Getenv("DEBUG_MODE") == "true",
		HTTPPort:       getIntEnv("HTTP_PORT", 8082),
		PostgresConfig: NewPostgresConfig(),
		RedisConfig:    NewRedisConfig(),
		SandboxConfig:  NewSandboxConfig(),
		GradingConfig:  NewGradingConfig(),
		JwtConfig:      NewJwtConfig(),
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return fallback
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
