package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	ServerAddr string
	GinMode    string

	// Cron expression or descriptor ("@every 5m") for the scheduler tick.
	SchedulerTick    string
	SchedulerWorkers int
	// Upper bound on one template's registry lookups and materialization.
	TemplateTimeout time.Duration
}

func Load() *Config {
	return &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "dispatch"),
		DBPassword: getEnv("DB_PASSWORD", "dispatch"),
		DBName:     getEnv("DB_NAME", "task_dispatch"),

		ServerAddr: getEnv("SERVER_ADDR", ":8080"),
		GinMode:    getEnv("GIN_MODE", "debug"),

		SchedulerTick:    getEnv("SCHEDULER_TICK", "@every 5m"),
		SchedulerWorkers: getEnvInt("SCHEDULER_WORKERS", 8),
		TemplateTimeout:  getEnvDuration("TEMPLATE_TIMEOUT", 30*time.Second),
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
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

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}
