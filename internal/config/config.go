package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	TelegramToken  string
	DBDSN          string
	Environment    string
	MetricsAddr    string
	PushgatewayURL string // "" = cmd/generate не отправляет метрики
	SchoolConfig   string
	DigestSpec     string
	Timezone       string

	Location *time.Location
	School   *School
}

func Load() (*Config, error) {
	// Пытаемся загрузить .env файл (игнорируем ошибку, если файла нет)
	if err := godotenv.Load(".env"); err != nil {
		log.Println("No .env file found, using environment variables")
	} else {
		log.Println("Loaded configuration from .env file")
	}

	return FromEnv()
}

// FromEnv собирает конфигурацию из переменных окружения и файла календаря школы
func FromEnv() (*Config, error) {
	cfg := &Config{
		DBDSN:          os.Getenv("DB_DSN"),
		TelegramToken:  os.Getenv("TELEGRAM_TOKEN"),
		Environment:    getEnv("ENV", "development"),
		MetricsAddr:    getEnv("METRICS_ADDR", ":9090"),
		PushgatewayURL: os.Getenv("PUSHGATEWAY_URL"),
		SchoolConfig:   getEnv("SCHOOL_CONFIG", "school.toml"),
		DigestSpec:     getEnv("DIGEST_SPEC", "0 7 * * *"),
		Timezone:       getEnv("TIMEZONE", "Europe/Rome"),
	}

	// Проверяем обязательные поля
	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required but not set")
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", cfg.Timezone, err)
	}
	cfg.Location = loc

	school, err := LoadSchool(cfg.SchoolConfig)
	if err != nil {
		return nil, err
	}
	cfg.School = school

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
