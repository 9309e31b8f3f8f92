package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Surreal  SurrealConfig
	JWT      JWTConfig
	SMTP     SMTPConfig
	Festival FestivalConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	ClientURL          string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
}

type SurrealConfig struct {
	Endpoint  string
	Namespace string
	Database  string
	Username  string
	Password  string
}

type JWTConfig struct {
	Secret   string
	TTLHours int
}

type SMTPConfig struct {
	Host       string
	Port       int
	Email      string
	Password   string
	SenderName string
}

type FestivalConfig struct {
	// ProgrammeCacheTTLMinutes bounds staleness of the public programme listing.
	ProgrammeCacheTTLMinutes int
	// FlagAlertEmail receives a mail whenever a submission is flagged.
	FlagAlertEmail string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			ClientURL:          getEnv("CLIENT_URL", "http://localhost:5173"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Surreal: SurrealConfig{
			Endpoint:  getEnv("SURREAL_ENDPOINT", "ws://localhost:8000/rpc"),
			Namespace: getEnv("SURREAL_NAMESPACE", "festival"),
			Database:  getEnv("SURREAL_DATABASE", "cms"),
			Username:  getEnv("SURREAL_USERNAME", "root"),
			Password:  getEnv("SURREAL_PASSWORD", "root"),
		},
		JWT: JWTConfig{
			Secret:   getEnv("JWT_SECRET", ""),
			TTLHours: getEnvAsInt("JWT_TTL_HOURS", 24),
		},
		SMTP: SMTPConfig{
			Host:       getEnv("SMTP_HOST", ""),
			Port:       getEnvAsInt("SMTP_PORT", 587),
			Email:      getEnv("SMTP_EMAIL", ""),
			Password:   getEnv("SMTP_PASSWORD", ""),
			SenderName: getEnv("SMTP_SENDER_NAME", "Festival CMS"),
		},
		Festival: FestivalConfig{
			ProgrammeCacheTTLMinutes: getEnvAsInt("PROGRAMME_CACHE_TTL_MINUTES", 5),
			FlagAlertEmail:           getEnv("FLAG_ALERT_EMAIL", ""),
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
