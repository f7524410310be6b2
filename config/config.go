package config

import (
	"os"
	"strconv"
	"time"

	"storefront/internal/database"

	"go.uber.org/zap"
)

type Config struct {
	Port string
	DB   DB

	Redis Redis

	// Внешний email-сервис (HTTP, {to, subject, html|text})
	EmailServiceURL string
	EmailTimeout    time.Duration

	// Секрет подписи access-токенов внешнего auth-сервиса
	JWTSecret string

	// Состояние оформления заказа в Redis
	CheckoutStateTTL time.Duration
	OTPResendWindow  time.Duration
}

type DB struct {
	database.Config
}

type Redis struct {
	Addr     string
	Password string
	DB       int
}

func Load(log *zap.Logger) *Config {
	return &Config{
		Port: getEnvDefault("APP_PORT", ":8080"),
		DB: DB{
			Config: database.Config{
				Host:     getEnv("DB_HOST", log),
				Port:     getEnv("DB_PORT", log),
				User:     getEnv("DB_USER", log),
				Password: getEnv("DB_PASSWORD", log),
				Name:     getEnv("DB_NAME", log),
				SSLMode:  getEnvDefault("DB_SSLMODE", "disable"),
			},
		},
		Redis: Redis{
			Addr:     getEnv("REDIS_ADDR", log),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       atoiDefault(os.Getenv("REDIS_DB"), 0),
		},
		EmailServiceURL:  getEnvDefault("EMAIL_SERVICE_URL", "http://localhost:3001/send-email"),
		EmailTimeout:     time.Duration(atoiDefault(os.Getenv("EMAIL_TIMEOUT_SEC"), 10)) * time.Second,
		JWTSecret:        getEnv("JWT_SECRET", log),
		CheckoutStateTTL: time.Duration(atoiDefault(os.Getenv("CHECKOUT_STATE_TTL_MIN"), 30)) * time.Minute,
		OTPResendWindow:  time.Duration(atoiDefault(os.Getenv("OTP_RESEND_WINDOW_SEC"), 60)) * time.Second,
	}
}

func getEnv(key string, log *zap.Logger) string {
	if val, exists := os.LookupEnv(key); exists {
		return val
	}
	log.Error("Обязательная переменная окружения не установлена", zap.String("key", key))
	panic("missing required environment variable: " + key)
}

func getEnvDefault(key, def string) string {
	if val, exists := os.LookupEnv(key); exists && val != "" {
		return val
	}
	return def
}

func atoiDefault(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
