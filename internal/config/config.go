// internal/config/config.go
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
	"github.com/shopspring/decimal"

	"finflow-invest/pkg/db" // Import db package for its Config struct
)

// Store backends selectable with STORE_BACKEND.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// AppConfig holds all application-wide configurations.
type AppConfig struct {
	ServerPort string
	LogLevel   string

	StoreBackend string
	DB           db.Config
	DBMigrate    bool
	RedisURL     string

	ValuationInterval time.Duration
	CommissionRate    decimal.Decimal
	PlansFile         string
	WalletAddresses   map[string]string

	AdminName  string
	AdminEmail string

	RateLimitRPS   float64
	RateLimitBurst int
}

// LoadConfig loads configuration from environment variables.
// A .env file in the working directory is read first when present; variables
// already set in the environment win.
// It returns an AppConfig instance or an error if any variable is invalid.
func LoadConfig() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432")) // Default PostgreSQL port
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}
	dbMigrate, err := strconv.ParseBool(getEnv("DB_MIGRATE", "true"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MIGRATE: %w", err)
	}

	backend := strings.ToLower(getEnv("STORE_BACKEND", BackendMemory))
	switch backend {
	case BackendMemory, BackendPostgres, BackendRedis:
	default:
		return nil, fmt.Errorf("invalid STORE_BACKEND %q: want memory, postgres or redis", backend)
	}

	interval, err := time.ParseDuration(getEnv("VALUATION_INTERVAL", "60s"))
	if err != nil {
		return nil, fmt.Errorf("invalid VALUATION_INTERVAL: %w", err)
	}
	if interval < time.Second {
		return nil, fmt.Errorf("invalid VALUATION_INTERVAL: %s is below one second", interval)
	}

	rate, err := decimal.NewFromString(getEnv("REFERRAL_COMMISSION_RATE", "0.20"))
	if err != nil {
		return nil, fmt.Errorf("invalid REFERRAL_COMMISSION_RATE: %w", err)
	}
	if !rate.IsPositive() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("invalid REFERRAL_COMMISSION_RATE: %s must be in (0, 1]", rate.String())
	}

	rps, err := strconv.ParseFloat(getEnv("RATE_LIMIT_RPS", "20"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_RPS: %w", err)
	}
	burst, err := strconv.Atoi(getEnv("RATE_LIMIT_BURST", "40"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_BURST: %w", err)
	}

	wallets := map[string]string{}
	if v := getEnv("WALLET_TRC20", ""); v != "" {
		wallets["TRC20"] = v
	}
	if v := getEnv("WALLET_BEP20", ""); v != "" {
		wallets["BEP20"] = v
	}

	return &AppConfig{
		ServerPort:   getEnv("SERVER_PORT", "8080"), // Default port
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		StoreBackend: backend,
		DB: db.Config{
			Host:     getEnv("DB_HOST", "localhost"), // Default to localhost for local development
			Port:     dbPort,
			User:     getEnv("DB_USER", "user"),
			Password: getEnv("DB_PASSWORD", "password"),
			DBName:   getEnv("DB_NAME", "investdb"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		DBMigrate:         dbMigrate,
		RedisURL:          getEnv("REDIS_URL", "redis://localhost:6379/0"),
		ValuationInterval: interval,
		CommissionRate:    rate,
		PlansFile:         getEnv("PLANS_FILE", ""),
		WalletAddresses:   wallets,
		AdminName:         getEnv("ADMIN_NAME", "Administrator"),
		AdminEmail:        getEnv("ADMIN_EMAIL", ""),
		RateLimitRPS:      rps,
		RateLimitBurst:    burst,
	}, nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
