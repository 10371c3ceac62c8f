package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Database DatabaseConfig
	JWT      JWTConfig
	App      AppConfig
	Payroll  PayrollConfig
	Payslip  PayslipConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	AccessExpiration string
}

// AppConfig holds application configuration
type AppConfig struct {
	Port     int
	Env      string
	LogLevel string
}

// PayrollConfig tunes the computation engine
type PayrollConfig struct {
	BatchWorkers   int
	AutoRunEnabled bool
	AutoRunDay     int
}

type PayslipConfig struct {
	Dir string
}

func Load() (*Config, error) {
	// A missing .env file is fine in containerized deployments where the
	// environment is injected directly.
	_ = godotenv.Load()

	config := &Config{}

	// Database configuration
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	config.Database = DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     dbPort,
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "payroll-engine"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
	}

	// Application configuration
	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	config.App = AppConfig{
		Port:     appPort,
		Env:      getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	// JWT configuration
	config.JWT = JWTConfig{
		Secret:           getEnv("JWT_SECRET_KEY", ""),
		AccessExpiration: getEnv("JWT_ACCESS_EXPIRATION_TIME", "1h"),
	}

	// Payroll engine configuration
	batchWorkers, err := strconv.Atoi(getEnv("PAYROLL_BATCH_WORKERS", "4"))
	if err != nil {
		return nil, fmt.Errorf("invalid PAYROLL_BATCH_WORKERS: %w", err)
	}
	autoRunDay, err := strconv.Atoi(getEnv("PAYROLL_AUTORUN_DAY", "1"))
	if err != nil {
		return nil, fmt.Errorf("invalid PAYROLL_AUTORUN_DAY: %w", err)
	}

	config.Payroll = PayrollConfig{
		BatchWorkers:   batchWorkers,
		AutoRunEnabled: getEnv("PAYROLL_AUTORUN_ENABLED", "false") == "true",
		AutoRunDay:     autoRunDay,
	}

	config.Payslip = PayslipConfig{
		Dir: getEnv("PAYSLIP_DIR", "storage/payslips"),
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if c.Payroll.BatchWorkers < 1 {
		return fmt.Errorf("PAYROLL_BATCH_WORKERS must be at least 1")
	}
	if c.Payroll.AutoRunDay < 1 || c.Payroll.AutoRunDay > 28 {
		return fmt.Errorf("PAYROLL_AUTORUN_DAY must be between 1 and 28")
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

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
