package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"invoice-recon/internal/matcher"
)

type Config struct {
	Database       DatabaseConfig
	Server         ServerConfig
	App            AppConfig
	Reconciliation ReconciliationConfig
	Report         ReportConfig
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type ServerConfig struct {
	Port string
}

type AppConfig struct {
	LogLevel  string
	BatchSize int
}

// ReconciliationConfig carries the tolerance policy handed to the engine
type ReconciliationConfig struct {
	MatchToleranceExact decimal.Decimal
	RoundingUpperBound  decimal.Decimal
	PaymentMarker       string
	OnMalformedRecord   string
}

// ReportConfig.OutputDir, when set, receives the workbook and Markdown
// summary of every completed run
type ReportConfig struct {
	OutputDir string
}

// Load reads the configuration from the environment. A .env file in the
// working directory is loaded first when present; real environment variables
// win over it.
func Load() (*Config, error) {
	_ = godotenv.Load()

	batchSize, err := strconv.Atoi(getEnv("BATCH_SIZE", "10000"))
	if err != nil {
		batchSize = 10000
	}

	exact, err := decimal.NewFromString(getEnv("MATCH_TOLERANCE_EXACT", "0.01"))
	if err != nil {
		return nil, fmt.Errorf("invalid MATCH_TOLERANCE_EXACT: %w", err)
	}

	rounding, err := decimal.NewFromString(getEnv("ROUNDING_UPPER_BOUND", "1.0"))
	if err != nil {
		return nil, fmt.Errorf("invalid ROUNDING_UPPER_BOUND: %w", err)
	}

	return &Config{
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "recon_db"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
		},
		App: AppConfig{
			LogLevel:  getEnv("LOG_LEVEL", "info"),
			BatchSize: batchSize,
		},
		Reconciliation: ReconciliationConfig{
			MatchToleranceExact: exact,
			RoundingUpperBound:  rounding,
			PaymentMarker:       getEnv("PAYMENT_MARKER", "Payment INV"),
			OnMalformedRecord:   getEnv("ON_MALFORMED_RECORD", "skip"),
		},
		Report: ReportConfig{
			OutputDir: getEnv("REPORT_OUTPUT_DIR", ""),
		},
	}, nil
}

// EngineConfig converts the settings into a validated engine policy
func (r ReconciliationConfig) EngineConfig() (matcher.Config, error) {
	policy, err := matcher.ParseMalformedPolicy(r.OnMalformedRecord)
	if err != nil {
		return matcher.Config{}, err
	}

	cfg := matcher.Config{
		MatchToleranceExact: r.MatchToleranceExact,
		RoundingUpperBound:  r.RoundingUpperBound,
		PaymentMarker:       r.PaymentMarker,
		OnMalformedRecord:   policy,
	}
	if err := cfg.Validate(); err != nil {
		return matcher.Config{}, err
	}
	return cfg, nil
}

func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
