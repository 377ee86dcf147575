package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	BackendDynamo = "dynamodb"
	BackendMongo  = "mongo"
	BackendMemory = "memory"
)

type Config struct {
	Port      string
	StaticDir string
	DevMode   bool
	LogLevel  slog.Level

	SessionKey string

	StoreBackend string

	AWSRegion          string
	DynamoEndpoint     string
	DynamoCreateTables bool
	Tables             Tables

	MongoURI string
	MongoDB  string

	PaymentStatusURL string
	PaymentTimeout   time.Duration
}

// Tables holds the DynamoDB table names of each record collection.
type Tables struct {
	Users         string
	Registrations string
	Progress      string
	Materials     string
}

// Load reads .env (if any) and the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	timeout, err := time.ParseDuration(getenv("PAYMENT_TIMEOUT", "10s"))
	if err != nil {
		return Config{}, fmt.Errorf("PAYMENT_TIMEOUT: %w", err)
	}

	cfg := Config{
		Port:      getenv("PORT", "8080"),
		StaticDir: getenv("STATIC_DIR", "./web"),
		DevMode:   os.Getenv("DEV") == "1",
		LogLevel:  parseLevel(getenv("LOG_LEVEL", "info")),

		SessionKey: os.Getenv("SESSION_KEY"),

		StoreBackend: strings.ToLower(getenv("STORE_BACKEND", BackendDynamo)),

		AWSRegion:          getenv("AWS_REGION", "us-east-1"),
		DynamoEndpoint:     os.Getenv("DYNAMO_ENDPOINT"),
		DynamoCreateTables: os.Getenv("DYNAMO_CREATE_TABLES") == "1",
		Tables: Tables{
			Users:         getenv("USERS_TABLE", "users"),
			Registrations: getenv("REGISTRATIONS_TABLE", "course-registrations"),
			Progress:      getenv("PROGRESS_TABLE", "student-progress"),
			Materials:     getenv("MATERIALS_TABLE", "course-materials"),
		},

		MongoURI: os.Getenv("MONGODB_URI"),
		MongoDB:  getenv("MONGODB_DB", "learnhub"),

		PaymentStatusURL: os.Getenv("PAYMENT_STATUS_URL"),
		PaymentTimeout:   timeout,
	}

	if cfg.SessionKey == "" && cfg.DevMode {
		cfg.SessionKey = "learnhub-dev-session-key-change-me"
	}
	return cfg, nil
}

// Validate checks everything the HTTP server needs.
func (c Config) Validate() error {
	if err := c.ValidateStore(); err != nil {
		return err
	}
	if len(c.SessionKey) < 32 {
		return errors.New("SESSION_KEY must be at least 32 bytes")
	}
	return nil
}

// ValidateStore checks only the store selection, for tools that never issue
// sessions.
func (c Config) ValidateStore() error {
	switch c.StoreBackend {
	case BackendDynamo, BackendMemory:
	case BackendMongo:
		if c.MongoURI == "" {
			return errors.New("MONGODB_URI is required for the mongo backend")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}
	return nil
}

func getenv(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
