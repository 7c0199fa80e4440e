package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreFirestore = "firestore"
	StorePostgres  = "postgres"
	StoreMemory    = "memory"
)

type Config struct {
	Server  ServerConfig
	Logger  LoggerConfig
	Store   StoreConfig
	Auth    AuthConfig
	Redis   RedisConfig
	Shop    ShopConfig
	OCR     OCRConfig
	Scanner ScannerConfig
}

type ServerConfig struct {
	Port           int
	AppEnv         string
	CORSOrigins    []string
	RequestTimeout time.Duration
}

type LoggerConfig struct {
	Level       string
	Encoding    string
	Development bool
}

type StoreConfig struct {
	Driver               string
	DatabaseURL          string
	FirestoreProjectID   string
	FirestoreCredentials string
	MaxConns             int
	MinConns             int
	QueryLogLevel        string
}

type AuthConfig struct {
	JWTSecret       string
	SessionTTL      time.Duration
	DefaultEmail    string
	DefaultPassword string
	LoginRateLimit  int
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type ShopConfig struct {
	Name              string
	Tagline           string
	Contact           string
	Currency          string
	Location          *time.Location
	ReceiptWidth      int
	LabelFontPath     string
	LowStockThreshold int
}

type OCRConfig struct {
	Languages string
	Binary    string
}

type ScannerConfig struct {
	Gap       time.Duration
	ServerURL string
	Token     string
}

// Load reads ./.env when present and overlays the process environment on
// top of it.
func Load() (Config, error) {
	return LoadFrom(filepath.Join(".", ".env"))
}

func LoadFrom(envPath string) (Config, error) {
	env, err := envReader(envPath)
	if err != nil {
		return Config{}, err
	}

	var cfg Config

	cfg.Server.AppEnv = orDefault(env("APP_ENV"), "development")
	if cfg.Server.Port, err = intValue(env("PORT"), 8080); err != nil || cfg.Server.Port <= 0 {
		return Config{}, fmt.Errorf("invalid PORT: %q", env("PORT"))
	}
	cfg.Server.CORSOrigins = splitList(orDefault(env("CORS_ALLOWED_ORIGINS"), "*"))
	if cfg.Server.RequestTimeout, err = durationValue(env("REQUEST_TIMEOUT"), 60*time.Second); err != nil {
		return Config{}, fmt.Errorf("invalid REQUEST_TIMEOUT: %w", err)
	}

	cfg.Logger.Development = cfg.Server.AppEnv == "development"
	cfg.Logger.Level = orDefault(env("LOGGER_LEVEL"), "info")
	defaultEncoding := "json"
	if cfg.Logger.Development {
		defaultEncoding = "console"
	}
	cfg.Logger.Encoding = orDefault(env("LOGGER_ENCODING"), defaultEncoding)

	cfg.Store.Driver = strings.ToLower(orDefault(env("STORE_DRIVER"), StoreFirestore))
	cfg.Store.DatabaseURL = env("DATABASE_URL")
	cfg.Store.FirestoreProjectID = env("FIRESTORE_PROJECT_ID")
	cfg.Store.FirestoreCredentials = env("FIRESTORE_CREDENTIALS_FILE")
	if cfg.Store.MaxConns, err = intValue(env("DB_MAX_CONNS"), 20); err != nil || cfg.Store.MaxConns <= 0 {
		return Config{}, fmt.Errorf("invalid DB_MAX_CONNS: %q", env("DB_MAX_CONNS"))
	}
	if cfg.Store.MinConns, err = intValue(env("DB_MIN_CONNS"), 2); err != nil || cfg.Store.MinConns < 0 {
		return Config{}, fmt.Errorf("invalid DB_MIN_CONNS: %q", env("DB_MIN_CONNS"))
	}
	cfg.Store.QueryLogLevel = orDefault(env("DB_LOG_LEVEL"), "warn")
	switch cfg.Store.Driver {
	case StoreFirestore:
		if cfg.Store.FirestoreProjectID == "" {
			return Config{}, fmt.Errorf("FIRESTORE_PROJECT_ID is required for the firestore store")
		}
	case StorePostgres:
		if cfg.Store.DatabaseURL == "" {
			return Config{}, fmt.Errorf("DATABASE_URL is required for the postgres store (environment variable or .env)")
		}
	case StoreMemory:
	default:
		return Config{}, fmt.Errorf("invalid STORE_DRIVER: %q", cfg.Store.Driver)
	}

	cfg.Auth.JWTSecret = env("JWT_SECRET")
	if cfg.Auth.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required (environment variable or .env)")
	}
	if len(cfg.Auth.JWTSecret) < 32 {
		return Config{}, fmt.Errorf("JWT_SECRET must be at least 32 characters")
	}
	if cfg.Auth.SessionTTL, err = durationValue(env("SESSION_TTL"), 24*time.Hour); err != nil {
		return Config{}, fmt.Errorf("invalid SESSION_TTL: %w", err)
	}
	cfg.Auth.DefaultEmail = strings.ToLower(env("DEFAULT_USER_EMAIL"))
	cfg.Auth.DefaultPassword = env("DEFAULT_USER_PASSWORD")
	if (cfg.Auth.DefaultEmail == "") != (cfg.Auth.DefaultPassword == "") {
		return Config{}, fmt.Errorf("DEFAULT_USER_EMAIL and DEFAULT_USER_PASSWORD must be set together")
	}
	if cfg.Auth.LoginRateLimit, err = intValue(env("LOGIN_RATE_LIMIT"), 5); err != nil {
		return Config{}, fmt.Errorf("invalid LOGIN_RATE_LIMIT: %q", env("LOGIN_RATE_LIMIT"))
	}

	cfg.Redis.Addr = env("REDIS_ADDR")
	cfg.Redis.Password = env("REDIS_PASSWORD")
	if cfg.Redis.DB, err = intValue(env("REDIS_DB"), 0); err != nil {
		return Config{}, fmt.Errorf("invalid REDIS_DB: %q", env("REDIS_DB"))
	}

	cfg.Shop.Name = orDefault(env("SHOP_NAME"), "Shop")
	cfg.Shop.Tagline = env("SHOP_TAGLINE")
	cfg.Shop.Contact = env("SHOP_CONTACT")
	cfg.Shop.Currency = orDefault(env("SHOP_CURRENCY"), "ج.م")
	cfg.Shop.LabelFontPath = env("LABEL_FONT_PATH")
	if cfg.Shop.Location, err = time.LoadLocation(orDefault(env("SHOP_TIMEZONE"), "Local")); err != nil {
		return Config{}, fmt.Errorf("invalid SHOP_TIMEZONE: %w", err)
	}
	if cfg.Shop.ReceiptWidth, err = intValue(env("RECEIPT_WIDTH"), 32); err != nil || cfg.Shop.ReceiptWidth < 20 {
		return Config{}, fmt.Errorf("invalid RECEIPT_WIDTH: %q", env("RECEIPT_WIDTH"))
	}
	if cfg.Shop.LowStockThreshold, err = intValue(env("LOW_STOCK_THRESHOLD"), 5); err != nil {
		return Config{}, fmt.Errorf("invalid LOW_STOCK_THRESHOLD: %q", env("LOW_STOCK_THRESHOLD"))
	}

	cfg.OCR.Languages = orDefault(env("OCR_LANGUAGES"), "ara+eng")
	cfg.OCR.Binary = orDefault(env("TESSERACT_BIN"), "tesseract")

	if cfg.Scanner, err = scannerConfig(env); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// LoadScanner reads only the scanner client settings, so a till machine does
// not need the server's secrets.
func LoadScanner(envPath string) (ScannerConfig, error) {
	env, err := envReader(envPath)
	if err != nil {
		return ScannerConfig{}, err
	}
	return scannerConfig(env)
}

func scannerConfig(env func(string) string) (ScannerConfig, error) {
	var (
		cfg ScannerConfig
		err error
	)
	if cfg.Gap, err = durationValue(env("SCAN_GAP"), 100*time.Millisecond); err != nil {
		return ScannerConfig{}, fmt.Errorf("invalid SCAN_GAP: %w", err)
	}
	cfg.ServerURL = orDefault(env("SCAN_SERVER_URL"), "http://localhost:8080")
	cfg.Token = env("SCAN_TOKEN")
	return cfg, nil
}

// envReader looks keys up in the process environment first, then in the
// dotenv file at envPath. A missing file is not an error.
func envReader(envPath string) (func(string) string, error) {
	values := map[string]string{}
	if _, err := os.Stat(envPath); err == nil {
		fileValues, err := godotenv.Read(envPath)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", envPath, err)
		}
		values = fileValues
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("stat %s: %w", envPath, err)
	}
	return func(key string) string {
		return firstNonEmpty(os.Getenv(key), values[key])
	}, nil
}

func firstNonEmpty(candidates ...string) string {
	for _, candidate := range candidates {
		if value := strings.TrimSpace(candidate); value != "" {
			return value
		}
	}
	return ""
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func intValue(raw string, fallback int) (int, error) {
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, err
	}
	if value < 0 {
		return 0, fmt.Errorf("value cannot be negative")
	}
	return value, nil
}

func durationValue(raw string, fallback time.Duration) (time.Duration, error) {
	if raw == "" {
		return fallback, nil
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if value <= 0 {
		return 0, fmt.Errorf("duration must be positive")
	}
	return value, nil
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if value := strings.TrimSpace(part); value != "" {
			out = append(out, value)
		}
	}
	return out
}
