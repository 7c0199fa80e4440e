package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"APP_ENV", "PORT", "CORS_ALLOWED_ORIGINS", "REQUEST_TIMEOUT",
		"LOGGER_LEVEL", "LOGGER_ENCODING",
		"STORE_DRIVER", "DATABASE_URL", "FIRESTORE_PROJECT_ID", "FIRESTORE_CREDENTIALS_FILE",
		"DB_MAX_CONNS", "DB_MIN_CONNS", "DB_LOG_LEVEL",
		"JWT_SECRET", "SESSION_TTL", "DEFAULT_USER_EMAIL", "DEFAULT_USER_PASSWORD", "LOGIN_RATE_LIMIT",
		"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB",
		"SHOP_NAME", "SHOP_TAGLINE", "SHOP_CONTACT", "SHOP_CURRENCY", "SHOP_TIMEZONE",
		"RECEIPT_WIDTH", "LABEL_FONT_PATH", "LOW_STOCK_THRESHOLD",
		"OCR_LANGUAGES", "TESSERACT_BIN", "SCAN_GAP", "SCAN_SERVER_URL", "SCAN_TOKEN",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadFrom_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("JWT_SECRET", testSecret)

	cfg, err := LoadFrom(filepath.Join(t.TempDir(), ".env"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "console", cfg.Logger.Encoding)
	assert.Equal(t, StoreMemory, cfg.Store.Driver)
	assert.Equal(t, 20, cfg.Store.MaxConns)
	assert.Equal(t, 2, cfg.Store.MinConns)
	assert.Equal(t, "warn", cfg.Store.QueryLogLevel)
	assert.Equal(t, 24*time.Hour, cfg.Auth.SessionTTL)
	assert.Equal(t, 5, cfg.Auth.LoginRateLimit)
	assert.Equal(t, 32, cfg.Shop.ReceiptWidth)
	assert.Equal(t, 5, cfg.Shop.LowStockThreshold)
	assert.Equal(t, "ara+eng", cfg.OCR.Languages)
	assert.Equal(t, 100*time.Millisecond, cfg.Scanner.Gap)
}

func TestLoadFrom_DotEnvIsOverriddenByEnvironment(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), ".env")
	body := "STORE_DRIVER=postgres\nDATABASE_URL=postgres://file\nJWT_SECRET=" + testSecret + "\nPORT=9000\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	t.Setenv("PORT", "9100")

	cfg, err := LoadFrom(path)
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, StorePostgres, cfg.Store.Driver)
	assert.Equal(t, "postgres://file", cfg.Store.DatabaseURL)
}

func TestLoadFrom_Validation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing secret", map[string]string{"STORE_DRIVER": "memory"}},
		{"short secret", map[string]string{"STORE_DRIVER": "memory", "JWT_SECRET": "short"}},
		{"firestore without project", map[string]string{"JWT_SECRET": testSecret}},
		{"postgres without url", map[string]string{"STORE_DRIVER": "postgres", "JWT_SECRET": testSecret}},
		{"unknown driver", map[string]string{"STORE_DRIVER": "mysql", "JWT_SECRET": testSecret}},
		{"half default user", map[string]string{"STORE_DRIVER": "memory", "JWT_SECRET": testSecret, "DEFAULT_USER_EMAIL": "a@b.c"}},
		{"bad port", map[string]string{"STORE_DRIVER": "memory", "JWT_SECRET": testSecret, "PORT": "abc"}},
		{"zero pool size", map[string]string{"STORE_DRIVER": "memory", "JWT_SECRET": testSecret, "DB_MAX_CONNS": "0"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for key, value := range tt.env {
				t.Setenv(key, value)
			}
			_, err := LoadFrom(filepath.Join(t.TempDir(), ".env"))
			assert.Error(t, err)
		})
	}
}

func TestLoadScanner_NeedsNoServerSecrets(t *testing.T) {
	clearEnv(t)
	t.Setenv("SCAN_TOKEN", "tok")
	t.Setenv("SCAN_GAP", "50ms")

	cfg, err := LoadScanner(filepath.Join(t.TempDir(), ".env"))
	require.NoError(t, err)
	assert.Equal(t, 50*time.Millisecond, cfg.Gap)
	assert.Equal(t, "http://localhost:8080", cfg.ServerURL)
	assert.Equal(t, "tok", cfg.Token)

	t.Setenv("SCAN_GAP", "-1s")
	_, err = LoadScanner(filepath.Join(t.TempDir(), ".env"))
	assert.Error(t, err)
}
