package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"shoppos/internal/config"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.LoggerConfig
		wantErr bool
		enabled zapcore.Level
	}{
		{name: "production json", cfg: config.LoggerConfig{Level: "info", Encoding: "json"}, enabled: zapcore.InfoLevel},
		{name: "development console", cfg: config.LoggerConfig{Level: "debug", Encoding: "console", Development: true}, enabled: zapcore.DebugLevel},
		{name: "bad level", cfg: config.LoggerConfig{Level: "loud"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, err := New(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, log.Core().Enabled(tt.enabled))
			assert.False(t, log.Core().Enabled(tt.enabled-1))
		})
	}
}
