package logs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"buywise/config"
)

func TestLevelFromString(t *testing.T) {
	t.Parallel()

	require.Equal(t, zapcore.DebugLevel, levelFromString(" DEBUG "))
	require.Equal(t, zapcore.WarnLevel, levelFromString("warning"))
	require.Equal(t, zapcore.ErrorLevel, levelFromString("error"))
	require.Equal(t, zapcore.InfoLevel, levelFromString("bogus"))
}

func TestNewLogger_WritesRotatingFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "buywise.log")
	cfg := &config.Config{LogLevel: "info", LogFile: path, LogMaxSizeMB: 1}

	l, err := NewLogger(cfg)
	require.NoError(t, err)

	l.Info("cache_hit")
	_ = l.Sync()

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(b), `"msg":"cache_hit"`)
}
