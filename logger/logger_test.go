package logger

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DebugLevel, ParseLevel(" DEBUG "))
	assert.Equal(t, WarnLevel, ParseLevel("warn"))
	assert.Equal(t, ErrorLevel, ParseLevel("error"))
	assert.Equal(t, InfoLevel, ParseLevel("verbose"))
	assert.Equal(t, InfoLevel, ParseLevel(""))
}

func TestZapLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, DebugLevel.zapLevel())
	assert.Equal(t, zapcore.InfoLevel, LogLevel("x").zapLevel())
}

func TestHelpersBeforeAndAfterInit(t *testing.T) {
	// no-op before init
	Info("before init", String("k", "v"))

	InitLogger(Config{Level: DebugLevel, OutputPath: filepath.Join(t.TempDir(), "logs", "app.log")})
	assert.NotNil(t, globalLogger)

	Debug("debug", Int("n", 1))
	Warn("warn", ErrorField(errors.New("x")))
	Sync()
}
