package log

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestInitTestLogger(t *testing.T) {
	lg, props, err := InitTestLogger(t, &Config{Level: "debug"})
	require.NoError(t, err)
	require.NotNil(t, props)

	lg.Debug("registered proxy", FieldTypeName("OnnxForce"), FieldCodec("xml"))
	assert.True(t, props.Level.Enabled(zapcore.DebugLevel))
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	_, _, err := InitLogger(&Config{Level: "noisy"})
	assert.Error(t, err)
}

func TestInitLoggerFile(t *testing.T) {
	dir := t.TempDir()
	lg, _, err := InitLogger(&Config{
		Level: "info",
		File:  FileLogConfig{RootPath: dir, Filename: "serial.log"},
	})
	require.NoError(t, err)
	lg.Info("document written", zap.Int("bytes", 42))
	require.NoError(t, lg.Sync())

	data, err := os.ReadFile(filepath.Join(dir, "serial.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "document written")

	_, _, err = InitLogger(&Config{File: FileLogConfig{RootPath: dir, Filename: "."}})
	assert.Error(t, err)
}

func TestBinder(t *testing.T) {
	var b Binder
	assert.NotNil(t, b.Logger())

	lg, _, err := InitTestLogger(t, &Config{Level: "info"})
	require.NoError(t, err)
	ml := &MLogger{Logger: lg}
	b.SetLogger(ml)
	assert.Same(t, ml, b.Logger())

	child := ml.With(FieldModule("serialization")).Named("registry")
	child.Info("child logger")
}

func TestLevel(t *testing.T) {
	old := GetLevel()
	defer SetLevel(old)

	SetLevel(zapcore.WarnLevel)
	assert.Equal(t, zapcore.WarnLevel, GetLevel())
	assert.Equal(t, zapcore.WarnLevel, Level().Level())
}
