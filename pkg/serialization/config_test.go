package serialization

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/xmlserial-go/pkg/serialization/codec"
	"github.com/lk2023060901/xmlserial-go/pkg/util/merr"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
serialization:
  codec: json
  maxDepth: 12
  compressionLevel: 3
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, codec.NameJSON, cfg.Codec)
	assert.Equal(t, 12, cfg.MaxDepth)
	assert.Equal(t, 3, cfg.CompressionLevel)
	assert.Equal(t, codec.DefaultIndent, cfg.Indent)
	assert.Equal(t, 0, cfg.BatchWorkers)

	t.Setenv("XMLSERIAL_SERIALIZATION_BATCHWORKERS", "6")
	cfg, err = LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 6, cfg.BatchWorkers)
}

func TestLoadConfig_Invalid(t *testing.T) {
	t.Setenv("XMLSERIAL_SERIALIZATION_CODEC", "yaml")
	_, err := LoadConfig("")
	assert.ErrorIs(t, err, merr.ErrParameterInvalid)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, merr.ErrIoFailed)
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	bad := cfg
	bad.CompressionLevel = 5
	assert.ErrorIs(t, bad.Validate(), merr.ErrParameterInvalid)

	bad = cfg
	bad.MaxDepth = -1
	assert.ErrorIs(t, bad.Validate(), merr.ErrParameterInvalid)

	bad = cfg
	bad.BatchWorkers = -1
	assert.ErrorIs(t, bad.Validate(), merr.ErrParameterInvalid)
}

func TestNewFromConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Codec = codec.NameJSON
	cfg.Indent = ""
	ser, err := NewFromConfig(cfg, WithRegistry(newTestRegistry()))
	require.NoError(t, err)
	defer ser.Close()
	assert.Equal(t, codec.NameJSON, ser.Codec().Name())

	data, err := ser.Marshal("Point", &point{X: 1})
	require.NoError(t, err)
	assert.Equal(t, `{"name":"Point","version":2,"properties":[["type","Point"],["x","1"],["y","0"],["label",""]]}`, string(data))

	cfg.Codec = "yaml"
	_, err = NewFromConfig(cfg)
	assert.ErrorIs(t, err, merr.ErrParameterInvalid)
}
