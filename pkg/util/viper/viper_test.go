package viper

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sectionConfig struct {
	Codec  string `mapstructure:"codec"`
	Indent int    `mapstructure:"indent"`
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("serialization:\n  codec: json\n  indent: 4\n"), 0o644))

	cfg := New()
	require.NoError(t, cfg.LoadFile(path))
	assert.True(t, cfg.IsSet("serialization.codec"))

	var section sectionConfig
	require.NoError(t, cfg.UnmarshalKey("serialization", &section))
	assert.Equal(t, "json", section.Codec)
	assert.Equal(t, 4, section.Indent)
}

func TestLoadJSONWithDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"serialization": {"indent": 1}}`), 0o644))

	cfg := New()
	cfg.SetDefault("serialization.codec", "xml")
	require.NoError(t, cfg.LoadFile(path))

	var section sectionConfig
	require.NoError(t, cfg.UnmarshalKey("serialization", &section))
	assert.Equal(t, 1, section.Indent)
	assert.Equal(t, "xml", cfg.v.GetString("serialization.codec"))
}

func TestLoadMissingFile(t *testing.T) {
	cfg := New()
	assert.Error(t, cfg.LoadFile(filepath.Join(t.TempDir(), "absent.yaml")))
}

func TestZeroValueConfig(t *testing.T) {
	var cfg Config
	assert.False(t, cfg.IsSet("anything"))
	assert.NoError(t, cfg.Unmarshal(&sectionConfig{}))
}
