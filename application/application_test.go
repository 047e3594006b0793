package application

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/xmlserial-go/internal/plugins/onnx"
	"github.com/lk2023060901/xmlserial-go/pkg/mm"
	"github.com/lk2023060901/xmlserial-go/pkg/serialization"
	"github.com/lk2023060901/xmlserial-go/pkg/serialization/codec"
	"github.com/lk2023060901/xmlserial-go/pkg/util/merr"
)

type lateType struct{}

func writeConfig(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestApplicationRun(t *testing.T) {
	path := writeConfig(t, `
serialization:
  codec: json
  indent: ""
logging:
  serialization:
    level: debug
`)
	app := New(WithArgs([]string{"--config", path}), WithRegisterer(prometheus.NewRegistry()))
	require.NoError(t, app.Run())
	defer app.Close()

	assert.True(t, serialization.Default().Frozen())
	assert.Contains(t, serialization.Default().TypeNames(), onnx.TypeName)
	assert.Contains(t, serialization.Default().TypeNames(), "System")

	ser := app.Serializer()
	require.NotNil(t, ser)
	assert.Equal(t, codec.NameJSON, ser.Codec().Name())
	assert.NotNil(t, app.Logger(serializationLoggerName))
	assert.NotNil(t, app.Logger("unknown"))

	sys := mm.NewSystem()
	sys.AddParticle(1)
	force := onnx.NewOnnxForce("tests/central.onnx")
	require.NoError(t, force.SetForceGroup(3))
	_, err := sys.AddForce(force)
	require.NoError(t, err)

	data, err := ser.Marshal("System", sys)
	require.NoError(t, err)
	back, err := serialization.UnmarshalAs[*mm.System](ser, data)
	require.NoError(t, err)
	f, err := back.Force(0)
	require.NoError(t, err)
	assert.True(t, force.Equal(f.(*onnx.OnnxForce)))

	// 冻结之后不再接受新的类型。
	err = serialization.Register[*lateType](serialization.Default(), mm.CMMotionRemoverProxy{})
	assert.Error(t, err)

	// 重复运行是安全的。
	again := New(WithArgs([]string{"--config=" + path}), WithRegisterer(prometheus.NewRegistry()))
	require.NoError(t, again.Run())
	again.Close()
}

func TestApplicationConfigErrors(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.yaml")
	assert.Error(t, New(WithArgs([]string{"--config", missing})).Run())
	assert.Error(t, New(WithArgs([]string{"--config"})).Run())

	t.Setenv(configPathEnv, missing)
	assert.Error(t, New(WithArgs(nil)).Run())
}

func TestApplicationInvalidSerializationConfig(t *testing.T) {
	path := writeConfig(t, `
serialization:
  codec: yaml
`)
	err := New(WithArgs([]string{"--config", path}), WithRegisterer(prometheus.NewRegistry())).Run()
	assert.ErrorIs(t, err, merr.ErrParameterInvalid)
}

func TestGetenv(t *testing.T) {
	t.Setenv("XMLSERIAL_TEST_BOOL", "on")
	t.Setenv("XMLSERIAL_TEST_STR", "  value ")
	assert.True(t, getenvBool("XMLSERIAL_TEST_BOOL", false))
	assert.True(t, getenvBool("XMLSERIAL_TEST_UNSET", true))
	assert.Equal(t, "value", getenvDefault("XMLSERIAL_TEST_STR", "x"))
	assert.Equal(t, "x", getenvDefault("XMLSERIAL_TEST_UNSET", "x"))
}
