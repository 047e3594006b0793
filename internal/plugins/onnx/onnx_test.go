package onnx

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/lk2023060901/xmlserial-go/pkg/mm"
	"github.com/lk2023060901/xmlserial-go/pkg/serialization"
	"github.com/lk2023060901/xmlserial-go/pkg/serialization/codec"
	"github.com/lk2023060901/xmlserial-go/pkg/util/merr"
)

const centralDocument = `<?xml version="1.0" encoding="UTF-8"?>
<Force version="1" type="OnnxForce" forceGroup="3" name="" file="tests/central.onnx" usesPeriodic="true" particles="0,2,4">
	<GlobalParameters>
		<Parameter name="x" default="1.3"/>
		<Parameter name="y" default="2.221"/>
	</GlobalParameters>
	<Properties>
		<Property name="UseGraphs" value="true"/>
	</Properties>
</Force>
`

func newCentralForce(s *suite.Suite) *OnnxForce {
	force := NewOnnxForce("tests/central.onnx")
	s.Require().NoError(force.SetForceGroup(3))
	force.AddGlobalParameter("x", 1.3)
	force.AddGlobalParameter("y", 2.221)
	force.SetUsesPeriodicBoundaryConditions(true)
	force.SetProperty("UseGraphs", "true")
	s.Require().NoError(force.SetParticleIndices([]int{0, 2, 4}))
	return force
}

type OnnxSuite struct {
	suite.Suite
	registry   *serialization.Registry
	serializer *serialization.Serializer
}

func (s *OnnxSuite) SetupTest() {
	s.registry = serialization.NewRegistry()
	s.Require().NoError(RegisterSerializationProxiesTo(s.registry))
	s.Require().NoError(mm.RegisterSerializationProxiesTo(s.registry))
	s.registry.Freeze()
	s.serializer = serialization.New(serialization.WithRegistry(s.registry))
}

func (s *OnnxSuite) TearDownTest() {
	s.serializer.Close()
}

func (s *OnnxSuite) TestSerialization() {
	force := newCentralForce(&s.Suite)

	var buffer bytes.Buffer
	s.Require().NoError(s.serializer.Serialize(&buffer, "Force", force))
	s.Equal(centralDocument, buffer.String())

	copied, err := serialization.DeserializeAs[*OnnxForce](s.serializer, &buffer)
	s.Require().NoError(err)

	s.Equal(force.Model(), copied.Model())
	s.Equal(force.ModelFile(), copied.ModelFile())
	s.Equal(force.ForceGroup(), copied.ForceGroup())
	s.Equal(force.ParticleIndices(), copied.ParticleIndices())
	s.Require().Equal(force.NumGlobalParameters(), copied.NumGlobalParameters())
	for i := 0; i < force.NumGlobalParameters(); i++ {
		name, err := force.GlobalParameterName(i)
		s.Require().NoError(err)
		copiedName, err := copied.GlobalParameterName(i)
		s.Require().NoError(err)
		s.Equal(name, copiedName)

		value, err := force.GlobalParameterDefaultValue(i)
		s.Require().NoError(err)
		copiedValue, err := copied.GlobalParameterDefaultValue(i)
		s.Require().NoError(err)
		s.Equal(value, copiedValue)
	}
	s.Equal(force.UsesPeriodicBoundaryConditions(), copied.UsesPeriodicBoundaryConditions())
	s.Equal(force.Properties(), copied.Properties())
	s.True(force.Equal(copied))

	x, err := copied.GlobalParameterDefaultValue(0)
	s.Require().NoError(err)
	s.Equal(1.3, x)
}

func (s *OnnxSuite) TestInlineModel() {
	model := []byte{0x08, 0x07, 0x12, 0x00, 0xff, '<', '&'}
	force := NewOnnxForceWithModel("inline.onnx", model)
	model[0] = 0
	s.Equal(byte(0x08), force.Model()[0])
	force.SetName("inline")
	force.SetProperty("b", "2")
	force.SetProperty("a", "1")

	for _, c := range []codec.Codec{codec.NewXMLCodec(), codec.NewJSONCodec()} {
		ser := serialization.New(serialization.WithRegistry(s.registry), serialization.WithCodec(c))
		data, err := ser.Marshal("Force", force)
		s.Require().NoError(err)
		// 属性按名称排序写出。
		s.Less(bytes.Index(data, []byte(`"a"`)), bytes.Index(data, []byte(`"b"`)), c.Name())

		copied, err := serialization.UnmarshalAs[*OnnxForce](ser, data)
		s.Require().NoError(err)
		s.True(force.Equal(copied), c.Name())
		s.Equal("inline", copied.Name())
	}
}

func (s *OnnxSuite) TestMixedSystem() {
	sys := mm.NewSystem()
	for i := 0; i < 5; i++ {
		sys.AddParticle(12.011)
	}
	_, err := sys.AddForce(mm.NewCMMotionRemover(100))
	s.Require().NoError(err)
	_, err = sys.AddForce(newCentralForce(&s.Suite))
	s.Require().NoError(err)

	data, err := s.serializer.Marshal("System", sys)
	s.Require().NoError(err)

	back, err := serialization.UnmarshalAs[*mm.System](s.serializer, data)
	s.Require().NoError(err)
	s.Require().Equal(2, back.NumForces())
	s.Equal(5, back.NumParticles())
	s.True(back.UsesPeriodicBoundaryConditions())

	first, err := back.Force(0)
	s.Require().NoError(err)
	remover, ok := first.(*mm.CMMotionRemover)
	s.Require().True(ok)
	s.Equal(100, remover.Frequency())

	second, err := back.Force(1)
	s.Require().NoError(err)
	onnxForce, ok := second.(*OnnxForce)
	s.Require().True(ok)
	s.True(newCentralForce(&s.Suite).Equal(onnxForce))
}

func (s *OnnxSuite) TestPluginNotLoaded() {
	r := serialization.NewRegistry()
	s.Require().NoError(mm.RegisterSerializationProxiesTo(r))
	ser := serialization.New(serialization.WithRegistry(r))

	_, err := ser.Unmarshal([]byte(centralDocument))
	s.ErrorIs(err, merr.ErrUnregisteredType)

	sys := mm.NewSystem()
	_, err = sys.AddForce(newCentralForce(&s.Suite))
	s.Require().NoError(err)
	_, err = ser.Marshal("System", sys)
	s.ErrorIs(err, merr.ErrUnregisteredType)

	data, err := s.serializer.Marshal("System", sys)
	s.Require().NoError(err)
	_, err = ser.Unmarshal(data)
	s.ErrorIs(err, merr.ErrUnregisteredType)
}

func (s *OnnxSuite) TestTolerantAndStrictRead() {
	minimal := `<Force type="OnnxForce" file="m.onnx" extra="ignored"><Unknown/></Force>`
	f, err := serialization.UnmarshalAs[*OnnxForce](s.serializer, []byte(minimal))
	s.Require().NoError(err)
	s.Equal("m.onnx", f.ModelFile())
	s.Equal(0, f.ForceGroup())
	s.Equal(0, f.NumGlobalParameters())
	s.Empty(f.ParticleIndices())
	s.False(f.UsesPeriodicBoundaryConditions())

	cases := map[string]error{
		`<Force type="OnnxForce"/>`:                                 merr.ErrMissingProperty,
		`<Force type="OnnxForce" file="m" forceGroup="99"/>`:        merr.ErrParameterInvalid,
		`<Force type="OnnxForce" file="m" particles="0,x"/>`:        merr.ErrMalformedValue,
		`<Force type="OnnxForce" file="m" particles="-1"/>`:         merr.ErrParameterInvalid,
		`<Force type="OnnxForce" file="m" usesPeriodic="maybe"/>`:   merr.ErrMalformedValue,
		`<Force type="OnnxForce" file="m" model="***"/>`:            merr.ErrMalformedValue,
		`<Force type="OnnxForce" file="m"><GlobalParameters><Parameter name="x"/></GlobalParameters></Force>`: merr.ErrMissingProperty,
		`<Force type="OnnxForce" file="m"><Properties><Property name="k"/></Properties></Force>`:             merr.ErrMissingProperty,
	}
	for doc, expected := range cases {
		_, err := s.serializer.Unmarshal([]byte(doc))
		s.ErrorIs(err, expected, doc)
	}
}

func (s *OnnxSuite) TestAccessors() {
	f := NewOnnxForce("a.onnx")
	s.Equal(0, f.AddGlobalParameter("x", 1))
	s.NoError(f.SetGlobalParameterName(0, "z"))
	s.NoError(f.SetGlobalParameterDefaultValue(0, 2.5))
	name, err := f.GlobalParameterName(0)
	s.NoError(err)
	s.Equal("z", name)
	v, err := f.GlobalParameterDefaultValue(0)
	s.NoError(err)
	s.Equal(2.5, v)

	_, err = f.GlobalParameterName(1)
	s.ErrorIs(err, merr.ErrParameterInvalid)
	s.ErrorIs(f.SetGlobalParameterDefaultValue(-1, 0), merr.ErrParameterInvalid)

	props := f.Properties()
	props["leak"] = "x"
	s.Empty(f.Properties())

	var nilForce *OnnxForce
	s.False(f.Equal(nil))
	s.True(nilForce.Equal(nil))
}

func TestOnnx(t *testing.T) {
	suite.Run(t, new(OnnxSuite))
}

func TestRegisterSerializationProxies(t *testing.T) {
	RegisterSerializationProxies()
	RegisterSerializationProxies()
	// 等价的重复注册是空操作。
	if err := RegisterSerializationProxiesTo(serialization.Default()); err != nil {
		t.Fatalf("idempotent registration failed: %v", err)
	}
	p, err := serialization.Default().LookupName(TypeName)
	if err != nil {
		t.Fatalf("lookup %s: %v", TypeName, err)
	}
	if _, ok := p.(OnnxForceProxy); !ok {
		t.Fatalf("unexpected proxy %T", p)
	}
}
