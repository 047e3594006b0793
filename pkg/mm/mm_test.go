package mm

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/lk2023060901/xmlserial-go/pkg/serialization"
	"github.com/lk2023060901/xmlserial-go/pkg/serialization/node"
	"github.com/lk2023060901/xmlserial-go/pkg/util/merr"
)

// periodicForce 从不注册。
type periodicForce struct {
	ForceBase
}

func (*periodicForce) UsesPeriodicBoundaryConditions() bool { return true }

type MMSuite struct {
	suite.Suite
	serializer *serialization.Serializer
}

func (s *MMSuite) SetupTest() {
	r := serialization.NewRegistry()
	s.Require().NoError(RegisterSerializationProxiesTo(r))
	s.Require().NoError(RegisterSerializationProxiesTo(r))
	r.Freeze()
	s.serializer = serialization.New(serialization.WithRegistry(r))
}

func (s *MMSuite) TestForceGroup() {
	f := NewCMMotionRemover(0)
	s.Equal(DefaultCMMotionFrequency, f.Frequency())
	s.NoError(f.SetForceGroup(0))
	s.NoError(f.SetForceGroup(MaxForceGroup))
	s.ErrorIs(f.SetForceGroup(-1), merr.ErrParameterInvalid)
	s.ErrorIs(f.SetForceGroup(32), merr.ErrParameterInvalid)
	s.Equal(MaxForceGroup, f.ForceGroup())
	s.ErrorIs(f.SetFrequency(0), merr.ErrParameterInvalid)
}

func (s *MMSuite) TestSystemRoundTrip() {
	sys := NewSystem()
	sys.AddParticle(1.008)
	sys.AddParticle(15.999)
	sys.AddParticle(1.008)

	remover := NewCMMotionRemover(10)
	s.Require().NoError(remover.SetForceGroup(2))
	remover.SetName("remover")
	_, err := sys.AddForce(remover)
	s.Require().NoError(err)
	_, err = sys.AddForce(NewCMMotionRemover(5))
	s.Require().NoError(err)

	data, err := s.serializer.Marshal("System", sys)
	s.Require().NoError(err)

	back, err := serialization.UnmarshalAs[*System](s.serializer, data)
	s.Require().NoError(err)
	s.Equal(sys, back)
	s.False(back.UsesPeriodicBoundaryConditions())

	f, err := back.Force(0)
	s.Require().NoError(err)
	s.Equal("remover", f.Name())
	s.Equal(2, f.ForceGroup())

	mass, err := back.ParticleMass(1)
	s.Require().NoError(err)
	s.Equal(15.999, mass)
	_, err = back.ParticleMass(3)
	s.ErrorIs(err, merr.ErrParameterInvalid)
	_, err = back.Force(-1)
	s.ErrorIs(err, merr.ErrParameterInvalid)
}

func (s *MMSuite) TestUnregisteredForce() {
	sys := NewSystem()
	_, err := sys.AddForce(&periodicForce{})
	s.Require().NoError(err)
	s.True(sys.UsesPeriodicBoundaryConditions())

	_, err = s.serializer.Marshal("System", sys)
	s.ErrorIs(err, merr.ErrUnregisteredType)

	_, err = sys.AddForce(nil)
	s.ErrorIs(err, merr.ErrParameterInvalid)
}

func (s *MMSuite) TestNilPointerForce() {
	sys := NewSystem()
	_, err := sys.AddForce((*CMMotionRemover)(nil))
	s.ErrorIs(err, merr.ErrParameterInvalid)
	s.Equal(0, sys.NumForces())

	// 绕过 AddForce 放入的 nil 指针在序列化时返回错误而不是 panic。
	sys.forces = append(sys.forces, (*CMMotionRemover)(nil))
	s.NotPanics(func() {
		_, err = s.serializer.Marshal("System", sys)
	})
	s.ErrorIs(err, merr.ErrParameterInvalid)
}

func (s *MMSuite) TestForceThatIsNotAForce() {
	// 已注册但不是 Force 的类型出现在 Forces 下。
	doc := `<System version="1" type="System"><Particles/><Forces><Force type="System"><Particles/><Forces/></Force></Forces></System>`
	_, err := s.serializer.Unmarshal([]byte(doc))
	s.ErrorIs(err, merr.ErrUnexpectedType)
}

func (s *MMSuite) TestDecodeForceBase() {
	f := NewCMMotionRemover(1)
	s.Require().NoError(f.SetForceGroup(4))
	s.NoError(DecodeForceBase(node.New("Force"), f))
	s.Equal(4, f.ForceGroup())

	s.ErrorIs(DecodeForceBase(node.New("Force").SetStringProperty("forceGroup", "40"), f), merr.ErrParameterInvalid)
	s.ErrorIs(DecodeForceBase(node.New("Force").SetStringProperty("forceGroup", "x"), f), merr.ErrMalformedValue)
}

func TestMM(t *testing.T) {
	suite.Run(t, new(MMSuite))
}
