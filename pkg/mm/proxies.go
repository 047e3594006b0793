package mm

import (
	"github.com/lk2023060901/xmlserial-go/pkg/serialization"
	"github.com/lk2023060901/xmlserial-go/pkg/serialization/node"
	"github.com/lk2023060901/xmlserial-go/pkg/util/merr"
)

const (
	forceGroupProperty = "forceGroup"
	nameProperty       = "name"
)

// EncodeForceBase 写出所有力共有的属性：forceGroup 与 name。
// 插件中的力 Proxy 应使用它，以保持各类力的布局一致。
func EncodeForceBase(f Force, n *node.Node) {
	n.SetIntProperty(forceGroupProperty, f.ForceGroup())
	n.SetStringProperty(nameProperty, f.Name())
}

// DecodeForceBase 读取 EncodeForceBase 写出的属性，两者缺失时保留 f 的当前值。
func DecodeForceBase(n *node.Node, f Force) error {
	group, err := n.IntPropertyOr(forceGroupProperty, f.ForceGroup())
	if err != nil {
		return err
	}
	if err := f.SetForceGroup(group); err != nil {
		return err
	}
	f.SetName(n.StringPropertyOr(nameProperty, f.Name()))
	return nil
}

// CMMotionRemoverProxy 为 CMMotionRemover 的 Proxy。
type CMMotionRemoverProxy struct{}

var _ serialization.VersionedProxy = CMMotionRemoverProxy{}

func (CMMotionRemoverProxy) TypeName() string { return "CMMotionRemover" }

func (CMMotionRemoverProxy) Version() int { return 1 }

func (CMMotionRemoverProxy) CreateNode(_ serialization.Dispatcher, object any, n *node.Node) error {
	f, ok := object.(*CMMotionRemover)
	if !ok {
		return merr.WrapErrUnexpectedType("*mm.CMMotionRemover", object)
	}
	EncodeForceBase(f, n)
	n.SetIntProperty("frequency", f.Frequency())
	return nil
}

func (CMMotionRemoverProxy) CreateObject(_ serialization.Dispatcher, n *node.Node) (any, error) {
	frequency, err := n.IntProperty("frequency")
	if err != nil {
		return nil, err
	}
	f := NewCMMotionRemover(DefaultCMMotionFrequency)
	if err := f.SetFrequency(frequency); err != nil {
		return nil, err
	}
	if err := DecodeForceBase(n, f); err != nil {
		return nil, err
	}
	return f, nil
}

// SystemProxy 为 System 的 Proxy。
//
// 布局：
//
//	<System version="1" type="System">
//		<Particles><Particle mass="..."/>...</Particles>
//		<Forces><Force type="..." .../>...</Forces>
//	</System>
type SystemProxy struct{}

var _ serialization.VersionedProxy = SystemProxy{}

func (SystemProxy) TypeName() string { return "System" }

func (SystemProxy) Version() int { return 1 }

func (SystemProxy) CreateNode(d serialization.Dispatcher, object any, n *node.Node) error {
	s, ok := object.(*System)
	if !ok {
		return merr.WrapErrUnexpectedType("*mm.System", object)
	}
	particles := n.CreateChildNode("Particles")
	for _, mass := range s.masses {
		particles.CreateChildNode("Particle").SetDoubleProperty("mass", mass)
	}
	forces := n.CreateChildNode("Forces")
	for _, f := range s.forces {
		if _, err := d.EncodeObject(forces, "Force", f); err != nil {
			return err
		}
	}
	return nil
}

func (SystemProxy) CreateObject(d serialization.Dispatcher, n *node.Node) (any, error) {
	s := NewSystem()
	particles, err := n.ChildNode("Particles")
	if err != nil {
		return nil, err
	}
	for _, p := range particles.ChildNodes("Particle") {
		mass, err := p.DoubleProperty("mass")
		if err != nil {
			return nil, err
		}
		s.AddParticle(mass)
	}

	forces, err := n.ChildNode("Forces")
	if err != nil {
		return nil, err
	}
	for _, child := range forces.ChildNodes("Force") {
		object, err := d.DecodeObject(child)
		if err != nil {
			return nil, err
		}
		f, ok := object.(Force)
		if !ok {
			return nil, merr.WrapErrUnexpectedType("mm.Force", object)
		}
		if _, err := s.AddForce(f); err != nil {
			return nil, err
		}
	}
	return s, nil
}
