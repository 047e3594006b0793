package onnx

import (
	"encoding/base64"
	"slices"

	"github.com/samber/lo"

	"github.com/lk2023060901/xmlserial-go/pkg/mm"
	"github.com/lk2023060901/xmlserial-go/pkg/serialization"
	"github.com/lk2023060901/xmlserial-go/pkg/serialization/node"
	"github.com/lk2023060901/xmlserial-go/pkg/util/merr"
)

const (
	TypeName = "OnnxForce"
	// proxyVersion 为当前写出的布局版本。
	proxyVersion = 1
)

// OnnxForceProxy 为 OnnxForce 的 Proxy。
//
// 布局：
//
//	<Force version="1" type="OnnxForce" forceGroup="3" name="" file="tests/central.onnx" usesPeriodic="true" particles="0,2,4">
//		<GlobalParameters>
//			<Parameter name="x" default="1.3"/>
//		</GlobalParameters>
//		<Properties>
//			<Property name="UseGraphs" value="true"/>
//		</Properties>
//	</Force>
//
// 设置了内联模型字节时额外写出 base64 编码的 model 属性。
type OnnxForceProxy struct{}

var _ serialization.VersionedProxy = OnnxForceProxy{}

func (OnnxForceProxy) TypeName() string { return TypeName }

func (OnnxForceProxy) Version() int { return proxyVersion }

func (OnnxForceProxy) CreateNode(_ serialization.Dispatcher, object any, n *node.Node) error {
	f, ok := object.(*OnnxForce)
	if !ok {
		return merr.WrapErrUnexpectedType("*onnx.OnnxForce", object)
	}
	mm.EncodeForceBase(f, n)
	n.SetStringProperty("file", f.file)
	if len(f.model) > 0 {
		n.SetStringProperty("model", base64.StdEncoding.EncodeToString(f.model))
	}
	n.SetBoolProperty("usesPeriodic", f.usesPeriodic)
	n.SetIntListProperty("particles", f.particles)

	params := n.CreateChildNode("GlobalParameters")
	for _, p := range f.parameters {
		params.CreateChildNode("Parameter").
			SetStringProperty("name", p.Name).
			SetDoubleProperty("default", p.DefaultValue)
	}

	props := n.CreateChildNode("Properties")
	keys := lo.Keys(f.properties)
	slices.Sort(keys)
	for _, key := range keys {
		props.CreateChildNode("Property").
			SetStringProperty("name", key).
			SetStringProperty("value", f.properties[key])
	}
	return nil
}

func (OnnxForceProxy) CreateObject(_ serialization.Dispatcher, n *node.Node) (any, error) {
	file, err := n.StringProperty("file")
	if err != nil {
		return nil, err
	}
	f := NewOnnxForce(file)
	if err := mm.DecodeForceBase(n, f); err != nil {
		return nil, err
	}

	if n.HasProperty("model") {
		raw := n.StringPropertyOr("model", "")
		model, err := base64.StdEncoding.DecodeString(raw)
		if err != nil {
			return nil, merr.WrapErrMalformedValue("model", raw, "base64")
		}
		f.model = model
	}

	if f.usesPeriodic, err = n.BoolPropertyOr("usesPeriodic", false); err != nil {
		return nil, err
	}
	if n.HasProperty("particles") {
		particles, err := n.IntListProperty("particles")
		if err != nil {
			return nil, err
		}
		if err := f.SetParticleIndices(particles); err != nil {
			return nil, err
		}
	}

	// 旧文档可能缺少这两个子节点，视为空。
	if params, err := n.ChildNode("GlobalParameters"); err == nil {
		for _, p := range params.ChildNodes("Parameter") {
			name, err := p.StringProperty("name")
			if err != nil {
				return nil, err
			}
			value, err := p.DoubleProperty("default")
			if err != nil {
				return nil, err
			}
			f.AddGlobalParameter(name, value)
		}
	}
	if props, err := n.ChildNode("Properties"); err == nil {
		for _, p := range props.ChildNodes("Property") {
			name, err := p.StringProperty("name")
			if err != nil {
				return nil, err
			}
			value, err := p.StringProperty("value")
			if err != nil {
				return nil, err
			}
			f.SetProperty(name, value)
		}
	}
	return f, nil
}
