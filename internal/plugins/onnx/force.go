package onnx

import (
	"bytes"
	"maps"
	"slices"

	"github.com/lk2023060901/xmlserial-go/pkg/mm"
	"github.com/lk2023060901/xmlserial-go/pkg/util/merr"
)

// GlobalParameter 为 OnnxForce 的一个全局参数。
type GlobalParameter struct {
	Name         string
	DefaultValue float64
}

// OnnxForce 通过一个 ONNX 模型计算作用在选定粒子上的力。
//
// 本包只关心它作为可序列化记录的形态：模型文件路径、可选的内联模型字节、分组、
// 有序的全局参数、属性表、粒子下标以及是否使用周期性边界条件。
type OnnxForce struct {
	mm.ForceBase

	file         string
	model        []byte
	parameters   []GlobalParameter
	properties   map[string]string
	particles    []int
	usesPeriodic bool
}

// 编译期断言：确保 OnnxForce 实现了 mm.Force 接口。
var _ mm.Force = (*OnnxForce)(nil)

// NewOnnxForce 创建一个引用模型文件 file 的 OnnxForce，不读取文件内容。
func NewOnnxForce(file string) *OnnxForce {
	return &OnnxForce{
		file:       file,
		properties: make(map[string]string),
	}
}

// NewOnnxForceWithModel 创建一个内联模型字节的 OnnxForce，model 会被复制。
func NewOnnxForceWithModel(file string, model []byte) *OnnxForce {
	f := NewOnnxForce(file)
	f.SetModel(model)
	return f
}

func (f *OnnxForce) ModelFile() string {
	return f.file
}

// Model 返回内联的模型字节，未设置时为 nil。
func (f *OnnxForce) Model() []byte {
	return f.model
}

func (f *OnnxForce) SetModel(model []byte) {
	f.model = bytes.Clone(model)
}

// AddGlobalParameter 追加一个全局参数并返回其下标，参数顺序即添加顺序。
func (f *OnnxForce) AddGlobalParameter(name string, defaultValue float64) int {
	f.parameters = append(f.parameters, GlobalParameter{Name: name, DefaultValue: defaultValue})
	return len(f.parameters) - 1
}

func (f *OnnxForce) NumGlobalParameters() int {
	return len(f.parameters)
}

func (f *OnnxForce) checkParameterIndex(index int) error {
	if index < 0 || index >= len(f.parameters) {
		return merr.WrapErrParameterInvalidRange(0, len(f.parameters)-1, index, "global parameter index")
	}
	return nil
}

func (f *OnnxForce) GlobalParameterName(index int) (string, error) {
	if err := f.checkParameterIndex(index); err != nil {
		return "", err
	}
	return f.parameters[index].Name, nil
}

func (f *OnnxForce) SetGlobalParameterName(index int, name string) error {
	if err := f.checkParameterIndex(index); err != nil {
		return err
	}
	f.parameters[index].Name = name
	return nil
}

func (f *OnnxForce) GlobalParameterDefaultValue(index int) (float64, error) {
	if err := f.checkParameterIndex(index); err != nil {
		return 0, err
	}
	return f.parameters[index].DefaultValue, nil
}

func (f *OnnxForce) SetGlobalParameterDefaultValue(index int, value float64) error {
	if err := f.checkParameterIndex(index); err != nil {
		return err
	}
	f.parameters[index].DefaultValue = value
	return nil
}

// SetProperty 设置一个传给模型执行后端的属性。
func (f *OnnxForce) SetProperty(name, value string) {
	if f.properties == nil {
		f.properties = make(map[string]string)
	}
	f.properties[name] = value
}

// Properties 返回属性表的副本。
func (f *OnnxForce) Properties() map[string]string {
	return maps.Clone(f.properties)
}

// SetParticleIndices 设置模型作用的粒子下标，空列表表示作用于全部粒子。
func (f *OnnxForce) SetParticleIndices(indices []int) error {
	for _, i := range indices {
		if i < 0 {
			return merr.WrapErrParameterInvalidMsg("particle index must not be negative, got %d", i)
		}
	}
	f.particles = slices.Clone(indices)
	return nil
}

func (f *OnnxForce) ParticleIndices() []int {
	return slices.Clone(f.particles)
}

func (f *OnnxForce) SetUsesPeriodicBoundaryConditions(periodic bool) {
	f.usesPeriodic = periodic
}

func (f *OnnxForce) UsesPeriodicBoundaryConditions() bool {
	return f.usesPeriodic
}

// Equal 逐字段比较两个 OnnxForce，全局参数按顺序比较。
// nil 与空的模型字节、粒子列表、属性表视为相等。
func (f *OnnxForce) Equal(other *OnnxForce) bool {
	if f == nil || other == nil {
		return f == other
	}
	return f.file == other.file &&
		bytes.Equal(f.model, other.model) &&
		f.ForceGroup() == other.ForceGroup() &&
		f.Name() == other.Name() &&
		f.usesPeriodic == other.usesPeriodic &&
		slices.Equal(f.parameters, other.parameters) &&
		slices.Equal(f.particles, other.particles) &&
		maps.Equal(f.properties, other.properties)
}
