package mm

import (
	"github.com/lk2023060901/xmlserial-go/pkg/util/merr"
)

// MaxForceGroup 为力分组编号的上限（含）。
const MaxForceGroup = 31

// Force 是宿主模型中所有力的公共接口。
//
// 框架只把 Force 当作不透明的记录：System 通过它持有任意已注册的力，序列化时按动态类型分派。
type Force interface {
	// ForceGroup 返回力所属的分组，取值 0~31。
	ForceGroup() int
	// SetForceGroup 设置力所属的分组，越界时返回 ErrParameterInvalid。
	SetForceGroup(group int) error
	// Name 返回力的名称。
	Name() string
	// SetName 设置力的名称。
	SetName(name string)
	// UsesPeriodicBoundaryConditions 报告该力是否使用周期性边界条件。
	UsesPeriodicBoundaryConditions() bool
}

// ForceBase 实现了 Force 中与具体力无关的部分，供具体的力嵌入使用。
type ForceBase struct {
	group int
	name  string
}

func (f *ForceBase) ForceGroup() int {
	return f.group
}

func (f *ForceBase) SetForceGroup(group int) error {
	if group < 0 || group > MaxForceGroup {
		return merr.WrapErrParameterInvalidRange(0, MaxForceGroup, group, "force group")
	}
	f.group = group
	return nil
}

func (f *ForceBase) Name() string {
	return f.name
}

func (f *ForceBase) SetName(name string) {
	f.name = name
}
