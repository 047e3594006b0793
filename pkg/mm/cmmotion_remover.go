package mm

import (
	"github.com/lk2023060901/xmlserial-go/pkg/util/merr"
)

// DefaultCMMotionFrequency 为 CMMotionRemover 的缺省频率（步）。
const DefaultCMMotionFrequency = 1

// CMMotionRemover 每隔若干步移除体系的质心运动。
type CMMotionRemover struct {
	ForceBase
	frequency int
}

// 编译期断言：确保 CMMotionRemover 实现了 Force 接口。
var _ Force = (*CMMotionRemover)(nil)

// NewCMMotionRemover 创建一个 CMMotionRemover，frequency <= 0 时使用缺省频率。
func NewCMMotionRemover(frequency int) *CMMotionRemover {
	if frequency <= 0 {
		frequency = DefaultCMMotionFrequency
	}
	return &CMMotionRemover{frequency: frequency}
}

func (f *CMMotionRemover) Frequency() int {
	return f.frequency
}

func (f *CMMotionRemover) SetFrequency(frequency int) error {
	if frequency <= 0 {
		return merr.WrapErrParameterInvalidMsg("frequency must be positive, got %d", frequency)
	}
	f.frequency = frequency
	return nil
}

func (f *CMMotionRemover) UsesPeriodicBoundaryConditions() bool {
	return false
}
