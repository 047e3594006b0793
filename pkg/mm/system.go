package mm

import (
	"reflect"

	"github.com/lk2023060901/xmlserial-go/pkg/util/merr"
)

// System 描述一个模拟体系：粒子质量以及作用在粒子上的力。
// 力的具体类型对 System 不透明，序列化时通过 Registry 分派到各自的 Proxy。
type System struct {
	masses []float64
	forces []Force
}

func NewSystem() *System {
	return &System{}
}

// AddParticle 追加一个粒子并返回其下标。
func (s *System) AddParticle(mass float64) int {
	s.masses = append(s.masses, mass)
	return len(s.masses) - 1
}

func (s *System) NumParticles() int {
	return len(s.masses)
}

func (s *System) ParticleMass(index int) (float64, error) {
	if index < 0 || index >= len(s.masses) {
		return 0, merr.WrapErrParameterInvalidRange(0, len(s.masses)-1, index, "particle index")
	}
	return s.masses[index], nil
}

// AddForce 追加一个力并返回其下标，System 持有该力。
func (s *System) AddForce(force Force) (int, error) {
	if force == nil {
		return 0, merr.WrapErrParameterInvalidMsg("force is nil")
	}
	if v := reflect.ValueOf(force); v.Kind() == reflect.Pointer && v.IsNil() {
		return 0, merr.WrapErrParameterInvalidMsg("force is a nil %T", force)
	}
	s.forces = append(s.forces, force)
	return len(s.forces) - 1, nil
}

func (s *System) NumForces() int {
	return len(s.forces)
}

func (s *System) Force(index int) (Force, error) {
	if index < 0 || index >= len(s.forces) {
		return nil, merr.WrapErrParameterInvalidRange(0, len(s.forces)-1, index, "force index")
	}
	return s.forces[index], nil
}

// UsesPeriodicBoundaryConditions 只要有任意一个力使用周期性边界条件即返回 true。
func (s *System) UsesPeriodicBoundaryConditions() bool {
	for _, f := range s.forces {
		if f.UsesPeriodicBoundaryConditions() {
			return true
		}
	}
	return false
}
