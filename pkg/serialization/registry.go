package serialization

import (
	"reflect"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/lk2023060901/xmlserial-go/pkg/log"
	"github.com/lk2023060901/xmlserial-go/pkg/metrics"
	"github.com/lk2023060901/xmlserial-go/pkg/serialization/node"
	"github.com/lk2023060901/xmlserial-go/pkg/util/merr"
	"github.com/lk2023060901/xmlserial-go/pkg/util/typeutil"
)

type registration struct {
	typ   reflect.Type
	proxy Proxy
}

// Registry 维护 Go 类型与注册类型名到 Proxy 的映射。
//
// 生命周期分两个阶段：
//   - 注册阶段：各插件调用 Register，内部以读写锁保护；
//   - 冻结之后：Register 返回 ErrRegistryFrozen，查找不再加锁，可被任意多个 goroutine 并发读取。
type Registry struct {
	log.Binder

	mu     sync.RWMutex
	frozen atomic.Bool
	byName map[string]registration
	byType map[reflect.Type]string

	// 仅 Default() 返回的全局实例会上报 RegisteredProxies 指标。
	reportMetrics bool
}

// 编译期断言：确保 Registry 实现了 Dispatcher 接口。
var _ Dispatcher = (*Registry)(nil)

var (
	defaultRegistry     *Registry
	defaultRegistryOnce sync.Once
)

// Default 返回进程级的全局 Registry，插件的 RegisterSerializationProxies 都注册到这里。
func Default() *Registry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewRegistry()
		defaultRegistry.reportMetrics = true
	})
	return defaultRegistry
}

// NewRegistry 创建一个空的 Registry，主要用于测试或隔离的调用方。
func NewRegistry() *Registry {
	return &Registry{
		byName: make(map[string]registration),
		byType: make(map[reflect.Type]string),
	}
}

// Register 为类型 t 注册 proxy。
//
// 同一类型重复注册等价的 Proxy（相同的 Proxy 类型与类型名）为空操作；
// 不同的 Proxy，或类型名已被其它 Go 类型占用时，返回 ErrDuplicateRegistration。
func (r *Registry) Register(t reflect.Type, proxy Proxy) error {
	if t == nil {
		return merr.WrapErrParameterInvalidMsg("register: type is nil")
	}
	if t.Kind() == reflect.Interface {
		return merr.WrapErrParameterInvalidMsg("register: %s is an interface type", t)
	}
	if proxy == nil {
		return merr.WrapErrParameterInvalidMsg("register: proxy for %s is nil", t)
	}
	name := proxy.TypeName()
	if name == "" {
		return merr.WrapErrParameterInvalidMsg("register: proxy %T has an empty type name", proxy)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existingName, ok := r.byType[t]; ok {
		existing := r.byName[existingName].proxy
		if equivalentProxy(existing, proxy) {
			return nil
		}
		return merr.WrapErrDuplicateRegistration(existingName, existing, proxy, t.String())
	}
	if owner, ok := r.byName[name]; ok {
		return merr.WrapErrDuplicateRegistration(name, owner.proxy, proxy,
			"type name already owned by "+owner.typ.String())
	}
	if r.frozen.Load() {
		return merr.WrapErrRegistryFrozen(name)
	}

	r.byName[name] = registration{typ: t, proxy: proxy}
	r.byType[t] = name
	if r.reportMetrics {
		metrics.RegisteredProxies.Set(float64(len(r.byName)))
	}
	r.Logger().Debug("proxy registered",
		log.FieldTypeName(name),
		zap.Stringer("goType", t),
		zap.Int("version", proxyVersion(proxy)))
	return nil
}

// Register 为类型 T 注册 proxy，T 通常是指针类型，例如 *onnx.OnnxForce。
func Register[T any](r *Registry, proxy Proxy) error {
	return r.Register(reflect.TypeFor[T](), proxy)
}

// MustRegister 与 Register 相同，但失败时 panic，供插件的注册入口使用。
func MustRegister[T any](r *Registry, proxy Proxy) {
	if err := Register[T](r, proxy); err != nil {
		panic(err)
	}
}

func equivalentProxy(a, b Proxy) bool {
	return reflect.TypeOf(a) == reflect.TypeOf(b) && a.TypeName() == b.TypeName()
}

// Freeze 结束注册阶段，之后的查找不再加锁。重复调用无副作用。
func (r *Registry) Freeze() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen.CompareAndSwap(false, true) {
		r.Logger().Info("registry frozen", zap.Strings("types", r.typeNamesLocked()))
	}
}

// Frozen 报告 Registry 是否已冻结。
func (r *Registry) Frozen() bool {
	return r.frozen.Load()
}

// read 在未冻结时持读锁执行 fn，冻结后直接执行。
func (r *Registry) read(fn func()) {
	if r.frozen.Load() {
		fn()
		return
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn()
}

// Lookup 返回类型 t 对应的 Proxy。
func (r *Registry) Lookup(t reflect.Type) (Proxy, error) {
	var (
		reg registration
		ok  bool
	)
	r.read(func() {
		var name string
		if name, ok = r.byType[t]; ok {
			reg = r.byName[name]
		}
	})
	if !ok {
		return nil, merr.WrapErrUnregisteredType(typeString(t))
	}
	return reg.proxy, nil
}

// LookupName 返回注册类型名 name 对应的 Proxy。
func (r *Registry) LookupName(name string) (Proxy, error) {
	var (
		reg registration
		ok  bool
	)
	r.read(func() {
		reg, ok = r.byName[name]
	})
	if !ok {
		return nil, merr.WrapErrUnregisteredType(name)
	}
	return reg.proxy, nil
}

// LookupObject 按 object 的动态类型查找 Proxy。
func (r *Registry) LookupObject(object any) (Proxy, error) {
	if object == nil {
		return nil, merr.WrapErrUnregisteredType("<nil>")
	}
	return r.Lookup(reflect.TypeOf(object))
}

// TypeNames 按字典序返回所有已注册的类型名。
func (r *Registry) TypeNames() []string {
	var names []string
	r.read(func() {
		names = r.typeNamesLocked()
	})
	return names
}

func (r *Registry) typeNamesLocked() []string {
	return typeutil.Sorted(typeutil.NewSet(lo.Keys(r.byName)...))
}

// Len 返回已注册的 Proxy 数量。
func (r *Registry) Len() int {
	var n int
	r.read(func() {
		n = len(r.byName)
	})
	return n
}

// encode 以 name 为节点名创建一个独立节点，并写入 object 的注册类型名、版本与字段。
func (r *Registry) encode(name string, object any) (*node.Node, error) {
	if isNilPointer(object) {
		return nil, merr.WrapErrParameterInvalidMsg("encode <%s>: object is a nil %T", name, object)
	}
	proxy, err := r.LookupObject(object)
	if err != nil {
		return nil, err
	}
	n := node.New(name).SetVersion(proxyVersion(proxy))
	n.SetStringProperty(TypeProperty, proxy.TypeName())
	if err := proxy.CreateNode(r, object, n); err != nil {
		return nil, errors.Wrapf(err, "encode %s as <%s>", proxy.TypeName(), name)
	}
	return n, nil
}

// EncodeObject 实现 Dispatcher.EncodeObject。
func (r *Registry) EncodeObject(parent *node.Node, childName string, object any) (*node.Node, error) {
	if parent == nil {
		return nil, merr.WrapErrParameterInvalidMsg("encode object: parent node is nil")
	}
	child, err := r.encode(childName, object)
	if err != nil {
		return nil, err
	}
	return parent.AppendChild(child), nil
}

// DecodeObject 实现 Dispatcher.DecodeObject。
func (r *Registry) DecodeObject(n *node.Node) (any, error) {
	if n == nil {
		return nil, merr.WrapErrParameterInvalidMsg("decode object: node is nil")
	}
	name, err := n.StringProperty(TypeProperty)
	if err != nil {
		return nil, err
	}
	proxy, err := r.LookupName(name)
	if err != nil {
		return nil, err
	}
	object, err := proxy.CreateObject(r, n)
	if err != nil {
		return nil, errors.Wrapf(err, "decode %s from <%s>", name, n.Name())
	}
	return object, nil
}

// typeNameOf 返回 object 的注册类型名，未注册时返回 false。
func (r *Registry) typeNameOf(object any) (string, bool) {
	if object == nil {
		return "", false
	}
	var (
		name string
		ok   bool
	)
	r.read(func() {
		name, ok = r.byType[reflect.TypeOf(object)]
	})
	return name, ok
}

// isNilPointer 识别装在接口里的 nil 指针，这类值能查到 Proxy，但交给 Proxy 会解引用 nil。
func isNilPointer(object any) bool {
	v := reflect.ValueOf(object)
	return v.Kind() == reflect.Pointer && v.IsNil()
}

func typeString(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}
