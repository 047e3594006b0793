package onnx

import (
	"sync"

	"github.com/lk2023060901/xmlserial-go/pkg/serialization"
)

var registerOnce sync.Once

// RegisterSerializationProxies 是插件的注册入口：将 OnnxForceProxy 注册到全局 Registry。
// 重复调用只生效一次；必须在全局 Registry Freeze 之前调用。
func RegisterSerializationProxies() {
	registerOnce.Do(func() {
		if err := RegisterSerializationProxiesTo(serialization.Default()); err != nil {
			panic(err)
		}
	})
}

// RegisterSerializationProxiesTo 将 OnnxForceProxy 注册到 r。
func RegisterSerializationProxiesTo(r *serialization.Registry) error {
	return serialization.Register[*OnnxForce](r, OnnxForceProxy{})
}
