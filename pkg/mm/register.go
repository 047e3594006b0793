package mm

import (
	"sync"

	"github.com/lk2023060901/xmlserial-go/pkg/serialization"
)

var registerOnce sync.Once

// RegisterSerializationProxies 将本包的 Proxy 注册到全局 Registry，重复调用只生效一次。
// 必须在全局 Registry Freeze 之前调用。
func RegisterSerializationProxies() {
	registerOnce.Do(func() {
		if err := RegisterSerializationProxiesTo(serialization.Default()); err != nil {
			panic(err)
		}
	})
}

// RegisterSerializationProxiesTo 将本包的 Proxy 注册到 r。
func RegisterSerializationProxiesTo(r *serialization.Registry) error {
	if err := serialization.Register[*System](r, SystemProxy{}); err != nil {
		return err
	}
	return serialization.Register[*CMMotionRemover](r, CMMotionRemoverProxy{})
}
