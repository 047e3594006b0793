package log

import (
	"go.uber.org/zap"
)

const (
	FieldNameModule    = "module"
	FieldNameComponent = "component"
	FieldNameTypeName  = "typeName"
	FieldNameCodec     = "codec"
)

// FieldModule 返回一个包含模块名的 zap 字段。
func FieldModule(module string) zap.Field {
	return zap.String(FieldNameModule, module)
}

// FieldComponent 返回一个包含组件名的 zap 字段。
func FieldComponent(component string) zap.Field {
	return zap.String(FieldNameComponent, component)
}

// FieldTypeName 返回一个包含注册类型名的 zap 字段。
func FieldTypeName(name string) zap.Field {
	return zap.String(FieldNameTypeName, name)
}

// FieldCodec 返回一个包含文本编码名称的 zap 字段。
func FieldCodec(codec string) zap.Field {
	return zap.String(FieldNameCodec, codec)
}
