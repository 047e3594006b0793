package log

import (
	"go.uber.org/zap"
)

// MLogger 是 zap.Logger 的封装类型，供组件持有独立的 Logger。
type MLogger struct {
	*zap.Logger
}

// With 封装 zap.Logger 的 With 方法，并返回新的 MLogger 实例。
// 新实例携带额外的字段，不影响原 Logger。
func (l *MLogger) With(fields ...zap.Field) *MLogger {
	return &MLogger{
		Logger: l.Logger.With(fields...),
	}
}

// Named 返回追加了名称段的子 Logger。
func (l *MLogger) Named(name string) *MLogger {
	return &MLogger{
		Logger: l.Logger.Named(name),
	}
}
