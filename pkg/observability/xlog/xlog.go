package xlog

import (
	"context"
	"log/slog"
)

// Logger 日志接口
//
// 所有方法都接收 context.Context，只接受 slog.Attr，避免隐式 key-value 转换。
// 输出目标写入失败时不返回错误，由 Builder.SetOnError 设置的回调接收。
type Logger interface {
	// Debug 记录 Debug 级别日志
	// 级别未启用时在构造记录前返回
	Debug(ctx context.Context, msg string, attrs ...slog.Attr)

	// Info 记录 Info 级别日志
	Info(ctx context.Context, msg string, attrs ...slog.Attr)

	// Warn 记录 Warn 级别日志
	Warn(ctx context.Context, msg string, attrs ...slog.Attr)

	// Error 记录 Error 级别日志
	// 输出到分块文件时，分块无法打开的错误经 OnError 回调上报，本条记录丢弃
	Error(ctx context.Context, msg string, attrs ...slog.Attr)

	// With 返回带固定属性的派生 Logger
	//
	// 派生 Logger 与父级共享级别、错误计数和输出目标，
	// 对父级调用 SetLevel 会同步作用于所有派生 Logger。
	With(attrs ...slog.Attr) Logger

	// WithGroup 返回带分组的派生 Logger
	// 之后通过 With 或日志方法添加的属性都位于该分组下
	WithGroup(name string) Logger
}

// Leveler 运行期级别控制
//
// 与 Logger 分开定义，只需要写日志的代码不依赖级别控制。
type Leveler interface {
	// SetLevel 动态设置日志级别
	// 立即生效，配置热更新（xconf.Watch）通过它调整级别
	SetLevel(level Level)

	// GetLevel 获取当前日志级别
	GetLevel() Level

	// Enabled 检查指定级别是否启用
	// 构造代价较高的属性前先调用它判断
	Enabled(ctx context.Context, level Level) bool
}

// LoggerWithLevel Build 的返回类型：Logger + Leveler
type LoggerWithLevel interface {
	Logger
	Leveler
}
