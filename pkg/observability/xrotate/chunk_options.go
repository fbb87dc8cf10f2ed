package xrotate

import (
	"fmt"
	"os"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// 分块轮转器默认配置值
const (
	// DefaultChunkMinutes 默认分块窗口宽度（分钟）
	DefaultChunkMinutes = 10

	// DefaultRetainCount 默认保留分块数量，0 表示不清理
	DefaultRetainCount = 0

	// DefaultChunkFileMode 默认分块文件权限
	DefaultChunkFileMode os.FileMode = 0o644

	// DefaultLockAttempts 打开分块文件时获取锁的默认尝试次数
	DefaultLockAttempts = 10

	// DefaultLockRetryDelay 两次获取锁之间的默认间隔
	DefaultLockRetryDelay = 5 * time.Millisecond

	// maxLockAttempts 锁尝试次数上限
	maxLockAttempts = 100

	// maxLockRetryDelay 锁重试间隔上限，保证打开文件不会长时间阻塞写入
	maxLockRetryDelay = 100 * time.Millisecond
)

// chunkConfig 分块轮转器配置
type chunkConfig struct {
	// Minutes 窗口宽度（分钟），必须在 1~60 范围内且整除 60
	Minutes int

	// RetainCount 保留的分块数量，0 表示不清理
	RetainCount int

	// UTC 为 true 时窗口边界和文件名按 UTC 计算，否则按本地时区
	UTC bool

	// EagerOpen 为 true 时在构造时立即打开当前窗口的文件，
	// 否则延迟到第一次写入
	EagerOpen bool

	// FileMode 新建分块文件的权限
	FileMode os.FileMode

	// OnError 内部非致命错误回调（清理失败、关闭旧文件失败等）。
	//
	// 回调不得向同一轮转器写入数据，否则会死锁。
	OnError func(error)

	// Now 时钟，默认 time.Now
	Now func() time.Time

	// LockAttempts / LockRetryDelay 控制打开文件时的有界重试
	LockAttempts   int
	LockRetryDelay time.Duration

	// MeterProvider 指标提供者，nil 时不采集
	MeterProvider metric.MeterProvider
}

// ChunkOption 分块轮转器配置选项函数
type ChunkOption func(*chunkConfig)

// WithChunkMinutes 设置分块窗口宽度（分钟），必须整除 60
func WithChunkMinutes(minutes int) ChunkOption {
	return func(c *chunkConfig) {
		c.Minutes = minutes
	}
}

// WithRetainCount 设置保留的分块数量，0 表示不清理
func WithRetainCount(n int) ChunkOption {
	return func(c *chunkConfig) {
		c.RetainCount = n
	}
}

// WithUTC 设置窗口边界与文件名是否使用 UTC
func WithUTC(utc bool) ChunkOption {
	return func(c *chunkConfig) {
		c.UTC = utc
	}
}

// WithEagerOpen 构造时立即打开当前窗口的分块文件
//
// 打开失败会让构造返回错误，便于启动阶段发现权限问题。
func WithEagerOpen() ChunkOption {
	return func(c *chunkConfig) {
		c.EagerOpen = true
	}
}

// WithChunkFileMode 设置新建分块文件的权限（仅权限位）
func WithChunkFileMode(mode os.FileMode) ChunkOption {
	return func(c *chunkConfig) {
		c.FileMode = mode
	}
}

// WithChunkOnError 设置内部错误回调
//
// 不使用日志库记录内部错误：轮转器本身就是日志输出目标，记录错误会递归写入自身。
func WithChunkOnError(fn func(error)) ChunkOption {
	return func(c *chunkConfig) {
		c.OnError = fn
	}
}

// WithClock 设置时钟函数，主要用于测试
func WithClock(now func() time.Time) ChunkOption {
	return func(c *chunkConfig) {
		if now != nil {
			c.Now = now
		}
	}
}

// WithLockRetry 设置打开分块文件时获取锁的尝试次数和间隔
func WithLockRetry(attempts int, delay time.Duration) ChunkOption {
	return func(c *chunkConfig) {
		c.LockAttempts = attempts
		c.LockRetryDelay = delay
	}
}

// WithMeterProvider 设置 OpenTelemetry 指标提供者
func WithMeterProvider(mp metric.MeterProvider) ChunkOption {
	return func(c *chunkConfig) {
		c.MeterProvider = mp
	}
}

func defaultChunkConfig() chunkConfig {
	return chunkConfig{
		Minutes:        DefaultChunkMinutes,
		RetainCount:    DefaultRetainCount,
		FileMode:       DefaultChunkFileMode,
		Now:            time.Now,
		LockAttempts:   DefaultLockAttempts,
		LockRetryDelay: DefaultLockRetryDelay,
	}
}

// validateChunkConfig 校验配置，不做任何文件操作
func validateChunkConfig(cfg *chunkConfig) error {
	if err := ValidateChunkMinutes(cfg.Minutes); err != nil {
		return err
	}
	if cfg.RetainCount < 0 {
		return fmt.Errorf("%w: got %d, want >= 0", ErrInvalidRetainCount, cfg.RetainCount)
	}
	if cfg.FileMode == 0 || cfg.FileMode&^os.FileMode(0o777) != 0 {
		return fmt.Errorf("%w: got %04o, only permission bits (0001~0777) allowed",
			ErrInvalidFileMode, cfg.FileMode)
	}
	if cfg.LockAttempts < 1 || cfg.LockAttempts > maxLockAttempts {
		return fmt.Errorf("%w: attempts %d, want 1~%d", ErrInvalidLockRetry, cfg.LockAttempts, maxLockAttempts)
	}
	if cfg.LockRetryDelay < 0 || cfg.LockRetryDelay > maxLockRetryDelay {
		return fmt.Errorf("%w: delay %s, want 0~%s", ErrInvalidLockRetry, cfg.LockRetryDelay, maxLockRetryDelay)
	}
	return nil
}
