package xrotate

import "errors"

// 配置校验错误，均在任何文件操作之前返回
var (
	// ErrEmptyFilename 文件名为空
	ErrEmptyFilename = errors.New("xrotate: filename is required")

	// ErrInvalidChunkMinutes 分块窗口宽度无效（必须在 1~60 范围内且整除 60）
	ErrInvalidChunkMinutes = errors.New("xrotate: invalid chunk minutes")

	// ErrInvalidRetainCount 保留分块数量无效（必须 >= 0）
	ErrInvalidRetainCount = errors.New("xrotate: invalid retain count")

	// ErrInvalidLockRetry 锁重试参数无效
	ErrInvalidLockRetry = errors.New("xrotate: invalid lock retry")

	// ErrInvalidMaxSize MaxSizeMB 值无效（必须在 1~10240 范围内）
	ErrInvalidMaxSize = errors.New("xrotate: invalid MaxSizeMB")

	// ErrInvalidMaxBackups MaxBackups 值无效（必须在 0~1024 范围内）
	ErrInvalidMaxBackups = errors.New("xrotate: invalid MaxBackups")

	// ErrInvalidMaxAge MaxAgeDays 值无效（必须在 0~3650 范围内）
	ErrInvalidMaxAge = errors.New("xrotate: invalid MaxAgeDays")

	// ErrInvalidFileMode FileMode 包含非权限位（仅允许低 9 位 0000~0777）
	ErrInvalidFileMode = errors.New("xrotate: invalid FileMode")
)

// 运行期错误
var (
	// ErrClosed 轮转器已关闭
	ErrClosed = errors.New("xrotate: rotator is closed")

	// ErrOpenChunk 分块文件无法打开，日志记录未能落盘
	ErrOpenChunk = errors.New("xrotate: open chunk file failed")
)
