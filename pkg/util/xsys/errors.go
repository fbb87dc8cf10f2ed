package xsys

import "errors"

var (
	// ErrLockBusy 表示锁已被其他句柄（其他进程或同进程的其他 LockFile）持有。
	// 这是瞬时状态，调用方应放弃本次操作或稍后重试。
	ErrLockBusy = errors.New("xsys: lock is held by another owner")

	// ErrLockClosed 表示 LockFile 已关闭。
	ErrLockClosed = errors.New("xsys: lock file is closed")

	// ErrEmptyLockPath 表示锁文件路径为空。
	ErrEmptyLockPath = errors.New("xsys: lock path is required")

	// ErrUnsupportedPlatform 表示当前平台不支持此操作。
	ErrUnsupportedPlatform = errors.New("xsys: unsupported platform")
)
