package xsys

import (
	"fmt"
	"os"
	"sync"
)

// DefaultLockFilePerm 锁文件默认权限。
// 多个进程可能以不同用户身份竞争同一个锁，组用户需要可读。
const DefaultLockFilePerm = 0o644

// LockFile 基于文件的跨进程排他锁。
//
// 锁文件本身不承载任何数据，只作为互斥令牌。句柄在 Close 之前保持打开，
// TryLock/Unlock 可反复调用。LockFile 的方法是并发安全的，但同一个
// LockFile 不区分 goroutine：已持有锁时再次 TryLock 直接成功。
type LockFile struct {
	mu     sync.Mutex
	path   string
	f      *os.File
	locked bool
}

// OpenLockFile 打开锁文件，不存在时创建。
//
// 返回的错误保留底层 *os.PathError，调用方可用 errors.Is(err, fs.ErrPermission)
// 判断权限问题并选择其他路径。
func OpenLockFile(path string) (*LockFile, error) {
	if path == "" {
		return nil, ErrEmptyLockPath
	}
	//#nosec G304 -- 锁文件路径由调用方配置决定
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, DefaultLockFilePerm)
	if err != nil {
		return nil, err
	}
	return &LockFile{path: path, f: f}, nil
}

// Path 返回锁文件路径。
func (l *LockFile) Path() string {
	return l.path
}

// TryLock 非阻塞地获取排他锁。
//
// 锁被其他持有者占用时返回包装了 [ErrLockBusy] 的错误；
// 其他错误（如句柄失效）原样包装返回，调用方通常应 Close 后重新打开。
func (l *LockFile) TryLock() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.f == nil {
		return ErrLockClosed
	}
	if l.locked {
		return nil
	}
	if err := tryLock(l.f); err != nil {
		return err
	}
	l.locked = true
	return nil
}

// Unlock 释放锁。未持有锁时为空操作。
func (l *LockFile) Unlock() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.f == nil {
		return ErrLockClosed
	}
	if !l.locked {
		return nil
	}
	l.locked = false
	if err := unlock(l.f); err != nil {
		return fmt.Errorf("xsys: unlock %s: %w", l.path, err)
	}
	return nil
}

// Locked 报告当前句柄是否持有锁。
func (l *LockFile) Locked() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.locked
}

// Close 关闭句柄，持有的锁随之释放。重复调用返回 [ErrLockClosed]。
func (l *LockFile) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.f == nil {
		return ErrLockClosed
	}
	// 关闭文件描述符时内核会释放 flock/LockFileEx 锁，无需显式解锁
	err := l.f.Close()
	l.f = nil
	l.locked = false
	return err
}
