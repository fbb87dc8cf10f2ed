package xrotate

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	retry "github.com/avast/retry-go/v5"

	"github.com/omeyang/xchunk/pkg/util/xfile"
	"github.com/omeyang/xchunk/pkg/util/xsys"
)

// lockSuffix 锁文件 = 基础路径 + lockSuffix
const lockSuffix = "_lock"

// chunkFileFlags 分块文件只追加写：多个进程同时打开同一窗口的文件时，
// 各自的写入按追加语义保留，不会互相覆盖。
const chunkFileFlags = os.O_WRONLY | os.O_CREATE | os.O_APPEND

// newLockFile 打开锁文件，测试中替换以覆盖无权限回退路径。
var newLockFile = xsys.OpenLockFile

// tryLockFile 非阻塞加锁，测试中替换以模拟不支持文件锁的平台。
var tryLockFile = (*xsys.LockFile).TryLock

// errLockHandle 锁句柄不可用（非占用原因），下次尝试需重新打开锁文件
var errLockHandle = errors.New("xrotate: lock handle unusable")

// OpenLock 打开 base 对应的锁文件 <base>_lock，与写入同一基础路径的轮转器互斥。
//
// 外部工具（如手动清理）在操作分块前应持有此锁。
func OpenLock(base string) (*xsys.LockFile, error) {
	return openLockFile(base + lockSuffix)
}

// openLockFile 打开锁文件，配置路径无权限时回退到当前工作目录下的同名文件。
func openLockFile(lockPath string) (*xsys.LockFile, error) {
	l, err := newLockFile(lockPath)
	if err == nil || !errors.Is(err, fs.ErrPermission) {
		return l, err
	}
	return newLockFile(xfile.WorkDirPath(lockPath))
}

// tryLock 非阻塞获取跨进程锁。
//
// 锁被占用时返回包装了 xsys.ErrLockBusy 的错误；句柄异常时关闭旧句柄并返回
// errLockHandle，下次调用重新打开。
//
// 平台不支持文件锁时上报一次，此后按单进程处理：不再加锁，轮转照常清理并
// 打开新分块。调用方必须持有 r.mu。
func (r *ChunkRotator) tryLock() error {
	if r.noLock {
		return nil
	}
	if r.lock == nil {
		l, err := openLockFile(r.lockPath)
		if err != nil {
			return fmt.Errorf("%w: %w", errLockHandle, err)
		}
		r.lock = l
	}

	err := tryLockFile(r.lock)
	if err == nil || errors.Is(err, xsys.ErrLockBusy) {
		return err
	}
	if errors.Is(err, xsys.ErrUnsupportedPlatform) {
		r.noLock = true
		r.closeLock()
		r.reportError(fmt.Errorf("xrotate: rolling over without cross-process lock: %w", err))
		return nil
	}
	_ = r.lock.Close()
	r.lock = nil
	return fmt.Errorf("%w: %w", errLockHandle, err)
}

// unlock 释放跨进程锁，句柄保留复用。调用方必须持有 r.mu。
func (r *ChunkRotator) unlock() {
	if r.noLock || r.lock == nil {
		return
	}
	if err := r.lock.Unlock(); err != nil {
		r.reportError(err)
		// 解锁失败时关闭句柄，内核随之释放锁
		_ = r.lock.Close()
		r.lock = nil
	}
}

// isLockError 报告错误是否来自获取锁（可重试），而非打开分块文件本身
func isLockError(err error) bool {
	return errors.Is(err, xsys.ErrLockBusy) || errors.Is(err, errLockHandle)
}

// openChunk 打开当前窗口的分块文件并替换当前句柄。调用方必须持有 r.mu，
// 跨进程锁由调用方决定是否持有。
func (r *ChunkRotator) openChunk() error {
	w := r.currentWindow()
	name := ChunkName(r.base, w)

	//#nosec G304 -- 分块文件路径由配置的基础路径和时间窗口确定
	f, err := os.OpenFile(name, chunkFileFlags, r.cfg.FileMode)
	if err != nil {
		r.metrics.recordOpenError()
		return fmt.Errorf("%w: %w", ErrOpenChunk, err)
	}

	old := r.file
	r.file = f
	r.window = w
	r.name = name
	if old != nil {
		r.reportError(old.Close())
	}
	return nil
}

// openGuarded 在未持有跨进程锁时打开当前窗口的分块文件。
//
// 循环尝试"获取锁 → [清理] → 打开 → 释放锁"，锁错误按固定间隔重试，
// 打开文件的错误不重试。重试耗尽后仍拿不到锁时跳过清理直接打开：
// 文件名由窗口唯一确定且以追加模式打开，与持锁进程打开的是同一个文件。
func (r *ChunkRotator) openGuarded(prune bool) error {
	delay := r.cfg.LockRetryDelay
	err := retry.New(
		retry.Attempts(uint(r.cfg.LockAttempts)),
		retry.DelayType(func(uint, error, retry.DelayContext) time.Duration { return delay }),
		retry.RetryIf(isLockError),
		retry.LastErrorOnly(true),
	).Do(func() error {
		if err := r.tryLock(); err != nil {
			return err
		}
		defer r.unlock()
		if prune && r.cfg.RetainCount > 0 {
			r.prune()
		}
		return r.openChunk()
	})
	if err == nil || !isLockError(err) {
		return err
	}

	if errors.Is(err, xsys.ErrLockBusy) {
		r.metrics.recordLockBusy()
	} else {
		r.reportError(err)
	}
	return r.openChunk()
}
