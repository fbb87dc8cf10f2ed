//go:build linux || darwin || freebsd || netbsd || openbsd || dragonfly

package xsys

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// flock 系统调用变量，测试中替换以覆盖错误路径。
// 注意：替换包级变量的测试不可使用 t.Parallel()。
var flock = unix.Flock

func tryLock(f *os.File) error {
	err := flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB)
	if err == nil {
		return nil
	}
	if errors.Is(err, unix.EWOULDBLOCK) || errors.Is(err, unix.EAGAIN) {
		return fmt.Errorf("%w: %s", ErrLockBusy, f.Name())
	}
	return fmt.Errorf("xsys: flock %s: %w", f.Name(), err)
}

func unlock(f *os.File) error {
	return flock(int(f.Fd()), unix.LOCK_UN)
}
