//go:build !linux && !darwin && !freebsd && !netbsd && !openbsd && !dragonfly && !windows

package xsys

import "os"

func tryLock(*os.File) error {
	return ErrUnsupportedPlatform
}

func unlock(*os.File) error {
	return ErrUnsupportedPlatform
}
