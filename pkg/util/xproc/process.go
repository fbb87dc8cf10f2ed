// Package xproc 当前进程的标识信息。
//
// 多个进程写同一组分块文件时，用 PID 和进程名区分每条记录的来源。
package xproc

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// executable 测试中替换
var executable = os.Executable

// ProcessID 当前进程 ID
func ProcessID() int {
	return os.Getpid()
}

// ProcessName 当前进程名（不含目录），首次调用后缓存。
//
// 优先取可执行文件路径，失败时回退到 os.Args[0]；都拿不到时返回空字符串。
var ProcessName = sync.OnceValue(resolveName)

func resolveName() string {
	if exe, err := executable(); err == nil {
		if name := baseName(exe); name != "" {
			return name
		}
	}
	if len(os.Args) == 0 {
		return ""
	}
	return baseName(os.Args[0])
}

// baseName 对空路径以及 "."、".."、根目录返回空字符串
func baseName(path string) string {
	if path == "" {
		return ""
	}
	switch name := filepath.Base(path); name {
	case ".", "..", string(filepath.Separator):
		return ""
	default:
		return name
	}
}

// Tag 返回 "name[pid]"，进程名未知时只返回 "[pid]"
func Tag() string {
	return fmt.Sprintf("%s[%d]", ProcessName(), ProcessID())
}
