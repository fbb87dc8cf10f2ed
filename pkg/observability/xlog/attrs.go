package xlog

import (
	"log/slog"
	"time"
)

// 常用属性 key
const (
	KeyError     = "error"
	KeyDuration  = "duration"
	KeyCount     = "count"
	KeyComponent = "component"
	KeyFile      = "file"
	KeyWindow    = "window"
	KeyRunID     = "run_id"
	KeyWorker    = "worker"
	KeyProcess   = "process"
)

// Err 错误属性，err 为 nil 时返回空属性（slog 会忽略）
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// Duration 耗时属性，输出 "1.5s" 这类可读格式
func Duration(d time.Duration) slog.Attr {
	return slog.String(KeyDuration, d.String())
}

// Count 计数属性
func Count(n int64) slog.Attr {
	return slog.Int64(KeyCount, n)
}

// Component 组件名属性
func Component(name string) slog.Attr {
	return slog.String(KeyComponent, name)
}

// File 文件路径属性
func File(path string) slog.Attr {
	return slog.String(KeyFile, path)
}

// Window 分块窗口后缀属性，如 "2024-01-01_10-02"
func Window(suffix string) slog.Attr {
	return slog.String(KeyWindow, suffix)
}

// RunID 一次运行的唯一标识
func RunID(id string) slog.Attr {
	return slog.String(KeyRunID, id)
}

// Worker 工作协程编号
func Worker(n int) slog.Attr {
	return slog.Int(KeyWorker, n)
}

// Process 进程标识属性，如 "xchunkctl[1234]"
func Process(tag string) slog.Attr {
	return slog.String(KeyProcess, tag)
}
