// Package util 通用工具子包。
//
// 子包列表：
//   - xfile: 路径规范化与目录创建
//   - xsys: 基于文件的跨进程排他锁（flock / LockFileEx）
//   - xproc: 当前进程的 PID 与进程名
package util
