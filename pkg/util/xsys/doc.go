// Package xsys 提供跨进程的系统级原语。
//
// # 功能概览
//
//   - [OpenLockFile]: 打开（必要时创建）一个仅用作互斥令牌的锁文件
//   - [LockFile.TryLock]: 非阻塞获取排他锁，被占用时立即返回 [ErrLockBusy]
//   - [LockFile.Unlock]: 释放锁，文件句柄保持打开以便下次复用
//
// # 平台支持
//
// Linux、macOS 与 BSD 通过 flock(2)（LOCK_EX|LOCK_NB）实现，Windows 通过
// LockFileEx（LOCKFILE_FAIL_IMMEDIATELY）实现。其余平台 TryLock 返回
// [ErrUnsupportedPlatform]。
//
// 锁是建议性的（advisory）：只约束同样使用锁文件的参与者，不阻止其他进程
// 直接读写受保护的文件。锁归属于打开的文件句柄，同一进程内两个独立的
// LockFile 之间也会互斥。
package xsys
