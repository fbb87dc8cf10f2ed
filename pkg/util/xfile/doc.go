// Package xfile 提供日志文件落盘前需要的路径与目录工具。
//
//   - [SanitizePath]: 规范化文件路径，拒绝空路径、空字节、相对路径穿越和目录路径
//   - [EnsureDir] / [EnsureDirWithPerm]: 确保文件的父目录存在
//   - [WorkDirPath]: 将文件名映射到当前工作目录，用于无权限时的回退路径
//
// 预定义错误支持 [errors.Is] 判断：
//
//	if _, err := xfile.SanitizePath("../etc/passwd"); errors.Is(err, xfile.ErrPathTraversal) {
//	    // 拒绝
//	}
//
// SanitizePath 只做格式净化，接受绝对路径，不把路径限制在某个目录内。
package xfile
