package xfile

import (
	"fmt"
	"path/filepath"
	"strings"
)

// containsNullByte 内核在空字节处截断路径，Go 看到的路径与实际操作的路径会不一致。
func containsNullByte(path string) bool {
	return strings.ContainsRune(path, 0)
}

// isSeparator 同时识别 '/' 和 '\'，Windows 风格的穿越在 Linux 上同样拒绝。
func isSeparator(c byte) bool {
	return c == '/' || c == '\\'
}

// hasDotDotSegment 报告路径中是否存在恰好为 ".." 的路径段。
// "..config"、"app..log" 这类文件名不算穿越。
func hasDotDotSegment(path string) bool {
	start := 0
	for i := 0; i <= len(path); i++ {
		if i < len(path) && !isSeparator(path[i]) {
			continue
		}
		if path[start:i] == ".." {
			return true
		}
		start = i + 1
	}
	return false
}

// SanitizePath 检查并规范化一个文件路径。
//
// 拒绝以下输入：
//   - 空路径（[ErrEmptyPath]）
//   - 包含空字节（[ErrNullByte]）
//   - 以 "/" 或 "\" 结尾的目录路径，或规范化后没有文件名（[ErrInvalidPath]）
//   - 规范化后仍含 ".." 路径段，即相对路径穿越（[ErrPathTraversal]）
//
// 绝对路径中的 ".." 由 filepath.Clean 消解，例如 "/var/log/../app.log" 得到 "/var/app.log"。
func SanitizePath(filename string) (string, error) {
	if filename == "" {
		return "", fmt.Errorf("filename is required: %w", ErrEmptyPath)
	}
	if containsNullByte(filename) {
		return "", fmt.Errorf("filename contains null byte: %w", ErrNullByte)
	}
	// Clean 会去掉尾部分隔符，必须先检查
	if isSeparator(filename[len(filename)-1]) {
		return "", fmt.Errorf("path is a directory: %w", ErrInvalidPath)
	}

	cleaned := filepath.Clean(filename)
	if hasDotDotSegment(cleaned) {
		return "", fmt.Errorf("path traversal in filename: %w", ErrPathTraversal)
	}

	base := filepath.Base(cleaned)
	if base == "." || base == string(filepath.Separator) {
		return "", fmt.Errorf("no file name specified: %w", ErrInvalidPath)
	}
	return cleaned, nil
}

// WorkDirPath 返回与 path 同名、位于当前工作目录下的相对路径，如 "./app.log_lock"。
//
// 用于配置路径所在目录不可写时的回退。
func WorkDirPath(path string) string {
	return "." + string(filepath.Separator) + filepath.Base(path)
}
