package xrotate

import (
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
)

// chunkSuffixPattern 分块后缀必须完整匹配，带额外字符（如 ".gz"）的文件不算分块。
var chunkSuffixPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}_\d{2}-\d{2}$`)

// IsChunkName 报告目录项 name 是否是 baseName 的分块文件名：
// "<baseName>." 后紧跟完整的 YYYY-MM-DD_HH-MM 后缀。
func IsChunkName(baseName, name string) bool {
	suffix, ok := strings.CutPrefix(name, baseName+".")
	return ok && chunkSuffixPattern.MatchString(suffix)
}

// ListChunks 列出 base 所在目录中属于 base 的全部分块文件，按文件名升序返回完整路径。
//
// 后缀格式保证字典序即时间序，结果从旧到新。
func ListChunks(base string) ([]string, error) {
	dir, baseName := filepath.Split(base)
	if dir == "" {
		dir = "."
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var chunks []string
	for _, e := range entries {
		if e.IsDir() || !IsChunkName(baseName, e.Name()) {
			continue
		}
		chunks = append(chunks, filepath.Join(dir, e.Name()))
	}
	slices.Sort(chunks)
	return chunks, nil
}

// ObsoleteChunks 返回超出保留数量、应当删除的分块文件（从旧到新）。
//
// 分块数量少于 retain 时不删除任何文件；否则保留最新的 retain 个，其余全部返回。
// retain 为 0 表示不做清理，返回 nil。
func ObsoleteChunks(base string, retain int) ([]string, error) {
	if retain <= 0 {
		return nil, nil
	}
	chunks, err := ListChunks(base)
	if err != nil {
		return nil, err
	}
	if len(chunks) < retain {
		return nil, nil
	}
	return chunks[:len(chunks)-retain], nil
}
