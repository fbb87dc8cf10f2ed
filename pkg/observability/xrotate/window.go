package xrotate

import (
	"fmt"
	"time"
)

const (
	// ChunkSuffixLayout 分块文件后缀的时间格式（YYYY-MM-DD_HH-MM，24 小时制，补零）。
	// 与已有日志目录互通，格式必须逐字节一致。
	ChunkSuffixLayout = "2006-01-02_15-04"

	minChunkMinutes = 1
	maxChunkMinutes = 60
	minutesPerHour  = 60
)

// ChunkWindow 一个分块覆盖的时间窗口 [Start, End)。
//
// Start 的分钟数是窗口宽度的整数倍，秒和纳秒为零；End-Start 恰为窗口宽度。
type ChunkWindow struct {
	Start time.Time
	End   time.Time
}

// Suffix 返回窗口对应的文件名后缀，如 "2024-01-01_10-02"。
func (w ChunkWindow) Suffix() string {
	return w.Start.Format(ChunkSuffixLayout)
}

// Contains 报告 t 是否落在窗口内。
func (w ChunkWindow) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// ValidateChunkMinutes 校验窗口宽度：必须在 [1, 60] 内且整除 60，
// 这样窗口恰好铺满每个小时，跨小时、跨天都不会漂移。
func ValidateChunkMinutes(minutes int) error {
	if minutes < minChunkMinutes || minutes > maxChunkMinutes || minutesPerHour%minutes != 0 {
		return fmt.Errorf("%w: got %d, want a divisor of %d in %d~%d",
			ErrInvalidChunkMinutes, minutes, minutesPerHour, minChunkMinutes, maxChunkMinutes)
	}
	return nil
}

// WindowAt 计算 now 所在的分块窗口。
//
// now 先换算到 loc，再把分钟向下取整到 minutes 的倍数、秒清零。
// minutes 必须已通过 [ValidateChunkMinutes]；loc 为 nil 时使用 time.Local。
//
// 起点由 now 直接减去多余的分、秒、纳秒得到，沿用 now 的时区偏移。
// 夏令时结束后重复的那一小时里，同一墙上时间对应两个时刻，按日历字段
// 重建会落到较早的那个，窗口不再包含 now。
func WindowAt(now time.Time, minutes int, loc *time.Location) ChunkWindow {
	if loc == nil {
		loc = time.Local
	}
	t := now.In(loc)
	start := t.Add(-(time.Duration(t.Minute()%minutes)*time.Minute +
		time.Duration(t.Second())*time.Second +
		time.Duration(t.Nanosecond())))
	return ChunkWindow{
		Start: start,
		End:   start.Add(time.Duration(minutes) * time.Minute),
	}
}

// ChunkName 返回 base 在窗口 w 对应的分块文件路径：<base>.<suffix>。
func ChunkName(base string, w ChunkWindow) string {
	return base + "." + w.Suffix()
}
