// Package fakeclock 提供可手动推进的时钟，供测试模拟跨越时间窗口。
package fakeclock

import (
	"sync"
	"time"
)

// Clock 并发安全的可设置时钟。
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// New 创建停在 t 的时钟。
func New(t time.Time) *Clock {
	return &Clock{now: t}
}

// Now 返回当前时刻，签名与 time.Now 一致，可直接作为注入函数。
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set 将时钟设置到 t。
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

// Advance 推进 d 并返回推进后的时刻。
func (c *Clock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	return c.now
}
