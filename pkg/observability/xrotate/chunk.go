package xrotate

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/omeyang/xchunk/pkg/util/xfile"
	"github.com/omeyang/xchunk/pkg/util/xsys"
)

// removeFile 删除文件，测试中替换以覆盖删除失败路径。
var removeFile = os.Remove

// ChunkRotator 按固定宽度的时间窗口切分日志文件，多进程写同一日志时安全。
//
// 每个窗口对应一个文件 <base>.<YYYY-MM-DD_HH-MM>，以追加模式打开。
// 跨进程的轮转通过锁文件 <base>_lock 互斥，只做非阻塞尝试：
// 拿不到锁的写入者继续写旧文件，在后续写入时再次尝试，写入从不等待其他进程。
//
// 状态机：STEADY（写当前分块）→ ROLLING（持锁：清理 + 打开新分块）→ STEADY。
//
// 进程内的并发由内部互斥锁串行化，单个实例可被多个 goroutine 共享。
type ChunkRotator struct {
	mu sync.Mutex // 串行化 轮转判断 → 轮转 → 写入

	cfg      chunkConfig
	base     string
	lockPath string
	loc      *time.Location
	metrics  *chunkMetrics

	lock       *xsys.LockFile // 跨进程锁句柄，首次需要时打开
	noLock     bool           // 平台不支持文件锁，轮转不再加锁
	file       *os.File       // 当前分块，nil 表示尚未打开
	name       string         // 当前分块路径
	window     ChunkWindow    // 当前分块对应的窗口
	rolloverAt atomic.Int64   // 下一次轮转的时刻（Unix 秒）

	closed atomic.Bool
}

// NewTimedChunks 创建按时间窗口分块的日志轮转器
//
// 参数:
//   - filename: 基础路径，分块文件是它的同级文件 <filename>.<窗口后缀>
//   - opts: 可选配置项
//
// 所有配置在任何文件操作之前校验，窗口宽度无效时返回 [ErrInvalidChunkMinutes]
// 且不会创建任何文件。校验通过后会创建不存在的父目录（权限 0750）。
func NewTimedChunks(filename string, opts ...ChunkOption) (*ChunkRotator, error) {
	if filename == "" {
		return nil, ErrEmptyFilename
	}

	cfg := defaultChunkConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if err := validateChunkConfig(&cfg); err != nil {
		return nil, err
	}

	safePath, err := xfile.SanitizePath(filename)
	if err != nil {
		return nil, err
	}

	metrics, err := newChunkMetrics(cfg.MeterProvider, filepath.Base(safePath))
	if err != nil {
		return nil, fmt.Errorf("xrotate: create metrics: %w", err)
	}

	if err := xfile.EnsureDir(safePath); err != nil {
		return nil, err
	}

	loc := time.Local
	if cfg.UTC {
		loc = time.UTC
	}

	r := &ChunkRotator{
		cfg:      cfg,
		base:     safePath,
		lockPath: safePath + lockSuffix,
		loc:      loc,
		metrics:  metrics,
	}
	r.rolloverAt.Store(r.computeRollover())

	if cfg.EagerOpen {
		r.mu.Lock()
		err := r.openGuarded(false)
		r.mu.Unlock()
		if err != nil {
			r.closeLock()
			return nil, err
		}
	}
	return r, nil
}

// currentWindow 当前时刻所在的窗口
func (r *ChunkRotator) currentWindow() ChunkWindow {
	return WindowAt(r.cfg.Now(), r.cfg.Minutes, r.loc)
}

// computeRollover 当前窗口的结束时刻（Unix 秒）
func (r *ChunkRotator) computeRollover() int64 {
	return r.currentWindow().End.Unix()
}

// ShouldRollover 报告是否已越过当前窗口的结束时刻。
//
// 每次写入都会调用，只做整数比较，不访问文件系统也不获取锁。
func (r *ChunkRotator) ShouldRollover() bool {
	return r.cfg.Now().Unix() >= r.rolloverAt.Load()
}

// Write 实现 io.Writer 接口
//
// 写入前若已越过窗口边界则先尝试轮转；锁被其他进程占用时放弃本次轮转，
// 继续写入旧文件。分块文件无法打开时返回包装了 [ErrOpenChunk] 的错误。
func (r *ChunkRotator) Write(p []byte) (n int, err error) {
	if r.closed.Load() {
		return 0, ErrClosed
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Close 可能在等待 mu 期间完成
	if r.closed.Load() {
		return 0, ErrClosed
	}

	if r.ShouldRollover() {
		if err := r.rollover(); err != nil {
			return 0, err
		}
	}
	if r.file == nil {
		if err := r.openGuarded(false); err != nil {
			return 0, err
		}
		r.rolloverAt.Store(r.computeRollover())
	}
	return r.file.Write(p)
}

// rollover 执行一次轮转。调用方必须持有 r.mu。
//
// 锁被占用时静默返回，保持旧文件和 rolloverAt 不变，下次写入会再次尝试。
// 先清理再创建，轮转完成后分块数量至多为 RetainCount+1。
func (r *ChunkRotator) rollover() error {
	if err := r.tryLock(); err != nil {
		if errors.Is(err, xsys.ErrLockBusy) {
			r.metrics.recordLockBusy()
		} else {
			r.reportError(err)
		}
		return nil
	}
	defer r.unlock()

	if r.cfg.RetainCount > 0 {
		r.prune()
	}
	if err := r.openChunk(); err != nil {
		return err
	}
	r.rolloverAt.Store(r.computeRollover())
	r.metrics.recordRollover()
	return nil
}

// prune 删除超出保留数量的旧分块。单个文件删除失败只上报，不中断清理。
func (r *ChunkRotator) prune() {
	obsolete, err := ObsoleteChunks(r.base, r.cfg.RetainCount)
	if err != nil {
		r.reportError(fmt.Errorf("xrotate: list chunks: %w", err))
		return
	}

	var deleted, failed int
	for _, name := range obsolete {
		if err := removeFile(name); err != nil {
			failed++
			r.reportError(fmt.Errorf("xrotate: remove chunk: %w", err))
			continue
		}
		deleted++
	}
	r.metrics.recordPrune(deleted, failed)
}

// Rotate 强制轮转：清理旧分块并重新打开当前窗口的文件
//
// 与写入路径不同，Rotate 在锁被占用时按 WithLockRetry 的设置有界重试，
// 仍拿不到锁时跳过清理直接打开文件。
func (r *ChunkRotator) Rotate() error {
	if r.closed.Load() {
		return ErrClosed
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed.Load() {
		return ErrClosed
	}

	if err := r.openGuarded(true); err != nil {
		return err
	}
	r.rolloverAt.Store(r.computeRollover())
	r.metrics.recordRollover()
	return nil
}

// Close 实现 io.Closer 接口
//
// 关闭当前分块和锁文件句柄。关闭后调用 Write 或 Rotate 返回 [ErrClosed]，
// 重复调用 Close 也返回 [ErrClosed]。
func (r *ChunkRotator) Close() error {
	if r.closed.Swap(true) {
		return ErrClosed
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var err error
	if r.file != nil {
		err = r.file.Close()
		r.file = nil
	}
	r.closeLock()
	return err
}

// closeLock 关闭锁文件句柄
func (r *ChunkRotator) closeLock() {
	if r.lock != nil {
		_ = r.lock.Close()
		r.lock = nil
	}
}

// CurrentFile 返回当前分块文件路径，尚未打开时返回空字符串
func (r *ChunkRotator) CurrentFile() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.name
}

// Window 返回当前分块对应的窗口，尚未打开时返回当前时刻所在的窗口
func (r *ChunkRotator) Window() ChunkWindow {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.file == nil {
		return r.currentWindow()
	}
	return r.window
}

// NextRollover 返回下一次轮转的时刻
func (r *ChunkRotator) NextRollover() time.Time {
	return time.Unix(r.rolloverAt.Load(), 0).In(r.loc)
}

// Base 返回规范化后的基础路径
func (r *ChunkRotator) Base() string {
	return r.base
}

// reportError 通过回调上报内部错误
//
// 回调 panic 被 recover 隔离，日志错误通知不应中断写入。
func (r *ChunkRotator) reportError(err error) {
	if err != nil && r.cfg.OnError != nil {
		defer func() { recover() }() //nolint:errcheck // recover 返回值无需检查
		r.cfg.OnError(err)
	}
}
