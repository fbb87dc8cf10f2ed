package xrotate

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omeyang/xchunk/internal/fakeclock"
	"github.com/omeyang/xchunk/pkg/util/xfile"
	"github.com/omeyang/xchunk/pkg/util/xsys"
)

// t0 测试基准时刻，恰好位于窗口边界
var t0 = time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

// newTestRotator 创建使用假时钟、UTC、2 分钟窗口的轮转器
func newTestRotator(t *testing.T, base string, clock *fakeclock.Clock, opts ...ChunkOption) *ChunkRotator {
	t.Helper()
	all := append([]ChunkOption{
		WithChunkMinutes(2),
		WithUTC(true),
		WithClock(clock.Now),
		WithLockRetry(3, time.Millisecond),
	}, opts...)
	r, err := NewTimedChunks(base, all...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func writeLine(t *testing.T, r *ChunkRotator, line string) {
	t.Helper()
	_, err := r.Write([]byte(line + "\n"))
	require.NoError(t, err)
}

// suffixes 返回 base 现有分块的后缀，从旧到新
func suffixes(t *testing.T, base string) []string {
	t.Helper()
	chunks, err := ListChunks(base)
	require.NoError(t, err)
	out := make([]string, 0, len(chunks))
	for _, c := range chunks {
		out = append(out, strings.TrimPrefix(c, base+"."))
	}
	return out
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	require.NoError(t, sc.Err())
	return lines
}

// holdLock 以独立句柄持有 base 的锁文件，模拟其他进程
func holdLock(t *testing.T, base string) *xsys.LockFile {
	t.Helper()
	l, err := xsys.OpenLockFile(base + lockSuffix)
	require.NoError(t, err)
	require.NoError(t, l.TryLock())
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func TestNewTimedChunks_Validation(t *testing.T) {
	tests := []struct {
		name    string
		opts    []ChunkOption
		wantErr error
	}{
		{name: "窗口为 0", opts: []ChunkOption{WithChunkMinutes(0)}, wantErr: ErrInvalidChunkMinutes},
		{name: "窗口为负", opts: []ChunkOption{WithChunkMinutes(-1)}, wantErr: ErrInvalidChunkMinutes},
		{name: "窗口超过 60", opts: []ChunkOption{WithChunkMinutes(61)}, wantErr: ErrInvalidChunkMinutes},
		{name: "窗口不整除 60", opts: []ChunkOption{WithChunkMinutes(7)}, wantErr: ErrInvalidChunkMinutes},
		{name: "窗口 11", opts: []ChunkOption{WithChunkMinutes(11)}, wantErr: ErrInvalidChunkMinutes},
		{name: "窗口 13", opts: []ChunkOption{WithChunkMinutes(13)}, wantErr: ErrInvalidChunkMinutes},
		{name: "窗口 45", opts: []ChunkOption{WithChunkMinutes(45)}, wantErr: ErrInvalidChunkMinutes},
		{name: "窗口 59", opts: []ChunkOption{WithChunkMinutes(59)}, wantErr: ErrInvalidChunkMinutes},
		{name: "保留数为负", opts: []ChunkOption{WithRetainCount(-1)}, wantErr: ErrInvalidRetainCount},
		{name: "文件权限为 0", opts: []ChunkOption{WithChunkFileMode(0)}, wantErr: ErrInvalidFileMode},
		{name: "文件权限含非权限位", opts: []ChunkOption{WithChunkFileMode(os.ModeDir | 0o644)}, wantErr: ErrInvalidFileMode},
		{name: "锁尝试次数为 0", opts: []ChunkOption{WithLockRetry(0, time.Millisecond)}, wantErr: ErrInvalidLockRetry},
		{name: "锁尝试次数过多", opts: []ChunkOption{WithLockRetry(maxLockAttempts+1, 0)}, wantErr: ErrInvalidLockRetry},
		{name: "锁重试间隔为负", opts: []ChunkOption{WithLockRetry(1, -time.Millisecond)}, wantErr: ErrInvalidLockRetry},
		{name: "锁重试间隔过长", opts: []ChunkOption{WithLockRetry(1, time.Second)}, wantErr: ErrInvalidLockRetry},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := filepath.Join(t.TempDir(), "sub")
			base := filepath.Join(dir, "app.log")

			r, err := NewTimedChunks(base, append(tt.opts, WithEagerOpen())...)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, r)

			// 校验失败时不做任何文件操作
			_, statErr := os.Stat(dir)
			assert.True(t, os.IsNotExist(statErr), "配置无效时不应创建目录")
		})
	}
}

func TestNewTimedChunks_EmptyFilename(t *testing.T) {
	_, err := NewTimedChunks("")
	assert.ErrorIs(t, err, ErrEmptyFilename)
}

func TestNewTimedChunks_NilOption(t *testing.T) {
	r, err := NewTimedChunks(filepath.Join(t.TempDir(), "app.log"), nil)
	require.NoError(t, err)
	defer r.Close()
	assert.Equal(t, DefaultChunkMinutes, r.cfg.Minutes)
}

func TestNewTimedChunks_LazyOpen(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs", "nested")
	base := filepath.Join(dir, "app.log")
	clock := fakeclock.New(t0.Add(30 * time.Second))

	r := newTestRotator(t, base, clock)

	info, err := os.Stat(dir)
	require.NoError(t, err, "父目录应被创建")
	assert.True(t, info.IsDir())

	assert.Empty(t, r.CurrentFile(), "默认延迟到第一次写入才打开")
	assert.Empty(t, suffixes(t, base))
	assert.Equal(t, "2024-01-01_10-00", r.Window().Suffix())
	assert.Equal(t, t0.Add(2*time.Minute), r.NextRollover())

	writeLine(t, r, "hello")
	assert.Equal(t, base+".2024-01-01_10-00", r.CurrentFile())
	assert.Equal(t, []string{"hello"}, readLines(t, r.CurrentFile()))
}

func TestNewTimedChunks_EagerOpen(t *testing.T) {
	base := filepath.Join(t.TempDir(), "app.log")
	clock := fakeclock.New(t0)

	r := newTestRotator(t, base, clock, WithEagerOpen())
	assert.Equal(t, base+".2024-01-01_10-00", r.CurrentFile())
	assert.Equal(t, []string{"2024-01-01_10-00"}, suffixes(t, base))
}

func TestNewTimedChunks_EagerOpenFailure(t *testing.T) {
	base := filepath.Join(t.TempDir(), "app.log")
	clock := fakeclock.New(t0)
	// 分块路径被目录占用，无法打开
	require.NoError(t, os.Mkdir(base+".2024-01-01_10-00", 0o750))

	r, err := NewTimedChunks(base,
		WithChunkMinutes(2), WithUTC(true), WithClock(clock.Now), WithEagerOpen())
	require.ErrorIs(t, err, ErrOpenChunk)
	assert.Nil(t, r)
}

// TestChunkRotator_EndToEnd 跨越边界：先清理最旧的分块，再创建新窗口的文件
func TestChunkRotator_EndToEnd(t *testing.T) {
	base := filepath.Join(t.TempDir(), "foo.bar")
	for _, s := range []string{"2024-01-01_09-54", "2024-01-01_09-56", "2024-01-01_09-58"} {
		touch(t, base+"."+s)
	}
	clock := fakeclock.New(t0)
	r := newTestRotator(t, base, clock, WithRetainCount(3))

	writeLine(t, r, "a")
	assert.Equal(t, base+".2024-01-01_10-00", r.CurrentFile())
	// 首次打开不清理
	assert.Len(t, suffixes(t, base), 4)

	clock.Set(t0.Add(2*time.Minute + time.Second))
	assert.True(t, r.ShouldRollover())
	writeLine(t, r, "b")

	assert.Equal(t, base+".2024-01-01_10-02", r.CurrentFile())
	assert.Equal(t, []string{
		"2024-01-01_09-56",
		"2024-01-01_09-58",
		"2024-01-01_10-00",
		"2024-01-01_10-02",
	}, suffixes(t, base))
	assert.Equal(t, []string{"a"}, readLines(t, base+".2024-01-01_10-00"))
	assert.Equal(t, []string{"b"}, readLines(t, base+".2024-01-01_10-02"))

	_, err := os.Stat(base + lockSuffix)
	assert.NoError(t, err, "锁文件不参与清理")
}

func TestChunkRotator_RetentionBound(t *testing.T) {
	const retain = 3
	base := filepath.Join(t.TempDir(), "app.log")
	clock := fakeclock.New(t0)
	r := newTestRotator(t, base, clock, WithRetainCount(retain))

	for i := range 30 {
		writeLine(t, r, fmt.Sprintf("line-%d", i))
		got := suffixes(t, base)
		assert.LessOrEqual(t, len(got), retain+1)
		assert.Equal(t, filepath.Base(r.CurrentFile()), "app.log."+got[len(got)-1], "当前分块总是最新的")
		clock.Advance(2 * time.Minute)
	}
	assert.Len(t, suffixes(t, base), retain+1)
}

func TestChunkRotator_NoPruneWhenRetainZero(t *testing.T) {
	base := filepath.Join(t.TempDir(), "app.log")
	clock := fakeclock.New(t0)
	r := newTestRotator(t, base, clock)

	for range 10 {
		writeLine(t, r, "x")
		clock.Advance(2 * time.Minute)
	}
	assert.Len(t, suffixes(t, base), 10)
}

func TestChunkRotator_ShouldRolloverIdempotent(t *testing.T) {
	base := filepath.Join(t.TempDir(), "app.log")
	clock := fakeclock.New(t0.Add(time.Minute))
	r := newTestRotator(t, base, clock)

	for range 5 {
		assert.False(t, r.ShouldRollover())
	}
	clock.Set(t0.Add(2 * time.Minute))
	for range 5 {
		assert.True(t, r.ShouldRollover(), "边界时刻本身触发轮转")
	}
	assert.Empty(t, suffixes(t, base), "ShouldRollover 不访问文件系统")
	_, err := os.Stat(base + lockSuffix)
	assert.True(t, os.IsNotExist(err))
}

// TestChunkRotator_Gap 长时间没有写入后，记录落到所属的窗口而不是中间窗口
func TestChunkRotator_Gap(t *testing.T) {
	base := filepath.Join(t.TempDir(), "app.log")
	clock := fakeclock.New(t0)
	r := newTestRotator(t, base, clock)

	writeLine(t, r, "first")
	clock.Set(t0.Add(7 * time.Minute))
	writeLine(t, r, "after gap")

	assert.Equal(t, base+".2024-01-01_10-06", r.CurrentFile())
	assert.Equal(t, []string{"2024-01-01_10-00", "2024-01-01_10-06"}, suffixes(t, base))
	assert.Equal(t, t0.Add(8*time.Minute), r.NextRollover())
}

// TestChunkRotator_LockBusy 锁被其他进程持有：继续写旧文件，锁释放后的下一次写入完成轮转
func TestChunkRotator_LockBusy(t *testing.T) {
	base := filepath.Join(t.TempDir(), "app.log")
	clock := fakeclock.New(t0)
	var errs []error
	r := newTestRotator(t, base, clock,
		WithRetainCount(1),
		WithChunkOnError(func(err error) { errs = append(errs, err) }),
	)
	writeLine(t, r, "before")

	holder := holdLock(t, base)

	clock.Set(t0.Add(2*time.Minute + time.Second))
	writeLine(t, r, "busy-1")
	writeLine(t, r, "busy-2")

	assert.Equal(t, base+".2024-01-01_10-00", r.CurrentFile(), "锁被占用时不轮转")
	assert.True(t, r.ShouldRollover(), "rolloverAt 保持不变，下次写入重试")
	assert.Equal(t, []string{"before", "busy-1", "busy-2"}, readLines(t, base+".2024-01-01_10-00"))
	assert.Empty(t, errs, "锁被占用不是错误")

	require.NoError(t, holder.Unlock())
	writeLine(t, r, "after")

	assert.Equal(t, base+".2024-01-01_10-02", r.CurrentFile())
	assert.False(t, r.ShouldRollover())
	assert.Equal(t, []string{"after"}, readLines(t, base+".2024-01-01_10-02"))
	assert.Equal(t, []string{"2024-01-01_10-00", "2024-01-01_10-02"}, suffixes(t, base))
}

// TestChunkRotator_FirstOpenLockBusy 首次打开时锁一直被占用：有界重试后无锁打开
func TestChunkRotator_FirstOpenLockBusy(t *testing.T) {
	base := filepath.Join(t.TempDir(), "app.log")
	clock := fakeclock.New(t0)
	holdLock(t, base)

	r := newTestRotator(t, base, clock, WithLockRetry(2, 0))
	writeLine(t, r, "x")

	assert.Equal(t, base+".2024-01-01_10-00", r.CurrentFile())
	assert.Equal(t, []string{"x"}, readLines(t, r.CurrentFile()))
}

// TestChunkRotator_TwoWriters 两个实例（各自的锁句柄，等同两个进程）同时写同一基础路径
func TestChunkRotator_TwoWriters(t *testing.T) {
	const perPhase = 200
	base := filepath.Join(t.TempDir(), "app.log")
	clock := fakeclock.New(t0)

	writers := []*ChunkRotator{
		newTestRotator(t, base, clock, WithRetainCount(5)),
		newTestRotator(t, base, clock, WithRetainCount(5)),
	}

	var (
		mu      sync.Mutex
		written = make(map[string]bool)
	)
	record := func(line string) {
		mu.Lock()
		written[line] = true
		mu.Unlock()
	}

	var phase1 sync.WaitGroup
	for id, w := range writers {
		phase1.Go(func() {
			for i := range perPhase {
				line := fmt.Sprintf("w%d-p1-%d", id, i)
				_, err := w.Write([]byte(line + "\n"))
				assert.NoError(t, err)
				record(line)
			}
		})
	}
	phase1.Wait()

	clock.Set(t0.Add(2*time.Minute + time.Second))

	var phase2 sync.WaitGroup
	for id, w := range writers {
		phase2.Go(func() {
			// 另一实例持锁轮转时本实例会暂留旧文件，持续写入直到完成轮转
			for i := 0; i < 1000 && !strings.HasSuffix(w.CurrentFile(), "10-02"); i++ {
				line := fmt.Sprintf("w%d-p2-%d", id, i)
				_, err := w.Write([]byte(line + "\n"))
				assert.NoError(t, err)
				record(line)
				runtime.Gosched()
			}
			last := fmt.Sprintf("w%d-last", id)
			_, err := w.Write([]byte(last + "\n"))
			assert.NoError(t, err)
			record(last)
		})
	}
	phase2.Wait()

	for _, w := range writers {
		assert.Equal(t, base+".2024-01-01_10-02", w.CurrentFile())
	}

	got := make(map[string]bool)
	for _, s := range suffixes(t, base) {
		for _, line := range readLines(t, base+"."+s) {
			assert.False(t, got[line], "重复的记录 %q", line)
			got[line] = true
		}
	}
	assert.Equal(t, written, got, "所有记录都应完整落盘")

	latest := readLines(t, base+".2024-01-01_10-02")
	assert.Contains(t, latest, "w0-last")
	assert.Contains(t, latest, "w1-last")
	assert.Equal(t, []string{"2024-01-01_10-00", "2024-01-01_10-02"}, suffixes(t, base))
}

func TestChunkRotator_ConcurrentWrites(t *testing.T) {
	base := filepath.Join(t.TempDir(), "app.log")
	clock := fakeclock.New(t0)
	r := newTestRotator(t, base, clock, WithRetainCount(2))

	var wg sync.WaitGroup
	for g := range 8 {
		wg.Go(func() {
			for i := range 100 {
				if g == 0 && i%25 == 0 {
					clock.Advance(2 * time.Minute)
				}
				_, err := fmt.Fprintf(r, "g%d-%d\n", g, i)
				assert.NoError(t, err)
			}
		})
	}
	wg.Wait()

	assert.LessOrEqual(t, len(suffixes(t, base)), 3)
}

// TestChunkRotator_LockFallbackToWorkDir 锁文件路径无权限时回退到当前工作目录
func TestChunkRotator_LockFallbackToWorkDir(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("依赖 Unix 文件权限")
	}
	if os.Geteuid() == 0 {
		t.Skip("root 不受文件权限限制")
	}

	base := filepath.Join(t.TempDir(), "app.log")
	require.NoError(t, os.WriteFile(base+lockSuffix, nil, 0o400))
	wd := t.TempDir()
	t.Chdir(wd)

	clock := fakeclock.New(t0)
	r := newTestRotator(t, base, clock)
	writeLine(t, r, "a")
	clock.Set(t0.Add(2 * time.Minute))
	writeLine(t, r, "b")

	_, err := os.Stat(filepath.Join(wd, "app.log"+lockSuffix))
	assert.NoError(t, err, "应在工作目录创建回退锁文件")
	assert.Equal(t, base+".2024-01-01_10-02", r.CurrentFile())
}

// TestChunkRotator_LockPermissionFallback 锁文件路径返回无权限错误时改用工作目录下的锁文件，
// 之后的轮转都以回退锁互斥
func TestChunkRotator_LockPermissionFallback(t *testing.T) {
	base := filepath.Join(t.TempDir(), "app.log")
	wd := t.TempDir()
	t.Chdir(wd)

	orig := newLockFile
	t.Cleanup(func() { newLockFile = orig })
	var opened []string
	newLockFile = func(path string) (*xsys.LockFile, error) {
		opened = append(opened, path)
		if path == base+lockSuffix {
			return nil, &fs.PathError{Op: "open", Path: path, Err: fs.ErrPermission}
		}
		return orig(path)
	}

	clock := fakeclock.New(t0)
	r := newTestRotator(t, base, clock)
	writeLine(t, r, "a")

	fallback := xfile.WorkDirPath(base + lockSuffix)
	assert.Equal(t, []string{base + lockSuffix, fallback}, opened)
	_, err := os.Stat(filepath.Join(wd, "app.log"+lockSuffix))
	require.NoError(t, err, "应在工作目录创建回退锁文件")
	_, err = os.Stat(base + lockSuffix)
	assert.True(t, os.IsNotExist(err))

	// 其他进程持有回退锁时轮转让步
	other, err := xsys.OpenLockFile(filepath.Join(wd, "app.log"+lockSuffix))
	require.NoError(t, err)
	t.Cleanup(func() { _ = other.Close() })
	require.NoError(t, other.TryLock())

	clock.Set(t0.Add(2 * time.Minute))
	writeLine(t, r, "b")
	assert.Equal(t, base+".2024-01-01_10-00", r.CurrentFile())
	assert.True(t, r.ShouldRollover())

	require.NoError(t, other.Unlock())
	writeLine(t, r, "c")
	assert.Equal(t, base+".2024-01-01_10-02", r.CurrentFile())
	assert.Len(t, opened, 2, "锁句柄应复用")
}

// TestChunkRotator_LockUnsupported 平台不支持文件锁时只上报一次，轮转与清理照常进行
func TestChunkRotator_LockUnsupported(t *testing.T) {
	orig := tryLockFile
	t.Cleanup(func() { tryLockFile = orig })
	var attempts atomic.Int32
	tryLockFile = func(*xsys.LockFile) error {
		attempts.Add(1)
		return xsys.ErrUnsupportedPlatform
	}

	base := filepath.Join(t.TempDir(), "app.log")
	var reported []error
	clock := fakeclock.New(t0)
	r := newTestRotator(t, base, clock,
		WithRetainCount(1),
		WithChunkOnError(func(err error) { reported = append(reported, err) }),
	)

	writeLine(t, r, "a")
	for i := 1; i <= 2; i++ {
		clock.Set(t0.Add(time.Duration(2*i) * time.Minute))
		writeLine(t, r, fmt.Sprintf("line-%d", i))
		assert.False(t, r.ShouldRollover())
	}

	assert.Equal(t, int32(1), attempts.Load(), "确认不支持后不再尝试加锁")
	require.Len(t, reported, 1)
	assert.ErrorIs(t, reported[0], xsys.ErrUnsupportedPlatform)
	assert.Equal(t, base+".2024-01-01_10-04", r.CurrentFile())
	assert.Equal(t, []string{"2024-01-01_10-02", "2024-01-01_10-04"}, suffixes(t, base))
}

// TestChunkRotator_PruneFailure 单个文件删除失败只上报，其余文件继续清理，写入不受影响
func TestChunkRotator_PruneFailure(t *testing.T) {
	base := filepath.Join(t.TempDir(), "app.log")
	for _, s := range []string{"2024-01-01_09-50", "2024-01-01_09-52", "2024-01-01_09-54"} {
		touch(t, base+"."+s)
	}

	orig := removeFile
	t.Cleanup(func() { removeFile = orig })
	errBoom := errors.New("boom")
	removeFile = func(name string) error {
		if strings.HasSuffix(name, "09-50") {
			return errBoom
		}
		return orig(name)
	}

	var errs []error
	clock := fakeclock.New(t0.Add(-time.Second)) // 09:59:59
	r := newTestRotator(t, base, clock,
		WithRetainCount(1),
		WithChunkOnError(func(err error) { errs = append(errs, err) }),
	)
	writeLine(t, r, "a")

	clock.Set(t0)
	writeLine(t, r, "b")

	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], errBoom)
	// 4 个分块保留 1 个：09-50 删除失败，09-52 与 09-54 照常删除
	assert.Equal(t, []string{"2024-01-01_09-50", "2024-01-01_09-58", "2024-01-01_10-00"}, suffixes(t, base))
	assert.Equal(t, []string{"b"}, readLines(t, base+".2024-01-01_10-00"))
}

func TestChunkRotator_OnErrorPanicIsolated(t *testing.T) {
	base := filepath.Join(t.TempDir(), "app.log")
	touch(t, base+".2024-01-01_09-50")

	orig := removeFile
	t.Cleanup(func() { removeFile = orig })
	removeFile = func(string) error { return errors.New("boom") }

	var calls atomic.Int32
	clock := fakeclock.New(t0)
	r := newTestRotator(t, base, clock,
		WithRetainCount(1),
		WithChunkOnError(func(error) {
			calls.Add(1)
			panic("callback panic")
		}),
	)
	writeLine(t, r, "a")
	clock.Advance(2 * time.Minute)

	assert.NotPanics(t, func() { writeLine(t, r, "b") })
	assert.Positive(t, calls.Load())
	assert.Equal(t, base+".2024-01-01_10-02", r.CurrentFile())
}

// TestChunkRotator_OpenFailure 新窗口文件无法打开：返回 ErrOpenChunk，数据不落盘，下次写入重试
func TestChunkRotator_OpenFailure(t *testing.T) {
	base := filepath.Join(t.TempDir(), "app.log")
	clock := fakeclock.New(t0)
	r := newTestRotator(t, base, clock)
	writeLine(t, r, "a")

	blocked := base + ".2024-01-01_10-02"
	require.NoError(t, os.Mkdir(blocked, 0o750))
	clock.Advance(2 * time.Minute)

	_, err := r.Write([]byte("lost\n"))
	require.ErrorIs(t, err, ErrOpenChunk)
	assert.Equal(t, base+".2024-01-01_10-00", r.CurrentFile())
	assert.Equal(t, []string{"a"}, readLines(t, base+".2024-01-01_10-00"))

	require.NoError(t, os.Remove(blocked))
	writeLine(t, r, "b")
	assert.Equal(t, blocked, r.CurrentFile())
}

func TestChunkRotator_Rotate(t *testing.T) {
	base := filepath.Join(t.TempDir(), "app.log")
	for _, s := range []string{"2024-01-01_09-54", "2024-01-01_09-56", "2024-01-01_09-58"} {
		touch(t, base+"."+s)
	}
	clock := fakeclock.New(t0.Add(30 * time.Second))
	r := newTestRotator(t, base, clock, WithRetainCount(2))

	require.NoError(t, r.Rotate())
	assert.Equal(t, base+".2024-01-01_10-00", r.CurrentFile())
	// 清理后再创建：2 个旧分块 + 当前分块
	assert.Equal(t, []string{"2024-01-01_09-56", "2024-01-01_09-58", "2024-01-01_10-00"}, suffixes(t, base))

	writeLine(t, r, "a")
	require.NoError(t, r.Rotate(), "同一窗口内重复 Rotate 追加到同一文件")
	writeLine(t, r, "b")
	assert.Equal(t, []string{"a", "b"}, readLines(t, r.CurrentFile()))
}

func TestChunkRotator_Close(t *testing.T) {
	base := filepath.Join(t.TempDir(), "app.log")
	clock := fakeclock.New(t0)
	r, err := NewTimedChunks(base, WithUTC(true), WithClock(clock.Now))
	require.NoError(t, err)

	writeLine(t, r, "a")
	require.NoError(t, r.Close())

	_, err = r.Write([]byte("b"))
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, r.Rotate(), ErrClosed)
	assert.ErrorIs(t, r.Close(), ErrClosed)

	// 关闭后锁已释放，其他持有者可以立即拿到
	l, err := xsys.OpenLockFile(base + lockSuffix)
	require.NoError(t, err)
	defer l.Close()
	assert.NoError(t, l.TryLock())
}

func TestChunkRotator_CloseBeforeWrite(t *testing.T) {
	r, err := NewTimedChunks(filepath.Join(t.TempDir(), "app.log"))
	require.NoError(t, err)
	assert.NoError(t, r.Close())
}

func TestChunkRotator_FileMode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("Windows 不支持 Unix 权限位")
	}
	base := filepath.Join(t.TempDir(), "app.log")
	clock := fakeclock.New(t0)
	r := newTestRotator(t, base, clock, WithChunkFileMode(0o600))
	writeLine(t, r, "a")

	info, err := os.Stat(r.CurrentFile())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestChunkRotator_LocalTime(t *testing.T) {
	base := filepath.Join(t.TempDir(), "app.log")
	clock := fakeclock.New(t0)
	r, err := NewTimedChunks(base, WithClock(clock.Now), WithChunkMinutes(60))
	require.NoError(t, err)
	defer r.Close()

	writeLine(t, r, "a")
	want := WindowAt(t0, 60, time.Local)
	assert.Equal(t, ChunkName(base, want), r.CurrentFile())
	assert.Equal(t, time.Local, r.NextRollover().Location())
}

func TestChunkRotator_Base(t *testing.T) {
	r, err := NewTimedChunks(filepath.Join(t.TempDir(), "logs", "..", "app.log"))
	require.NoError(t, err)
	defer r.Close()
	assert.Equal(t, "app.log", filepath.Base(r.Base()))
	assert.NotContains(t, r.Base(), "..")
}

// TestChunkRotator_DaylightSavingFallBack 夏令时回拨后的重复小时内不会反复轮转
func TestChunkRotator_DaylightSavingFallBack(t *testing.T) {
	ny := newYork(t)
	orig := time.Local
	time.Local = ny
	t.Cleanup(func() { time.Local = orig })

	base := filepath.Join(t.TempDir(), "app.log")
	// 01:31 EST，同一墙上时间一小时前已出现过一次（EDT）
	clock := fakeclock.New(time.Date(2024, 11, 3, 6, 31, 0, 0, time.UTC))
	r, err := NewTimedChunks(base,
		WithChunkMinutes(10),
		WithRetainCount(2),
		WithClock(clock.Now),
		WithLockRetry(3, time.Millisecond),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })

	for i := range 5 {
		writeLine(t, r, fmt.Sprintf("line-%d", i))
		assert.False(t, r.ShouldRollover(), "write %d at %s", i, clock.Now().In(ny))
		clock.Advance(time.Minute)
	}

	assert.True(t, r.NextRollover().Equal(time.Date(2024, 11, 3, 6, 40, 0, 0, time.UTC)),
		"next rollover %s", r.NextRollover())
	assert.Equal(t, base+".2024-11-03_01-30", r.CurrentFile())
	assert.Len(t, readLines(t, r.CurrentFile()), 5)
}
