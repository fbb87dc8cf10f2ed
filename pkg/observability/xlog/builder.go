package xlog

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/omeyang/xchunk/pkg/observability/xrotate"
)

const (
	formatText = "text"
	formatJSON = "json"
)

// Builder 日志配置构建器
//
// 遇到第一个配置错误后，后续 Set 调用仍可链式执行，错误在 Build 时返回。
type Builder struct {
	output    io.Writer
	levelVar  *slog.LevelVar
	format    string
	addSource bool
	onError   func(error)
	err       error

	// 轮转器在 Build 时创建，这样 SetOnError 的调用顺序不影响轮转器的错误回调
	newRotator func(onError func(error)) (xrotate.Rotator, error)
}

// New 创建构建器，默认 stderr、Info 级别、text 格式
func New() *Builder {
	levelVar := new(slog.LevelVar)
	levelVar.Set(slog.LevelInfo)
	return &Builder{
		output:   os.Stderr,
		levelVar: levelVar,
		format:   formatText,
	}
}

func (b *Builder) setErr(err error) *Builder {
	if b.err == nil {
		b.err = err
	}
	return b
}

// SetOutput 设置输出目标，会覆盖之前的轮转设置
func (b *Builder) SetOutput(w io.Writer) *Builder {
	if w == nil {
		return b.setErr(ErrNilOutput)
	}
	b.output = w
	b.newRotator = nil
	return b
}

// SetLevel 设置日志级别
func (b *Builder) SetLevel(level Level) *Builder {
	b.levelVar.Set(slog.Level(level))
	return b
}

// SetLevelString 通过字符串设置日志级别
func (b *Builder) SetLevelString(s string) *Builder {
	level, err := ParseLevel(s)
	if err != nil {
		return b.setErr(err)
	}
	return b.SetLevel(level)
}

// SetFormat 设置输出格式：text 或 json，空字符串视为 text
func (b *Builder) SetFormat(format string) *Builder {
	switch f := strings.ToLower(strings.TrimSpace(format)); f {
	case "", formatText:
		b.format = formatText
	case formatJSON:
		b.format = formatJSON
	default:
		return b.setErr(fmt.Errorf("%w: %q", ErrUnknownFormat, format))
	}
	return b
}

// SetAddSource 是否记录源码位置
func (b *Builder) SetAddSource(enable bool) *Builder {
	b.addSource = enable
	return b
}

// SetChunkRotation 输出到按时间窗口分块的文件，多个进程可写同一基础路径
//
// 未通过 opts 指定错误回调时，轮转器的内部错误（清理失败等）转交 SetOnError 设置的回调。
func (b *Builder) SetChunkRotation(filename string, opts ...xrotate.ChunkOption) *Builder {
	b.newRotator = func(onError func(error)) (xrotate.Rotator, error) {
		all := make([]xrotate.ChunkOption, 0, len(opts)+1)
		if onError != nil {
			all = append(all, xrotate.WithChunkOnError(onError))
		}
		return xrotate.NewTimedChunks(filename, append(all, opts...)...)
	}
	return b
}

// SetRotation 输出到按大小轮转的文件（单进程）
func (b *Builder) SetRotation(filename string, opts ...xrotate.LumberjackOption) *Builder {
	b.newRotator = func(func(error)) (xrotate.Rotator, error) {
		return xrotate.NewLumberjack(filename, opts...)
	}
	return b
}

// SetOnError 设置内部错误回调
//
// Handler 写入失败（磁盘满、分块文件无法打开等）时调用。回调在写日志的 goroutine 上
// 同步执行，应保持轻量；回调内再次触发的日志错误不会递归回调，回调 panic 被隔离。
func (b *Builder) SetOnError(fn func(error)) *Builder {
	b.onError = fn
	return b
}

// Build 构建 Logger
//
// 返回的 cleanup 关闭轮转器等资源，可重复调用。
func (b *Builder) Build() (LoggerWithLevel, func() error, error) {
	if b.err != nil {
		return nil, nil, b.err
	}

	output := b.output
	var rotator xrotate.Rotator
	if b.newRotator != nil {
		r, err := b.newRotator(b.onError)
		if err != nil {
			return nil, nil, fmt.Errorf("xlog: create rotator: %w", err)
		}
		rotator = r
		output = r
	}

	opts := &slog.HandlerOptions{
		Level:     b.levelVar,
		AddSource: b.addSource,
	}
	var handler slog.Handler
	if b.format == formatJSON {
		handler = slog.NewJSONHandler(output, opts)
	} else {
		handler = slog.NewTextHandler(output, opts)
	}

	logger := &xlogger{
		handler:        handler,
		levelVar:       b.levelVar,
		onError:        b.onError,
		addSource:      b.addSource,
		errorCount:     new(atomic.Uint64),
		inErrorHandler: new(atomic.Bool),
	}

	var once sync.Once
	cleanup := func() error {
		var err error
		once.Do(func() {
			if rotator != nil {
				err = rotator.Close()
			}
		})
		return err
	}
	return logger, cleanup, nil
}
