package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/omeyang/xchunk/pkg/config/xconf"
	"github.com/omeyang/xchunk/pkg/observability/xlog"
	"github.com/omeyang/xchunk/pkg/observability/xrotate"
	"github.com/omeyang/xchunk/pkg/util/xproc"
)

const (
	strategyChunk = "chunk"
	strategySize  = "size"

	// progressEvery 每个 worker 每写多少轮打印一次进度（默认间隔下约 10 秒）
	progressEvery = 100
)

// loadOptions load 命令的参数
type loadOptions struct {
	Config    string
	File      string
	ErrorFile string
	Minutes   int
	Retain    int
	UTC       bool
	Workers   int
	Duration  time.Duration
	Every     time.Duration
	Strategy  string
	Level     string
	Format    string
}

// fileConfig --config 文件结构，未在命令行显式设置的参数取文件中的值
type fileConfig struct {
	Log struct {
		Level  string `koanf:"level"`
		Format string `koanf:"format"`
	} `koanf:"log"`
	Chunk struct {
		Minutes int  `koanf:"minutes"`
		Retain  int  `koanf:"retain"`
		UTC     bool `koanf:"utc"`
	} `koanf:"chunk"`
	Load struct {
		Workers  int           `koanf:"workers"`
		Duration time.Duration `koanf:"duration"`
		Every    time.Duration `koanf:"every"`
	} `koanf:"load"`
}

func createLoadCommand() *cli.Command {
	return &cli.Command{
		Name:  "load",
		Usage: "多个 goroutine 并发写分块日志",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "YAML/JSON 配置文件，变更后 log.level 实时生效"},
			&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "debug 日志基础路径", Value: "logs/debug.log"},
			&cli.StringFlag{Name: "error-file", Usage: "error 日志基础路径", Value: "logs/error.log"},
			&cli.IntFlag{Name: "minutes", Aliases: []string{"m"}, Usage: "窗口宽度（分钟）", Value: 2},
			&cli.IntFlag{Name: "retain", Aliases: []string{"n"}, Usage: "保留的分块数量", Value: 3},
			&cli.BoolFlag{Name: "utc", Usage: "按 UTC 切分"},
			&cli.IntFlag{Name: "workers", Aliases: []string{"w"}, Usage: "并发 goroutine 数", Value: 50},
			&cli.DurationFlag{Name: "duration", Aliases: []string{"d"}, Usage: "持续时间", Value: 10 * time.Minute},
			&cli.DurationFlag{Name: "every", Usage: "每个 worker 的写入间隔", Value: 100 * time.Millisecond},
			&cli.StringFlag{Name: "strategy", Usage: "轮转策略：chunk（按时间分块）或 size（按大小）", Value: strategyChunk},
			&cli.StringFlag{Name: "level", Usage: "debug 日志级别", Value: "debug"},
			&cli.StringFlag{Name: "format", Usage: "日志格式：text 或 json", Value: "text"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			opts := loadOptions{
				Config:    cmd.String("config"),
				File:      cmd.String("file"),
				ErrorFile: cmd.String("error-file"),
				Minutes:   cmd.Int("minutes"),
				Retain:    cmd.Int("retain"),
				UTC:       cmd.Bool("utc"),
				Workers:   cmd.Int("workers"),
				Duration:  cmd.Duration("duration"),
				Every:     cmd.Duration("every"),
				Strategy:  cmd.String("strategy"),
				Level:     cmd.String("level"),
				Format:    cmd.String("format"),
			}
			return cmdLoad(ctx, stdout(cmd), opts, cmd.IsSet)
		},
	}
}

// mergeFileConfig 用配置文件的值填充命令行未显式设置的参数
func mergeFileConfig(opts *loadOptions, fc fileConfig, isSet func(string) bool) {
	setStr := func(flag string, dst *string, v string) {
		if !isSet(flag) && v != "" {
			*dst = v
		}
	}
	setInt := func(flag string, dst *int, v int) {
		if !isSet(flag) && v != 0 {
			*dst = v
		}
	}
	setDur := func(flag string, dst *time.Duration, v time.Duration) {
		if !isSet(flag) && v != 0 {
			*dst = v
		}
	}

	setStr("level", &opts.Level, fc.Log.Level)
	setStr("format", &opts.Format, fc.Log.Format)
	setInt("minutes", &opts.Minutes, fc.Chunk.Minutes)
	setInt("retain", &opts.Retain, fc.Chunk.Retain)
	if !isSet("utc") && fc.Chunk.UTC {
		opts.UTC = true
	}
	setInt("workers", &opts.Workers, fc.Load.Workers)
	setDur("duration", &opts.Duration, fc.Load.Duration)
	setDur("every", &opts.Every, fc.Load.Every)
}

func (o *loadOptions) validate() error {
	if o.Workers < 1 {
		return usageErrorf("--workers 必须 >= 1，得到 %d", o.Workers)
	}
	if o.Duration <= 0 || o.Every <= 0 {
		return usageErrorf("--duration 与 --every 必须为正")
	}
	if o.Strategy != strategyChunk && o.Strategy != strategySize {
		return usageErrorf("未知策略 %q", o.Strategy)
	}
	if err := xrotate.ValidateChunkMinutes(o.Minutes); err != nil {
		return &usageError{err: err}
	}
	if o.Retain < 0 {
		return usageErrorf("--retain 必须 >= 0，得到 %d", o.Retain)
	}
	return nil
}

// loadStats 写入统计，在 worker 间共享
type loadStats struct {
	records  atomic.Int64 // 发出的记录数（含被级别过滤的）
	errors   atomic.Int64
	firstErr atomic.Pointer[error]
	reloads  atomic.Int64
}

func (s *loadStats) onError(err error) {
	s.errors.Add(1)
	s.firstErr.CompareAndSwap(nil, &err)
}

// buildLogger 按策略创建写入 base 的 Logger
func buildLogger(o loadOptions, base, level string, stats *loadStats) (xlog.LoggerWithLevel, func() error, error) {
	b := xlog.New().
		SetLevelString(level).
		SetFormat(o.Format).
		SetOnError(stats.onError)
	if o.Strategy == strategySize {
		b = b.SetRotation(base, xrotate.WithMaxSize(100), xrotate.WithMaxBackups(o.Retain))
	} else {
		b = b.SetChunkRotation(base,
			xrotate.WithChunkMinutes(o.Minutes),
			xrotate.WithRetainCount(o.Retain),
			xrotate.WithUTC(o.UTC),
		)
	}
	return b.Build()
}

func cmdLoad(ctx context.Context, w io.Writer, opts loadOptions, isSet func(string) bool) (err error) {
	var cfg xconf.Config
	if opts.Config != "" {
		cfg, err = xconf.New(opts.Config)
		if err != nil {
			return err
		}
		var fc fileConfig
		if err := cfg.Unmarshal("", &fc); err != nil {
			return err
		}
		mergeFileConfig(&opts, fc, isSet)
	}
	if err := opts.validate(); err != nil {
		return err
	}

	stats := &loadStats{}
	debugLog, closeDebug, err := buildLogger(opts, opts.File, opts.Level, stats)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, closeDebug()) }()

	errorLog, closeError, err := buildLogger(opts, opts.ErrorFile, "error", stats)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, closeError()) }()

	console, _, err := xlog.New().SetOutput(w).Build()
	if err != nil {
		return err
	}

	runID := uuid.NewString()
	console.Info(ctx, "load started",
		xlog.RunID(runID), xlog.File(opts.File), xlog.Count(int64(opts.Workers)), xlog.Duration(opts.Duration))

	watchCtx, stopWatch := context.WithCancel(ctx)
	defer stopWatch()

	var g errgroup.Group
	if cfg != nil {
		watcher, err := xconf.Watch(cfg, func(c xconf.Config, err error) {
			if err != nil {
				console.Warn(watchCtx, "config reload failed", xlog.Err(err))
				return
			}
			applyLevel(watchCtx, c, debugLog, console, stats)
		})
		if err != nil {
			return err
		}
		g.Go(func() error { return watcher.Run(watchCtx) })
	}

	start := time.Now()
	g.Go(func() error {
		defer stopWatch()
		return runWorkers(ctx, opts, runID, debugLog, errorLog, console, stats)
	})
	if err := g.Wait(); err != nil {
		return err
	}

	console.Info(ctx, "load finished",
		xlog.RunID(runID),
		xlog.Count(stats.records.Load()),
		slog.Int64("write_errors", stats.errors.Load()),
		slog.Int64("reloads", stats.reloads.Load()),
		xlog.Duration(time.Since(start).Round(time.Millisecond)),
	)
	if p := stats.firstErr.Load(); p != nil {
		return fmt.Errorf("%d write errors, first: %w", stats.errors.Load(), *p)
	}
	return nil
}

// applyLevel 配置文件中的 log.level 变化实时作用于 debug 日志
func applyLevel(ctx context.Context, c xconf.Config, target xlog.Leveler, console xlog.Logger, stats *loadStats) {
	s := c.Client().String("log.level")
	if s == "" {
		return
	}
	level, err := xlog.ParseLevel(s)
	if err != nil {
		console.Warn(ctx, "ignore invalid log.level", xlog.Err(err))
		return
	}
	if level != target.GetLevel() {
		target.SetLevel(level)
		stats.reloads.Add(1)
		console.Info(ctx, "log level changed", slog.String("level", level.String()))
	}
}

// runWorkers 启动 opts.Workers 个 worker，持续 opts.Duration 或直到 ctx 取消
func runWorkers(ctx context.Context, opts loadOptions, runID string, debugLog, errorLog, console xlog.Logger, stats *loadStats) error {
	ctx, cancel := context.WithTimeout(ctx, opts.Duration)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	for i := range opts.Workers {
		g.Go(func() error {
			runWorker(gctx, i, opts.Every, runID, debugLog, errorLog, console, stats)
			return nil
		})
	}
	return g.Wait()
}

func runWorker(ctx context.Context, id int, every time.Duration, runID string, debugLog, errorLog, console xlog.Logger, stats *loadStats) {
	// 多个进程写同一组分块时按进程区分记录来源
	tags := []slog.Attr{xlog.Process(xproc.Tag()), xlog.RunID(runID), xlog.Worker(id)}
	debugLog = debugLog.With(tags...)
	errorLog = errorLog.With(tags...)

	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for i := 0; ; i++ {
		if i%progressEvery == 0 {
			console.Info(ctx, "worker progress", xlog.Worker(id), xlog.Count(int64(i)))
		}
		debugLog.Debug(ctx, "test debug")
		// error 记录同时进入 debug 日志和 error 日志
		debugLog.Error(ctx, "test error")
		errorLog.Error(ctx, "test error")
		stats.records.Add(3)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
