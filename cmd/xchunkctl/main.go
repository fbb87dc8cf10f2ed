// xchunkctl 是分块日志的命令行工具。
//
// 用法:
//
//	xchunkctl <命令> [命令参数]
//
// 命令:
//
//	check <minutes>...   校验窗口宽度
//	window               打印某一时刻所在的窗口及分块文件名
//	prune                按保留数量清理旧分块（持有写入方的锁）
//	load                 多个 goroutine 并发写分块日志的压测
//
// 退出码:
//
//	0: 成功
//	1: 执行失败（清理部分失败、锁被占用、写入出错等）
//	2: 参数错误（窗口宽度无效、缺少必需参数、未知 flag 等）
//
// 示例:
//
//	xchunkctl check 2 7 15
//	xchunkctl window --minutes 2 --utc --at 2024-01-01T10:03:00Z --file logs/app.log
//	xchunkctl prune --file logs/app.log --retain 3 --dry-run
//	xchunkctl load --file logs/debug.log --error-file logs/error.log --minutes 2 --retain 3 --workers 50 --duration 10m
//	xchunkctl load --config xchunkctl.yaml --file logs/debug.log
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"
)

// 版本信息，可通过 -ldflags "-X main.Version=..." 注入
var (
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	setupSignalHandler(cancel)
	code := run(ctx, os.Args, os.Stdout, os.Stderr)
	cancel()
	os.Exit(code)
}

func createApp(stdout, stderr io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "xchunkctl",
		Usage:     "按时间窗口分块的日志工具",
		Version:   fmt.Sprintf("%s (commit: %s)", Version, GitCommit),
		Writer:    stdout,
		ErrWriter: stderr,
		Commands: []*cli.Command{
			createCheckCommand(),
			createWindowCommand(),
			createPruneCommand(),
			createLoadCommand(),
		},
		// 不让 urfave/cli 直接 os.Exit，退出码统一由 run 映射
		ExitErrHandler: func(_ context.Context, _ *cli.Command, err error) {
			if _, ok := err.(cli.ExitCoder); ok {
				fmt.Fprintln(stderr, err)
			}
		},
	}
}

// run 执行命令并返回退出码
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	err := createApp(stdout, stderr).Run(ctx, args)
	if err == nil {
		return 0
	}

	var exitErr *exitError
	if errors.As(err, &exitErr) {
		return exitErr.code
	}
	var usageErr *usageError
	if errors.As(err, &usageErr) {
		fmt.Fprintf(stderr, "参数错误: %v\n", usageErr)
		return 2
	}
	if isCLIUsageError(err) {
		fmt.Fprintf(stderr, "参数错误: %v\n", err)
		return 2
	}
	fmt.Fprintf(stderr, "错误: %v\n", err)
	return 1
}
