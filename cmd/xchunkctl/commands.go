package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/omeyang/xchunk/pkg/observability/xrotate"
	"github.com/omeyang/xchunk/pkg/util/xsys"
)

// removeChunk 删除分块文件，测试中替换
var removeChunk = os.Remove

func stdout(cmd *cli.Command) io.Writer {
	return cmd.Root().Writer
}

func stderr(cmd *cli.Command) io.Writer {
	return cmd.Root().ErrWriter
}

func createCheckCommand() *cli.Command {
	return &cli.Command{
		Name:      "check",
		Usage:     "校验窗口宽度（1~60 且整除 60）",
		ArgsUsage: "<minutes>...",
		Action: func(_ context.Context, cmd *cli.Command) error {
			return cmdCheck(stdout(cmd), cmd.Args().Slice())
		},
	}
}

func cmdCheck(w io.Writer, args []string) error {
	if len(args) == 0 {
		return usageErrorf("check 需要至少一个窗口宽度")
	}

	invalid := 0
	for _, a := range args {
		m, err := strconv.Atoi(a)
		if err != nil {
			return usageErrorf("%q 不是整数", a)
		}
		if err := xrotate.ValidateChunkMinutes(m); err != nil {
			invalid++
			fmt.Fprintf(w, "%d\tinvalid\t%v\n", m, err)
			continue
		}
		fmt.Fprintf(w, "%d\tok\t%d chunks/hour\n", m, 60/m)
	}
	if invalid > 0 {
		return &exitError{code: 2}
	}
	return nil
}

func createWindowCommand() *cli.Command {
	return &cli.Command{
		Name:  "window",
		Usage: "打印某一时刻所在的窗口",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "minutes", Aliases: []string{"m"}, Usage: "窗口宽度（分钟）", Value: xrotate.DefaultChunkMinutes},
			&cli.BoolFlag{Name: "utc", Usage: "按 UTC 计算窗口"},
			&cli.StringFlag{Name: "at", Usage: "RFC3339 时刻，默认当前时间"},
			&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "基础路径，给出时打印分块文件名"},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			return cmdWindow(stdout(cmd), cmd.Int("minutes"), cmd.Bool("utc"), cmd.String("at"), cmd.String("file"), time.Now)
		},
	}
}

func cmdWindow(w io.Writer, minutes int, utc bool, at, base string, now func() time.Time) error {
	if err := xrotate.ValidateChunkMinutes(minutes); err != nil {
		return &usageError{err: err}
	}

	t := now()
	if at != "" {
		parsed, err := time.Parse(time.RFC3339, at)
		if err != nil {
			return usageErrorf("--at: %w", err)
		}
		t = parsed
	}

	loc := time.Local
	if utc {
		loc = time.UTC
	}
	win := xrotate.WindowAt(t, minutes, loc)
	fmt.Fprintf(w, "start:  %s\n", win.Start.Format(time.RFC3339))
	fmt.Fprintf(w, "end:    %s\n", win.End.Format(time.RFC3339))
	fmt.Fprintf(w, "suffix: %s\n", win.Suffix())
	if base != "" {
		fmt.Fprintf(w, "file:   %s\n", xrotate.ChunkName(base, win))
	}
	return nil
}

func createPruneCommand() *cli.Command {
	return &cli.Command{
		Name:  "prune",
		Usage: "删除超出保留数量的旧分块",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "基础路径", Required: true},
			&cli.IntFlag{Name: "retain", Aliases: []string{"n"}, Usage: "保留的分块数量", Required: true},
			&cli.BoolFlag{Name: "dry-run", Usage: "只列出将被删除的文件"},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			return cmdPrune(stdout(cmd), stderr(cmd), cmd.String("file"), cmd.Int("retain"), cmd.Bool("dry-run"))
		},
	}
}

// cmdPrune 持有写入方的锁执行清理，与正在轮转的进程互斥
func cmdPrune(w, ew io.Writer, base string, retain int, dryRun bool) error {
	if retain < 1 {
		return usageErrorf("--retain 必须 >= 1，得到 %d", retain)
	}

	lock, err := xrotate.OpenLock(base)
	if err != nil {
		return fmt.Errorf("open lock: %w", err)
	}
	defer lock.Close()
	if err := lock.TryLock(); err != nil {
		if errors.Is(err, xsys.ErrLockBusy) {
			return fmt.Errorf("有写入方正在轮转，请稍后重试: %w", err)
		}
		return err
	}

	obsolete, err := xrotate.ObsoleteChunks(base, retain)
	if err != nil {
		return fmt.Errorf("list chunks: %w", err)
	}

	failed := 0
	for _, name := range obsolete {
		if dryRun {
			fmt.Fprintf(w, "would delete %s\n", name)
			continue
		}
		if err := removeChunk(name); err != nil {
			failed++
			fmt.Fprintf(ew, "delete %s: %v\n", name, err)
			continue
		}
		fmt.Fprintf(w, "deleted %s\n", name)
	}
	fmt.Fprintf(w, "%d obsolete, %d failed\n", len(obsolete), failed)
	if failed > 0 {
		return &exitError{code: 1}
	}
	return nil
}
