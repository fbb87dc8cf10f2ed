// Package xlog 基于 log/slog 的结构化日志。
//
// 通过 [New] 返回的 [Builder] 配置输出目标、级别和格式，[Builder.Build] 返回
// [LoggerWithLevel] 和清理函数：
//
//	logger, cleanup, err := xlog.New().
//		SetLevelString("info").
//		SetFormat("json").
//		SetChunkRotation("/var/log/app.log",
//			xrotate.WithChunkMinutes(10),
//			xrotate.WithRetainCount(144),
//		).
//		Build()
//	if err != nil {
//		return err
//	}
//	defer cleanup()
//
// [Builder.SetChunkRotation] 写入按时间窗口分块的文件，多个进程可以同时写同一基础路径；
// [Builder.SetRotation] 使用按大小轮转的单进程实现。
//
// 写日志从不向调用方返回错误。Handler 写入失败时计数，并通过 [Builder.SetOnError]
// 设置的回调通知；回调 panic 被隔离，回调内再次出错不会递归。
//
// 级别可在运行期通过 [Leveler.SetLevel] 调整，派生 Logger（[Logger.With]、
// [Logger.WithGroup]）共享同一级别。
package xlog
