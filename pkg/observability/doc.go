// Package observability 日志输出相关的子包。
//
// 子包列表：
//   - xlog: 基于 log/slog 的结构化日志，支持动态级别和文件轮转输出
//   - xrotate: 日志文件轮转，按时间窗口分块（多进程安全）或按大小轮转
package observability
