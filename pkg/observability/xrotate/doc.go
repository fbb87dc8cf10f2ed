// Package xrotate 提供日志文件轮转功能。
//
// Rotator 接口定义了轮转器的核心行为（Write/Close/Rotate），所有实现并发安全。
//
// # 当前实现
//
//   - [NewTimedChunks]: 按固定时间窗口分块，多进程写同一日志安全，按数量保留分块
//   - [NewLumberjack]: 基于 lumberjack v2 的按大小轮转（单进程）
//
// # 时间分块
//
// 窗口宽度 m 分钟必须整除 60，窗口从整点起铺满每个小时。当前时刻所在窗口的起点
// 决定文件名：
//
//	app.log.2024-01-01_10-00   // [10:00, 10:02)，m = 2
//	app.log.2024-01-01_10-02   // [10:02, 10:04)
//
// 文件名只取决于窗口，多个进程在同一窗口内打开的是同一个文件，以追加模式写入，
// 彼此的记录不会被覆盖（跨进程不保证记录顺序）。
//
// 轮转时先用锁文件 app.log_lock 做非阻塞互斥，拿到锁的进程负责清理旧分块并打开
// 新文件；拿不到锁的写入者继续写旧文件，在之后的写入中再次尝试。锁文件所在目录
// 无写权限时，回退到当前工作目录下的同名锁文件。不支持文件锁的平台上
// 上报一次错误，之后按单进程处理，轮转不加锁。
//
// 清理只认完整匹配 <base>.YYYY-MM-DD_HH-MM 的文件，按文件名排序（即时间序）删除
// 最旧的部分，保留最新的 RetainCount 个。先清理再创建新文件，轮转后分块数量至多
// RetainCount+1。
//
// # 错误上报
//
// 轮转器常被用作日志输出目标，内部的非致命错误（删除旧分块失败等）只通过
// WithChunkOnError 回调上报，不写日志。分块文件无法打开时 Write 返回
// [ErrOpenChunk]，由调用方（如 xlog 的 OnError）处理。
//
// # 扩展新实现
//
//  1. 创建新文件实现 Rotator 接口
//  2. 定义独立的 Config 和 Option
//  3. 提供独立的构造函数
//  4. 不修改 Rotator 接口
package xrotate
