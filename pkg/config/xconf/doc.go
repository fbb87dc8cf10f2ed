// Package xconf 基于 koanf 的配置加载与热重载。
//
// [New] 从 YAML/JSON 文件加载，[NewFromBytes] 从内存数据加载；
// [Config.Unmarshal] 按 koanf 标签反序列化到结构体。
//
// [Watch] 通过 fsnotify 监视配置文件所在目录，文件变更经防抖后调用 [Config.Reload]，
// 再通过回调通知调用方：
//
//	cfg, err := xconf.New("xchunkctl.yaml")
//	if err != nil {
//		return err
//	}
//	w, err := xconf.Watch(cfg, func(c xconf.Config, err error) {
//		if err == nil {
//			logger.SetLevel(...)
//		}
//	})
//	if err != nil {
//		return err
//	}
//	g.Go(func() error { return w.Run(ctx) })
//
// 重载失败时保留旧配置。
package xconf
