// Package metrics 提供协调循环的 Prometheus 指标
//
// 指标一览：
//
//	fileswap_commands_total{command,result}      处理的命令数
//	fileswap_engine_events_total{kind}           处理的引擎事件数
//	fileswap_pending{table}                      状态表当前条目数
//	fileswap_announcements_total{result}         目录公告发布次数
//	fileswap_decode_errors_total{protocol}       丢弃的畸形消息数
//	fileswap_transfer_bytes_total{direction}     文件交换传输字节数
//
// 所有方法都允许在 nil *Metrics 上调用（不记录）。
//
// # Fx 模块
//
//	app := fx.New(
//	    metrics.Module,
//	    fx.Invoke(func(m *metrics.Metrics) { ... }),
//	)
//
// 未提供 prometheus.Registerer 时指标注册到一个私有 Registry。
package metrics
