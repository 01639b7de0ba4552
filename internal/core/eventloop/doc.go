// Package eventloop 实现节点协调循环
//
// Loop 是单线程 actor：它独占网络引擎句柄和全部状态表，
// 每一轮只处理以下输入之一，处理完成后才进入下一轮：
//
//   - 网络引擎事件（连接、监听地址、identify、gossip、直连请求/响应/失败、拨号失败、本地发现）
//   - 调用方命令（Dial、Provide、Get、SendMessage、Listen）
//   - 目录重新公告定时器
//
// 状态表只在循环 goroutine 内读写，因此不需要加锁：
//
//	pendingDials     peer     → 等待拨号结果的回复通道（同一节点的多个调用方共享一次拨号）
//	pendingRequests  请求 ID  → 等待文件内容的回复通道
//	knownFiles       文件名   → 提供者（先到先得，不会被覆盖）
//	providedFiles    文件名   → 本地路径
//	knownPeers       本地发现过的节点
//
// 推送给调用方的事件先进入循环内部的无界队列，队首与其它输入在同一个 select 中竞争，
// 因此事件消费者再慢也不会阻塞循环。
//
// 引擎事件流关闭视为致命错误：Run 返回 ErrEngineExhausted，之后所有命令都以
// ErrActorTerminated 失败。
package eventloop
