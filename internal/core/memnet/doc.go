// Package memnet 提供进程内的网络引擎实现
//
// Hub 模拟一个共享网络，每个 Engine 是其中的一个节点。
// Engine 实现 interfaces.Engine，语义与 libp2p 引擎保持一致：
//
//   - Dial 通过地址簿中的地址找到目标节点，结果以事件异步返回
//   - Publish 只投递给已连接且订阅了同一主题的节点，没有接收方时返回错误
//   - SendRequest 在请求超时前没有收到响应时产生 EvtOutboundFailure
//
// 每个节点的事件邮箱是无界的，投递方永远不会因为接收方处理慢而阻塞。
// 主要用于测试以及单进程演示。
package memnet
