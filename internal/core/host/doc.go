// Package host 基于 libp2p 实现网络引擎
//
// Host 实现 interfaces.Engine，组合以下 libp2p 组件：
//   - 传输: TCP + Noise + Yamux，可选 circuit relay v2 客户端
//   - Identify: 上报 AgentVersion / ProtocolVersion
//   - GossipSub: 签名消息、严格验签、10 秒心跳
//   - 直连协议: /file-exchange/1，每个流一次请求一次响应
//   - mDNS: 本地网络节点发现（可选）
//
// # 事件来源
//
//	网络通知 Connected      → EvtConnectionEstablished
//	网络通知 Listen         → EvtNewListenAddr（未指定地址展开为各网卡地址）
//	EventBus identify 完成  → EvtPeerIdentified
//	GossipSub 订阅          → EvtGossipMessage（忽略本节点发布的消息）
//	文件交换流              → EvtInboundRequest / EvtInboundResponse / EvtOutboundFailure
//	mDNS                    → EvtPeerDiscovered
//
// 所有事件先进入无界邮箱再按顺序推送，libp2p 的回调 goroutine 不会被消费方阻塞。
package host
