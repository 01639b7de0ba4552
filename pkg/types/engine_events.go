package types

// ============================================================================
//                              网络引擎事件
// ============================================================================

// EngineEvent 网络引擎产生的事件
//
// 变体集合是封闭的，只有本包内的类型实现它。
type EngineEvent interface {
	engineEvent()
}

// EvtConnectionEstablished 连接建立
type EvtConnectionEstablished struct {
	Peer     PeerID
	Endpoint Endpoint
}

// EvtNewListenAddr 新的本地监听地址
type EvtNewListenAddr struct {
	Address Multiaddr
}

// EvtPeerIdentified identify 协议完成
type EvtPeerIdentified struct {
	Peer            PeerID
	AgentVersion    string
	ProtocolVersion string
	ListenAddrs     []Multiaddr
	Protocols       []string

	// ObservedAddr 对端看到的本端地址，引擎无法提供时为 nil
	ObservedAddr Multiaddr
}

// EvtGossipMessage 收到 gossip 消息
type EvtGossipMessage struct {
	Topic     string
	Data      []byte
	Source    PeerID
	MessageID MessageID
}

// EvtInboundRequest 收到直连协议请求
type EvtInboundRequest struct {
	Peer    PeerID
	Data    []byte
	Channel ResponseChannel
}

// EvtInboundResponse 收到直连协议响应
type EvtInboundResponse struct {
	RequestID RequestID
	Data      []byte
}

// EvtOutboundFailure 出站请求失败（含超时）
type EvtOutboundFailure struct {
	RequestID RequestID
	Peer      PeerID
	Err       error
}

// EvtDialFailure 拨号失败
type EvtDialFailure struct {
	Peer PeerID
	Err  error
}

// EvtPeerDiscovered 本地网络发现了节点
type EvtPeerDiscovered struct {
	Peer  PeerID
	Addrs []Multiaddr
}

func (EvtConnectionEstablished) engineEvent() {}
func (EvtNewListenAddr) engineEvent()         {}
func (EvtPeerIdentified) engineEvent()        {}
func (EvtGossipMessage) engineEvent()         {}
func (EvtInboundRequest) engineEvent()        {}
func (EvtInboundResponse) engineEvent()       {}
func (EvtOutboundFailure) engineEvent()       {}
func (EvtDialFailure) engineEvent()           {}
func (EvtPeerDiscovered) engineEvent()        {}
