package types

// ============================================================================
//                              调用方事件
// ============================================================================

// 事件类型名
const (
	EventConnectionEstablished = "connection_established"
	EventNewListenAddr         = "new_listen_addr"
	EventPeerIdentified        = "peer_identified"
	EventNewProvider           = "new_provider"
	EventNewChatMessage        = "new_chat_message"
)

// Event 推送给调用方的事件
type Event interface {
	// Type 返回事件类型
	Type() string
}

// ConnectionEstablished 与某节点的连接已建立
type ConnectionEstablished struct {
	Peer     PeerID
	Endpoint Endpoint
}

// Type 返回事件类型
func (ConnectionEstablished) Type() string { return EventConnectionEstablished }

// NewListenAddr 本地开始监听新地址
type NewListenAddr struct {
	Address Multiaddr
}

// Type 返回事件类型
func (NewListenAddr) Type() string { return EventNewListenAddr }

// PeerIdentified 远端节点完成 identify
type PeerIdentified struct {
	Peer            PeerID
	AgentVersion    string
	ProtocolVersion string
	ListenAddrs     []Multiaddr
	Protocols       []string

	// ObservedAddr 对端看到的本端地址，引擎无法提供时为 nil
	ObservedAddr Multiaddr
}

// Type 返回事件类型
func (PeerIdentified) Type() string { return EventPeerIdentified }

// NewProvider 首次得知某文件的提供者
type NewProvider struct {
	Peer     PeerID
	Filename string
}

// Type 返回事件类型
func (NewProvider) Type() string { return EventNewProvider }

// NewChatMessage 收到聊天消息
type NewChatMessage struct {
	Peer      PeerID
	MessageID MessageID
	Data      []byte
}

// Type 返回事件类型
func (NewChatMessage) Type() string { return EventNewChatMessage }
