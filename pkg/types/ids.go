package types

import (
	"github.com/libp2p/go-libp2p/core/peer"
	ma "github.com/multiformats/go-multiaddr"
)

// PeerID 网络参与者的唯一标识
type PeerID = peer.ID

// Multiaddr 传输层地址
type Multiaddr = ma.Multiaddr

// RequestID 直连协议请求的关联 ID，由网络引擎分配
type RequestID uint64

// MessageID gossip 消息 ID
type MessageID string

// ResponseChannel 入站请求的回复通道
//
// 只能使用一次；引擎凭借它把响应写回对应的入站流。
type ResponseChannel struct {
	RequestID RequestID
	Peer      PeerID
}

// Endpoint 连接端点信息
type Endpoint struct {
	// Dialer 为 true 表示本端主动拨号
	Dialer bool
	Local  Multiaddr
	Remote Multiaddr
}
