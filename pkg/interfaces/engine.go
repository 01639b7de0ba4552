package interfaces

import (
	"github.com/dep2p/go-fileswap/pkg/types"
)

// Engine 网络引擎能力接口
//
// 除 Events 外的方法都不应长时间阻塞调用方；异步结果通过事件流返回。
type Engine interface {
	// LocalPeer 返回本地节点 ID
	LocalPeer() types.PeerID

	// Dial 发起到已知节点的拨号
	//
	// 立即返回的错误表示拨号无法发起（如没有已知地址）；
	// 成功后的结果以 EvtConnectionEstablished 或 EvtDialFailure 事件返回。
	Dial(p types.PeerID) error

	// Listen 在指定地址上监听
	Listen(addr types.Multiaddr) error

	// ListenAddrs 返回当前绑定的监听地址
	ListenAddrs() []types.Multiaddr

	// Subscribe 订阅 gossip 主题
	Subscribe(topic string) error

	// Publish 在 gossip 主题上发布消息
	//
	// 当主题上没有任何订阅节点时返回错误。
	Publish(topic string, data []byte) error

	// SendRequest 向节点发送直连协议请求，返回关联 ID
	SendRequest(p types.PeerID, data []byte) types.RequestID

	// SendResponse 通过入站请求的回复通道发送响应
	SendResponse(ch types.ResponseChannel, data []byte) error

	// AddAddress 把地址记入地址簿
	AddAddress(p types.PeerID, addr types.Multiaddr)

	// Events 返回引擎事件流
	//
	// 事件流在引擎生命周期内不会关闭；关闭即表示引擎已终止。
	Events() <-chan types.EngineEvent

	// Close 关闭引擎
	Close() error
}
