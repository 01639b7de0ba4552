package host

import "errors"

var (
	// ErrClosed 引擎已关闭
	ErrClosed = errors.New("host: closed")

	// ErrSelfDial 不能拨号自己
	ErrSelfDial = errors.New("host: dial to self")

	// ErrNoAddresses 地址簿中没有目标节点的地址
	ErrNoAddresses = errors.New("host: no addresses for peer")

	// ErrInsufficientPeers 主题上没有可投递的节点
	ErrInsufficientPeers = errors.New("host: insufficient peers")

	// ErrUnknownChannel 回复通道不存在、已使用或已超时
	ErrUnknownChannel = errors.New("host: unknown response channel")

	// ErrTimeout 请求超时
	ErrTimeout = errors.New("host: request timed out")
)
