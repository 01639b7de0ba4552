package memnet

import "errors"

var (
	// ErrEngineClosed 引擎已关闭
	ErrEngineClosed = errors.New("memnet: engine closed")

	// ErrDuplicatePeer 节点 ID 已存在
	ErrDuplicatePeer = errors.New("memnet: duplicate peer")

	// ErrNoAddresses 地址簿中没有目标节点的地址
	ErrNoAddresses = errors.New("memnet: no addresses for peer")

	// ErrSelfDial 不能拨号自己
	ErrSelfDial = errors.New("memnet: dial to self")

	// ErrAddrInUse 监听地址已被占用
	ErrAddrInUse = errors.New("memnet: address already in use")

	// ErrInsufficientPeers 主题上没有可投递的节点
	ErrInsufficientPeers = errors.New("memnet: insufficient peers")

	// ErrNotConnected 目标节点未连接
	ErrNotConnected = errors.New("memnet: peer not connected")

	// ErrUnknownChannel 回复通道不存在或已使用
	ErrUnknownChannel = errors.New("memnet: unknown response channel")

	// ErrTimeout 请求超时
	ErrTimeout = errors.New("memnet: request timed out")

	// ErrConnectionRefused 地址上没有监听者
	ErrConnectionRefused = errors.New("memnet: connection refused")
)
