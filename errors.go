package fileswap

import (
	"errors"

	"github.com/dep2p/go-fileswap/internal/core/eventloop"
)

// 协调循环返回的错误
var (
	// ErrNoProvider 没有已知节点提供该文件
	ErrNoProvider = eventloop.ErrNoProvider

	// ErrFileNotAccessible 本地文件无法读取
	ErrFileNotAccessible = eventloop.ErrFileNotAccessible

	// ErrPublishFailed gossip 发布失败
	ErrPublishFailed = eventloop.ErrPublishFailed

	// ErrDialFailed 拨号失败
	ErrDialFailed = eventloop.ErrDialFailed

	// ErrListenFailed 监听失败
	ErrListenFailed = eventloop.ErrListenFailed

	// ErrRequestFailed 文件请求失败（含超时）
	ErrRequestFailed = eventloop.ErrRequestFailed

	// ErrActorTerminated 协调循环已终止
	ErrActorTerminated = eventloop.ErrActorTerminated

	// ErrEngineExhausted 网络引擎事件流已关闭
	ErrEngineExhausted = eventloop.ErrEngineExhausted
)

// 节点生命周期错误
var (
	// ErrNodeClosed 节点已关闭
	ErrNodeClosed = errors.New("fileswap: node closed")

	// ErrAlreadyStarted 节点已启动
	ErrAlreadyStarted = errors.New("fileswap: node already started")

	// ErrNotStarted 节点未启动
	ErrNotStarted = errors.New("fileswap: node not started")

	// ErrInvalidAddr 地址缺少 /p2p/<peer-id> 部分或无法解析
	ErrInvalidAddr = errors.New("fileswap: invalid peer address")
)
