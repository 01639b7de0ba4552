package eventloop

import "errors"

// 错误定义
var (
	// ErrNoProvider 没有已知的文件提供者
	ErrNoProvider = errors.New("eventloop: no provider known")

	// ErrFileNotAccessible 本地文件不可读
	ErrFileNotAccessible = errors.New("eventloop: file not accessible")

	// ErrPublishFailed gossip 发布失败
	ErrPublishFailed = errors.New("eventloop: publish failed")

	// ErrDialFailed 拨号失败
	ErrDialFailed = errors.New("eventloop: dial failed")

	// ErrListenFailed 监听失败
	ErrListenFailed = errors.New("eventloop: listen failed")

	// ErrRequestFailed 文件请求失败
	ErrRequestFailed = errors.New("eventloop: request failed")

	// ErrActorTerminated 协调循环已终止
	ErrActorTerminated = errors.New("eventloop: actor terminated")

	// ErrEngineExhausted 引擎事件流已关闭
	ErrEngineExhausted = errors.New("eventloop: engine event stream exhausted")

	// ErrAlreadyRunning Run 被重复调用
	ErrAlreadyRunning = errors.New("eventloop: already running")

	// ErrNilEngine 引擎为 nil
	ErrNilEngine = errors.New("eventloop: engine is nil")

	// ErrNilFileStore 文件存储为 nil
	ErrNilFileStore = errors.New("eventloop: file store is nil")
)
