package fileswap

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/fx"

	"github.com/dep2p/go-fileswap/internal/core/eventloop"
	"github.com/dep2p/go-fileswap/pkg/interfaces"
	"github.com/dep2p/go-fileswap/pkg/lib/log"
	"github.com/dep2p/go-fileswap/pkg/types"
)

var logger = log.Logger("fileswap")

const (
	// startTimeout 启动超时（Fx App Start）
	startTimeout = 30 * time.Second

	// stopTimeout 停止超时（Fx App Stop）
	stopTimeout = 30 * time.Second
)

// Node 文件共享节点
//
// Node 组装网络引擎、文件存储与协调循环，通过 Client 对外提供命令接口。
// 节点只能启动一次；Close 后不可再用。
type Node struct {
	mu sync.Mutex

	opts *options
	app  *fx.App

	// 由 Fx 注入
	loop   *eventloop.Loop
	engine interfaces.Engine
	client *Client

	started bool
	closed  bool
}

// New 创建新节点
//
// 创建节点但不启动，需要调用 Start() 启动。
func New(opts ...Option) (*Node, error) {
	o := newOptions()
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, fmt.Errorf("apply option: %w", err)
		}
	}

	node := &Node{opts: o}

	app, err := buildFxApp(o, node)
	if err != nil {
		return nil, fmt.Errorf("build fx app: %w", err)
	}
	node.app = app
	return node, nil
}

// Start 创建节点并立即启动，等价于 New() + Start()
func Start(ctx context.Context, opts ...Option) (*Node, error) {
	node, err := New(opts...)
	if err != nil {
		return nil, err
	}
	if err := node.Start(ctx); err != nil {
		_ = node.Close()
		return nil, fmt.Errorf("start node: %w", err)
	}
	return node, nil
}

// Start 启动节点
//
// 订阅聊天与目录主题、运行协调循环、监听配置的地址，
// 随后在后台通过中继监听并拨号已知节点。
func (n *Node) Start(ctx context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return ErrNodeClosed
	}
	if n.started {
		return ErrAlreadyStarted
	}

	startCtx, cancel := context.WithTimeout(ctx, startTimeout)
	defer cancel()

	if err := n.app.Start(startCtx); err != nil {
		logger.Error("节点启动失败", "error", err)
		return fmt.Errorf("start failed: %w", err)
	}
	n.started = true

	logger.Info("节点已启动",
		"peer", log.TruncateID(n.engine.LocalPeer().String(), 8),
		"addrs", n.engine.ListenAddrs())
	return nil
}

// Close 关闭节点
//
// 终止协调循环（等待中的命令以 ErrActorTerminated 失败）并关闭网络引擎。
func (n *Node) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return nil
	}
	n.closed = true

	if !n.started {
		// 引擎在构建时已创建，未启动时直接关闭
		if n.engine != nil {
			return n.engine.Close()
		}
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	if err := n.app.Stop(ctx); err != nil {
		logger.Warn("停止 Fx 应用失败", "error", err)
		return err
	}

	n.started = false
	logger.Info("节点已关闭")
	return nil
}

// Client 返回命令门面
func (n *Node) Client() *Client {
	return n.client
}

// ID 返回本地节点 ID
func (n *Node) ID() types.PeerID {
	return n.engine.LocalPeer()
}

// ListenAddrs 返回当前监听地址
func (n *Node) ListenAddrs() []types.Multiaddr {
	return n.engine.ListenAddrs()
}

// Done 在协调循环终止后关闭
func (n *Node) Done() <-chan struct{} {
	return n.loop.Done()
}

// Err 返回协调循环终止原因
//
// 正常关闭时为 nil；网络引擎事件流意外关闭时为 ErrEngineExhausted。
func (n *Node) Err() error {
	return n.loop.Err()
}
