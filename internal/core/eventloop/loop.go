package eventloop

import (
	"context"
	"sync/atomic"

	"github.com/benbjohnson/clock"

	"github.com/dep2p/go-fileswap/internal/core/metrics"
	"github.com/dep2p/go-fileswap/pkg/interfaces"
	"github.com/dep2p/go-fileswap/pkg/lib/log"
	"github.com/dep2p/go-fileswap/pkg/types"
)

var logger = log.Logger("eventloop")

// Loop 节点协调循环
type Loop struct {
	cfg     Config
	engine  interfaces.Engine
	files   interfaces.FileStore
	clock   clock.Clock
	metrics *metrics.Metrics

	commands chan Command
	events   chan types.Event
	done     chan struct{}
	running  atomic.Bool

	// err 在 done 关闭前写入
	err error

	// 以下字段只在 Run 所在 goroutine 中访问
	queue           []types.Event
	pendingDials    map[types.PeerID][]Reply[struct{}]
	pendingRequests map[types.RequestID]Reply[[]byte]
	knownFiles      map[string]types.PeerID
	providedFiles   map[string]string
	knownPeers      map[types.PeerID]struct{}
}

// New 创建协调循环
func New(engine interfaces.Engine, files interfaces.FileStore, opts ...Option) (*Loop, error) {
	if engine == nil {
		return nil, ErrNilEngine
	}
	if files == nil {
		return nil, ErrNilFileStore
	}

	l := &Loop{
		cfg:    DefaultConfig(),
		engine: engine,
		files:  files,
		clock:  clock.New(),

		done:   make(chan struct{}),
		events: make(chan types.Event),

		pendingDials:    make(map[types.PeerID][]Reply[struct{}]),
		pendingRequests: make(map[types.RequestID]Reply[[]byte]),
		knownFiles:      make(map[string]types.PeerID),
		providedFiles:   make(map[string]string),
		knownPeers:      make(map[types.PeerID]struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.commands = make(chan Command, l.cfg.CommandQueueSize)
	return l, nil
}

// Submit 把命令放入队列
//
// 队列满时阻塞直到有空位、ctx 取消或循环终止。入队成功不代表命令已被处理，
// 结果通过命令自带的回复通道返回。
func (l *Loop) Submit(ctx context.Context, cmd Command) error {
	select {
	case <-l.done:
		return ErrActorTerminated
	default:
	}

	select {
	case l.commands <- cmd:
		return nil
	case <-l.done:
		return ErrActorTerminated
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Events 返回调用方事件流
//
// 循环终止后通道被关闭。
func (l *Loop) Events() <-chan types.Event {
	return l.events
}

// Done 在循环终止后关闭
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// Err 返回循环终止原因，正常停止时为 nil
//
// 只有在 Done 关闭后调用才有意义。
func (l *Loop) Err() error {
	select {
	case <-l.done:
		return l.err
	default:
		return nil
	}
}

// Run 运行协调循环，直到 ctx 取消或引擎事件流关闭
func (l *Loop) Run(ctx context.Context) (err error) {
	if !l.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer func() { l.shutdown(err) }()

	engineEvents := l.engine.Events()
	timer := l.clock.Timer(l.cfg.RepublishInterval)
	defer timer.Stop()

	logger.Info("协调循环已启动",
		"peer", log.TruncateID(l.engine.LocalPeer().String(), 8),
		"republishInterval", l.cfg.RepublishInterval)

	for {
		// 队列为空时 out 为 nil，该分支永远不会被选中
		var out chan<- types.Event
		var next types.Event
		if len(l.queue) > 0 {
			out = l.events
			next = l.queue[0]
		}

		select {
		case ev, ok := <-engineEvents:
			if !ok {
				logger.Error("引擎事件流已关闭")
				return ErrEngineExhausted
			}
			l.handleEngineEvent(ev)

		case cmd := <-l.commands:
			l.handleCommand(cmd)

		case <-timer.C:
			l.republish()
			timer.Reset(l.cfg.RepublishInterval)

		case out <- next:
			l.queue[0] = nil
			l.queue = l.queue[1:]
			continue

		case <-ctx.Done():
			logger.Info("协调循环已停止")
			return nil
		}
		l.updatePending()
	}
}

// emit 把事件追加到待推送队列
func (l *Loop) emit(ev types.Event) {
	l.queue = append(l.queue, ev)
}

func (l *Loop) shutdown(err error) {
	l.err = err

	for p, waiters := range l.pendingDials {
		for _, r := range waiters {
			r.fail(ErrActorTerminated)
		}
		delete(l.pendingDials, p)
	}
	for id, r := range l.pendingRequests {
		r.fail(ErrActorTerminated)
		delete(l.pendingRequests, id)
	}

drain:
	for {
		select {
		case cmd := <-l.commands:
			cmd.abort(ErrActorTerminated)
		default:
			break drain
		}
	}

	if n := len(l.queue); n > 0 {
		logger.Debug("丢弃未推送的事件", "count", n)
		l.queue = nil
	}
	l.updatePending()
	close(l.events)
	close(l.done)
}

func (l *Loop) updatePending() {
	if l.metrics == nil {
		return
	}
	dials := 0
	for _, waiters := range l.pendingDials {
		dials += len(waiters)
	}
	l.metrics.SetPending(metrics.TablePendingDials, dials)
	l.metrics.SetPending(metrics.TablePendingRequests, len(l.pendingRequests))
	l.metrics.SetPending(metrics.TableKnownFiles, len(l.knownFiles))
	l.metrics.SetPending(metrics.TableProvidedFiles, len(l.providedFiles))
	l.metrics.SetPending(metrics.TableKnownPeers, len(l.knownPeers))
}
