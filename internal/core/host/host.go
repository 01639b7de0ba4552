package host

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/benbjohnson/clock"
	"github.com/libp2p/go-libp2p"
	pubsub "github.com/libp2p/go-libp2p-pubsub"
	"github.com/libp2p/go-libp2p/core/crypto"
	"github.com/libp2p/go-libp2p/core/event"
	lphost "github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/network"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/libp2p/go-libp2p/core/peerstore"
	"github.com/libp2p/go-libp2p/core/protocol"
	"github.com/libp2p/go-libp2p/p2p/discovery/mdns"
	"github.com/libp2p/go-libp2p/p2p/muxer/yamux"
	"github.com/libp2p/go-libp2p/p2p/security/noise"
	"github.com/libp2p/go-libp2p/p2p/transport/tcp"
	"go.uber.org/multierr"

	"github.com/dep2p/go-fileswap/internal/core/identity"
	"github.com/dep2p/go-fileswap/internal/protocol/fileexchange"
	"github.com/dep2p/go-fileswap/pkg/interfaces"
	"github.com/dep2p/go-fileswap/pkg/lib/log"
	"github.com/dep2p/go-fileswap/pkg/protocolids"
	"github.com/dep2p/go-fileswap/pkg/types"
)

var logger = log.Logger("core/host")

// Host libp2p 网络引擎
type Host struct {
	cfg   Config
	priv  crypto.PrivKey
	clock clock.Clock
	codec *fileexchange.Codec

	ctx    context.Context
	cancel context.CancelFunc

	host     lphost.Host
	pubsub   *pubsub.PubSub
	mdns     mdns.Service
	busSub   event.Subscription
	notifiee *network.NotifyBundle

	inbox     chan types.EngineEvent
	events    chan types.EngineEvent
	closed    chan struct{}
	closeOnce sync.Once
	closeErr  error

	nextOutbound atomic.Uint64
	nextInbound  atomic.Uint64

	mu      sync.Mutex
	topics  map[string]*pubsub.Topic
	subs    map[string]*pubsub.Subscription
	inbound map[types.RequestID]*pendingInbound
}

// pendingInbound 等待本地响应的入站流
type pendingInbound struct {
	stream network.Stream
	timer  *clock.Timer
}

var _ interfaces.Engine = (*Host)(nil)

// New 创建并启动 libp2p 网络引擎
//
// 返回时尚未监听任何地址，通过 Listen 开始监听。
func New(opts ...Option) (*Host, error) {
	h := &Host{
		cfg:     *DefaultConfig(),
		clock:   clock.New(),
		inbox:   make(chan types.EngineEvent),
		events:  make(chan types.EngineEvent),
		closed:  make(chan struct{}),
		topics:  make(map[string]*pubsub.Topic),
		subs:    make(map[string]*pubsub.Subscription),
		inbound: make(map[types.RequestID]*pendingInbound),
	}
	for _, opt := range opts {
		if err := opt(h); err != nil {
			return nil, err
		}
	}
	if err := h.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid host config: %w", err)
	}
	if h.priv == nil {
		id, err := identity.Generate()
		if err != nil {
			return nil, err
		}
		h.priv = id.PrivateKey()
	}
	h.codec = fileexchange.NewCodec(
		fileexchange.WithMaxRequestSize(h.cfg.Limits.MaxRequestSize),
		fileexchange.WithMaxResponseSize(h.cfg.Limits.MaxResponseSize),
	)
	h.ctx, h.cancel = context.WithCancel(context.Background())

	go h.pump()

	if err := h.start(); err != nil {
		_ = h.Close()
		return nil, err
	}

	logger.Info("网络引擎已启动",
		"peer", log.TruncateID(h.host.ID().String(), 8),
		"relay", h.cfg.EnableRelay,
		"mdns", h.cfg.EnableMDNS)
	return h, nil
}

func (h *Host) start() error {
	relayOpt := libp2p.DisableRelay()
	if h.cfg.EnableRelay {
		relayOpt = libp2p.EnableRelay()
	}

	lh, err := libp2p.New(
		libp2p.Identity(h.priv),
		libp2p.UserAgent(h.cfg.UserAgent),
		libp2p.ProtocolVersion(h.cfg.ProtocolVersion),
		libp2p.NoListenAddrs,
		libp2p.Transport(tcp.NewTCPTransport),
		libp2p.Security(noise.ID, noise.New),
		libp2p.Muxer(yamux.ID, yamux.DefaultTransport),
		relayOpt,
	)
	if err != nil {
		return fmt.Errorf("创建 libp2p 主机失败: %w", err)
	}
	h.host = lh

	h.notifiee = &network.NotifyBundle{
		ConnectedF: h.onConnected,
		ListenF:    h.onListen,
	}
	lh.Network().Notify(h.notifiee)

	sub, err := lh.EventBus().Subscribe(new(event.EvtPeerIdentificationCompleted))
	if err != nil {
		return fmt.Errorf("订阅 identify 事件失败: %w", err)
	}
	h.busSub = sub
	go h.busLoop(sub)

	params := pubsub.DefaultGossipSubParams()
	params.HeartbeatInterval = h.cfg.HeartbeatInterval
	ps, err := pubsub.NewGossipSub(h.ctx, lh,
		pubsub.WithMessageSignaturePolicy(pubsub.StrictSign),
		pubsub.WithGossipSubParams(params),
	)
	if err != nil {
		return fmt.Errorf("创建 GossipSub 失败: %w", err)
	}
	h.pubsub = ps

	lh.SetStreamHandler(protocol.ID(protocolids.FileExchange), h.handleStream)

	if h.cfg.EnableMDNS {
		svc := mdns.NewMdnsService(lh, h.cfg.MDNSServiceName, &mdnsNotifee{h: h})
		if err := svc.Start(); err != nil {
			return fmt.Errorf("启动 mDNS 失败: %w", err)
		}
		h.mdns = svc
	}
	return nil
}

// ============================================================================
//                              事件邮箱
// ============================================================================

// pump 把邮箱中的事件按顺序推送到 events
func (h *Host) pump() {
	defer close(h.events)

	var queue []types.EngineEvent
	for {
		var out chan<- types.EngineEvent
		var next types.EngineEvent
		if len(queue) > 0 {
			out = h.events
			next = queue[0]
		}

		select {
		case ev := <-h.inbox:
			queue = append(queue, ev)
		case out <- next:
			queue[0] = nil
			queue = queue[1:]
		case <-h.closed:
			return
		}
	}
}

func (h *Host) deliver(ev types.EngineEvent) {
	select {
	case h.inbox <- ev:
	case <-h.closed:
	}
}

func (h *Host) isClosed() bool {
	select {
	case <-h.closed:
		return true
	default:
		return false
	}
}

// Events 返回事件流
func (h *Host) Events() <-chan types.EngineEvent {
	return h.events
}

// ============================================================================
//                              地址与连接
// ============================================================================

// LocalPeer 返回本地节点 ID
func (h *Host) LocalPeer() types.PeerID {
	return h.host.ID()
}

// Listen 在地址上监听
func (h *Host) Listen(addr types.Multiaddr) error {
	if h.isClosed() {
		return ErrClosed
	}
	return h.host.Network().Listen(addr)
}

// ListenAddrs 返回可被其他节点拨号的地址
func (h *Host) ListenAddrs() []types.Multiaddr {
	return h.host.Addrs()
}

// AddAddress 把地址记入地址簿
func (h *Host) AddAddress(p types.PeerID, addr types.Multiaddr) {
	h.host.Peerstore().AddAddr(p, addr, peerstore.PermanentAddrTTL)
}

// Dial 拨号到地址簿中的节点
//
// 已连接时直接以现有连接产生 EvtConnectionEstablished。
func (h *Host) Dial(p types.PeerID) error {
	if h.isClosed() {
		return ErrClosed
	}
	if p == h.host.ID() {
		return ErrSelfDial
	}
	if len(h.host.Network().ConnsToPeer(p)) == 0 && len(h.host.Peerstore().Addrs(p)) == 0 {
		return fmt.Errorf("%w: %s", ErrNoAddresses, p)
	}

	go h.dial(p)
	return nil
}

func (h *Host) dial(p peer.ID) {
	if conns := h.host.Network().ConnsToPeer(p); len(conns) > 0 {
		h.deliver(types.EvtConnectionEstablished{Peer: p, Endpoint: endpointOf(conns[0])})
		return
	}

	ctx, cancel := context.WithTimeout(h.ctx, h.cfg.DialTimeout)
	defer cancel()

	// 成功时由网络通知产生连接事件
	if err := h.host.Connect(ctx, peer.AddrInfo{ID: p}); err != nil {
		logger.Debug("拨号失败", "peer", log.TruncateID(p.String(), 8), "error", err)
		h.deliver(types.EvtDialFailure{Peer: p, Err: err})
	}
}

// ============================================================================
//                              生命周期
// ============================================================================

// Close 关闭引擎
//
// 事件流随后关闭。
func (h *Host) Close() error {
	h.closeOnce.Do(func() {
		h.cancel()
		close(h.closed)

		var errs error
		if h.mdns != nil {
			errs = multierr.Append(errs, h.mdns.Close())
		}
		if h.busSub != nil {
			errs = multierr.Append(errs, h.busSub.Close())
		}

		h.mu.Lock()
		for name, sub := range h.subs {
			sub.Cancel()
			delete(h.subs, name)
		}
		for name, t := range h.topics {
			// 取消订阅是异步的，此时关闭主题可能报告仍有订阅
			_ = t.Close()
			delete(h.topics, name)
		}
		for id, p := range h.inbound {
			p.timer.Stop()
			_ = p.stream.Reset()
			delete(h.inbound, id)
		}
		h.mu.Unlock()

		if h.host != nil {
			if h.notifiee != nil {
				h.host.Network().StopNotify(h.notifiee)
			}
			errs = multierr.Append(errs, h.host.Close())
		}
		h.closeErr = errs
		logger.Info("网络引擎已关闭")
	})
	return h.closeErr
}
