package memnet

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/libp2p/go-libp2p/core/peer"
	ma "github.com/multiformats/go-multiaddr"

	"github.com/dep2p/go-fileswap/internal/protocol/fileexchange"
	"github.com/dep2p/go-fileswap/pkg/interfaces"
	"github.com/dep2p/go-fileswap/pkg/lib/log"
	"github.com/dep2p/go-fileswap/pkg/protocolids"
	"github.com/dep2p/go-fileswap/pkg/types"
)

// Engine 进程内网络节点
type Engine struct {
	hub   *Hub
	local peer.ID

	inbox     chan types.EngineEvent
	events    chan types.EngineEvent
	closed    chan struct{}
	closeOnce sync.Once

	nextOutbound atomic.Uint64
	nextInbound  atomic.Uint64

	mu          sync.Mutex
	addrBook    map[peer.ID][]ma.Multiaddr
	listenAddrs []ma.Multiaddr
	topics      map[string]struct{}
	conns       map[peer.ID]types.Endpoint
	outbound    map[types.RequestID]*clock.Timer
	inbound     map[types.RequestID]inboundRequest
}

// inboundRequest 等待响应的入站请求
type inboundRequest struct {
	from *Engine
	id   types.RequestID
}

var _ interfaces.Engine = (*Engine)(nil)

func newEngine(h *Hub, id peer.ID) *Engine {
	e := &Engine{
		hub:      h,
		local:    id,
		inbox:    make(chan types.EngineEvent),
		events:   make(chan types.EngineEvent),
		closed:   make(chan struct{}),
		addrBook: make(map[peer.ID][]ma.Multiaddr),
		topics:   make(map[string]struct{}),
		conns:    make(map[peer.ID]types.Endpoint),
		outbound: make(map[types.RequestID]*clock.Timer),
		inbound:  make(map[types.RequestID]inboundRequest),
	}
	go e.pump()
	return e
}

// pump 把邮箱中的事件按顺序推送到 events
func (e *Engine) pump() {
	defer close(e.events)

	var queue []types.EngineEvent
	for {
		var out chan<- types.EngineEvent
		var next types.EngineEvent
		if len(queue) > 0 {
			out = e.events
			next = queue[0]
		}

		select {
		case ev := <-e.inbox:
			queue = append(queue, ev)
		case out <- next:
			queue[0] = nil
			queue = queue[1:]
		case <-e.closed:
			return
		}
	}
}

// deliver 把事件放入邮箱，引擎关闭后丢弃
func (e *Engine) deliver(ev types.EngineEvent) bool {
	select {
	case e.inbox <- ev:
		return true
	case <-e.closed:
		return false
	}
}

func (e *Engine) isClosed() bool {
	select {
	case <-e.closed:
		return true
	default:
		return false
	}
}

// LocalPeer 返回本地节点 ID
func (e *Engine) LocalPeer() types.PeerID {
	return e.local
}

// ============================================================================
//                              地址与连接
// ============================================================================

// Listen 在地址上监听
func (e *Engine) Listen(addr types.Multiaddr) error {
	if e.isClosed() {
		return ErrEngineClosed
	}
	if err := e.hub.bind(addr, e); err != nil {
		return err
	}

	e.mu.Lock()
	for _, a := range e.listenAddrs {
		if a.Equal(addr) {
			e.mu.Unlock()
			return nil
		}
	}
	e.listenAddrs = append(e.listenAddrs, addr)
	e.mu.Unlock()

	e.deliver(types.EvtNewListenAddr{Address: addr})
	return nil
}

// ListenAddrs 返回监听地址
func (e *Engine) ListenAddrs() []types.Multiaddr {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]ma.Multiaddr(nil), e.listenAddrs...)
}

// AddAddress 把地址记入地址簿
func (e *Engine) AddAddress(p types.PeerID, addr types.Multiaddr) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, a := range e.addrBook[p] {
		if a.Equal(addr) {
			return
		}
	}
	e.addrBook[p] = append(e.addrBook[p], addr)
}

// Dial 拨号到地址簿中的节点
func (e *Engine) Dial(p types.PeerID) error {
	if e.isClosed() {
		return ErrEngineClosed
	}
	if p == e.local {
		return ErrSelfDial
	}

	e.mu.Lock()
	addrs := append([]ma.Multiaddr(nil), e.addrBook[p]...)
	e.mu.Unlock()
	if len(addrs) == 0 {
		return fmt.Errorf("%w: %s", ErrNoAddresses, p)
	}

	go e.dial(p, addrs)
	return nil
}

func (e *Engine) dial(p peer.ID, addrs []ma.Multiaddr) {
	for _, addr := range addrs {
		target := e.hub.lookupAddr(addr)
		if target == nil || target.local != p || target.isClosed() {
			continue
		}
		e.connect(target, addr)
		return
	}

	logger.Debug("拨号失败", "peer", log.TruncateID(p.String(), 8), "addrs", len(addrs))
	e.deliver(types.EvtDialFailure{
		Peer: p,
		Err:  fmt.Errorf("%w: %s", ErrConnectionRefused, p),
	})
}

// connect 建立双向连接并完成 identify
func (e *Engine) connect(target *Engine, remote ma.Multiaddr) {
	e.mu.Lock()
	var local ma.Multiaddr
	if len(e.listenAddrs) > 0 {
		local = e.listenAddrs[0]
	}
	dialerEnd := types.Endpoint{Dialer: true, Local: local, Remote: remote}
	e.conns[target.local] = dialerEnd
	e.mu.Unlock()

	target.mu.Lock()
	listenerEnd := types.Endpoint{Dialer: false, Local: remote, Remote: local}
	target.conns[e.local] = listenerEnd
	target.mu.Unlock()

	e.deliver(types.EvtConnectionEstablished{Peer: target.local, Endpoint: dialerEnd})
	target.deliver(types.EvtConnectionEstablished{Peer: e.local, Endpoint: listenerEnd})

	e.deliver(target.identifyEvent(local))
	target.deliver(e.identifyEvent(remote))
}

// identifyEvent 其他节点识别本节点时得到的信息
func (e *Engine) identifyEvent(observed ma.Multiaddr) types.EvtPeerIdentified {
	return types.EvtPeerIdentified{
		Peer:            e.local,
		AgentVersion:    protocolids.AgentVersion,
		ProtocolVersion: protocolids.ProtocolVersion,
		ListenAddrs:     e.ListenAddrs(),
		Protocols:       []string{protocolids.FileExchange},
		ObservedAddr:    observed,
	}
}

func (e *Engine) connected(p peer.ID) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.conns[p]
	return ok
}

// ============================================================================
//                              Gossip
// ============================================================================

// Subscribe 订阅主题
func (e *Engine) Subscribe(topic string) error {
	if e.isClosed() {
		return ErrEngineClosed
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.topics[topic] = struct{}{}
	return nil
}

func (e *Engine) subscribed(topic string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.topics[topic]
	return ok
}

// Publish 向已连接且订阅了主题的节点发布消息
func (e *Engine) Publish(topic string, data []byte) error {
	if e.isClosed() {
		return ErrEngineClosed
	}

	e.mu.Lock()
	peers := make([]peer.ID, 0, len(e.conns))
	for p := range e.conns {
		peers = append(peers, p)
	}
	e.mu.Unlock()

	msg := types.EvtGossipMessage{
		Topic:     topic,
		Data:      append([]byte(nil), data...),
		Source:    e.local,
		MessageID: types.MessageID(uuid.NewString()),
	}

	delivered := 0
	for _, p := range peers {
		target := e.hub.lookupPeer(p)
		if target == nil || !target.subscribed(topic) {
			continue
		}
		if target.deliver(msg) {
			delivered++
		}
	}
	if delivered == 0 {
		return fmt.Errorf("%w: topic %s", ErrInsufficientPeers, topic)
	}
	return nil
}

// ============================================================================
//                              请求-响应
// ============================================================================

// SendRequest 发送文件请求
func (e *Engine) SendRequest(p types.PeerID, data []byte) types.RequestID {
	id := types.RequestID(e.nextOutbound.Add(1))

	e.mu.Lock()
	e.outbound[id] = e.hub.clock.AfterFunc(e.hub.requestTimeout, func() {
		e.failOutbound(id, p, ErrTimeout)
	})
	e.mu.Unlock()

	if n := len(data); n > e.hub.limits.MaxRequestSize {
		e.failOutbound(id, p, fmt.Errorf("%w: %d > %d", fileexchange.ErrFrameTooLarge, n, e.hub.limits.MaxRequestSize))
		return id
	}

	target := e.hub.lookupPeer(p)
	if target == nil || !e.connected(p) {
		e.failOutbound(id, p, fmt.Errorf("%w: %s", ErrNotConnected, p))
		return id
	}
	target.acceptRequest(e, id, data)
	return id
}

func (e *Engine) acceptRequest(from *Engine, outboundID types.RequestID, data []byte) {
	id := types.RequestID(e.nextInbound.Add(1))

	e.mu.Lock()
	e.inbound[id] = inboundRequest{from: from, id: outboundID}
	e.mu.Unlock()

	e.deliver(types.EvtInboundRequest{
		Peer:    from.local,
		Data:    append([]byte(nil), data...),
		Channel: types.ResponseChannel{RequestID: id, Peer: from.local},
	})
}

// SendResponse 回复入站请求
func (e *Engine) SendResponse(ch types.ResponseChannel, data []byte) error {
	e.mu.Lock()
	req, ok := e.inbound[ch.RequestID]
	delete(e.inbound, ch.RequestID)
	e.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownChannel, ch.RequestID)
	}

	var err error
	switch n := len(data); {
	case n == 0:
		err = fileexchange.ErrEmptyFrame
	case n > e.hub.limits.MaxResponseSize:
		err = fmt.Errorf("%w: %d > %d", fileexchange.ErrFrameTooLarge, n, e.hub.limits.MaxResponseSize)
	}
	if err != nil {
		req.from.failOutbound(req.id, e.local, err)
		return err
	}
	req.from.completeOutbound(req.id, append([]byte(nil), data...))
	return nil
}

// takeOutbound 取出等待中的出站请求；已完成或已超时返回 false
func (e *Engine) takeOutbound(id types.RequestID) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	timer, ok := e.outbound[id]
	if !ok {
		return false
	}
	delete(e.outbound, id)
	timer.Stop()
	return true
}

func (e *Engine) completeOutbound(id types.RequestID, data []byte) {
	if !e.takeOutbound(id) {
		return
	}
	e.deliver(types.EvtInboundResponse{RequestID: id, Data: data})
}

func (e *Engine) failOutbound(id types.RequestID, p peer.ID, err error) {
	if !e.takeOutbound(id) {
		return
	}
	logger.Debug("出站请求失败", "requestID", id, "peer", log.TruncateID(p.String(), 8), "error", err)
	e.deliver(types.EvtOutboundFailure{RequestID: id, Peer: p, Err: err})
}

// ============================================================================
//                              生命周期
// ============================================================================

// Events 返回事件流
func (e *Engine) Events() <-chan types.EngineEvent {
	return e.events
}

// Close 离开网络
//
// 事件流随后关闭。
func (e *Engine) Close() error {
	e.closeOnce.Do(func() {
		close(e.closed)
		e.hub.remove(e)

		e.mu.Lock()
		for id, timer := range e.outbound {
			timer.Stop()
			delete(e.outbound, id)
		}
		e.mu.Unlock()

		logger.Debug("节点离开网络", "peer", log.TruncateID(e.local.String(), 8))
	})
	return nil
}
