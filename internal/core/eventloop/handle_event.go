package eventloop

import (
	"fmt"
	"unicode/utf8"

	"github.com/dep2p/go-fileswap/pkg/lib/log"
	"github.com/dep2p/go-fileswap/pkg/types"
)

func (l *Loop) handleEngineEvent(ev types.EngineEvent) {
	switch e := ev.(type) {
	case types.EvtConnectionEstablished:
		l.metrics.ObserveEvent("connection_established")
		l.onConnectionEstablished(e)

	case types.EvtNewListenAddr:
		l.metrics.ObserveEvent("new_listen_addr")
		logger.Info("新的监听地址", "addr", e.Address)
		l.emit(types.NewListenAddr{Address: e.Address})

	case types.EvtPeerIdentified:
		l.metrics.ObserveEvent("peer_identified")
		l.emit(types.PeerIdentified{
			Peer:            e.Peer,
			AgentVersion:    e.AgentVersion,
			ProtocolVersion: e.ProtocolVersion,
			ListenAddrs:     e.ListenAddrs,
			Protocols:       e.Protocols,
			ObservedAddr:    e.ObservedAddr,
		})

	case types.EvtGossipMessage:
		l.metrics.ObserveEvent("gossip_message")
		l.onGossipMessage(e)

	case types.EvtInboundRequest:
		l.metrics.ObserveEvent("inbound_request")
		l.onInboundRequest(e)

	case types.EvtInboundResponse:
		l.metrics.ObserveEvent("inbound_response")
		l.onInboundResponse(e)

	case types.EvtOutboundFailure:
		l.metrics.ObserveEvent("outbound_failure")
		l.onOutboundFailure(e)

	case types.EvtDialFailure:
		l.metrics.ObserveEvent("dial_failure")
		l.onDialFailure(e)

	case types.EvtPeerDiscovered:
		l.metrics.ObserveEvent("peer_discovered")
		l.onPeerDiscovered(e)

	default:
		logger.Debug("忽略引擎事件", "type", fmt.Sprintf("%T", ev))
	}
}

func (l *Loop) onConnectionEstablished(e types.EvtConnectionEstablished) {
	logger.Debug("连接已建立",
		"peer", log.TruncateID(e.Peer.String(), 8),
		"remote", e.Endpoint.Remote,
		"dialer", e.Endpoint.Dialer)

	if waiters, ok := l.pendingDials[e.Peer]; ok {
		delete(l.pendingDials, e.Peer)
		for _, r := range waiters {
			r.resolve(struct{}{}, nil)
		}
	}
	l.emit(types.ConnectionEstablished{Peer: e.Peer, Endpoint: e.Endpoint})
}

func (l *Loop) onDialFailure(e types.EvtDialFailure) {
	waiters, ok := l.pendingDials[e.Peer]
	if !ok {
		logger.Debug("拨号失败（无等待者）", "peer", log.TruncateID(e.Peer.String(), 8), "error", e.Err)
		return
	}
	delete(l.pendingDials, e.Peer)

	err := fmt.Errorf("%w: %v", ErrDialFailed, e.Err)
	for _, r := range waiters {
		r.fail(err)
	}
}

func (l *Loop) onPeerDiscovered(e types.EvtPeerDiscovered) {
	for _, addr := range e.Addrs {
		l.engine.AddAddress(e.Peer, addr)
	}
	if _, known := l.knownPeers[e.Peer]; known {
		return
	}
	l.knownPeers[e.Peer] = struct{}{}

	logger.Info("发现新节点", "peer", log.TruncateID(e.Peer.String(), 8), "addrs", len(e.Addrs))
	if err := l.engine.Dial(e.Peer); err != nil {
		logger.Debug("拨号新发现节点失败", "peer", log.TruncateID(e.Peer.String(), 8), "error", err)
	}
}

func (l *Loop) onGossipMessage(e types.EvtGossipMessage) {
	if e.Source == "" {
		logger.Debug("丢弃无来源的 gossip 消息", "topic", e.Topic, "id", e.MessageID)
		return
	}

	switch e.Topic {
	case l.cfg.ChatTopic:
		l.emit(types.NewChatMessage{
			Peer:      e.Source,
			MessageID: e.MessageID,
			Data:      e.Data,
		})
	case l.cfg.FilesTopic:
		l.onAnnouncement(e.Source, e.Data)
	default:
		logger.Debug("忽略未知主题的消息", "topic", e.Topic)
	}
}

// onInboundRequest 处理文件请求
//
// 文件名非法、未注册或读取失败时不发送任何响应，请求方由引擎超时得到失败。
// 空文件照常交给引擎，引擎拒绝空帧并让请求方立即失败。
func (l *Loop) onInboundRequest(e types.EvtInboundRequest) {
	if !utf8.Valid(e.Data) {
		logger.Debug("文件名不是合法 UTF-8，丢弃请求", "peer", log.TruncateID(e.Peer.String(), 8))
		l.metrics.ObserveDecodeError("file_exchange")
		return
	}
	name := string(e.Data)

	path, ok := l.providedFiles[name]
	if !ok {
		logger.Debug("请求了未提供的文件", "file", name, "peer", log.TruncateID(e.Peer.String(), 8))
		return
	}

	data, err := l.files.ReadFile(path)
	if err != nil {
		logger.Warn("读取文件失败", "file", name, "path", path, "error", err)
		return
	}
	if err := l.engine.SendResponse(e.Channel, data); err != nil {
		logger.Warn("发送文件响应失败", "file", name, "peer", log.TruncateID(e.Peer.String(), 8), "error", err)
		return
	}
	l.metrics.ObserveTransfer("out", len(data))
	logger.Debug("已发送文件", "file", name, "bytes", len(data), "peer", log.TruncateID(e.Peer.String(), 8))
}

func (l *Loop) onInboundResponse(e types.EvtInboundResponse) {
	r, ok := l.pendingRequests[e.RequestID]
	if !ok {
		logger.Error("收到未知请求 ID 的响应", "requestID", e.RequestID)
		return
	}
	delete(l.pendingRequests, e.RequestID)

	l.metrics.ObserveTransfer("in", len(e.Data))
	r.resolve(e.Data, nil)
}

func (l *Loop) onOutboundFailure(e types.EvtOutboundFailure) {
	r, ok := l.pendingRequests[e.RequestID]
	if !ok {
		logger.Error("收到未知请求 ID 的失败事件", "requestID", e.RequestID, "error", e.Err)
		return
	}
	delete(l.pendingRequests, e.RequestID)

	logger.Debug("文件请求失败", "requestID", e.RequestID, "error", e.Err)
	r.fail(fmt.Errorf("%w: %v", ErrRequestFailed, e.Err))
}
