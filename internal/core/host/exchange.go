package host

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/libp2p/go-libp2p/core/network"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/libp2p/go-libp2p/core/protocol"

	"github.com/dep2p/go-fileswap/internal/protocol/fileexchange"
	"github.com/dep2p/go-fileswap/pkg/lib/log"
	"github.com/dep2p/go-fileswap/pkg/protocolids"
	"github.com/dep2p/go-fileswap/pkg/types"
)

// ============================================================================
//                              出站请求
// ============================================================================

// SendRequest 发送文件请求
//
// 结果以 EvtInboundResponse 或 EvtOutboundFailure 返回。
func (h *Host) SendRequest(p types.PeerID, data []byte) types.RequestID {
	id := types.RequestID(h.nextOutbound.Add(1))
	go h.request(id, p, data)
	return id
}

func (h *Host) request(id types.RequestID, p peer.ID, data []byte) {
	ctx, cancel := h.clock.WithTimeout(h.ctx, h.cfg.RequestTimeout)
	defer cancel()

	resp, err := h.roundTrip(ctx, p, data)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		logger.Debug("文件请求失败", "requestID", id, "peer", log.TruncateID(p.String(), 8), "error", err)
		h.deliver(types.EvtOutboundFailure{RequestID: id, Peer: p, Err: err})
		return
	}
	h.deliver(types.EvtInboundResponse{RequestID: id, Data: resp})
}

func (h *Host) roundTrip(ctx context.Context, p peer.ID, data []byte) ([]byte, error) {
	s, err := h.host.NewStream(ctx, p, protocol.ID(protocolids.FileExchange))
	if err != nil {
		return nil, fmt.Errorf("打开流失败: %w", err)
	}
	// 超时或引擎关闭时中断流上阻塞的读写
	stop := context.AfterFunc(ctx, func() { _ = s.Reset() })
	defer stop()

	if err := h.codec.WriteRequest(s, data); err != nil {
		_ = s.Reset()
		return nil, err
	}
	resp, err := h.codec.ReadResponse(s)
	if err != nil {
		_ = s.Reset()
		return nil, err
	}
	_ = s.Close()
	return resp, nil
}

// ============================================================================
//                              入站请求
// ============================================================================

func (h *Host) handleStream(s network.Stream) {
	remote := s.Conn().RemotePeer()

	_ = s.SetReadDeadline(time.Now().Add(h.cfg.RequestTimeout))
	data, err := h.codec.ReadRequest(s)
	if err != nil {
		logger.Debug("读取文件请求失败", "peer", log.TruncateID(remote.String(), 8), "error", err)
		_ = s.Reset()
		return
	}
	_ = s.SetReadDeadline(time.Time{})

	id := types.RequestID(h.nextInbound.Add(1))
	pending := &pendingInbound{stream: s}

	h.mu.Lock()
	if h.isClosed() {
		h.mu.Unlock()
		_ = s.Reset()
		return
	}
	h.inbound[id] = pending
	pending.timer = h.clock.AfterFunc(h.cfg.RequestTimeout, func() {
		if p := h.takeInbound(id); p != nil {
			logger.Debug("入站请求未得到响应，重置流", "requestID", id)
			_ = p.stream.Reset()
		}
	})
	h.mu.Unlock()

	h.deliver(types.EvtInboundRequest{
		Peer:    remote,
		Data:    data,
		Channel: types.ResponseChannel{RequestID: id, Peer: remote},
	})
}

func (h *Host) takeInbound(id types.RequestID) *pendingInbound {
	h.mu.Lock()
	defer h.mu.Unlock()

	p, ok := h.inbound[id]
	if !ok {
		return nil
	}
	delete(h.inbound, id)
	if p.timer != nil {
		p.timer.Stop()
	}
	return p
}

// SendResponse 回复入站请求
//
// 长度校验同步完成，写流在后台进行，调用方不会被大文件传输阻塞。
func (h *Host) SendResponse(ch types.ResponseChannel, data []byte) error {
	p := h.takeInbound(ch.RequestID)
	if p == nil {
		return fmt.Errorf("%w: %d", ErrUnknownChannel, ch.RequestID)
	}

	limit := h.codec.Config().MaxResponseSize
	switch n := len(data); {
	case n == 0:
		_ = p.stream.Reset()
		return fileexchange.ErrEmptyFrame
	case n > limit:
		_ = p.stream.Reset()
		return fmt.Errorf("%w: %d > %d", fileexchange.ErrFrameTooLarge, n, limit)
	}

	go func() {
		_ = p.stream.SetWriteDeadline(time.Now().Add(h.cfg.RequestTimeout))
		if err := h.codec.WriteResponse(p.stream, data); err != nil {
			logger.Debug("写入文件响应失败", "peer", log.TruncateID(ch.Peer.String(), 8), "error", err)
			_ = p.stream.Reset()
			return
		}
		_ = p.stream.Close()
	}()
	return nil
}
