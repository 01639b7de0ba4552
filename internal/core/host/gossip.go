package host

import (
	"fmt"

	pubsub "github.com/libp2p/go-libp2p-pubsub"

	"github.com/dep2p/go-fileswap/pkg/types"
)

// joinTopic 返回已加入的主题，未加入时加入
func (h *Host) joinTopic(name string) (*pubsub.Topic, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if t, ok := h.topics[name]; ok {
		return t, nil
	}
	t, err := h.pubsub.Join(name)
	if err != nil {
		return nil, fmt.Errorf("加入主题 %s 失败: %w", name, err)
	}
	h.topics[name] = t
	return t, nil
}

// Subscribe 订阅主题；重复订阅不报错
func (h *Host) Subscribe(topic string) error {
	if h.isClosed() {
		return ErrClosed
	}
	t, err := h.joinTopic(topic)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[topic]; ok {
		return nil
	}
	sub, err := t.Subscribe()
	if err != nil {
		return fmt.Errorf("订阅主题 %s 失败: %w", topic, err)
	}
	h.subs[topic] = sub
	go h.readLoop(sub)

	logger.Debug("已订阅主题", "topic", topic)
	return nil
}

// Publish 发布消息
//
// 主题上没有任何已知订阅节点时返回 ErrInsufficientPeers。
func (h *Host) Publish(topic string, data []byte) error {
	if h.isClosed() {
		return ErrClosed
	}
	t, err := h.joinTopic(topic)
	if err != nil {
		return err
	}
	if len(t.ListPeers()) == 0 {
		return fmt.Errorf("%w: topic %s", ErrInsufficientPeers, topic)
	}
	return t.Publish(h.ctx, data)
}

func (h *Host) readLoop(sub *pubsub.Subscription) {
	self := h.host.ID()
	for {
		msg, err := sub.Next(h.ctx)
		if err != nil {
			return
		}
		if msg.ReceivedFrom == self {
			continue
		}
		h.deliver(types.EvtGossipMessage{
			Topic:     sub.Topic(),
			Data:      msg.Data,
			Source:    msg.GetFrom(),
			MessageID: types.MessageID(msg.ID),
		})
	}
}
