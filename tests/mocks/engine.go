package mocks

import (
	"sync"

	"github.com/dep2p/go-fileswap/pkg/interfaces"
	"github.com/dep2p/go-fileswap/pkg/types"
)

// PublishCall 一次 Publish 调用
type PublishCall struct {
	Topic string
	Data  []byte
}

// RequestCall 一次 SendRequest 调用
type RequestCall struct {
	ID   types.RequestID
	Peer types.PeerID
	Data []byte
}

// ResponseCall 一次 SendResponse 调用
type ResponseCall struct {
	Channel types.ResponseChannel
	Data    []byte
}

// MockEngine 模拟 Engine 接口实现
//
// 事件通道默认无缓冲：测试向 EventsCh 写入事件时，写入完成即表示循环已接收该事件。
type MockEngine struct {
	mu sync.Mutex

	Local    types.PeerID
	Addrs    []types.Multiaddr
	EventsCh chan types.EngineEvent

	// 可覆盖的方法
	DialFunc         func(p types.PeerID) error
	ListenFunc       func(addr types.Multiaddr) error
	SubscribeFunc    func(topic string) error
	PublishFunc      func(topic string, data []byte) error
	SendResponseFunc func(ch types.ResponseChannel, data []byte) error
	CloseFunc        func() error

	// 调用记录
	DialCalls      []types.PeerID
	ListenCalls    []types.Multiaddr
	SubscribeCalls []string
	PublishCalls   []PublishCall
	RequestCalls   []RequestCall
	ResponseCalls  []ResponseCall
	KnownAddrs     map[types.PeerID][]types.Multiaddr
	CloseCalls     int

	nextRequestID types.RequestID
}

var _ interfaces.Engine = (*MockEngine)(nil)

// NewMockEngine 创建 MockEngine
func NewMockEngine(local types.PeerID) *MockEngine {
	return &MockEngine{
		Local:      local,
		EventsCh:   make(chan types.EngineEvent),
		KnownAddrs: make(map[types.PeerID][]types.Multiaddr),
	}
}

// LocalPeer 返回本地节点 ID
func (m *MockEngine) LocalPeer() types.PeerID {
	return m.Local
}

// Dial 记录拨号
func (m *MockEngine) Dial(p types.PeerID) error {
	m.mu.Lock()
	m.DialCalls = append(m.DialCalls, p)
	fn := m.DialFunc
	m.mu.Unlock()
	if fn != nil {
		return fn(p)
	}
	return nil
}

// Listen 记录监听
func (m *MockEngine) Listen(addr types.Multiaddr) error {
	m.mu.Lock()
	m.ListenCalls = append(m.ListenCalls, addr)
	fn := m.ListenFunc
	m.mu.Unlock()
	if fn != nil {
		return fn(addr)
	}
	return nil
}

// ListenAddrs 返回 Addrs
func (m *MockEngine) ListenAddrs() []types.Multiaddr {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]types.Multiaddr(nil), m.Addrs...)
}

// Subscribe 记录订阅
func (m *MockEngine) Subscribe(topic string) error {
	m.mu.Lock()
	m.SubscribeCalls = append(m.SubscribeCalls, topic)
	fn := m.SubscribeFunc
	m.mu.Unlock()
	if fn != nil {
		return fn(topic)
	}
	return nil
}

// Publish 记录发布
func (m *MockEngine) Publish(topic string, data []byte) error {
	m.mu.Lock()
	m.PublishCalls = append(m.PublishCalls, PublishCall{Topic: topic, Data: data})
	fn := m.PublishFunc
	m.mu.Unlock()
	if fn != nil {
		return fn(topic, data)
	}
	return nil
}

// SendRequest 记录请求并分配递增 ID（从 1 开始）
func (m *MockEngine) SendRequest(p types.PeerID, data []byte) types.RequestID {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextRequestID++
	m.RequestCalls = append(m.RequestCalls, RequestCall{ID: m.nextRequestID, Peer: p, Data: data})
	return m.nextRequestID
}

// SendResponse 记录响应
func (m *MockEngine) SendResponse(ch types.ResponseChannel, data []byte) error {
	m.mu.Lock()
	m.ResponseCalls = append(m.ResponseCalls, ResponseCall{Channel: ch, Data: data})
	fn := m.SendResponseFunc
	m.mu.Unlock()
	if fn != nil {
		return fn(ch, data)
	}
	return nil
}

// AddAddress 记录地址
func (m *MockEngine) AddAddress(p types.PeerID, addr types.Multiaddr) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.KnownAddrs[p] = append(m.KnownAddrs[p], addr)
}

// Events 返回 EventsCh
func (m *MockEngine) Events() <-chan types.EngineEvent {
	return m.EventsCh
}

// Close 记录关闭
func (m *MockEngine) Close() error {
	m.mu.Lock()
	m.CloseCalls++
	fn := m.CloseFunc
	m.mu.Unlock()
	if fn != nil {
		return fn()
	}
	return nil
}

// Dials 返回拨号记录副本
func (m *MockEngine) Dials() []types.PeerID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]types.PeerID(nil), m.DialCalls...)
}

// Published 返回发布记录副本
func (m *MockEngine) Published() []PublishCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]PublishCall(nil), m.PublishCalls...)
}

// Requests 返回请求记录副本
func (m *MockEngine) Requests() []RequestCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]RequestCall(nil), m.RequestCalls...)
}

// Responses 返回响应记录副本
func (m *MockEngine) Responses() []ResponseCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ResponseCall(nil), m.ResponseCalls...)
}

// AddrsOf 返回记入地址簿的地址副本
func (m *MockEngine) AddrsOf(p types.PeerID) []types.Multiaddr {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]types.Multiaddr(nil), m.KnownAddrs[p]...)
}

// SetDialFunc 并发安全地替换 DialFunc
func (m *MockEngine) SetDialFunc(fn func(p types.PeerID) error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DialFunc = fn
}

// SetPublishFunc 并发安全地替换 PublishFunc
func (m *MockEngine) SetPublishFunc(fn func(topic string, data []byte) error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PublishFunc = fn
}

// SetListenFunc 并发安全地替换 ListenFunc
func (m *MockEngine) SetListenFunc(fn func(addr types.Multiaddr) error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ListenFunc = fn
}
