package memnet

import (
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/libp2p/go-libp2p/core/peer"
	ma "github.com/multiformats/go-multiaddr"

	"github.com/dep2p/go-fileswap/internal/core/identity"
	"github.com/dep2p/go-fileswap/internal/protocol/fileexchange"
	"github.com/dep2p/go-fileswap/pkg/lib/log"
)

var logger = log.Logger("core/memnet")

// Hub 进程内共享网络
type Hub struct {
	clock          clock.Clock
	requestTimeout time.Duration
	limits         fileexchange.Config

	mu        sync.RWMutex
	engines   map[peer.ID]*Engine
	listeners map[string]*Engine
}

// NewHub 创建共享网络
func NewHub(opts ...Option) *Hub {
	h := &Hub{
		clock:          clock.New(),
		requestTimeout: DefaultRequestTimeout,
		limits:         fileexchange.DefaultConfig(),
		engines:        make(map[peer.ID]*Engine),
		listeners:      make(map[string]*Engine),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// NewEngine 以随机身份加入网络
func (h *Hub) NewEngine() (*Engine, error) {
	id, err := identity.Generate()
	if err != nil {
		return nil, err
	}
	return h.NewEngineWithID(id.PeerID())
}

// NewEngineWithID 以指定 ID 加入网络
func (h *Hub) NewEngineWithID(id peer.ID) (*Engine, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.engines[id]; ok {
		return nil, fmt.Errorf("%w: %s", ErrDuplicatePeer, id)
	}
	e := newEngine(h, id)
	h.engines[id] = e
	logger.Debug("节点加入网络", "peer", log.TruncateID(id.String(), 8))
	return e, nil
}

// Peers 返回网络中的节点数
func (h *Hub) Peers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.engines)
}

func (h *Hub) bind(addr ma.Multiaddr, e *Engine) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	key := addr.String()
	if owner, ok := h.listeners[key]; ok && owner != e {
		return fmt.Errorf("%w: %s", ErrAddrInUse, key)
	}
	h.listeners[key] = e
	return nil
}

func (h *Hub) lookupAddr(addr ma.Multiaddr) *Engine {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.listeners[addr.String()]
}

func (h *Hub) lookupPeer(id peer.ID) *Engine {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.engines[id]
}

func (h *Hub) snapshot() []*Engine {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*Engine, 0, len(h.engines))
	for _, e := range h.engines {
		out = append(out, e)
	}
	return out
}

func (h *Hub) remove(e *Engine) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.engines, e.local)
	for key, owner := range h.listeners {
		if owner == e {
			delete(h.listeners, key)
		}
	}
}
