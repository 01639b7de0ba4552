package memnet

import (
	"time"

	"github.com/benbjohnson/clock"

	"github.com/dep2p/go-fileswap/internal/protocol/fileexchange"
)

// DefaultRequestTimeout 默认请求超时
const DefaultRequestTimeout = 60 * time.Second

// Option Hub 配置选项
type Option func(*Hub)

// WithClock 设置时钟（测试中使用 clock.Mock 控制超时）
func WithClock(c clock.Clock) Option {
	return func(h *Hub) {
		if c != nil {
			h.clock = c
		}
	}
}

// WithRequestTimeout 设置请求超时
func WithRequestTimeout(d time.Duration) Option {
	return func(h *Hub) {
		if d > 0 {
			h.requestTimeout = d
		}
	}
}

// WithLimits 设置请求与响应的大小上限
func WithLimits(cfg fileexchange.Config) Option {
	return func(h *Hub) {
		h.limits = cfg
	}
}
