package eventloop

import (
	"time"

	"github.com/benbjohnson/clock"

	"github.com/dep2p/go-fileswap/internal/core/metrics"
	"github.com/dep2p/go-fileswap/pkg/protocolids"
)

// 默认值
const (
	DefaultRepublishInterval = 5 * time.Second
	DefaultCommandQueueSize  = 10
)

// Config 协调循环配置
type Config struct {
	// RepublishInterval 目录重新公告间隔（固定延迟，不做漂移补偿）
	RepublishInterval time.Duration

	// ChatTopic 聊天主题
	ChatTopic string

	// FilesTopic 文件目录主题
	FilesTopic string

	// CommandQueueSize 命令队列容量，满时 Submit 阻塞
	CommandQueueSize int
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		RepublishInterval: DefaultRepublishInterval,
		ChatTopic:         protocolids.ChatTopic,
		FilesTopic:        protocolids.FilesTopic,
		CommandQueueSize:  DefaultCommandQueueSize,
	}
}

// Option 配置选项
type Option func(*Loop)

// WithConfig 替换配置，零值字段使用默认值
func WithConfig(cfg Config) Option {
	return func(l *Loop) {
		def := DefaultConfig()
		if cfg.RepublishInterval <= 0 {
			cfg.RepublishInterval = def.RepublishInterval
		}
		if cfg.ChatTopic == "" {
			cfg.ChatTopic = def.ChatTopic
		}
		if cfg.FilesTopic == "" {
			cfg.FilesTopic = def.FilesTopic
		}
		if cfg.CommandQueueSize <= 0 {
			cfg.CommandQueueSize = def.CommandQueueSize
		}
		l.cfg = cfg
	}
}

// WithClock 设置时钟（测试中使用 clock.Mock 驱动定时器）
func WithClock(clk clock.Clock) Option {
	return func(l *Loop) {
		if clk != nil {
			l.clock = clk
		}
	}
}

// WithMetrics 设置指标
func WithMetrics(m *metrics.Metrics) Option {
	return func(l *Loop) {
		l.metrics = m
	}
}
