package eventloop

import (
	"github.com/benbjohnson/clock"
	"go.uber.org/fx"

	"github.com/dep2p/go-fileswap/config"
	"github.com/dep2p/go-fileswap/internal/core/metrics"
	"github.com/dep2p/go-fileswap/pkg/interfaces"
)

// ModuleInput 模块输入依赖
type ModuleInput struct {
	fx.In

	Engine interfaces.Engine
	Files  interfaces.FileStore

	// 可选依赖
	UnifiedCfg *config.Config   `optional:"true"`
	Clock      clock.Clock      `optional:"true"`
	Metrics    *metrics.Metrics `optional:"true"`
}

// ConfigFromUnified 从统一配置创建循环配置
func ConfigFromUnified(cfg *config.Config) Config {
	if cfg == nil {
		return DefaultConfig()
	}
	return Config{
		RepublishInterval: cfg.Directory.RepublishInterval.Std(),
		ChatTopic:         cfg.Directory.ChatTopic,
		FilesTopic:        cfg.Directory.FilesTopic,
		CommandQueueSize:  cfg.Directory.CommandQueueSize,
	}
}

// ProvideLoop 提供协调循环（尚未运行）
func ProvideLoop(input ModuleInput) (*Loop, error) {
	return New(input.Engine, input.Files,
		WithConfig(ConfigFromUnified(input.UnifiedCfg)),
		WithClock(input.Clock),
		WithMetrics(input.Metrics),
	)
}

// Module 返回 fx 模块配置
func Module() fx.Option {
	return fx.Module("eventloop",
		fx.Provide(ProvideLoop),
	)
}
