package identity

import (
	"go.uber.org/fx"

	"github.com/dep2p/go-fileswap/config"
)

// ModuleInput 模块输入依赖
type ModuleInput struct {
	fx.In

	// Config 身份配置（可选，使用默认配置）
	Config *config.IdentityConfig `optional:"true"`
}

// ProvideIdentity 按配置加载或创建身份
func ProvideIdentity(input ModuleInput) (*Identity, error) {
	cfg := config.DefaultIdentityConfig()
	if input.Config != nil {
		cfg = *input.Config
	}
	return LoadOrCreate(cfg.KeyFile, cfg.AutoGenerate)
}

// Module 返回 fx 模块配置
func Module() fx.Option {
	return fx.Module("identity",
		fx.Provide(ProvideIdentity),
	)
}
