package host

import (
	"context"

	"go.uber.org/fx"

	"github.com/dep2p/go-fileswap/config"
	"github.com/dep2p/go-fileswap/internal/core/identity"
	"github.com/dep2p/go-fileswap/pkg/interfaces"
)

// ModuleInput 模块输入依赖
type ModuleInput struct {
	fx.In

	// 配置
	UnifiedCfg *config.Config `optional:"true"`

	// 必需依赖
	Identity *identity.Identity
}

// ModuleOutput 模块输出
type ModuleOutput struct {
	fx.Out

	Host   *Host
	Engine interfaces.Engine
}

// ProvideHost 提供 Host 服务
func ProvideHost(input ModuleInput) (ModuleOutput, error) {
	h, err := New(
		WithConfig(ConfigFromUnified(input.UnifiedCfg)),
		WithIdentity(input.Identity.PrivateKey()),
	)
	if err != nil {
		return ModuleOutput{}, err
	}
	return ModuleOutput{Host: h, Engine: h}, nil
}

// Module 返回 fx 模块配置
func Module() fx.Option {
	return fx.Module("host",
		fx.Provide(ProvideHost),
		fx.Invoke(registerLifecycle),
	)
}

func registerLifecycle(lc fx.Lifecycle, h *Host) {
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return h.Close()
		},
	})
}
