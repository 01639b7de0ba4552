package fileswap

import (
	"context"
	"fmt"

	"github.com/benbjohnson/clock"
	"github.com/libp2p/go-libp2p/core/peer"
	ma "github.com/multiformats/go-multiaddr"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/dep2p/go-fileswap/config"
	"github.com/dep2p/go-fileswap/internal/core/eventloop"
	"github.com/dep2p/go-fileswap/internal/core/host"
	"github.com/dep2p/go-fileswap/internal/core/identity"
	"github.com/dep2p/go-fileswap/internal/core/metrics"
	"github.com/dep2p/go-fileswap/internal/core/storage"
	"github.com/dep2p/go-fileswap/pkg/interfaces"
	"github.com/dep2p/go-fileswap/pkg/lib/log"
)

var fxLogger = log.Logger("fileswap/fx")

// buildFxApp 构建 Fx 应用
//
// 加载顺序（按依赖）：
//  1. 配置
//  2. 网络引擎：Identity → Host，或用户注入的引擎
//  3. 文件存储、指标
//  4. 协调循环 → Client
func buildFxApp(o *options, node *Node) (*fx.App, error) {
	if err := o.config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	modules := []fx.Option{
		fx.Supply(o.config),
		fx.Supply(&o.config.Identity),
	}

	// 网络引擎
	if o.engine != nil {
		modules = append(modules, fx.Provide(provideInjectedEngine(o.engine)))
		fxLogger.Debug("使用注入的网络引擎")
	} else {
		modules = append(modules,
			identity.Module(),
			host.Module(),
		)
	}

	// 文件存储
	files := o.files
	if files == nil {
		files = storage.NewLocalFS("")
	}
	modules = append(modules, fx.Provide(func() interfaces.FileStore { return files }))

	// 可选注入
	if o.clock != nil {
		clk := o.clock
		modules = append(modules, fx.Provide(func() clock.Clock { return clk }))
	}
	if o.registerer != nil {
		reg := o.registerer
		modules = append(modules, fx.Provide(func() prometheus.Registerer { return reg }))
	}

	modules = append(modules,
		metrics.Module,
		eventloop.Module(),
		fx.Provide(NewClient),
	)

	if len(o.userFxOptions) > 0 {
		modules = append(modules, o.userFxOptions...)
	}

	modules = append(modules,
		fx.Invoke(injectNodeComponents(node)),
		fx.Invoke(registerLoopLifecycle),
		fx.WithLogger(func() fxevent.Logger {
			return &fxevent.ZapLogger{Logger: zap.NewNop()}
		}),
	)

	app := fx.New(modules...)
	if err := app.Err(); err != nil {
		return nil, err
	}
	return app, nil
}

// provideInjectedEngine 注入的引擎随应用停止而关闭
func provideInjectedEngine(e interfaces.Engine) func(fx.Lifecycle) interfaces.Engine {
	return func(lc fx.Lifecycle) interfaces.Engine {
		lc.Append(fx.Hook{
			OnStop: func(context.Context) error {
				return e.Close()
			},
		})
		return e
	}
}

// nodeInjectParams 注入到 Node 的组件
type nodeInjectParams struct {
	fx.In

	Loop   *eventloop.Loop
	Engine interfaces.Engine
	Client *Client
}

func injectNodeComponents(node *Node) func(nodeInjectParams) {
	return func(p nodeInjectParams) {
		node.loop = p.Loop
		node.engine = p.Engine
		node.client = p.Client
	}
}

// loopLifecycleParams 协调循环生命周期依赖
type loopLifecycleParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    *config.Config
	Loop      *eventloop.Loop
	Engine    interfaces.Engine
	Client    *Client
}

// registerLoopLifecycle 启动时订阅主题、运行协调循环并开始监听；停止时终止循环
func registerLoopLifecycle(p loopLifecycleParams) {
	var cancel context.CancelFunc

	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			dir := p.Config.Directory
			for _, topic := range []string{dir.ChatTopic, dir.FilesTopic} {
				if err := p.Engine.Subscribe(topic); err != nil {
					return fmt.Errorf("subscribe %s: %w", topic, err)
				}
			}

			runCtx, runCancel := context.WithCancel(context.Background())
			cancel = runCancel
			go func() {
				if err := p.Loop.Run(runCtx); err != nil {
					logger.Error("协调循环异常退出", "error", err)
				}
			}()

			addrs, err := p.Config.Node.Multiaddrs()
			if err != nil {
				runCancel()
				return err
			}
			for _, addr := range addrs {
				if err := p.Client.Listen(ctx, addr); err != nil {
					runCancel()
					return err
				}
			}

			go bootstrap(runCtx, p.Client, p.Config)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if cancel == nil {
				return nil
			}
			cancel()
			select {
			case <-p.Loop.Done():
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	})
}

// bootstrap 通过中继监听并拨号已知节点，失败只记录日志
func bootstrap(ctx context.Context, client *Client, cfg *config.Config) {
	if cfg.Relay.Addr != "" {
		listenViaRelay(ctx, client, cfg.Relay.Addr)
	}

	for _, kp := range cfg.KnownPeers {
		info, err := kp.AddrInfo()
		if err != nil {
			logger.Warn("已知节点地址无效", "addr", kp.Addr, "error", err)
			continue
		}
		go func(info *peer.AddrInfo) {
			if err := client.Dial(ctx, info.ID, info.Addrs...); err != nil {
				logger.Warn("拨号已知节点失败", "peer", log.TruncateID(info.ID.String(), 8), "error", err)
				return
			}
			logger.Info("已连接已知节点", "peer", log.TruncateID(info.ID.String(), 8))
		}(info)
	}
}

func listenViaRelay(ctx context.Context, client *Client, relayAddr string) {
	info, err := peer.AddrInfoFromString(relayAddr)
	if err != nil {
		logger.Warn("中继地址无效", "addr", relayAddr, "error", err)
		return
	}
	if err := client.Dial(ctx, info.ID, info.Addrs...); err != nil {
		logger.Warn("连接中继失败", "relay", log.TruncateID(info.ID.String(), 8), "error", err)
		return
	}

	circuit := ma.StringCast(relayAddr).Encapsulate(ma.StringCast("/p2p-circuit"))
	if err := client.Listen(ctx, circuit); err != nil {
		logger.Warn("通过中继监听失败", "addr", circuit, "error", err)
		return
	}
	logger.Info("已通过中继监听", "addr", circuit)
}
