package fileswap

import (
	"errors"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"

	"github.com/dep2p/go-fileswap/config"
	"github.com/dep2p/go-fileswap/pkg/interfaces"
)

// Option 用户配置选项函数
type Option func(*options) error

// options 内部选项结构
type options struct {
	// 统一配置
	config *config.Config

	// 注入的组件
	engine     interfaces.Engine
	files      interfaces.FileStore
	clock      clock.Clock
	registerer prometheus.Registerer

	// 用户自定义 Fx 选项
	userFxOptions []fx.Option
}

func newOptions() *options {
	return &options{
		config: config.NewConfig(),
	}
}

// WithConfig 使用完整配置替换默认配置
//
// 应放在其他修改配置的选项之前。
func WithConfig(cfg *config.Config) Option {
	return func(o *options) error {
		if cfg == nil {
			return errors.New("config cannot be nil")
		}
		o.config = cfg.Clone()
		return nil
	}
}

// WithEngine 注入网络引擎，替代默认的 libp2p 引擎
//
// 注入的引擎同样在节点关闭时关闭。
func WithEngine(e interfaces.Engine) Option {
	return func(o *options) error {
		if e == nil {
			return errors.New("engine cannot be nil")
		}
		o.engine = e
		return nil
	}
}

// WithFileStore 注入文件存储，默认使用本地文件系统
func WithFileStore(fs interfaces.FileStore) Option {
	return func(o *options) error {
		if fs == nil {
			return errors.New("file store cannot be nil")
		}
		o.files = fs
		return nil
	}
}

// WithClock 设置协调循环使用的时钟
func WithClock(c clock.Clock) Option {
	return func(o *options) error {
		if c == nil {
			return errors.New("clock cannot be nil")
		}
		o.clock = c
		return nil
	}
}

// WithMetricsRegisterer 设置 Prometheus 注册器，默认使用独立的注册表
func WithMetricsRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) error {
		o.registerer = reg
		return nil
	}
}

// WithListenAddrs 设置启动时监听的地址
func WithListenAddrs(addrs ...string) Option {
	return func(o *options) error {
		o.config.Node = o.config.Node.WithListenAddrs(addrs...)
		if _, err := o.config.Node.Multiaddrs(); err != nil {
			return err
		}
		return nil
	}
}

// WithIdentityFile 从文件加载身份，文件不存在时生成并保存
func WithIdentityFile(path string) Option {
	return func(o *options) error {
		o.config.Identity = o.config.Identity.WithKeyFile(path)
		o.config.Identity.AutoGenerate = true
		return nil
	}
}

// WithRepublishInterval 设置文件目录重新公告间隔
func WithRepublishInterval(d time.Duration) Option {
	return func(o *options) error {
		if d <= 0 {
			return fmt.Errorf("republish interval must be positive, got %s", d)
		}
		o.config.Directory = o.config.Directory.WithRepublishInterval(d)
		return nil
	}
}

// WithRelay 通过中继节点监听，addr 需带 /p2p/<relay-id> 后缀
func WithRelay(addr string) Option {
	return func(o *options) error {
		o.config.Relay = o.config.Relay.WithAddr(addr)
		return o.config.Relay.Validate()
	}
}

// WithKnownPeers 启动后拨号的节点
func WithKnownPeers(addrs ...string) Option {
	return func(o *options) error {
		for _, a := range addrs {
			kp := config.KnownPeer{Addr: a}
			if _, err := kp.AddrInfo(); err != nil {
				return err
			}
			o.config.KnownPeers = append(o.config.KnownPeers, kp)
		}
		return nil
	}
}

// WithMDNS 启用或禁用 mDNS 发现
func WithMDNS(enable bool) Option {
	return func(o *options) error {
		o.config.Discovery = o.config.Discovery.WithMDNS(enable)
		return nil
	}
}

// WithFxOption 追加自定义 Fx 选项
func WithFxOption(opts ...fx.Option) Option {
	return func(o *options) error {
		o.userFxOptions = append(o.userFxOptions, opts...)
		return nil
	}
}
