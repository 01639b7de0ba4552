// Package config 提供 fileswap 的统一配置
//
// 主 Config 结构体嵌入所有子配置，每个子配置在独立文件中定义，
// 支持从 JSON 文件加载（未出现的字段保持默认值）。
//
// 使用示例：
//
//	cfg := config.NewConfig()
//	cfg.Node.ListenAddrs = []string{"/ip4/0.0.0.0/tcp/4001"}
//	cfg.Directory.RepublishInterval = config.Duration(10 * time.Second)
//
//	cfg, err := config.LoadFile("fileswap.json")
package config

import (
	"fmt"

	"github.com/libp2p/go-libp2p/core/peer"
)

// KnownPeer 已知节点配置
//
// 启动时直接连接的节点，适用于没有本地网络发现的部署。
type KnownPeer struct {
	// Addr 带 /p2p/<peer-id> 后缀的完整 multiaddr
	Addr string `json:"addr"`
}

// AddrInfo 解析为 peer.AddrInfo
func (k KnownPeer) AddrInfo() (*peer.AddrInfo, error) {
	info, err := peer.AddrInfoFromString(k.Addr)
	if err != nil {
		return nil, fmt.Errorf("invalid known peer %q: %w", k.Addr, err)
	}
	return info, nil
}

// Config 是 fileswap 的完整配置结构
//
//   - Identity: 节点密钥
//   - Node: 监听地址与 identify 信息
//   - Directory: 文件目录公告
//   - FileExchange: 文件交换协议
//   - Discovery: 本地网络发现
//   - Relay: 中继客户端
//   - Log: 日志
type Config struct {
	// Identity 身份配置
	Identity IdentityConfig `json:"identity"`

	// Node 节点配置
	Node NodeConfig `json:"node"`

	// Directory 文件目录配置
	Directory DirectoryConfig `json:"directory"`

	// FileExchange 文件交换配置
	FileExchange FileExchangeConfig `json:"file_exchange"`

	// Discovery 节点发现配置
	Discovery DiscoveryConfig `json:"discovery"`

	// Relay 中继配置
	Relay RelayConfig `json:"relay"`

	// Log 日志配置
	Log LogConfig `json:"log"`

	// KnownPeers 启动时拨号的节点
	KnownPeers []KnownPeer `json:"known_peers,omitempty"`
}

// NewConfig 创建默认配置
func NewConfig() *Config {
	return &Config{
		Identity:     DefaultIdentityConfig(),
		Node:         DefaultNodeConfig(),
		Directory:    DefaultDirectoryConfig(),
		FileExchange: DefaultFileExchangeConfig(),
		Discovery:    DefaultDiscoveryConfig(),
		Relay:        DefaultRelayConfig(),
		Log:          DefaultLogConfig(),
	}
}

// Validate 验证配置的有效性
func (c *Config) Validate() error {
	if err := c.Identity.Validate(); err != nil {
		return err
	}
	if err := c.Node.Validate(); err != nil {
		return err
	}
	if err := c.Directory.Validate(); err != nil {
		return err
	}
	if err := c.FileExchange.Validate(); err != nil {
		return err
	}
	if err := c.Discovery.Validate(); err != nil {
		return err
	}
	if err := c.Relay.Validate(); err != nil {
		return err
	}
	if err := c.Log.Validate(); err != nil {
		return err
	}
	for _, kp := range c.KnownPeers {
		if _, err := kp.AddrInfo(); err != nil {
			return err
		}
	}
	return nil
}
