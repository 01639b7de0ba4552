package config

import (
	"errors"
	"fmt"

	ma "github.com/multiformats/go-multiaddr"

	"github.com/dep2p/go-fileswap/pkg/protocolids"
)

// NodeConfig 节点配置
type NodeConfig struct {
	// ListenAddrs 启动时监听的地址
	// 为空时不主动监听（例如只通过中继监听）
	ListenAddrs []string `json:"listen_addrs"`

	// AgentVersion identify 协议上报的代理版本
	AgentVersion string `json:"agent_version"`
}

// DefaultNodeConfig 返回默认节点配置
func DefaultNodeConfig() NodeConfig {
	return NodeConfig{
		ListenAddrs:  []string{"/ip4/0.0.0.0/tcp/0"},
		AgentVersion: protocolids.AgentVersion,
	}
}

// Validate 验证节点配置
func (c NodeConfig) Validate() error {
	if c.AgentVersion == "" {
		return errors.New("agent version must not be empty")
	}
	if _, err := c.Multiaddrs(); err != nil {
		return err
	}
	return nil
}

// Multiaddrs 解析监听地址
func (c NodeConfig) Multiaddrs() ([]ma.Multiaddr, error) {
	addrs := make([]ma.Multiaddr, 0, len(c.ListenAddrs))
	for _, s := range c.ListenAddrs {
		a, err := ma.NewMultiaddr(s)
		if err != nil {
			return nil, fmt.Errorf("invalid listen address %q: %w", s, err)
		}
		addrs = append(addrs, a)
	}
	return addrs, nil
}

// WithListenAddrs 设置监听地址
func (c NodeConfig) WithListenAddrs(addrs ...string) NodeConfig {
	c.ListenAddrs = addrs
	return c
}
