package config

import (
	"errors"
	"fmt"

	"github.com/libp2p/go-libp2p/core/peer"
)

// RelayConfig 中继配置
type RelayConfig struct {
	// EnableClient 是否启用 circuit relay v2 客户端
	EnableClient bool `json:"enable_client"`

	// Addr 通过该中继监听，需带 /p2p/<relay-id> 后缀
	// 为空时不通过中继监听
	Addr string `json:"addr,omitempty"`
}

// DefaultRelayConfig 返回默认中继配置
func DefaultRelayConfig() RelayConfig {
	return RelayConfig{
		EnableClient: true,
	}
}

// Validate 验证中继配置
func (c RelayConfig) Validate() error {
	if c.Addr == "" {
		return nil
	}
	if !c.EnableClient {
		return errors.New("relay address requires relay client to be enabled")
	}
	if _, err := peer.AddrInfoFromString(c.Addr); err != nil {
		return fmt.Errorf("invalid relay address %q: %w", c.Addr, err)
	}
	return nil
}

// WithAddr 设置中继地址
func (c RelayConfig) WithAddr(addr string) RelayConfig {
	c.Addr = addr
	if addr != "" {
		c.EnableClient = true
	}
	return c
}
