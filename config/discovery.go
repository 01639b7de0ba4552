package config

import (
	"errors"

	"github.com/dep2p/go-fileswap/pkg/protocolids"
)

// DiscoveryConfig 节点发现配置
type DiscoveryConfig struct {
	// EnableMDNS 是否启用 mDNS 本地网络发现
	EnableMDNS bool `json:"enable_mdns"`

	// ServiceName mDNS 服务名，只有相同服务名的节点互相发现
	ServiceName string `json:"service_name"`
}

// DefaultDiscoveryConfig 返回默认发现配置
func DefaultDiscoveryConfig() DiscoveryConfig {
	return DiscoveryConfig{
		EnableMDNS:  true,
		ServiceName: protocolids.MDNSServiceName,
	}
}

// Validate 验证发现配置
func (c DiscoveryConfig) Validate() error {
	if c.EnableMDNS && c.ServiceName == "" {
		return errors.New("mDNS service name must not be empty")
	}
	return nil
}

// WithMDNS 设置是否启用 mDNS
func (c DiscoveryConfig) WithMDNS(enabled bool) DiscoveryConfig {
	c.EnableMDNS = enabled
	return c
}
