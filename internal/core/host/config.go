package host

import (
	"errors"
	"time"

	"github.com/dep2p/go-fileswap/config"
	"github.com/dep2p/go-fileswap/internal/protocol/fileexchange"
	"github.com/dep2p/go-fileswap/pkg/protocolids"
)

// Config Host 配置
type Config struct {
	// 基础配置
	UserAgent       string // identify 上报的代理版本
	ProtocolVersion string // identify 上报的协议版本

	// 超时配置
	RequestTimeout    time.Duration // 文件请求超时（默认 60s）
	DialTimeout       time.Duration // 单次拨号超时（默认 30s）
	HeartbeatInterval time.Duration // GossipSub 心跳间隔（默认 10s）

	// 功能开关
	EnableRelay     bool   // 启用 circuit relay v2 客户端
	EnableMDNS      bool   // 启用 mDNS 发现
	MDNSServiceName string // mDNS 服务名

	// Limits 文件交换帧上限
	Limits fileexchange.Config
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		UserAgent:         protocolids.AgentVersion,
		ProtocolVersion:   protocolids.ProtocolVersion,
		RequestTimeout:    60 * time.Second,
		DialTimeout:       30 * time.Second,
		HeartbeatInterval: 10 * time.Second,
		EnableRelay:       true,
		EnableMDNS:        true,
		MDNSServiceName:   protocolids.MDNSServiceName,
		Limits:            fileexchange.DefaultConfig(),
	}
}

// ConfigFromUnified 从统一配置创建 Host 配置
func ConfigFromUnified(cfg *config.Config) *Config {
	c := DefaultConfig()
	if cfg == nil {
		return c
	}
	c.UserAgent = cfg.Node.AgentVersion
	c.RequestTimeout = cfg.FileExchange.RequestTimeout.Std()
	c.EnableRelay = cfg.Relay.EnableClient
	c.EnableMDNS = cfg.Discovery.EnableMDNS
	c.MDNSServiceName = cfg.Discovery.ServiceName
	c.Limits = fileexchange.Config{
		MaxRequestSize:  cfg.FileExchange.MaxRequestSize,
		MaxResponseSize: cfg.FileExchange.MaxResponseSize,
	}
	return c
}

// Validate 验证配置
func (c *Config) Validate() error {
	if c.UserAgent == "" {
		return errors.New("UserAgent cannot be empty")
	}
	if c.ProtocolVersion == "" {
		return errors.New("ProtocolVersion cannot be empty")
	}
	if c.RequestTimeout <= 0 {
		return errors.New("RequestTimeout must be positive")
	}
	if c.DialTimeout <= 0 {
		return errors.New("DialTimeout must be positive")
	}
	if c.HeartbeatInterval <= 0 {
		return errors.New("HeartbeatInterval must be positive")
	}
	if c.EnableMDNS && c.MDNSServiceName == "" {
		return errors.New("MDNSServiceName cannot be empty when mDNS is enabled")
	}
	if c.Limits.MaxRequestSize <= 0 || c.Limits.MaxResponseSize <= 0 {
		return errors.New("frame limits must be positive")
	}
	return nil
}
