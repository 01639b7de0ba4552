package config

import (
	"errors"
	"time"
)

// FileExchangeConfig 文件交换协议配置
type FileExchangeConfig struct {
	// RequestTimeout 请求超时，超时后请求方收到失败
	RequestTimeout Duration `json:"request_timeout"`

	// MaxRequestSize 请求帧上限（字节）
	MaxRequestSize int `json:"max_request_size"`

	// MaxResponseSize 响应帧上限（字节）
	MaxResponseSize int `json:"max_response_size"`
}

// DefaultFileExchangeConfig 返回默认文件交换配置
func DefaultFileExchangeConfig() FileExchangeConfig {
	return FileExchangeConfig{
		RequestTimeout:  Duration(60 * time.Second),
		MaxRequestSize:  1_000_000,
		MaxResponseSize: 500_000_000,
	}
}

// Validate 验证文件交换配置
func (c FileExchangeConfig) Validate() error {
	if c.RequestTimeout <= 0 {
		return errors.New("file exchange request timeout must be positive")
	}
	if c.MaxRequestSize <= 0 {
		return errors.New("file exchange max request size must be positive")
	}
	if c.MaxResponseSize <= 0 {
		return errors.New("file exchange max response size must be positive")
	}
	return nil
}

// WithRequestTimeout 设置请求超时
func (c FileExchangeConfig) WithRequestTimeout(d time.Duration) FileExchangeConfig {
	c.RequestTimeout = Duration(d)
	return c
}
