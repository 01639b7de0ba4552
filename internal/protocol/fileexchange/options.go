package fileexchange

const (
	// DefaultMaxRequestSize 请求帧默认上限
	DefaultMaxRequestSize = 1_000_000

	// DefaultMaxResponseSize 响应帧默认上限
	DefaultMaxResponseSize = 500_000_000
)

// Config 编解码配置
type Config struct {
	// MaxRequestSize 请求帧负载上限（字节）
	MaxRequestSize int

	// MaxResponseSize 响应帧负载上限（字节）
	MaxResponseSize int
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		MaxRequestSize:  DefaultMaxRequestSize,
		MaxResponseSize: DefaultMaxResponseSize,
	}
}

// Option 配置选项
type Option func(*Config)

// WithMaxRequestSize 设置请求帧上限
func WithMaxRequestSize(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.MaxRequestSize = n
		}
	}
}

// WithMaxResponseSize 设置响应帧上限
func WithMaxResponseSize(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.MaxResponseSize = n
		}
	}
}
