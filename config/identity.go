package config

// IdentityConfig 身份配置
//
// 节点密钥固定为 Ed25519。
type IdentityConfig struct {
	// KeyFile 密钥文件路径（PEM）
	// 为空时在内存中生成临时密钥，每次启动 Peer ID 都不同
	KeyFile string `json:"key_file"`

	// AutoGenerate 密钥文件不存在时是否生成并保存
	AutoGenerate bool `json:"auto_generate"`
}

// DefaultIdentityConfig 返回默认身份配置
func DefaultIdentityConfig() IdentityConfig {
	return IdentityConfig{
		KeyFile:      "",
		AutoGenerate: true,
	}
}

// Validate 验证身份配置
func (c IdentityConfig) Validate() error {
	return nil
}

// WithKeyFile 设置密钥文件
func (c IdentityConfig) WithKeyFile(path string) IdentityConfig {
	c.KeyFile = path
	return c
}
