package interfaces

// FileStore 本地文件系统接口
type FileStore interface {
	// CanRead 检查路径是否存在且可读
	CanRead(path string) bool

	// ReadFile 读取全部内容
	ReadFile(path string) ([]byte, error)

	// WriteFile 创建（或截断）文件并写入全部内容
	WriteFile(path string, data []byte) error
}
