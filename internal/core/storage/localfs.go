package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dep2p/go-fileswap/internal/util/fsutil"
	"github.com/dep2p/go-fileswap/pkg/interfaces"
)

// ErrNotRegularFile 路径不是普通文件
var ErrNotRegularFile = errors.New("storage: not a regular file")

// DefaultFileMode 下载文件的权限
const DefaultFileMode os.FileMode = 0644

// LocalFS 本地文件系统
type LocalFS struct {
	// Root 相对路径的基准目录，为空时使用进程工作目录
	Root string

	// Mode 新文件权限
	Mode os.FileMode
}

var _ interfaces.FileStore = (*LocalFS)(nil)

// NewLocalFS 创建本地文件存储
func NewLocalFS(root string) *LocalFS {
	return &LocalFS{Root: root, Mode: DefaultFileMode}
}

func (fs *LocalFS) resolve(path string) string {
	if fs.Root == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(fs.Root, path)
}

// CanRead 检查路径是否可读
func (fs *LocalFS) CanRead(path string) bool {
	f, err := os.Open(fs.resolve(path))
	if err != nil {
		return false
	}
	defer f.Close()

	info, err := f.Stat()
	return err == nil && info.Mode().IsRegular()
}

// ReadFile 读取全部内容
func (fs *LocalFS) ReadFile(path string) ([]byte, error) {
	p := fs.resolve(path)
	info, err := os.Stat(p)
	if err != nil {
		return nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s", ErrNotRegularFile, path)
	}
	return os.ReadFile(p)
}

// WriteFile 创建（或覆盖）文件并写入全部内容
func (fs *LocalFS) WriteFile(path string, data []byte) error {
	mode := fs.Mode
	if mode == 0 {
		mode = DefaultFileMode
	}
	return fsutil.AtomicWriteFile(fs.resolve(path), data, mode)
}
