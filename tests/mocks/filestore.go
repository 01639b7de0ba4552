package mocks

import (
	"os"
	"sync"

	"github.com/dep2p/go-fileswap/pkg/interfaces"
)

// MockFileStore 内存文件存储
type MockFileStore struct {
	mu    sync.Mutex
	Files map[string][]byte

	// ReadFileFunc 覆盖读取行为
	ReadFileFunc func(path string) ([]byte, error)
}

var _ interfaces.FileStore = (*MockFileStore)(nil)

// NewMockFileStore 创建 MockFileStore
func NewMockFileStore() *MockFileStore {
	return &MockFileStore{Files: make(map[string][]byte)}
}

// Put 写入文件（测试准备数据用）
func (m *MockFileStore) Put(path string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Files[path] = data
}

// CanRead 文件存在时返回 true
func (m *MockFileStore) CanRead(path string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.Files[path]
	return ok
}

// ReadFile 读取文件
func (m *MockFileStore) ReadFile(path string) ([]byte, error) {
	m.mu.Lock()
	fn := m.ReadFileFunc
	data, ok := m.Files[path]
	m.mu.Unlock()
	if fn != nil {
		return fn(path)
	}
	if !ok {
		return nil, os.ErrNotExist
	}
	return append([]byte(nil), data...), nil
}

// WriteFile 写入文件
func (m *MockFileStore) WriteFile(path string, data []byte) error {
	m.Put(path, append([]byte(nil), data...))
	return nil
}

// Get 读取已写入的文件
func (m *MockFileStore) Get(path string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.Files[path]
	return data, ok
}
