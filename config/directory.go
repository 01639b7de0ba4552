package config

import (
	"errors"
	"time"

	"github.com/dep2p/go-fileswap/pkg/protocolids"
)

// DirectoryConfig 文件目录配置
type DirectoryConfig struct {
	// RepublishInterval 重新公告本地文件的间隔
	RepublishInterval Duration `json:"republish_interval"`

	// ChatTopic 聊天主题
	ChatTopic string `json:"chat_topic"`

	// FilesTopic 文件目录主题
	FilesTopic string `json:"files_topic"`

	// CommandQueueSize 命令队列容量
	CommandQueueSize int `json:"command_queue_size"`
}

// DefaultDirectoryConfig 返回默认文件目录配置
func DefaultDirectoryConfig() DirectoryConfig {
	return DirectoryConfig{
		RepublishInterval: Duration(5 * time.Second),
		ChatTopic:         protocolids.ChatTopic,
		FilesTopic:        protocolids.FilesTopic,
		CommandQueueSize:  10,
	}
}

// Validate 验证文件目录配置
func (c DirectoryConfig) Validate() error {
	if c.RepublishInterval <= 0 {
		return errors.New("directory republish interval must be positive")
	}
	if c.ChatTopic == "" || c.FilesTopic == "" {
		return errors.New("directory topics must not be empty")
	}
	if c.ChatTopic == c.FilesTopic {
		return errors.New("chat topic and files topic must differ")
	}
	if c.CommandQueueSize <= 0 {
		return errors.New("command queue size must be positive")
	}
	return nil
}

// WithRepublishInterval 设置重新公告间隔
func (c DirectoryConfig) WithRepublishInterval(d time.Duration) DirectoryConfig {
	c.RepublishInterval = Duration(d)
	return c
}
