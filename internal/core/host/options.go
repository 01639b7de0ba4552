package host

import (
	"errors"

	"github.com/benbjohnson/clock"
	"github.com/libp2p/go-libp2p/core/crypto"
)

// Option Host 构造选项类型
type Option func(*Host) error

// WithConfig 设置配置
func WithConfig(cfg *Config) Option {
	return func(h *Host) error {
		if cfg == nil {
			return errors.New("config cannot be nil")
		}
		h.cfg = *cfg
		return nil
	}
}

// WithIdentity 设置节点私钥
func WithIdentity(priv crypto.PrivKey) Option {
	return func(h *Host) error {
		if priv == nil {
			return errors.New("identity cannot be nil")
		}
		h.priv = priv
		return nil
	}
}

// WithClock 设置时钟
func WithClock(c clock.Clock) Option {
	return func(h *Host) error {
		if c == nil {
			return errors.New("clock cannot be nil")
		}
		h.clock = c
		return nil
	}
}
