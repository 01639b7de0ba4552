package identity

import (
	"crypto/rand"
	"encoding/pem"
	"errors"
	"fmt"
	"os"

	"github.com/libp2p/go-libp2p/core/crypto"
	"github.com/libp2p/go-libp2p/core/peer"

	"github.com/dep2p/go-fileswap/internal/util/fsutil"
	"github.com/dep2p/go-fileswap/pkg/lib/log"
)

var logger = log.Logger("core/identity")

const pemTypePrivateKey = "LIBP2P PRIVATE KEY"

// Identity 节点身份
type Identity struct {
	priv crypto.PrivKey
	id   peer.ID
}

// New 从私钥创建身份
func New(priv crypto.PrivKey) (*Identity, error) {
	if priv == nil {
		return nil, ErrKeyNotFound
	}
	if priv.Type() != crypto.Ed25519 {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedKeyType, priv.Type())
	}
	id, err := peer.IDFromPrivateKey(priv)
	if err != nil {
		return nil, fmt.Errorf("派生 Peer ID 失败: %w", err)
	}
	return &Identity{priv: priv, id: id}, nil
}

// Generate 生成新的 Ed25519 身份
func Generate() (*Identity, error) {
	priv, _, err := crypto.GenerateEd25519Key(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("生成密钥失败: %w", err)
	}
	return New(priv)
}

// PeerID 返回 Peer ID
func (i *Identity) PeerID() peer.ID {
	return i.id
}

// PrivateKey 返回私钥
func (i *Identity) PrivateKey() crypto.PrivKey {
	return i.priv
}

// PublicKey 返回公钥
func (i *Identity) PublicKey() crypto.PubKey {
	return i.priv.GetPublic()
}

// ============================================================================
//                              持久化
// ============================================================================

// Save 以 PEM 格式保存私钥
//
// 使用原子写入，文件权限 0600。
func (i *Identity) Save(path string) error {
	raw, err := crypto.MarshalPrivateKey(i.priv)
	if err != nil {
		return fmt.Errorf("序列化私钥失败: %w", err)
	}
	data := pem.EncodeToMemory(&pem.Block{Type: pemTypePrivateKey, Bytes: raw})
	return fsutil.AtomicWriteFile(path, data, 0600)
}

// Load 从 PEM 文件加载身份
func Load(path string) (*Identity, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrKeyNotFound
		}
		return nil, err
	}

	block, _ := pem.Decode(data)
	if block == nil || block.Type != pemTypePrivateKey {
		return nil, ErrInvalidPEM
	}

	priv, err := crypto.UnmarshalPrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPEM, err)
	}
	return New(priv)
}

// LoadOrCreate 加载或创建身份
//
// path 为空时返回临时身份。文件不存在且 autoGenerate 为 true 时，
// 生成新身份并保存到 path。
func LoadOrCreate(path string, autoGenerate bool) (*Identity, error) {
	if path == "" {
		id, err := Generate()
		if err != nil {
			return nil, err
		}
		logger.Debug("使用临时身份", "peer", log.TruncateID(id.PeerID().String(), 8))
		return id, nil
	}

	id, err := Load(path)
	switch {
	case err == nil:
		logger.Info("已加载身份", "peer", log.TruncateID(id.PeerID().String(), 8), "path", path)
		return id, nil
	case errors.Is(err, ErrKeyNotFound) && autoGenerate:
	default:
		return nil, fmt.Errorf("加载身份失败: %w", err)
	}

	id, err = Generate()
	if err != nil {
		return nil, err
	}
	if err := id.Save(path); err != nil {
		return nil, fmt.Errorf("保存身份失败: %w", err)
	}
	logger.Info("已生成新身份", "peer", log.TruncateID(id.PeerID().String(), 8), "path", path)
	return id, nil
}
