package identity

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"github.com/dep2p/go-fileswap/config"
)

func TestGenerate(t *testing.T) {
	a, err := Generate()
	require.NoError(t, err)
	b, err := Generate()
	require.NoError(t, err)

	assert.NotEqual(t, a.PeerID(), b.PeerID())
	assert.NoError(t, a.PeerID().Validate())
	assert.True(t, a.PeerID().MatchesPublicKey(a.PublicKey()))
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "node.pem")

	id, err := Generate()
	require.NoError(t, err)
	require.NoError(t, id.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, id.PeerID(), loaded.PeerID())
	assert.True(t, id.PrivateKey().Equals(loaded.PrivateKey()))
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.pem"))
	assert.ErrorIs(t, err, ErrKeyNotFound)

	garbage := filepath.Join(dir, "garbage.pem")
	require.NoError(t, os.WriteFile(garbage, []byte("not pem"), 0600))
	_, err = Load(garbage)
	assert.ErrorIs(t, err, ErrInvalidPEM)

	wrongType := filepath.Join(dir, "wrong.pem")
	require.NoError(t, os.WriteFile(wrongType, []byte("-----BEGIN FOO-----\nAAAA\n-----END FOO-----\n"), 0600))
	_, err = Load(wrongType)
	assert.ErrorIs(t, err, ErrInvalidPEM)

	badBody := filepath.Join(dir, "body.pem")
	require.NoError(t, os.WriteFile(badBody, []byte("-----BEGIN LIBP2P PRIVATE KEY-----\nAAAA\n-----END LIBP2P PRIVATE KEY-----\n"), 0600))
	_, err = Load(badBody)
	assert.ErrorIs(t, err, ErrInvalidPEM)
}

func TestLoadOrCreate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "node.pem")

	// 不允许自动生成
	_, err := LoadOrCreate(path, false)
	assert.ErrorIs(t, err, ErrKeyNotFound)

	// 首次生成并保存
	first, err := LoadOrCreate(path, true)
	require.NoError(t, err)
	assert.FileExists(t, path)

	// 再次加载得到相同身份
	second, err := LoadOrCreate(path, true)
	require.NoError(t, err)
	assert.Equal(t, first.PeerID(), second.PeerID())

	// 未配置路径时使用临时身份
	ephemeral, err := LoadOrCreate("", false)
	require.NoError(t, err)
	assert.NotEqual(t, first.PeerID(), ephemeral.PeerID())
}

func TestNew_Nil(t *testing.T) {
	_, err := New(nil)
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestModule(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fx.pem")
	cfg := config.DefaultIdentityConfig().WithKeyFile(path)

	var id *Identity
	app := fxtest.New(t,
		fx.NopLogger,
		fx.Supply(&cfg),
		Module(),
		fx.Populate(&id),
	)
	app.RequireStart()
	defer app.RequireStop()

	require.NotNil(t, id)
	assert.FileExists(t, path)
}
