package eventloop

import (
	"github.com/dep2p/go-fileswap/pkg/types"
)

// Result 命令结果
type Result[T any] struct {
	Value T
	Err   error
}

// Reply 单次使用的回复通道
//
// 容量为 1，循环写入时不会阻塞；调用方放弃等待后写入的结果直接丢弃。
type Reply[T any] chan Result[T]

// NewReply 创建回复通道
func NewReply[T any]() Reply[T] {
	return make(Reply[T], 1)
}

// resolve 写入结果；重复写入会被忽略
func (r Reply[T]) resolve(v T, err error) bool {
	select {
	case r <- Result[T]{Value: v, Err: err}:
		return true
	default:
		return false
	}
}

func (r Reply[T]) fail(err error) bool {
	var zero T
	return r.resolve(zero, err)
}

// Command 调用方命令
type Command interface {
	name() string
	abort(err error)
}

// Dial 拨号到节点
//
// Addrs 非空时先写入地址簿。
type Dial struct {
	Peer  types.PeerID
	Addrs []types.Multiaddr
	Reply Reply[struct{}]
}

// Provide 注册本地文件
type Provide struct {
	Path  string
	Reply Reply[struct{}]
}

// Get 获取远端文件
type Get struct {
	Filename string
	Reply    Reply[[]byte]
}

// SendMessage 发送聊天消息
type SendMessage struct {
	Text  []byte
	Reply Reply[struct{}]
}

// Listen 开始监听地址
type Listen struct {
	Addr  types.Multiaddr
	Reply Reply[struct{}]
}

func (*Dial) name() string        { return "dial" }
func (*Provide) name() string     { return "provide" }
func (*Get) name() string         { return "get" }
func (*SendMessage) name() string { return "send_message" }
func (*Listen) name() string      { return "listen" }

func (c *Dial) abort(err error)        { c.Reply.fail(err) }
func (c *Provide) abort(err error)     { c.Reply.fail(err) }
func (c *Get) abort(err error)         { c.Reply.fail(err) }
func (c *SendMessage) abort(err error) { c.Reply.fail(err) }
func (c *Listen) abort(err error)      { c.Reply.fail(err) }
