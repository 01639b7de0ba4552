package fileswap

import (
	"context"
	"fmt"

	"github.com/libp2p/go-libp2p/core/peer"
	ma "github.com/multiformats/go-multiaddr"

	"github.com/dep2p/go-fileswap/internal/core/eventloop"
	"github.com/dep2p/go-fileswap/pkg/types"
)

// Client 协调循环的命令门面
//
// 所有方法都可以并发调用。每个命令带有自己的一次性回复通道；
// ctx 取消时放弃等待，循环稍后写入的结果被丢弃。
// 循环终止后所有方法返回 ErrActorTerminated。
type Client struct {
	loop *eventloop.Loop
}

// NewClient 为协调循环创建门面
func NewClient(loop *eventloop.Loop) *Client {
	return &Client{loop: loop}
}

// call 提交命令并等待回复
func call[T any](ctx context.Context, l *eventloop.Loop, cmd eventloop.Command, reply eventloop.Reply[T]) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	if err := l.Submit(ctx, cmd); err != nil {
		return zero, err
	}

	select {
	case r := <-reply:
		return r.Value, r.Err
	case <-ctx.Done():
		return zero, ctx.Err()
	case <-l.Done():
		// 循环终止前会把等待中的回复置为失败
		select {
		case r := <-reply:
			return r.Value, r.Err
		default:
			return zero, ErrActorTerminated
		}
	}
}

// Dial 拨号到节点，连接建立后返回
//
// addrs 非空时先写入地址簿。同一节点的并发拨号会合并，全部等待者一起得到结果。
func (c *Client) Dial(ctx context.Context, p types.PeerID, addrs ...types.Multiaddr) error {
	reply := eventloop.NewReply[struct{}]()
	_, err := call(ctx, c.loop, &eventloop.Dial{Peer: p, Addrs: addrs, Reply: reply}, reply)
	return err
}

// DialAddr 拨号到带 /p2p/<peer-id> 后缀的地址
func (c *Client) DialAddr(ctx context.Context, addr types.Multiaddr) error {
	info, err := peer.AddrInfoFromP2pAddr(addr)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidAddr, addr, err)
	}
	return c.Dial(ctx, info.ID, info.Addrs...)
}

// Provide 注册本地文件
//
// 文件以路径的最后一段为名在目录主题上周期性公告。
func (c *Client) Provide(ctx context.Context, path string) error {
	reply := eventloop.NewReply[struct{}]()
	_, err := call(ctx, c.loop, &eventloop.Provide{Path: path, Reply: reply}, reply)
	return err
}

// Get 从最先公告该文件的节点获取文件内容
func (c *Client) Get(ctx context.Context, filename string) ([]byte, error) {
	reply := eventloop.NewReply[[]byte]()
	return call(ctx, c.loop, &eventloop.Get{Filename: filename, Reply: reply}, reply)
}

// SendMessage 在聊天主题上发布消息
func (c *Client) SendMessage(ctx context.Context, text []byte) error {
	reply := eventloop.NewReply[struct{}]()
	_, err := call(ctx, c.loop, &eventloop.SendMessage{Text: text, Reply: reply}, reply)
	return err
}

// Listen 在地址上监听
func (c *Client) Listen(ctx context.Context, addr types.Multiaddr) error {
	reply := eventloop.NewReply[struct{}]()
	_, err := call(ctx, c.loop, &eventloop.Listen{Addr: addr, Reply: reply}, reply)
	return err
}

// ListenString 解析地址并监听
func (c *Client) ListenString(ctx context.Context, addr string) error {
	a, err := ma.NewMultiaddr(addr)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidAddr, addr, err)
	}
	return c.Listen(ctx, a)
}

// Events 返回调用方事件流
//
// 事件按产生顺序推送，循环终止后通道关闭。
func (c *Client) Events() <-chan types.Event {
	return c.loop.Events()
}
