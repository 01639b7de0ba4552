package eventloop

import (
	"fmt"
	"path/filepath"

	"github.com/dep2p/go-fileswap/internal/core/metrics"
	"github.com/dep2p/go-fileswap/pkg/lib/log"
)

func (l *Loop) handleCommand(cmd Command) {
	switch c := cmd.(type) {
	case *Dial:
		l.handleDial(c)
	case *Provide:
		l.handleProvide(c)
	case *Get:
		l.handleGet(c)
	case *SendMessage:
		l.handleSendMessage(c)
	case *Listen:
		l.handleListen(c)
	default:
		logger.Error("未知命令", "type", fmt.Sprintf("%T", cmd))
	}
}

func (l *Loop) observeCommand(cmd Command, err error) {
	result := metrics.ResultOK
	if err != nil {
		result = metrics.ResultError
	}
	l.metrics.ObserveCommand(cmd.name(), result)
}

func (l *Loop) handleDial(c *Dial) {
	for _, addr := range c.Addrs {
		l.engine.AddAddress(c.Peer, addr)
	}

	// 同一节点已有拨号在进行，合并等待，不再重复拨号
	if waiters, ok := l.pendingDials[c.Peer]; ok {
		logger.Debug("节点正在拨号中，合并等待",
			"peer", log.TruncateID(c.Peer.String(), 8),
			"waiters", len(waiters)+1)
		l.pendingDials[c.Peer] = append(waiters, c.Reply)
		l.metrics.ObserveCommand(c.name(), metrics.ResultDeferred)
		return
	}

	if err := l.engine.Dial(c.Peer); err != nil {
		logger.Debug("拨号失败", "peer", log.TruncateID(c.Peer.String(), 8), "error", err)
		err = fmt.Errorf("%w: %v", ErrDialFailed, err)
		c.Reply.fail(err)
		l.observeCommand(c, err)
		return
	}
	l.pendingDials[c.Peer] = []Reply[struct{}]{c.Reply}
	l.metrics.ObserveCommand(c.name(), metrics.ResultDeferred)
}

func (l *Loop) handleProvide(c *Provide) {
	err := l.provide(c.Path)
	c.Reply.resolve(struct{}{}, err)
	l.observeCommand(c, err)
}

func (l *Loop) provide(path string) error {
	if !l.files.CanRead(path) {
		return fmt.Errorf("%w: could not open file %s", ErrFileNotAccessible, path)
	}

	name := filepath.Base(path)
	switch name {
	case ".", "..", string(filepath.Separator):
		return fmt.Errorf("%w: %s has no file name", ErrFileNotAccessible, path)
	}

	if prev, ok := l.providedFiles[name]; ok && prev != path {
		logger.Info("覆盖已注册的文件", "file", name, "old", prev, "new", path)
	}
	l.providedFiles[name] = path
	logger.Info("开始提供文件", "file", name, "path", path)
	return nil
}

func (l *Loop) handleGet(c *Get) {
	provider, ok := l.knownFiles[c.Filename]
	if !ok {
		err := fmt.Errorf("%w: %q", ErrNoProvider, c.Filename)
		c.Reply.fail(err)
		l.observeCommand(c, err)
		return
	}

	id := l.engine.SendRequest(provider, []byte(c.Filename))
	if prev, dup := l.pendingRequests[id]; dup {
		// 引擎分配的 ID 应当唯一，出现重复说明关联簿记有缺陷
		logger.Error("请求 ID 重复", "requestID", id)
		prev.fail(fmt.Errorf("%w: request id %d reused", ErrRequestFailed, id))
	}
	l.pendingRequests[id] = c.Reply
	logger.Debug("已发送文件请求",
		"file", c.Filename,
		"provider", log.TruncateID(provider.String(), 8),
		"requestID", id)
	l.metrics.ObserveCommand(c.name(), metrics.ResultDeferred)
}

func (l *Loop) handleSendMessage(c *SendMessage) {
	var err error
	if perr := l.engine.Publish(l.cfg.ChatTopic, c.Text); perr != nil {
		err = fmt.Errorf("%w: %v", ErrPublishFailed, perr)
	}
	c.Reply.resolve(struct{}{}, err)
	l.observeCommand(c, err)
}

func (l *Loop) handleListen(c *Listen) {
	var err error
	if lerr := l.engine.Listen(c.Addr); lerr != nil {
		err = fmt.Errorf("%w: %s: %v", ErrListenFailed, c.Addr, lerr)
	}
	c.Reply.resolve(struct{}{}, err)
	l.observeCommand(c, err)
}
