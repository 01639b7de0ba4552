package eventloop

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/libp2p/go-libp2p/core/peer"
	ma "github.com/multiformats/go-multiaddr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-fileswap/internal/core/metrics"
	"github.com/dep2p/go-fileswap/internal/protocol/directory"
	"github.com/dep2p/go-fileswap/pkg/types"
	"github.com/dep2p/go-fileswap/tests/mocks"
)

const waitTimeout = 5 * time.Second

var (
	peerLocal = peer.ID("local-peer")
	peerA     = peer.ID("provider-a")
	peerB     = peer.ID("provider-b")
)

type harness struct {
	t       *testing.T
	loop    *Loop
	engine  *mocks.MockEngine
	files   *mocks.MockFileStore
	clock   *clock.Mock
	metrics *metrics.Metrics
	cancel  context.CancelFunc
	runErr  chan error
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	m, err := metrics.New(prometheus.NewRegistry())
	require.NoError(t, err)

	h := &harness{
		t:       t,
		engine:  mocks.NewMockEngine(peerLocal),
		files:   mocks.NewMockFileStore(),
		clock:   clock.NewMock(),
		metrics: m,
		runErr:  make(chan error, 1),
	}
	h.loop, err = New(h.engine, h.files, WithClock(h.clock), WithMetrics(m))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	go func() { h.runErr <- h.loop.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-h.loop.Done()
	})

	// 确保循环已启动且定时器已创建
	h.barrier()
	return h
}

// inject 投递引擎事件；通道无缓冲，返回时循环已经取走该事件
func (h *harness) inject(ev types.EngineEvent) {
	h.t.Helper()
	select {
	case h.engine.EventsCh <- ev:
	case <-time.After(waitTimeout):
		h.t.Fatal("循环未接收引擎事件")
	}
}

// barrier 一次无副作用的命令往返，保证之前投递的事件都已处理完
func (h *harness) barrier() {
	h.t.Helper()
	res := call[[]byte](h.t, h.loop, &Get{Filename: "\x00barrier", Reply: NewReply[[]byte]()})
	require.ErrorIs(h.t, res.Err, ErrNoProvider)
}

func (h *harness) nextEvent() types.Event {
	h.t.Helper()
	select {
	case ev := <-h.loop.Events():
		return ev
	case <-time.After(waitTimeout):
		h.t.Fatal("等待事件超时")
		return nil
	}
}

func (h *harness) expectNoEvent() {
	h.t.Helper()
	h.barrier()
	select {
	case ev := <-h.loop.Events():
		h.t.Fatalf("不应有事件: %#v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func (h *harness) announce(from types.PeerID, name string, addrs ...ma.Multiaddr) {
	h.t.Helper()
	raw := make([][]byte, 0, len(addrs))
	for _, a := range addrs {
		raw = append(raw, a.Bytes())
	}
	h.inject(types.EvtGossipMessage{
		Topic:     "files",
		Source:    from,
		MessageID: types.MessageID(name + "@" + from.String()),
		Data:      directory.Encode(&directory.FileAnnouncement{Filename: name, Addrs: raw}),
	})
}

// call 提交命令并等待结果
func call[T any](t *testing.T, l *Loop, cmd Command) Result[T] {
	t.Helper()
	require.NoError(t, l.Submit(context.Background(), cmd))
	reply := replyOf[T](t, cmd)
	return await(t, reply)
}

func await[T any](t *testing.T, reply Reply[T]) Result[T] {
	t.Helper()
	select {
	case res := <-reply:
		return res
	case <-time.After(waitTimeout):
		t.Fatal("等待回复超时")
		return Result[T]{}
	}
}

func replyOf[T any](t *testing.T, cmd Command) Reply[T] {
	t.Helper()
	var r any
	switch c := cmd.(type) {
	case *Dial:
		r = c.Reply
	case *Provide:
		r = c.Reply
	case *Get:
		r = c.Reply
	case *SendMessage:
		r = c.Reply
	case *Listen:
		r = c.Reply
	}
	reply, ok := r.(Reply[T])
	require.True(t, ok, "回复类型不匹配")
	return reply
}

// ============================================================================
//                              构造与运行
// ============================================================================

func TestNew_Validation(t *testing.T) {
	_, err := New(nil, mocks.NewMockFileStore())
	assert.ErrorIs(t, err, ErrNilEngine)

	_, err = New(mocks.NewMockEngine(peerLocal), nil)
	assert.ErrorIs(t, err, ErrNilFileStore)
}

func TestWithConfig_FillsDefaults(t *testing.T) {
	l, err := New(mocks.NewMockEngine(peerLocal), mocks.NewMockFileStore(),
		WithConfig(Config{ChatTopic: "talk"}))
	require.NoError(t, err)

	assert.Equal(t, "talk", l.cfg.ChatTopic)
	assert.Equal(t, "files", l.cfg.FilesTopic)
	assert.Equal(t, DefaultRepublishInterval, l.cfg.RepublishInterval)
	assert.Equal(t, DefaultCommandQueueSize, cap(l.commands))
}

func TestRun_AlreadyRunning(t *testing.T) {
	h := newHarness(t)
	assert.ErrorIs(t, h.loop.Run(context.Background()), ErrAlreadyRunning)
}

func TestRun_ContextCancel(t *testing.T) {
	h := newHarness(t)
	h.cancel()

	select {
	case err := <-h.runErr:
		assert.NoError(t, err)
	case <-time.After(waitTimeout):
		t.Fatal("Run 未返回")
	}
	assert.NoError(t, h.loop.Err())

	_, ok := <-h.loop.Events()
	assert.False(t, ok, "事件流应已关闭")
}

func TestRun_EngineExhausted(t *testing.T) {
	h := newHarness(t)
	h.announce(peerA, "report.pdf")
	_ = h.nextEvent()

	get := &Get{Filename: "report.pdf", Reply: NewReply[[]byte]()}
	require.NoError(t, h.loop.Submit(context.Background(), get))
	require.Eventually(t, func() bool { return len(h.engine.Requests()) == 1 }, waitTimeout, 10*time.Millisecond)

	close(h.engine.EventsCh)

	select {
	case err := <-h.runErr:
		assert.ErrorIs(t, err, ErrEngineExhausted)
	case <-time.After(waitTimeout):
		t.Fatal("Run 未返回")
	}
	assert.ErrorIs(t, h.loop.Err(), ErrEngineExhausted)

	// 挂起的请求以终止错误结束
	res := await(t, get.Reply)
	assert.ErrorIs(t, res.Err, ErrActorTerminated)

	// 之后的命令直接失败
	err := h.loop.Submit(context.Background(), &Provide{Path: "x", Reply: NewReply[struct{}]()})
	assert.ErrorIs(t, err, ErrActorTerminated)
}

func TestSubmit_Backpressure(t *testing.T) {
	l, err := New(mocks.NewMockEngine(peerLocal), mocks.NewMockFileStore(),
		WithConfig(Config{CommandQueueSize: 1}))
	require.NoError(t, err)

	// 循环未运行：第一条入队，第二条阻塞直到 ctx 超时
	require.NoError(t, l.Submit(context.Background(), &Get{Filename: "a", Reply: NewReply[[]byte]()}))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err = l.Submit(ctx, &Get{Filename: "b", Reply: NewReply[[]byte]()})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestReply_ResolveOnce(t *testing.T) {
	r := NewReply[int]()
	assert.True(t, r.resolve(1, nil))
	assert.False(t, r.resolve(2, nil), "第二次写入应被忽略")

	res := <-r
	assert.Equal(t, 1, res.Value)
}

// ============================================================================
//                              Provide / 重新公告
// ============================================================================

func TestProvide_DerivesKeyFromPath(t *testing.T) {
	h := newHarness(t)
	h.files.Put("/data/docs/report.pdf", []byte("hello world!"))
	h.engine.Addrs = []ma.Multiaddr{ma.StringCast("/ip4/10.0.0.1/tcp/4001")}

	res := call[struct{}](t, h.loop, &Provide{Path: "/data/docs/report.pdf", Reply: NewReply[struct{}]()})
	require.NoError(t, res.Err)

	// 定时器触发后以最后一段路径公告
	h.clock.Add(DefaultRepublishInterval)
	require.Eventually(t, func() bool { return len(h.engine.Published()) == 1 }, waitTimeout, 10*time.Millisecond)

	pub := h.engine.Published()[0]
	assert.Equal(t, "files", pub.Topic)
	ann, err := directory.Decode(pub.Data)
	require.NoError(t, err)
	assert.Equal(t, "report.pdf", ann.Filename)
	require.Len(t, ann.Addrs, 1)
	assert.Equal(t, h.engine.Addrs[0].Bytes(), ann.Addrs[0])
}

func TestProvide_NotAccessible(t *testing.T) {
	h := newHarness(t)

	res := call[struct{}](t, h.loop, &Provide{Path: "/no/such/file", Reply: NewReply[struct{}]()})
	assert.ErrorIs(t, res.Err, ErrFileNotAccessible)
	assert.Contains(t, res.Err.Error(), "could not open file /no/such/file")

	h.files.Put("/", []byte("x"))
	res = call[struct{}](t, h.loop, &Provide{Path: "/", Reply: NewReply[struct{}]()})
	assert.ErrorIs(t, res.Err, ErrFileNotAccessible)
}

func TestRepublish_FixedDelayAndSortedOrder(t *testing.T) {
	h := newHarness(t)
	h.files.Put("b.txt", []byte("b"))
	h.files.Put("a.txt", []byte("a"))
	require.NoError(t, call[struct{}](t, h.loop, &Provide{Path: "b.txt", Reply: NewReply[struct{}]()}).Err)
	require.NoError(t, call[struct{}](t, h.loop, &Provide{Path: "a.txt", Reply: NewReply[struct{}]()}).Err)

	// 未到期不发布
	h.clock.Add(DefaultRepublishInterval - time.Millisecond)
	h.barrier()
	assert.Empty(t, h.engine.Published())

	h.clock.Add(time.Millisecond)
	require.Eventually(t, func() bool { return len(h.engine.Published()) == 2 }, waitTimeout, 10*time.Millisecond)

	// 定时器重新装填，下一个完整周期再次发布
	h.barrier()
	h.clock.Add(DefaultRepublishInterval)
	require.Eventually(t, func() bool { return len(h.engine.Published()) == 4 }, waitTimeout, 10*time.Millisecond)

	var names []string
	for _, p := range h.engine.Published() {
		ann, err := directory.Decode(p.Data)
		require.NoError(t, err)
		names = append(names, ann.Filename)
	}
	assert.Equal(t, []string{"a.txt", "b.txt", "a.txt", "b.txt"}, names)
}

func TestRepublish_PublishFailureIsLogged(t *testing.T) {
	h := newHarness(t)
	h.files.Put("a.txt", []byte("a"))
	h.engine.SetPublishFunc(func(string, []byte) error { return errors.New("no peers subscribed") })
	require.NoError(t, call[struct{}](t, h.loop, &Provide{Path: "a.txt", Reply: NewReply[struct{}]()}).Err)

	h.clock.Add(DefaultRepublishInterval)
	require.Eventually(t, func() bool { return len(h.engine.Published()) == 1 }, waitTimeout, 10*time.Millisecond)
	h.barrier()

	assert.Len(t, h.engine.Published(), 1, "失败后不重试，等待下一个周期")
	h.expectNoEvent()
}
