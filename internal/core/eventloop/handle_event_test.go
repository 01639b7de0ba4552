package eventloop

import (
	"context"
	"errors"
	"testing"

	"github.com/libp2p/go-libp2p/core/peer"
	ma "github.com/multiformats/go-multiaddr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-fileswap/internal/protocol/directory"
	"github.com/dep2p/go-fileswap/pkg/types"
)

func encodeAnnouncement(name string, addrs [][]byte) []byte {
	return directory.Encode(&directory.FileAnnouncement{Filename: name, Addrs: addrs})
}

// ============================================================================
//                              文件目录
// ============================================================================

func TestAnnouncement_FirstWriterWins(t *testing.T) {
	orders := map[string][2]types.PeerID{
		"A first": {peerA, peerB},
		"B first": {peerB, peerA},
	}

	for name, order := range orders {
		t.Run(name, func(t *testing.T) {
			h := newHarness(t)

			h.announce(order[0], "report.pdf")
			h.announce(order[1], "report.pdf")

			ev := h.nextEvent()
			np, ok := ev.(types.NewProvider)
			require.True(t, ok, "期望 NewProvider，得到 %T", ev)
			assert.Equal(t, order[0], np.Peer)
			assert.Equal(t, "report.pdf", np.Filename)
			h.expectNoEvent()

			// 请求发往第一个提供者
			get := &Get{Filename: "report.pdf", Reply: NewReply[[]byte]()}
			require.NoError(t, h.loop.Submit(context.Background(), get))
			h.barrier()
			reqs := h.engine.Requests()
			require.Len(t, reqs, 1)
			assert.Equal(t, order[0], reqs[0].Peer)
			assert.Equal(t, []byte("report.pdf"), reqs[0].Data)
		})
	}
}

func TestAnnouncement_RegistersAddresses(t *testing.T) {
	h := newHarness(t)
	a1 := ma.StringCast("/ip4/192.168.1.2/tcp/4001")
	a2 := ma.StringCast("/ip4/192.168.1.2/udp/4001/quic-v1")

	h.announce(peerA, "x.bin", a1, a2)
	_ = h.nextEvent()

	// 重复公告不产生事件，但地址仍被登记
	h.announce(peerA, "x.bin", a1)
	h.expectNoEvent()

	addrs := h.engine.AddrsOf(peerA)
	require.Len(t, addrs, 3)
	assert.True(t, addrs[0].Equal(a1))
	assert.True(t, addrs[1].Equal(a2))
	assert.True(t, addrs[2].Equal(a1))
}

func TestAnnouncement_SkipsInvalidAddress(t *testing.T) {
	h := newHarness(t)
	good := ma.StringCast("/ip4/1.2.3.4/tcp/1")

	h.inject(types.EvtGossipMessage{
		Topic:  "files",
		Source: peerA,
		Data: encodeAnnouncement("y.bin", [][]byte{
			{0xff, 0xff, 0xff},
			good.Bytes(),
		}),
	})

	ev := h.nextEvent()
	assert.Equal(t, types.EventNewProvider, ev.Type())
	addrs := h.engine.AddrsOf(peerA)
	require.Len(t, addrs, 1)
	assert.True(t, addrs[0].Equal(good))
}

func TestAnnouncement_MalformedIsDiscarded(t *testing.T) {
	h := newHarness(t)

	h.inject(types.EvtGossipMessage{Topic: "files", Source: peerA, Data: []byte{0x05, 0x0a}})
	h.inject(types.EvtGossipMessage{Topic: "files", Source: peerA, Data: nil})
	h.expectNoEvent()

	res := call[[]byte](t, h.loop, &Get{Filename: "", Reply: NewReply[[]byte]()})
	assert.ErrorIs(t, res.Err, ErrNoProvider)
}

func TestAnnouncement_EmptyFilenameIgnored(t *testing.T) {
	h := newHarness(t)
	h.announce(peerA, "")
	h.expectNoEvent()
}

func TestGossip_WithoutSourceDropped(t *testing.T) {
	h := newHarness(t)
	h.inject(types.EvtGossipMessage{Topic: "chat", Data: []byte("anon")})
	h.announce("", "z.txt")
	h.expectNoEvent()
}

// ============================================================================
//                              Get / 请求关联
// ============================================================================

func TestGet_UnknownFile(t *testing.T) {
	h := newHarness(t)

	res := call[[]byte](t, h.loop, &Get{Filename: "missing.txt", Reply: NewReply[[]byte]()})
	require.ErrorIs(t, res.Err, ErrNoProvider)
	assert.Contains(t, res.Err.Error(), `"missing.txt"`)
	assert.Empty(t, h.engine.Requests(), "不应发出网络请求")
}

func TestGet_RequestCorrelation(t *testing.T) {
	h := newHarness(t)
	h.announce(peerA, "one.txt")
	h.announce(peerB, "two.txt")
	h.announce(peerA, "three.txt")
	for i := 0; i < 3; i++ {
		_ = h.nextEvent()
	}

	g1 := &Get{Filename: "one.txt", Reply: NewReply[[]byte]()}
	g2 := &Get{Filename: "two.txt", Reply: NewReply[[]byte]()}
	g3 := &Get{Filename: "three.txt", Reply: NewReply[[]byte]()}
	for _, g := range []*Get{g1, g2, g3} {
		require.NoError(t, h.loop.Submit(context.Background(), g))
	}
	h.barrier()

	reqs := h.engine.Requests()
	require.Len(t, reqs, 3)
	ids := map[string]types.RequestID{}
	for _, r := range reqs {
		ids[string(r.Data)] = r.ID
	}

	// 逆序到达
	h.inject(types.EvtOutboundFailure{RequestID: ids["three.txt"], Peer: peerA, Err: errors.New("timeout")})
	h.inject(types.EvtInboundResponse{RequestID: ids["two.txt"], Data: []byte("second")})
	h.inject(types.EvtInboundResponse{RequestID: ids["one.txt"], Data: []byte("first")})

	r1 := await(t, g1.Reply)
	require.NoError(t, r1.Err)
	assert.Equal(t, []byte("first"), r1.Value)

	r2 := await(t, g2.Reply)
	require.NoError(t, r2.Err)
	assert.Equal(t, []byte("second"), r2.Value)

	r3 := await(t, g3.Reply)
	assert.ErrorIs(t, r3.Err, ErrRequestFailed)
	assert.Contains(t, r3.Err.Error(), "timeout")

	// 重复或未知的关联 ID 只记录日志，循环继续运行
	h.inject(types.EvtInboundResponse{RequestID: ids["one.txt"], Data: []byte("again")})
	h.inject(types.EvtOutboundFailure{RequestID: 999, Err: errors.New("late")})
	h.barrier()
	select {
	case res := <-g1.Reply:
		t.Fatalf("同一请求不应被解析两次: %#v", res)
	default:
	}
}

// ============================================================================
//                              入站请求
// ============================================================================

func TestInboundRequest_ServesProvidedFile(t *testing.T) {
	h := newHarness(t)
	h.files.Put("/srv/report.pdf", []byte("hello world!"))
	require.NoError(t, call[struct{}](t, h.loop, &Provide{Path: "/srv/report.pdf", Reply: NewReply[struct{}]()}).Err)

	ch := types.ResponseChannel{RequestID: 7, Peer: peerB}
	h.inject(types.EvtInboundRequest{Peer: peerB, Data: []byte("report.pdf"), Channel: ch})
	h.barrier()

	resps := h.engine.Responses()
	require.Len(t, resps, 1)
	assert.Equal(t, ch, resps[0].Channel)
	assert.Equal(t, []byte("hello world!"), resps[0].Data)
}

func TestInboundRequest_SilentlyDropped(t *testing.T) {
	h := newHarness(t)
	h.files.Put("/srv/gone.txt", []byte("x"))
	require.NoError(t, call[struct{}](t, h.loop, &Provide{Path: "/srv/gone.txt", Reply: NewReply[struct{}]()}).Err)
	h.files.ReadFileFunc = func(path string) ([]byte, error) {
		return nil, errors.New("permission denied")
	}

	for _, name := range [][]byte{
		[]byte("unknown.txt"),
		{0xff, 0xfe},
		[]byte("gone.txt"),
	} {
		h.inject(types.EvtInboundRequest{Peer: peerB, Data: name, Channel: types.ResponseChannel{RequestID: 1, Peer: peerB}})
	}
	h.barrier()

	assert.Empty(t, h.engine.Responses())
}

func TestInboundRequest_EmptyFileHandedToEngine(t *testing.T) {
	h := newHarness(t)
	h.files.Put("/srv/empty.txt", []byte{})
	require.NoError(t, call[struct{}](t, h.loop, &Provide{Path: "/srv/empty.txt", Reply: NewReply[struct{}]()}).Err)

	ch := types.ResponseChannel{RequestID: 7, Peer: peerB}
	h.inject(types.EvtInboundRequest{Peer: peerB, Data: []byte("empty.txt"), Channel: ch})
	h.barrier()

	responses := h.engine.Responses()
	require.Len(t, responses, 1)
	assert.Equal(t, ch, responses[0].Channel)
	assert.Empty(t, responses[0].Data)
}

// ============================================================================
//                              Dial
// ============================================================================

func TestDial_Dedup(t *testing.T) {
	h := newHarness(t)

	d1 := &Dial{Peer: peerA, Reply: NewReply[struct{}]()}
	d2 := &Dial{Peer: peerA, Reply: NewReply[struct{}]()}
	require.NoError(t, h.loop.Submit(context.Background(), d1))
	require.NoError(t, h.loop.Submit(context.Background(), d2))
	h.barrier()

	assert.Equal(t, []types.PeerID{peerA}, h.engine.Dials(), "只应发起一次拨号")

	// 其它节点的连接不影响等待者
	h.inject(types.EvtConnectionEstablished{Peer: peerB})
	assert.Equal(t, types.EventConnectionEstablished, h.nextEvent().Type())
	select {
	case <-d1.Reply:
		t.Fatal("不应被其它节点的连接解析")
	default:
	}

	h.inject(types.EvtConnectionEstablished{Peer: peerA, Endpoint: types.Endpoint{Dialer: true}})
	require.NoError(t, await(t, d1.Reply).Err)
	require.NoError(t, await(t, d2.Reply).Err)

	ev, ok := h.nextEvent().(types.ConnectionEstablished)
	require.True(t, ok)
	assert.Equal(t, peerA, ev.Peer)
	assert.True(t, ev.Endpoint.Dialer)

	// 解析后再次拨号会重新发起
	d3 := &Dial{Peer: peerA, Reply: NewReply[struct{}]()}
	require.NoError(t, h.loop.Submit(context.Background(), d3))
	h.barrier()
	assert.Len(t, h.engine.Dials(), 2)
}

func TestDial_ImmediateFailure(t *testing.T) {
	h := newHarness(t)
	h.engine.SetDialFunc(func(types.PeerID) error { return errors.New("no addresses") })

	res := call[struct{}](t, h.loop, &Dial{Peer: peerA, Reply: NewReply[struct{}]()})
	assert.ErrorIs(t, res.Err, ErrDialFailed)
	assert.Contains(t, res.Err.Error(), "no addresses")
}

func TestDial_FailureEvent(t *testing.T) {
	h := newHarness(t)
	addr := ma.StringCast("/ip4/10.1.1.1/tcp/9000")

	d1 := &Dial{Peer: peerA, Addrs: []ma.Multiaddr{addr}, Reply: NewReply[struct{}]()}
	d2 := &Dial{Peer: peerA, Reply: NewReply[struct{}]()}
	require.NoError(t, h.loop.Submit(context.Background(), d1))
	require.NoError(t, h.loop.Submit(context.Background(), d2))
	h.barrier()
	require.Len(t, h.engine.AddrsOf(peerA), 1)

	h.inject(types.EvtDialFailure{Peer: peerA, Err: errors.New("connection refused")})
	assert.ErrorIs(t, await(t, d1.Reply).Err, ErrDialFailed)
	assert.ErrorIs(t, await(t, d2.Reply).Err, ErrDialFailed)
}

func TestPeerDiscovered_DialsOnce(t *testing.T) {
	h := newHarness(t)
	addr := ma.StringCast("/ip4/192.168.0.9/tcp/4001")

	h.inject(types.EvtPeerDiscovered{Peer: peerA, Addrs: []ma.Multiaddr{addr}})
	h.inject(types.EvtPeerDiscovered{Peer: peerA, Addrs: []ma.Multiaddr{addr}})
	h.barrier()

	assert.Equal(t, []types.PeerID{peerA}, h.engine.Dials())
	assert.Len(t, h.engine.AddrsOf(peerA), 2)
}

// ============================================================================
//                              聊天 / 监听 / 透传事件
// ============================================================================

func TestSendMessage(t *testing.T) {
	h := newHarness(t)

	res := call[struct{}](t, h.loop, &SendMessage{Text: []byte("hi"), Reply: NewReply[struct{}]()})
	require.NoError(t, res.Err)
	pubs := h.engine.Published()
	require.Len(t, pubs, 1)
	assert.Equal(t, "chat", pubs[0].Topic)
	assert.Equal(t, []byte("hi"), pubs[0].Data)

	h.engine.SetPublishFunc(func(string, []byte) error { return errors.New("no peers subscribed to topic") })
	res = call[struct{}](t, h.loop, &SendMessage{Text: []byte("hi"), Reply: NewReply[struct{}]()})
	assert.ErrorIs(t, res.Err, ErrPublishFailed)
}

func TestChatMessage_Forwarded(t *testing.T) {
	h := newHarness(t)

	h.inject(types.EvtGossipMessage{Topic: "chat", Source: peerA, MessageID: "m1", Data: []byte("hello")})
	msg, ok := h.nextEvent().(types.NewChatMessage)
	require.True(t, ok)
	assert.Equal(t, peerA, msg.Peer)
	assert.Equal(t, types.MessageID("m1"), msg.MessageID)
	assert.Equal(t, []byte("hello"), msg.Data)
}

func TestListen(t *testing.T) {
	h := newHarness(t)
	addr := ma.StringCast("/ip4/0.0.0.0/tcp/0")

	require.NoError(t, call[struct{}](t, h.loop, &Listen{Addr: addr, Reply: NewReply[struct{}]()}).Err)

	bad := ma.StringCast("/ip4/0.0.0.0/tcp/1")
	h.engine.SetListenFunc(func(types.Multiaddr) error { return errors.New("address in use") })
	res := call[struct{}](t, h.loop, &Listen{Addr: bad, Reply: NewReply[struct{}]()})
	assert.ErrorIs(t, res.Err, ErrListenFailed)
}

func TestPassthroughEvents(t *testing.T) {
	h := newHarness(t)
	addr := ma.StringCast("/ip4/127.0.0.1/tcp/4001")

	h.inject(types.EvtNewListenAddr{Address: addr})
	h.inject(types.EvtPeerIdentified{Peer: peerB, AgentVersion: "fileswap/0.1.0", Protocols: []string{"/file-exchange/1"}})

	la, ok := h.nextEvent().(types.NewListenAddr)
	require.True(t, ok)
	assert.True(t, la.Address.Equal(addr))

	pi, ok := h.nextEvent().(types.PeerIdentified)
	require.True(t, ok)
	assert.Equal(t, peerB, pi.Peer)
	assert.Equal(t, "fileswap/0.1.0", pi.AgentVersion)
	assert.Equal(t, []string{"/file-exchange/1"}, pi.Protocols)
}

func TestEvents_DoNotBlockLoop(t *testing.T) {
	h := newHarness(t)

	// 不消费事件，循环仍能继续处理命令
	for i := 0; i < 50; i++ {
		h.inject(types.EvtGossipMessage{Topic: "chat", Source: peer.ID("p"), Data: []byte{byte(i)}})
	}
	h.barrier()

	for i := 0; i < 50; i++ {
		msg := h.nextEvent().(types.NewChatMessage)
		assert.Equal(t, []byte{byte(i)}, msg.Data, "事件顺序应保持")
	}
}
