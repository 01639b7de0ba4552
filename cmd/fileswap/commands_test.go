package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-fileswap"
	"github.com/dep2p/go-fileswap/internal/core/memnet"
	"github.com/dep2p/go-fileswap/pkg/types"
	"github.com/dep2p/go-fileswap/tests/mocks"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		line    string
		want    command
		wantErr error
	}{
		{"MSG hello world", command{kind: cmdMessage, arg: "hello world"}, nil},
		{"  get report.pdf  ", command{kind: cmdGet, arg: "report.pdf"}, nil},
		{"PUT /data/report.pdf", command{kind: cmdPut, arg: "/data/report.pdf"}, nil},
		{"DIAL /ip4/127.0.0.1/tcp/4001", command{kind: cmdDial, arg: "/ip4/127.0.0.1/tcp/4001"}, nil},
		{"GET", command{}, errMissingArgument},
		{"MSG    ", command{}, errMissingArgument},
		{"FETCH x", command{}, errUnknownCommand},
		{"hello", command{}, errUnknownCommand},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := parseCommand(tt.line)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSplitList(t *testing.T) {
	assert.Nil(t, splitList(""))
	assert.Equal(t, []string{"a", "b"}, splitList(" a, ,b ,"))
}

func TestDownloadName(t *testing.T) {
	name, err := downloadName("report.pdf")
	require.NoError(t, err)
	assert.Equal(t, "report.pdf", name)

	name, err = downloadName("../../etc/passwd")
	require.NoError(t, err)
	assert.Equal(t, "passwd", name)

	for _, bad := range []string{"/", "..", ".", "a/.."} {
		_, err := downloadName(bad)
		assert.ErrorIs(t, err, errInvalidFilename, bad)
	}
}

func TestPrintEvent(t *testing.T) {
	var buf bytes.Buffer
	printEvent(&buf, types.NewProvider{Filename: "report.pdf"})
	printEvent(&buf, types.NewChatMessage{Data: []byte("hi there")})

	out := buf.String()
	assert.Contains(t, out, "report.pdf")
	assert.Contains(t, out, "hi there")
}

// ============================================================================
//                              执行测试
// ============================================================================

func startNode(t *testing.T, hub *memnet.Hub, addr string) (*fileswap.Node, *mocks.MockFileStore) {
	t.Helper()

	engine, err := hub.NewEngine()
	require.NoError(t, err)
	files := mocks.NewMockFileStore()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	node, err := fileswap.Start(ctx,
		fileswap.WithEngine(engine),
		fileswap.WithFileStore(files),
		fileswap.WithListenAddrs(addr),
		fileswap.WithMDNS(false),
		fileswap.WithRepublishInterval(20*time.Millisecond),
		fileswap.WithMetricsRegisterer(prometheus.NewRegistry()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = node.Close() })
	return node, files
}

func waitProvider(t *testing.T, node *fileswap.Node, filename string) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case ev := <-node.Client().Events():
			if p, ok := ev.(types.NewProvider); ok && p.Filename == filename {
				return
			}
		case <-deadline:
			t.Fatalf("等待 %s 的提供者超时", filename)
		}
	}
}

func TestShell_PutDialGet(t *testing.T) {
	hub := memnet.NewHub()
	a, aFiles := startNode(t, hub, "/ip4/127.0.0.1/tcp/2001")
	b, _ := startNode(t, hub, "/ip4/127.0.0.1/tcp/2002")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var out bytes.Buffer
	downloads := mocks.NewMockFileStore()
	shA := &shell{client: a.Client(), downloads: mocks.NewMockFileStore(), out: &out}
	shB := &shell{client: b.Client(), downloads: downloads, out: &out}

	dialAddr := a.ListenAddrs()[0].String() + "/p2p/" + a.ID().String()
	require.NoError(t, shB.execute(ctx, command{kind: cmdDial, arg: dialAddr}))

	aFiles.Put("/srv/notes.txt", []byte("remember the milk"))
	require.NoError(t, shA.execute(ctx, command{kind: cmdPut, arg: "/srv/notes.txt"}))
	waitProvider(t, b, "notes.txt")

	require.NoError(t, shB.execute(ctx, command{kind: cmdGet, arg: "notes.txt"}))
	data, ok := downloads.Get("notes.txt")
	require.True(t, ok)
	assert.Equal(t, "remember the milk", string(data))
	assert.Contains(t, out.String(), "已下载 notes.txt")
}

func TestShell_Errors(t *testing.T) {
	hub := memnet.NewHub()
	a, _ := startNode(t, hub, "/ip4/127.0.0.1/tcp/2001")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sh := &shell{client: a.Client(), downloads: mocks.NewMockFileStore(), out: &bytes.Buffer{}}

	err := sh.execute(ctx, command{kind: cmdGet, arg: "missing.txt"})
	assert.ErrorIs(t, err, fileswap.ErrNoProvider)

	err = sh.execute(ctx, command{kind: cmdDial, arg: "not-a-multiaddr"})
	assert.ErrorIs(t, err, fileswap.ErrInvalidAddr)

	err = sh.execute(ctx, command{kind: cmdPut, arg: "/nope.txt"})
	assert.ErrorIs(t, err, fileswap.ErrFileNotAccessible)

	err = sh.execute(ctx, command{kind: cmdGet, arg: "/"})
	assert.ErrorIs(t, err, errInvalidFilename)
}

func TestShell_HandleInputStopsAtEOF(t *testing.T) {
	hub := memnet.NewHub()
	a, _ := startNode(t, hub, "/ip4/127.0.0.1/tcp/2001")

	out := &syncWriter{w: &bytes.Buffer{}}
	sh := &shell{client: a.Client(), downloads: mocks.NewMockFileStore(), out: out}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	input := strings.NewReader("\nBOGUS line\n")
	assert.NoError(t, sh.handleInput(ctx, input))
}
