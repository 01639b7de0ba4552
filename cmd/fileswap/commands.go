package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"

	ma "github.com/multiformats/go-multiaddr"

	"github.com/dep2p/go-fileswap"
	"github.com/dep2p/go-fileswap/pkg/interfaces"
	"github.com/dep2p/go-fileswap/pkg/types"
)

// ============================================================================
//                              命令解析
// ============================================================================

var (
	errUnknownCommand  = errors.New("unknown command")
	errMissingArgument = errors.New("missing argument")
	errInvalidFilename = errors.New("invalid file name")
)

type commandKind int

const (
	cmdMessage commandKind = iota
	cmdGet
	cmdPut
	cmdDial
)

// command 一行标准输入解析出的命令
type command struct {
	kind commandKind
	arg  string
}

var commandVerbs = map[string]commandKind{
	"MSG":  cmdMessage,
	"GET":  cmdGet,
	"PUT":  cmdPut,
	"DIAL": cmdDial,
}

// parseCommand 解析形如 "VERB <参数>" 的命令，动词不区分大小写
func parseCommand(line string) (command, error) {
	line = strings.TrimSpace(line)
	verb, arg, _ := strings.Cut(line, " ")

	kind, ok := commandVerbs[strings.ToUpper(verb)]
	if !ok {
		return command{}, fmt.Errorf("%w: %q", errUnknownCommand, verb)
	}

	arg = strings.TrimSpace(arg)
	if arg == "" {
		return command{}, fmt.Errorf("%w: %s", errMissingArgument, strings.ToUpper(verb))
	}
	return command{kind: kind, arg: arg}, nil
}

// ============================================================================
//                              命令执行
// ============================================================================

// shell 把标准输入命令转换为 Client 调用
type shell struct {
	client *fileswap.Client

	// downloads 保存 GET 下载的文件
	downloads interfaces.FileStore

	out io.Writer
}

func (s *shell) execute(ctx context.Context, cmd command) error {
	switch cmd.kind {
	case cmdMessage:
		if err := s.client.SendMessage(ctx, []byte(cmd.arg)); err != nil {
			return err
		}
		fmt.Fprintf(s.out, "> %s\n", cmd.arg)

	case cmdGet:
		name, err := downloadName(cmd.arg)
		if err != nil {
			return err
		}
		data, err := s.client.Get(ctx, cmd.arg)
		if err != nil {
			return err
		}
		if err := s.downloads.WriteFile(name, data); err != nil {
			return fmt.Errorf("保存 %s 失败: %w", name, err)
		}
		fmt.Fprintf(s.out, "已下载 %s (%d 字节)\n", name, len(data))

	case cmdPut:
		if err := s.client.Provide(ctx, cmd.arg); err != nil {
			return err
		}
		fmt.Fprintf(s.out, "正在提供 %s\n", filepath.Base(cmd.arg))

	case cmdDial:
		addr, err := ma.NewMultiaddr(cmd.arg)
		if err != nil {
			return fmt.Errorf("%w: %v", fileswap.ErrInvalidAddr, err)
		}
		if err := s.client.DialAddr(ctx, addr); err != nil {
			return err
		}
		fmt.Fprintf(s.out, "正在拨号 %s\n", addr)

	default:
		return errUnknownCommand
	}
	return nil
}

// downloadName 返回下载文件在本地保存的名字
//
// 只取最后一段，远端公告的名字不能把文件写到下载目录之外。
func downloadName(filename string) (string, error) {
	name := filepath.Base(filename)
	switch name {
	case ".", "..", string(filepath.Separator):
		return "", fmt.Errorf("%w: %q", errInvalidFilename, filename)
	}
	return name, nil
}

// readLines 逐行读取 r 并送入返回的 channel，读到 EOF 后关闭
func readLines(ctx context.Context, r io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	return lines
}

// syncWriter 串行化多个 goroutine 的输出
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

// handleInput 处理标准输入命令，直到 ctx 取消或输入结束
//
// 每条命令在独立 goroutine 中执行，耗时的 GET 不阻塞后续输入。
func (s *shell) handleInput(ctx context.Context, r io.Reader) error {
	lines := readLines(ctx, r)
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				logger.Info("标准输入已关闭，不再接受命令")
				return nil
			}
			if strings.TrimSpace(line) == "" {
				continue
			}
			cmd, err := parseCommand(line)
			if err != nil {
				fmt.Fprintf(s.out, "❌ %v\n", err)
				printUsage(s.out)
				continue
			}
			go func() {
				if err := s.execute(ctx, cmd); err != nil {
					fmt.Fprintf(s.out, "❌ %v\n", err)
				}
			}()
		}
	}
}

// printEvents 打印调用方事件，直到事件流关闭或 ctx 取消
func printEvents(ctx context.Context, w io.Writer, events <-chan types.Event) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			printEvent(w, ev)
		}
	}
}

func printEvent(w io.Writer, ev types.Event) {
	switch e := ev.(type) {
	case types.NewListenAddr:
		fmt.Fprintf(w, "📡 监听地址: %s\n", e.Address)
	case types.ConnectionEstablished:
		fmt.Fprintf(w, "🔗 已连接: %s (%s)\n", e.Peer, e.Endpoint.Remote)
	case types.PeerIdentified:
		fmt.Fprintf(w, "🪪 已识别: %s agent=%s\n", e.Peer, e.AgentVersion)
	case types.NewProvider:
		fmt.Fprintf(w, "📁 %s 提供文件 %s\n", e.Peer, e.Filename)
	case types.NewChatMessage:
		fmt.Fprintf(w, "💬 %s: %s\n", e.Peer, e.Data)
	default:
		fmt.Fprintf(w, "事件: %s\n", ev.Type())
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "命令:")
	fmt.Fprintln(w, "  MSG <文本>        发送聊天消息")
	fmt.Fprintln(w, "  PUT <路径>        提供本地文件")
	fmt.Fprintln(w, "  GET <文件名>      从提供者下载文件")
	fmt.Fprintln(w, "  DIAL <multiaddr>  拨号节点（需带 /p2p/<peer-id>）")
}
