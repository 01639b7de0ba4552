// Package main 提供 fileswap 命令行入口
//
// 启动节点后从标准输入读取命令：
//
//	MSG <文本>        发送聊天消息
//	PUT <路径>        提供本地文件
//	GET <文件名>      下载文件到当前目录
//	DIAL <multiaddr>  拨号节点
//
// 使用示例：
//
//	fileswap -listen /ip4/0.0.0.0/tcp/4001
//	fileswap -peer /ip4/192.168.1.10/tcp/4001/p2p/12D3KooW...
//	fileswap -relay /ip4/1.2.3.4/tcp/4001/p2p/12D3KooW...
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/dep2p/go-fileswap"
	"github.com/dep2p/go-fileswap/config"
	"github.com/dep2p/go-fileswap/internal/core/storage"
	"github.com/dep2p/go-fileswap/pkg/lib/log"
)

var logger = log.Logger("fileswap/cmd")

// ═══════════════════════════════════════════════════════════════════════════
// 命令行参数
// ═══════════════════════════════════════════════════════════════════════════
//
//   命令行参数：运行时覆盖
//   JSON 配置文件：持久化配置
//
// ═══════════════════════════════════════════════════════════════════════════
var (
	// ─────────────────────────────────────────────────────────────────────
	// 网络参数
	// ─────────────────────────────────────────────────────────────────────
	configFile   = flag.String("config", "", "配置文件路径")
	listenAddrs  = flag.String("listen", "", "监听地址，逗号分隔（默认见配置文件）")
	relayAddr    = flag.String("relay", "", "通过该中继监听（需带 /p2p/<relay-id>）")
	knownPeers   = flag.String("peer", "", "启动后拨号的节点，逗号分隔（需带 /p2p/<peer-id>）")
	identityFile = flag.String("identity", "", "身份密钥文件路径（不存在时生成）")
	disableMDNS  = flag.Bool("no-mdns", false, "禁用 mDNS 本地发现")

	// ─────────────────────────────────────────────────────────────────────
	// 文件参数
	// ─────────────────────────────────────────────────────────────────────
	downloadDir = flag.String("download-dir", "", "GET 下载目录（默认: 当前目录）")

	// ─────────────────────────────────────────────────────────────────────
	// 日志参数
	// ─────────────────────────────────────────────────────────────────────
	logLevel = flag.String("log-level", "", "日志级别 (debug/info/warn/error)")
	logFile  = flag.String("log", "", "日志文件路径")

	// ─────────────────────────────────────────────────────────────────────
	// 信息显示
	// ─────────────────────────────────────────────────────────────────────
	showVersion = flag.Bool("version", false, "显示版本信息")
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	flag.Parse()

	if *showVersion {
		fmt.Println(fileswap.VersionInfo())
		return nil
	}

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("加载配置文件失败: %w", err)
	}

	logHandle, err := setupLogging(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "警告: %v\n", err)
		fmt.Fprintln(os.Stderr, "将继续使用控制台输出日志")
	}
	if logHandle != nil {
		defer func() { _ = logHandle.Close() }()
	}

	opts, err := buildOptions(cfg)
	if err != nil {
		return fmt.Errorf("配置错误: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("启动 fileswap 节点", "version", fileswap.Version, "commit", fileswap.GitCommit, "buildDate", fileswap.BuildDate)

	node, err := fileswap.Start(ctx, opts...)
	if err != nil {
		return fmt.Errorf("启动失败: %w", err)
	}
	defer func() { _ = node.Close() }()

	out := &syncWriter{w: os.Stdout}
	fmt.Fprintf(out, "节点 ID: %s\n", node.ID())
	printUsage(out)

	sh := &shell{
		client:    node.Client(),
		downloads: storage.NewLocalFS(*downloadDir),
		out:       out,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return printEvents(gctx, out, node.Client().Events())
	})
	g.Go(func() error {
		return sh.handleInput(gctx, os.Stdin)
	})
	g.Go(func() error {
		select {
		case <-node.Done():
			if err := node.Err(); err != nil {
				return err
			}
			return errors.New("协调循环已退出")
		case <-gctx.Done():
			return nil
		}
	})

	// 标准输入关闭后节点继续运行，直到收到信号或协调循环退出
	<-gctx.Done()
	err = g.Wait()

	fmt.Fprintln(out, "\n正在关闭节点...")
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// loadConfig 加载配置文件，未指定时使用默认配置
func loadConfig() (*config.Config, error) {
	if *configFile == "" {
		return config.NewConfig(), nil
	}
	return config.LoadFile(*configFile)
}

// buildOptions 构建选项
//
// 配置优先级（从高到低）：
//  1. 命令行参数
//  2. 配置文件
//  3. 默认值
func buildOptions(cfg *config.Config) ([]fileswap.Option, error) {
	opts := []fileswap.Option{fileswap.WithConfig(cfg)}

	if addrs := splitList(*listenAddrs); len(addrs) > 0 {
		opts = append(opts, fileswap.WithListenAddrs(addrs...))
	}
	if *relayAddr != "" {
		opts = append(opts, fileswap.WithRelay(*relayAddr))
	}
	if peers := splitList(*knownPeers); len(peers) > 0 {
		opts = append(opts, fileswap.WithKnownPeers(peers...))
	}
	if *identityFile != "" {
		opts = append(opts, fileswap.WithIdentityFile(*identityFile))
	}
	if *disableMDNS {
		opts = append(opts, fileswap.WithMDNS(false))
	}
	return opts, nil
}

// splitList 按逗号拆分并去掉空项
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// setupLogging 设置日志输出
//
// 命令行参数优先于配置文件；未指定日志文件时输出到 stderr。
func setupLogging(lc config.LogConfig) (*os.File, error) {
	levelName := lc.Level
	if *logLevel != "" {
		levelName = *logLevel
	}
	level, ok := log.ParseLevel(levelName)
	if !ok {
		return nil, fmt.Errorf("无效的日志级别 %q", levelName)
	}

	logPath := lc.File
	if *logFile != "" {
		logPath = *logFile
	}
	if logPath == "" {
		log.SetLevel(level)
		return nil, nil
	}

	if err := os.MkdirAll(filepath.Dir(logPath), 0750); err != nil {
		log.SetLevel(level)
		return nil, fmt.Errorf("创建日志目录失败: %w", err)
	}
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		log.SetLevel(level)
		return nil, fmt.Errorf("打开日志文件失败: %w", err)
	}

	log.SetOutputWithLevel(file, level)
	return file, nil
}
