// Package fileswap 实现去中心化文件共享与聊天节点
//
// 节点由一个协调循环（actor）驱动，它把调用方的同步命令
// （发送聊天消息、提供本地文件、获取远端文件、拨号）桥接到异步的网络引擎。
//
// # 快速开始
//
//	node, err := fileswap.Start(ctx,
//	    fileswap.WithListenAddrs("/ip4/0.0.0.0/tcp/4001"),
//	    fileswap.WithIdentityFile("node.pem"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer node.Close()
//
//	client := node.Client()
//
//	// 提供本地文件，文件名会周期性地在 "files" 主题上公告
//	_ = client.Provide(ctx, "/tmp/report.pdf")
//
//	// 获取其他节点公告过的文件
//	data, err := client.Get(ctx, "report.pdf")
//
//	// 聊天
//	_ = client.SendMessage(ctx, []byte("hello"))
//
//	for ev := range client.Events() {
//	    switch e := ev.(type) {
//	    case types.NewChatMessage:
//	        fmt.Printf("%s: %s\n", e.Peer, e.Data)
//	    case types.NewProvider:
//	        fmt.Printf("%s provides %s\n", e.Peer, e.Filename)
//	    }
//	}
//
// # 网络引擎
//
// 默认使用基于 libp2p 的引擎（TCP + Noise + Yamux、GossipSub、mDNS、中继客户端）。
// 通过 WithEngine 可以注入其他实现，例如进程内的 memnet 引擎。
package fileswap
