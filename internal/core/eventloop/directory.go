package eventloop

import (
	"sort"

	ma "github.com/multiformats/go-multiaddr"

	"github.com/dep2p/go-fileswap/internal/protocol/directory"
	"github.com/dep2p/go-fileswap/pkg/lib/log"
	"github.com/dep2p/go-fileswap/pkg/types"
)

// onAnnouncement 处理文件目录公告
//
// 公告中的地址全部写入地址簿；文件名绑定先到先得，只有首次绑定才推送 NewProvider。
func (l *Loop) onAnnouncement(source types.PeerID, data []byte) {
	ann, err := directory.Decode(data)
	if err != nil {
		logger.Debug("丢弃无效的文件公告", "peer", log.TruncateID(source.String(), 8), "error", err)
		l.metrics.ObserveDecodeError("directory")
		return
	}

	for _, raw := range ann.Addrs {
		addr, err := ma.NewMultiaddrBytes(raw)
		if err != nil {
			logger.Debug("忽略无效的公告地址", "peer", log.TruncateID(source.String(), 8), "error", err)
			continue
		}
		l.engine.AddAddress(source, addr)
	}

	if ann.Filename == "" {
		logger.Debug("忽略没有文件名的公告", "peer", log.TruncateID(source.String(), 8))
		return
	}
	if _, exists := l.knownFiles[ann.Filename]; exists {
		return
	}
	l.knownFiles[ann.Filename] = source

	logger.Info("发现文件提供者", "file", ann.Filename, "peer", log.TruncateID(source.String(), 8))
	l.emit(types.NewProvider{Peer: source, Filename: ann.Filename})
}

// republish 为每个本地文件发布一条公告
//
// 发布失败只记录日志，没有调用方在等待结果。
func (l *Loop) republish() {
	if len(l.providedFiles) == 0 {
		return
	}

	listenAddrs := l.engine.ListenAddrs()
	addrs := make([][]byte, 0, len(listenAddrs))
	for _, a := range listenAddrs {
		addrs = append(addrs, a.Bytes())
	}

	names := make([]string, 0, len(l.providedFiles))
	for name := range l.providedFiles {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		payload := directory.Encode(&directory.FileAnnouncement{
			Filename: name,
			Addrs:    addrs,
		})
		err := l.engine.Publish(l.cfg.FilesTopic, payload)
		l.metrics.ObserveAnnouncement(err)
		if err != nil {
			logger.Warn("发布文件公告失败", "file", name, "error", err)
			continue
		}
		logger.Debug("已发布文件公告", "file", name, "addrs", len(addrs))
	}
}
