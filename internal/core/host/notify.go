package host

import (
	"github.com/libp2p/go-libp2p/core/event"
	"github.com/libp2p/go-libp2p/core/network"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/libp2p/go-libp2p/core/peerstore"
	ma "github.com/multiformats/go-multiaddr"
	manet "github.com/multiformats/go-multiaddr/net"

	"github.com/dep2p/go-fileswap/pkg/lib/log"
	"github.com/dep2p/go-fileswap/pkg/types"
)

func endpointOf(c network.Conn) types.Endpoint {
	return types.Endpoint{
		Dialer: c.Stat().Direction == network.DirOutbound,
		Local:  c.LocalMultiaddr(),
		Remote: c.RemoteMultiaddr(),
	}
}

func (h *Host) onConnected(_ network.Network, c network.Conn) {
	h.deliver(types.EvtConnectionEstablished{Peer: c.RemotePeer(), Endpoint: endpointOf(c)})
}

// onListen 新的监听地址；未指定地址展开为各网卡地址
func (h *Host) onListen(_ network.Network, addr ma.Multiaddr) {
	for _, a := range expandListenAddr(addr) {
		h.deliver(types.EvtNewListenAddr{Address: a})
	}
}

func expandListenAddr(addr ma.Multiaddr) []ma.Multiaddr {
	if !manet.IsIPUnspecified(addr) {
		return []ma.Multiaddr{addr}
	}
	ifaces, err := manet.InterfaceMultiaddrs()
	if err != nil {
		logger.Debug("获取网卡地址失败", "error", err)
		return []ma.Multiaddr{addr}
	}
	resolved, err := manet.ResolveUnspecifiedAddress(addr, ifaces)
	if err != nil || len(resolved) == 0 {
		return []ma.Multiaddr{addr}
	}
	return resolved
}

// busLoop 转发 identify 完成事件
//
// 事件本身只携带节点 ID，其余信息在 identify 完成时已写入地址簿。
func (h *Host) busLoop(sub event.Subscription) {
	for e := range sub.Out() {
		ev, ok := e.(event.EvtPeerIdentificationCompleted)
		if !ok {
			continue
		}
		h.deliver(identifiedFromPeerstore(h.host.Peerstore(), ev.Peer))
	}
}

// identifiedFromPeerstore 从地址簿读取 identify 结果
func identifiedFromPeerstore(ps peerstore.Peerstore, p peer.ID) types.EvtPeerIdentified {
	ev := types.EvtPeerIdentified{
		Peer:            p,
		AgentVersion:    peerstoreString(ps, p, "AgentVersion"),
		ProtocolVersion: peerstoreString(ps, p, "ProtocolVersion"),
		ListenAddrs:     ps.Addrs(p),
	}
	protos, err := ps.GetProtocols(p)
	if err != nil {
		logger.Debug("读取节点协议失败", "peer", log.TruncateID(p.String(), 8), "error", err)
	}
	for _, proto := range protos {
		ev.Protocols = append(ev.Protocols, string(proto))
	}
	return ev
}

func peerstoreString(ps peerstore.Peerstore, p peer.ID, key string) string {
	v, err := ps.Get(p, key)
	if err != nil {
		return ""
	}
	s, _ := v.(string)
	return s
}

// mdnsNotifee 把 mDNS 发现的节点转为事件
type mdnsNotifee struct {
	h *Host
}

// HandlePeerFound 实现 mdns.Notifee
func (n *mdnsNotifee) HandlePeerFound(pi peer.AddrInfo) {
	if pi.ID == n.h.host.ID() {
		return
	}
	logger.Debug("mDNS 发现节点", "peer", log.TruncateID(pi.ID.String(), 8), "addrs", len(pi.Addrs))
	n.h.deliver(types.EvtPeerDiscovered{Peer: pi.ID, Addrs: pi.Addrs})
}
