// Package protocolids 定义 fileswap 使用的协议 ID 与 gossip 主题名
package protocolids
