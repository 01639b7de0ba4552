package protocolids

// FileExchange 文件交换直连协议
const FileExchange = "/file-exchange/1"

// ChatTopic 聊天 gossip 主题
const ChatTopic = "chat"

// FilesTopic 文件目录 gossip 主题
const FilesTopic = "files"

// AgentVersion identify 协议中上报的代理版本
const AgentVersion = "fileswap/0.1.0"

// MDNSServiceName 本地网络发现使用的服务名
const MDNSServiceName = "fileswap-mdns"

// ProtocolVersion identify 协议中上报的协议版本
const ProtocolVersion = "fileswap/1.0.0"
