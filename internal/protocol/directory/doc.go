// Package directory 实现文件目录 gossip 公告的编解码
//
// 公告记录使用 protobuf 线格式：
//
//	message FileAnnouncement {
//	  string filename = 1;
//	  repeated bytes addrs = 2;   // multiaddr 二进制编码
//	}
//
// 编码后的记录再包一层 uvarint 长度前缀，作为 gossip 消息负载。
// 任一层解析失败都返回单一的解码错误，不返回部分结果。
package directory
