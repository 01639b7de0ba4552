// Package fileexchange 实现文件交换直连协议的帧编解码
//
// 协议 ID 为 /file-exchange/1，每个流上只承载一次请求和一次响应：
//
//	请求方: [uvarint 长度][文件名 UTF-8]  → 关闭写端
//	响应方: [uvarint 长度][文件内容]      → 关闭写端
//
// 长度前缀使用 unsigned varint（multiformats/go-varint，最小编码）。
// 请求帧最大 1,000,000 字节，响应帧最大 500,000,000 字节；
// 长度为 0 的帧视为流意外结束（io.ErrUnexpectedEOF）。
// 超过上限的帧在读取负载前即被拒绝，不会被截断。
package fileexchange
