// Package identity 提供节点身份管理
//
// 节点身份是一个 Ed25519 私钥，Peer ID 由其公钥派生。
// 私钥可以持久化为 PEM 文件（类型 "LIBP2P PRIVATE KEY"，
// 内容为 libp2p 的 protobuf 序列化私钥），以便重启后保持相同的 Peer ID。
//
// 加载优先级：
//  1. 已存在的密钥文件
//  2. 文件不存在且允许自动生成时，生成并保存
//  3. 未配置密钥文件时，生成临时密钥
package identity
