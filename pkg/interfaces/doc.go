// Package interfaces 定义协调循环依赖的外部能力接口
//
// Engine 封装网络引擎（传输、加密、多路复用、gossip、请求/响应）；
// FileStore 封装本地文件读写。二者都由协调循环独占使用。
package interfaces
