// Package storage 提供本地文件存储
//
// LocalFS 实现 interfaces.FileStore：
//   - CanRead: 路径存在、是普通文件且能以只读方式打开
//   - ReadFile: 读取全部内容
//   - WriteFile: 创建或覆盖文件（原子写入）
//
// 设置 Root 后，相对路径都相对于 Root 解析。
package storage
