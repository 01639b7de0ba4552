// Package mocks 提供测试用的模拟实现
//
// 所有 mock 都支持通过 XxxFunc 字段覆盖行为，并记录调用，可在多个 goroutine 中安全使用。
package mocks
