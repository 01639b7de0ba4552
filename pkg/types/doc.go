// Package types 定义 fileswap 公共类型
//
// 包括标识符别名、网络引擎事件（引擎 → 协调循环）以及调用方事件（协调循环 → 调用方）。
// 引擎事件是一个封闭的扁平变体集合，由协调循环中的单一 type switch 分派。
package types
