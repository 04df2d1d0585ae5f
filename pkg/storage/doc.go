// Package storage 提供数据存储相关的子包。
//
// 子包列表：
//   - xagecache: 固定槽位数、按年龄淘汰的进程内缓存，以及旁路回源 Loader
//   - xredisload: 以 Redis 为数据源的 xagecache 回源函数
//
// 设计原则：
//   - 缓存本身只做同步、有界的内存操作，I/O 只出现在回源路径上
//   - 统计以 Observable 指标暴露，热路径上不创建跨度
package storage
