// Package xagecache 提供固定容量、按年龄淘汰的进程内键值缓存。
//
// # 核心特性
//
//   - 固定槽位表：构造时一次性分配 N 个槽位，之后原地复用，不再分配/释放
//   - 年龄淘汰：每次操作都会让整张表的所有槽位年龄 +1，写入/触达时归零；
//     表满时由 Add 淘汰年龄最大的槽位（同龄取下标最小者）
//   - 并发安全：整张表由一把 sync.RWMutex 保护，不使用分段锁
//   - 泛型支持：键类型必须满足 comparable，使用 == 判等
//
// # 容量
//
// 请求容量小于 16（默认容量 32 的一半）时静默替换为 32；
// 大于 16,777,216 时静默截断。容量在对象生命周期内不可变，见 [Cache.Capacity]。
//
// # 锁语义
//
// 除 Reset 外，每个操作由两个独立的临界区组成：
//  1. 老化阶段：持有写锁，所有槽位年龄 +1，然后释放
//  2. 操作阶段：Add/Set/Remove 持写锁；Get/Contains/Values 持读锁
//
// 两个阶段之间存在窗口期，其他调用方的写入可能穿插其中。
// 只有每个阶段本身是原子的，单次调用整体不是原子的。
//
// # 重复键
//
// Add 不做重复键检查。同一个键可以同时存在于多个槽位，
// Get/Set/Remove/Contains 均只作用于槽位顺序中第一个匹配的已占用槽位。
// 需要"读穿透且不重复写入"语义时使用 [Loader]。
//
// # 错误
//
// 只有 Get 会失败，返回 [ErrNotFound]，调用方应将其视为可恢复的未命中。
// Set/Remove 对不存在的键是静默的空操作。
//
// # 注意事项
//
//   - Values 在读锁下会把访问到的每个已占用槽位年龄归零（读即触达），
//     因此槽位年龄使用原子变量存储
//   - 淘汰回调和日志在释放锁之后执行，回调内可以安全地调用 Cache 方法
//   - Len/Entries/Stats/Capacity 为诊断接口，不触发老化
package xagecache
