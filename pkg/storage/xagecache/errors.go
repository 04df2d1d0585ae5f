package xagecache

import "errors"

// =============================================================================
// Cache 相关错误
// =============================================================================

var (
	// ErrNotFound 表示没有已占用槽位匹配该键。
	// LoadFunc 也应返回包装了 ErrNotFound 的错误来表示数据源中不存在该键，
	// Loader 不会重试此类错误，熔断器也不会将其计为失败。
	ErrNotFound = errors.New("xagecache: key not found")
)

// =============================================================================
// Registry 相关错误
// =============================================================================

var (
	// ErrEmptyName 表示注册时缓存名称为空。
	ErrEmptyName = errors.New("xagecache: empty cache name")

	// ErrDuplicateName 表示同名缓存已注册。
	ErrDuplicateName = errors.New("xagecache: cache name already registered")

	// ErrNilSource 表示注册的统计来源为 nil。
	ErrNilSource = errors.New("xagecache: nil stats source")
)

// =============================================================================
// Loader 相关错误
// =============================================================================

var (
	// ErrNilCache 表示传入的缓存为 nil。
	ErrNilCache = errors.New("xagecache: nil cache")

	// ErrNilLoadFunc 表示回源函数为 nil。
	ErrNilLoadFunc = errors.New("xagecache: nil load function")

	// ErrLoadPanic 表示回源函数发生了 panic。
	// singleflight DoChan 会在新 goroutine 中重新 panic，导致进程崩溃，
	// 因此 Loader 在回源函数外层 recover 并转为此错误。
	ErrLoadPanic = errors.New("xagecache: load function panicked")
)
