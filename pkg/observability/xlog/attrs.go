package xlog

import (
	"log/slog"
	"time"
)

// =============================================================================
// 常用属性 Key 常量
// =============================================================================

const (
	// KeyError 错误字段
	KeyError = "error"

	// KeyDuration 耗时字段
	KeyDuration = "duration"

	// KeyCount 计数字段
	KeyCount = "count"

	// KeyComponent 组件名称字段
	KeyComponent = "component"

	// KeyOperation 操作名称字段
	KeyOperation = "operation"

	// KeySlot 缓存槽位下标字段
	KeySlot = "slot"

	// KeyAge 缓存槽位年龄字段
	KeyAge = "age"

	// KeyRunID 一次运行的唯一标识
	KeyRunID = "run_id"
)

// Err 创建错误属性，err 为 nil 时返回空属性（会被 slog 忽略）
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// Duration 创建人类可读的耗时属性（如 "1.5s"）
func Duration(d time.Duration) slog.Attr {
	return slog.String(KeyDuration, d.String())
}

// Component 创建组件名属性
func Component(name string) slog.Attr {
	return slog.String(KeyComponent, name)
}

// Operation 创建操作名属性
func Operation(name string) slog.Attr {
	return slog.String(KeyOperation, name)
}

// Count 创建计数属性
func Count(n int64) slog.Attr {
	return slog.Int64(KeyCount, n)
}

// Slot 创建槽位下标属性
func Slot(idx int) slog.Attr {
	return slog.Int(KeySlot, idx)
}

// Age 创建槽位年龄属性
func Age(age uint64) slog.Attr {
	return slog.Uint64(KeyAge, age)
}

// RunID 创建运行标识属性
func RunID(id string) slog.Attr {
	return slog.String(KeyRunID, id)
}
