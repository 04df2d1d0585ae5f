package xmetrics

import "errors"

var (
	// ErrCreateInstrument 表示创建 OTel 仪表失败。
	ErrCreateInstrument = errors.New("xmetrics: create instrument failed")

	// ErrNilSnapshot 表示 RegisterCache 收到 nil 快照函数。
	ErrNilSnapshot = errors.New("xmetrics: nil snapshot function")
)
