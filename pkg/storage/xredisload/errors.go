package xredisload

import (
	"errors"
	"fmt"

	"github.com/omeyang/agecache/pkg/storage/xagecache"
)

var (
	// ErrNilClient 表示传入的客户端为 nil。
	ErrNilClient = errors.New("xredisload: nil client")

	// ErrEmptyKey 表示传入的 key 为空字符串。
	ErrEmptyKey = errors.New("xredisload: empty key")

	// ErrEmptyAddr 表示 Config 中没有地址。
	ErrEmptyAddr = errors.New("xredisload: empty redis address")

	// ErrKeyNotExist 表示 Redis 中不存在该键，errors.Is(err, xagecache.ErrNotFound) 成立。
	ErrKeyNotExist = fmt.Errorf("xredisload: key does not exist: %w", xagecache.ErrNotFound)
)
