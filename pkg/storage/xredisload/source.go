package xredisload

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Source 从 Redis 读取字符串值。并发安全。
type Source struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// Option 定义 Source 可选配置函数类型。
type Option func(*Source)

// WithKeyPrefix 设置 Redis key 前缀，实际读取 prefix+key。
func WithKeyPrefix(prefix string) Option {
	return func(s *Source) {
		s.prefix = prefix
	}
}

// WithTTL 设置 Store 写入的过期时间，<= 0 表示不过期。
func WithTTL(ttl time.Duration) Option {
	return func(s *Source) {
		s.ttl = max(ttl, 0)
	}
}

// NewSource 创建 Source。
func NewSource(client redis.UniversalClient, opts ...Option) (*Source, error) {
	if client == nil {
		return nil, ErrNilClient
	}
	s := &Source{client: client}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// Load 执行 GET prefix+key。
// 键不存在时返回包装了 ErrKeyNotExist 的错误。
func (s *Source) Load(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", ErrEmptyKey
	}
	v, err := s.client.Get(ctx, s.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("%w: %s", ErrKeyNotExist, key)
	}
	if err != nil {
		return "", fmt.Errorf("xredisload: get %s: %w", key, err)
	}
	return v, nil
}

// Store 执行 SET prefix+key value，用于预置或回写数据源。
func (s *Source) Store(ctx context.Context, key, value string) error {
	if key == "" {
		return ErrEmptyKey
	}
	if err := s.client.Set(ctx, s.prefix+key, value, s.ttl).Err(); err != nil {
		return fmt.Errorf("xredisload: set %s: %w", key, err)
	}
	return nil
}

// Key 返回 key 在 Redis 中的完整名称。
func (s *Source) Key(key string) string {
	return s.prefix + key
}

// Client 返回底层的 redis.UniversalClient。
func (s *Source) Client() redis.UniversalClient {
	return s.client
}
