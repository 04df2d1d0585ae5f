package xredisload

import (
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config Redis 连接配置，字段标签与 xconf 的 koanf 标签一致。
type Config struct {
	// Addrs Redis 地址列表，单个地址为单机模式，多个地址为集群模式。
	Addrs []string `koanf:"addrs"`

	// Password 认证密码。
	Password string `koanf:"password"`

	// DB 数据库编号，仅单机模式有效。
	DB int `koanf:"db"`

	// DialTimeout 建连超时，默认 5s。
	DialTimeout time.Duration `koanf:"dial_timeout"`

	// ReadTimeout 读超时，默认 3s。
	ReadTimeout time.Duration `koanf:"read_timeout"`

	// PoolSize 连接池大小，0 使用 go-redis 默认值。
	PoolSize int `koanf:"pool_size"`
}

// NewClient 根据配置创建 redis.UniversalClient。调用方负责 Close。
func NewClient(cfg Config) (redis.UniversalClient, error) {
	addrs := make([]string, 0, len(cfg.Addrs))
	for _, a := range cfg.Addrs {
		if a = strings.TrimSpace(a); a != "" {
			addrs = append(addrs, a)
		}
	}
	if len(addrs) == 0 {
		return nil, ErrEmptyAddr
	}

	return redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:       addrs,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: cfg.DialTimeout,
		ReadTimeout: cfg.ReadTimeout,
		PoolSize:    cfg.PoolSize,
	}), nil
}
