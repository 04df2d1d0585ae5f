package main

import (
	"fmt"
	"time"

	"github.com/omeyang/agecache/pkg/config/xconf"
	"github.com/omeyang/agecache/pkg/storage/xredisload"
)

// appConfig agecachectl 的配置文件结构，对应 --config 指定的 YAML/JSON 文件。
type appConfig struct {
	Cache    cacheConfig    `koanf:"cache"`
	Log      logConfig      `koanf:"log"`
	Workload workloadConfig `koanf:"workload"`
	Loader   loaderConfig   `koanf:"loader"`
	Redis    redisConfig    `koanf:"redis"`
}

type cacheConfig struct {
	Name     string `koanf:"name"`
	Capacity int    `koanf:"capacity"`
}

type logConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	// File 非空时按大小轮转写入文件。
	File string `koanf:"file"`
}

type workloadConfig struct {
	Workers int `koanf:"workers"`
	// Ops 每个 worker 的操作次数。
	Ops int `koanf:"ops"`
	// Keys 键空间大小。
	Keys int `koanf:"keys"`
	// HotKeys 热点键数量，HotPercent% 的访问落在热点键上。
	HotKeys    int `koanf:"hot_keys"`
	HotPercent int `koanf:"hot_percent"`
	// ReadPercent 读操作占比，其余为 Add/Set/Remove。
	ReadPercent int `koanf:"read_percent"`
}

type loaderConfig struct {
	Timeout    time.Duration `koanf:"timeout"`
	Attempts   uint          `koanf:"attempts"`
	RetryDelay time.Duration `koanf:"retry_delay"`
	// BreakerFailures 连续失败多少次后熔断，0 表示不启用熔断。
	BreakerFailures uint32        `koanf:"breaker_failures"`
	BreakerTimeout  time.Duration `koanf:"breaker_timeout"`
}

type redisConfig struct {
	xredisload.Config `koanf:",squash"`

	Prefix string `koanf:"prefix"`
}

func defaultAppConfig() appConfig {
	return appConfig{
		Cache: cacheConfig{Name: "agecachectl", Capacity: 256},
		Log:   logConfig{Level: "info", Format: "text"},
		Workload: workloadConfig{
			Workers:     8,
			Ops:         10000,
			Keys:        1024,
			HotKeys:     64,
			HotPercent:  80,
			ReadPercent: 90,
		},
		Loader: loaderConfig{
			Timeout:        time.Second,
			Attempts:       3,
			RetryDelay:     50 * time.Millisecond,
			BreakerTimeout: 10 * time.Second,
		},
		Redis: redisConfig{
			Config: xredisload.Config{Addrs: []string{"127.0.0.1:6379"}},
		},
	}
}

// loadAppConfig 以默认值为底加载配置文件，path 为空时只返回默认值。
func loadAppConfig(path string) (appConfig, xconf.Config, error) {
	cfg := defaultAppConfig()
	if path == "" {
		return cfg, nil, nil
	}

	src, err := xconf.New(path)
	if err != nil {
		return cfg, nil, err
	}
	if err := src.Unmarshal("", &cfg); err != nil {
		return cfg, nil, err
	}
	return cfg, src, nil
}

func (c appConfig) validate() error {
	w := c.Workload
	switch {
	case c.Cache.Name == "":
		return &usageError{msg: "cache.name 不能为空"}
	case w.Workers <= 0:
		return &usageError{msg: fmt.Sprintf("workload.workers 必须为正数: %d", w.Workers)}
	case w.Ops < 0:
		return &usageError{msg: fmt.Sprintf("workload.ops 不能为负数: %d", w.Ops)}
	case w.Keys <= 0:
		return &usageError{msg: fmt.Sprintf("workload.keys 必须为正数: %d", w.Keys)}
	case w.HotKeys < 0 || w.HotKeys > w.Keys:
		return &usageError{msg: fmt.Sprintf("workload.hot_keys 超出范围 [0, %d]: %d", w.Keys, w.HotKeys)}
	case !isPercent(w.HotPercent):
		return &usageError{msg: fmt.Sprintf("workload.hot_percent 超出范围 [0, 100]: %d", w.HotPercent)}
	case !isPercent(w.ReadPercent):
		return &usageError{msg: fmt.Sprintf("workload.read_percent 超出范围 [0, 100]: %d", w.ReadPercent)}
	}
	return nil
}

func isPercent(v int) bool {
	return v >= 0 && v <= 100
}
