package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/urfave/cli/v3"

	"github.com/omeyang/agecache/pkg/config/xconf"
	"github.com/omeyang/agecache/pkg/observability/xlog"
	"github.com/omeyang/agecache/pkg/storage/xagecache"
)

// env 一次命令执行的运行环境。
type env struct {
	cfg      appConfig
	source   xconf.Config // 未指定 --config 时为 nil
	logger   xlog.LoggerWithLevel
	runID    string
	out      io.Writer
	registry *xagecache.Registry
	cleanup  func() error
}

// newEnv 加载配置、应用命令行覆盖并构建日志。调用方必须调用 close。
func newEnv(cmd *cli.Command) (*env, error) {
	cfg, source, err := loadAppConfig(cmd.String("config"))
	if err != nil {
		return nil, &usageError{msg: err.Error()}
	}
	applyFlags(cmd, &cfg)
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	b := xlog.New().
		SetOutput(cmd.Root().ErrWriter).
		SetLevelString(cfg.Log.Level).
		SetFormat(cfg.Log.Format)
	if cfg.Log.File != "" {
		b = b.SetRotation(cfg.Log.File)
	}
	logger, cleanup, err := b.Build()
	if err != nil {
		return nil, &usageError{msg: err.Error()}
	}

	e := &env{
		cfg:      cfg,
		source:   source,
		logger:   logger,
		runID:    uuid.NewString(),
		out:      cmd.Root().Writer,
		registry: xagecache.NewRegistry(),
		cleanup:  cleanup,
	}
	return e, nil
}

// applyFlags 用显式设置的命令行参数覆盖配置文件。
func applyFlags(cmd *cli.Command, cfg *appConfig) {
	if cmd.IsSet("log-level") {
		cfg.Log.Level = cmd.String("log-level")
	}
	if cmd.IsSet("log-format") {
		cfg.Log.Format = cmd.String("log-format")
	}
	if cmd.IsSet("name") {
		cfg.Cache.Name = cmd.String("name")
	}
	if cmd.IsSet("capacity") {
		cfg.Cache.Capacity = cmd.Int("capacity")
	}
	if cmd.IsSet("workers") {
		cfg.Workload.Workers = cmd.Int("workers")
	}
	if cmd.IsSet("ops") {
		cfg.Workload.Ops = cmd.Int("ops")
	}
	if cmd.IsSet("keys") {
		cfg.Workload.Keys = cmd.Int("keys")
	}
	if cmd.IsSet("redis-addr") {
		cfg.Redis.Addrs = cmd.StringSlice("redis-addr")
	}
	if cmd.IsSet("prefix") {
		cfg.Redis.Prefix = cmd.String("prefix")
	}
}

// newCache 按配置创建缓存并登记到 registry。
func (e *env) newCache() (*xagecache.Cache[string, string], error) {
	c := xagecache.New[string, string](e.cfg.Cache.Capacity,
		xagecache.WithName[string, string](e.cfg.Cache.Name),
		xagecache.WithLogger[string, string](e.logger.With(xlog.RunID(e.runID))))
	if c.Capacity() != e.cfg.Cache.Capacity {
		e.logger.Info(context.Background(), "capacity normalized",
			xlog.Component(c.Name()),
			xlog.Count(int64(c.Capacity())),
			xlog.RunID(e.runID))
	}
	if err := e.registry.Register(c.Name(), c); err != nil {
		return nil, fmt.Errorf("register cache %s: %w", c.Name(), err)
	}
	return c, nil
}

func (e *env) close() error {
	if e.cleanup == nil {
		return nil
	}
	return e.cleanup()
}

// withEnv 包装 Action：构建 env，执行 fn，并合并关闭错误。
func withEnv(fn func(ctx context.Context, cmd *cli.Command, e *env) error) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) (err error) {
		e, err := newEnv(cmd)
		if err != nil {
			return err
		}
		defer func() {
			err = errors.Join(err, e.close())
		}()
		return fn(ctx, cmd, e)
	}
}
