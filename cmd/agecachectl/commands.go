package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/dustin/go-humanize"
	"github.com/robfig/cron/v3"
	"github.com/sony/gobreaker/v2"
	"github.com/urfave/cli/v3"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"golang.org/x/sync/errgroup"

	"github.com/omeyang/agecache/pkg/config/xconf"
	"github.com/omeyang/agecache/pkg/observability/xlog"
	"github.com/omeyang/agecache/pkg/observability/xmetrics"
	"github.com/omeyang/agecache/pkg/storage/xagecache"
	"github.com/omeyang/agecache/pkg/storage/xredisload"
)

// exitError 表示需要非零退出码但已完成输出的场景。
type exitError struct {
	code int
}

func (e *exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

// usageError 表示参数或配置错误，退出码 2。
type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

// 创建所有子命令。
func createCommands() []*cli.Command {
	return []*cli.Command{
		createScenarioCommand(),
		createBenchCommand(),
		createSoakCommand(),
		createMemoCommand(),
	}
}

// workloadFlags bench 和 soak 共用的负载参数。
func workloadFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{Name: "workers", Aliases: []string{"w"}, Usage: "并发 worker 数"},
		&cli.IntFlag{Name: "keys", Aliases: []string{"k"}, Usage: "键空间大小"},
		&cli.Uint64Flag{Name: "seed", Usage: "访问序列种子，0 表示按 run_id 生成"},
	}
}

// =============================================================================
// scenario
// =============================================================================

func createScenarioCommand() *cli.Command {
	return &cli.Command{
		Name:  "scenario",
		Usage: "运行容量规整、淘汰和并发写入的验收场景",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "request", Usage: "构造时请求的容量", Value: 10},
		},
		Action: withEnv(func(ctx context.Context, cmd *cli.Command, e *env) error {
			return cmdScenario(ctx, e, cmd.Int("request"))
		}),
	}
}

func cmdScenario(ctx context.Context, e *env, request int) error {
	var evicted []string
	c := xagecache.New[string, int](request,
		xagecache.WithName[string, int]("scenario"),
		xagecache.WithLogger[string, int](e.logger),
		xagecache.WithOnEvicted(func(key string, _ int) { evicted = append(evicted, key) }))
	capacity := c.Capacity()
	fmt.Fprintf(e.out, "请求容量: %d -> 实际容量: %d\n", request, capacity)

	failed := 0
	check := func(name string, ok bool) {
		status := "PASS"
		if !ok {
			status = "FAIL"
			failed++
		}
		fmt.Fprintf(e.out, "  [%s] %s\n", status, name)
	}

	for i := range capacity {
		c.Add(fmt.Sprintf("key%d", i), i)
	}
	check(fmt.Sprintf("写入 %d 个不同键后全部存在", capacity), allPresent(c, capacity))
	check("values 长度等于容量", len(c.Values()) == capacity)
	check("表满之前没有淘汰", len(evicted) == 0)

	c.Add("extra", capacity)
	absent := 0
	for i := range capacity {
		if !c.Contains(fmt.Sprintf("key%d", i)) {
			absent++
		}
	}
	check("再写入一个键恰好淘汰一个旧键", absent == 1 && len(evicted) == 1)
	check("values 长度保持为容量", len(c.Values()) == capacity)
	if len(evicted) > 0 {
		fmt.Fprintf(e.out, "  被淘汰: %s\n", strings.Join(evicted, ","))
	}

	_, err := c.Get("never-added")
	check("从未写入的键返回 NotFound", errors.Is(err, xagecache.ErrNotFound))

	concurrent := xagecache.New[string, int](capacity)
	var g errgroup.Group
	for i := range capacity {
		g.Go(func() error {
			concurrent.Add(fmt.Sprintf("key%d", i), i)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	check(fmt.Sprintf("%d 个并发写入没有丢失", capacity), allPresent(concurrent, capacity))

	e.logger.Info(ctx, "scenario finished",
		xlog.RunID(e.runID),
		xlog.Count(int64(failed)))
	if failed > 0 {
		fmt.Fprintf(e.out, "失败: %d\n", failed)
		return &exitError{code: 1}
	}
	fmt.Fprintln(e.out, "全部通过")
	return nil
}

func allPresent(c *xagecache.Cache[string, int], n int) bool {
	for i := range n {
		if !c.Contains(fmt.Sprintf("key%d", i)) {
			return false
		}
	}
	return true
}

// =============================================================================
// bench
// =============================================================================

func createBenchCommand() *cli.Command {
	flags := append(workloadFlags(),
		&cli.IntFlag{Name: "ops", Aliases: []string{"n"}, Usage: "每个 worker 的操作次数"},
		&cli.BoolFlag{Name: "metrics", Usage: "输出 OpenTelemetry 指标"},
	)
	return &cli.Command{
		Name:  "bench",
		Usage: "执行固定次数的并发负载并输出统计",
		Flags: flags,
		Action: withEnv(func(ctx context.Context, cmd *cli.Command, e *env) error {
			return cmdBench(ctx, e, cmd.Uint64("seed"), cmd.Bool("metrics"))
		}),
	}
}

func cmdBench(ctx context.Context, e *env, seed uint64, showMetrics bool) (err error) {
	c, err := e.newCache()
	if err != nil {
		return err
	}

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { err = errors.Join(err, mp.Shutdown(context.WithoutCancel(ctx))) }()

	reg, err := xagecache.RegisterMetrics(c, xmetrics.WithMeterProvider(mp))
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, reg.Unregister()) }()

	p := newPicker(e.seed(seed), e.cfg.Workload)
	var n counts
	start := time.Now()
	if err := runWorkload(ctx, c, p, e.cfg.Workload.Ops, &n); err != nil {
		return err
	}
	elapsed := time.Since(start)

	fmt.Fprintf(e.out, "run_id: %s  seed: %d  workers: %d\n", e.runID, p.seed, e.cfg.Workload.Workers)
	fmt.Fprint(e.out, formatThroughput(n.total(), elapsed))
	fmt.Fprint(e.out, formatStats(c.Stats()))
	if showMetrics {
		if err := writeMetrics(ctx, e.out, reader); err != nil {
			return err
		}
	}

	e.logger.Info(ctx, "bench finished",
		xlog.RunID(e.runID),
		xlog.Component(c.Name()),
		xlog.Count(int64(n.total())),
		xlog.Duration(elapsed))
	return nil
}

// seed 返回访问序列种子，flag 为 0 时由 run_id 派生。
func (e *env) seed(flag uint64) uint64 {
	if flag != 0 {
		return flag
	}
	return xxhash.Sum64String(e.runID)
}

// =============================================================================
// soak
// =============================================================================

func createSoakCommand() *cli.Command {
	flags := append(workloadFlags(),
		&cli.DurationFlag{Name: "duration", Aliases: []string{"d"}, Usage: "持续时间", Value: 30 * time.Second},
		&cli.DurationFlag{Name: "report", Aliases: []string{"r"}, Usage: "统计输出间隔，最小 1s", Value: 5 * time.Second},
	)
	return &cli.Command{
		Name:  "soak",
		Usage: "持续施加负载，定期输出统计；--config 文件变更时热更新日志级别",
		Flags: flags,
		Action: withEnv(func(ctx context.Context, cmd *cli.Command, e *env) error {
			return cmdSoak(ctx, e, cmd.Uint64("seed"), cmd.Duration("duration"), cmd.Duration("report"))
		}),
	}
}

func cmdSoak(ctx context.Context, e *env, seed uint64, duration, report time.Duration) error {
	if duration <= 0 {
		return &usageError{msg: fmt.Sprintf("--duration 必须为正数: %s", duration)}
	}
	if report < time.Second {
		return &usageError{msg: fmt.Sprintf("--report 不能小于 1s: %s", report)}
	}

	c, err := e.newCache()
	if err != nil {
		return err
	}

	var n counts
	sched := cron.New()
	if _, err := sched.AddFunc("@every "+report.String(), func() {
		fmt.Fprintf(e.out, "[%s] 操作: %s\n", time.Now().Format(time.TimeOnly), humanize.Comma(clampOps(n.total())))
		fmt.Fprint(e.out, formatRegistry(e.registry))
	}); err != nil {
		return fmt.Errorf("schedule report: %w", err)
	}
	sched.Start()
	defer func() { <-sched.Stop().Done() }()

	if e.source != nil {
		w, err := xconf.Watch(e.source, e.reloadLogLevel)
		if err != nil {
			return err
		}
		defer func() { _ = w.Stop() }()
	}

	e.logger.Info(ctx, "soak started",
		xlog.RunID(e.runID),
		xlog.Component(c.Name()),
		xlog.Duration(duration))

	runCtx, cancel := context.WithTimeout(ctx, duration)
	defer cancel()
	start := time.Now()
	if err := runWorkload(runCtx, c, newPicker(e.seed(seed), e.cfg.Workload), 0, &n); err != nil {
		return err
	}
	elapsed := time.Since(start)

	// 等待进行中的报告结束后再输出汇总
	<-sched.Stop().Done()
	fmt.Fprint(e.out, formatThroughput(n.total(), elapsed))
	fmt.Fprint(e.out, formatStats(c.Stats()))
	return nil
}

// reloadLogLevel 是配置文件变更回调，只热更新 log.level。
func (e *env) reloadLogLevel(cfg xconf.Config, err error) {
	ctx := context.Background()
	if err != nil {
		e.logger.Warn(ctx, "config reload failed", xlog.Err(err))
		return
	}
	var lc logConfig
	if err := cfg.Unmarshal("log", &lc); err != nil {
		e.logger.Warn(ctx, "config reload failed", xlog.Err(err))
		return
	}
	level, err := xlog.ParseLevel(lc.Level)
	if err != nil {
		e.logger.Warn(ctx, "invalid log level in config", xlog.Err(err))
		return
	}
	e.logger.SetLevel(level)
	e.logger.Info(ctx, "log level reloaded", slog.String("level", level.String()))
}

// =============================================================================
// memo
// =============================================================================

func createMemoCommand() *cli.Command {
	return &cli.Command{
		Name:      "memo",
		Usage:     "以 Redis 为数据源通过缓存读取键",
		ArgsUsage: "<key> [key...]",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{Name: "redis-addr", Usage: "Redis 地址，可重复指定"},
			&cli.StringFlag{Name: "prefix", Usage: "Redis key 前缀"},
			&cli.StringSliceFlag{Name: "set", Usage: "读取前写入数据源，格式 key=value"},
			&cli.IntFlag{Name: "rounds", Usage: "重复读取的轮数", Value: 2},
		},
		Action: withEnv(func(ctx context.Context, cmd *cli.Command, e *env) error {
			keys := cmd.Args().Slice()
			if len(keys) == 0 {
				return &usageError{msg: "memo 至少需要一个 key"}
			}
			return cmdMemo(ctx, e, keys, cmd.StringSlice("set"), cmd.Int("rounds"))
		}),
	}
}

func cmdMemo(ctx context.Context, e *env, keys, seeds []string, rounds int) error {
	if rounds <= 0 {
		return &usageError{msg: fmt.Sprintf("--rounds 必须为正数: %d", rounds)}
	}
	pairs, err := parsePairs(seeds)
	if err != nil {
		return err
	}

	client, err := xredisload.NewClient(e.cfg.Redis.Config)
	if err != nil {
		return &usageError{msg: err.Error()}
	}
	defer func() { _ = client.Close() }()

	src, err := xredisload.NewSource(client, xredisload.WithKeyPrefix(e.cfg.Redis.Prefix))
	if err != nil {
		return err
	}
	for _, kv := range pairs {
		if err := src.Store(ctx, kv[0], kv[1]); err != nil {
			return err
		}
	}

	c, err := e.newCache()
	if err != nil {
		return err
	}
	observer, err := xmetrics.NewOTelObserver()
	if err != nil {
		return err
	}
	loader, err := xagecache.NewLoader(c, src.Load, e.loaderOptions(observer)...)
	if err != nil {
		return err
	}

	failed := 0
	for round := 1; round <= rounds; round++ {
		fmt.Fprintf(e.out, "第 %d 轮:\n", round)
		for _, key := range keys {
			v, err := loader.Load(ctx, key)
			switch {
			case err == nil:
				fmt.Fprintf(e.out, "  %s = %s\n", key, v)
			case errors.Is(err, xagecache.ErrNotFound):
				fmt.Fprintf(e.out, "  %s: 不存在\n", key)
			default:
				failed++
				fmt.Fprintf(e.out, "  %s: 错误: %v\n", key, err)
			}
		}
	}

	ls := loader.Stats()
	fmt.Fprintf(e.out, "回源: %d  合并: %d  失败: %d\n", ls.Loads, ls.Shared, ls.Failures)
	fmt.Fprint(e.out, formatStats(c.Stats()))
	if failed > 0 {
		return &exitError{code: 1}
	}
	return nil
}

func (e *env) loaderOptions(observer xmetrics.Observer) []xagecache.LoaderOption[string, string] {
	lc := e.cfg.Loader
	opts := []xagecache.LoaderOption[string, string]{
		xagecache.WithLoadTimeout[string, string](lc.Timeout),
		xagecache.WithLoadRetry[string, string](lc.Attempts, lc.RetryDelay),
		xagecache.WithLoaderObserver[string, string](observer),
		xagecache.WithLoaderLogger[string, string](e.logger.With(xlog.RunID(e.runID))),
	}
	if lc.BreakerFailures > 0 {
		threshold := lc.BreakerFailures
		opts = append(opts, xagecache.WithLoadBreaker[string, string](gobreaker.Settings{
			Timeout: lc.BreakerTimeout,
			ReadyToTrip: func(c gobreaker.Counts) bool {
				return c.ConsecutiveFailures >= threshold
			},
		}))
	}
	return opts
}

// parsePairs 解析 key=value 列表。
func parsePairs(items []string) ([][2]string, error) {
	out := make([][2]string, 0, len(items))
	for _, item := range items {
		k, v, ok := strings.Cut(item, "=")
		if !ok || k == "" {
			return nil, &usageError{msg: fmt.Sprintf("--set 格式应为 key=value: %q", item)}
		}
		out = append(out, [2]string{k, v})
	}
	return out, nil
}
