// agecachectl 是 xagecache 的命令行演示与压测工具。
//
// 用法:
//
//	agecachectl [全局选项] <命令> [命令参数]
//
// 全局选项:
//
//	-c, --config      YAML/JSON 配置文件
//	    --log-level   日志级别 (debug/info/warn/error)，覆盖配置文件
//	    --log-format  日志格式 (text/json)
//	    --name        缓存名称
//	    --capacity    缓存容量（小于 16 时使用 32）
//
// 命令:
//
//	scenario   运行容量规整、淘汰和并发写入的验收场景
//	bench      执行固定次数的并发负载并输出统计
//	soak       持续施加负载，定期输出统计
//	memo       以 Redis 为数据源通过缓存读取键
//
// 退出码:
//
//	0: 成功
//	1: 执行失败（scenario 检查失败、memo 回源出错等）
//	2: 参数或配置错误
//
// 示例:
//
//	agecachectl scenario
//	agecachectl --capacity 1024 bench -w 16 -n 100000 --metrics
//	agecachectl -c agecache.yaml soak -d 10m -r 30s
//	agecachectl memo --redis-addr 127.0.0.1:6379 --set u1=alice u1 u2
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/urfave/cli/v3"
)

// 版本信息（可通过 -ldflags 注入）。
var (
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	setupSignalHandler(cancel)

	code := run(ctx, os.Args, os.Stdout, os.Stderr)
	cancel()
	os.Exit(code)
}

// createApp 创建 CLI 应用。
func createApp(stdout, stderr io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "agecachectl",
		Usage:     "固定容量按年龄淘汰缓存的演示与压测工具",
		Version:   fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildTime),
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "YAML/JSON 配置文件路径",
			},
			&cli.StringFlag{Name: "log-level", Usage: "日志级别 (debug/info/warn/error)"},
			&cli.StringFlag{Name: "log-format", Usage: "日志格式 (text/json)"},
			&cli.StringFlag{Name: "name", Usage: "缓存名称"},
			&cli.IntFlag{Name: "capacity", Usage: "缓存容量"},
		},
		Commands: createCommands(),
		// 退出码统一由 run 映射，禁止 urfave/cli 直接 os.Exit
		ExitErrHandler: func(_ context.Context, cmd *cli.Command, err error) {
			if _, ok := err.(cli.ExitCoder); ok {
				fmt.Fprintln(cmd.Root().ErrWriter, err)
			}
		},
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	app := createApp(stdout, stderr)

	err := app.Run(ctx, args)
	if err == nil {
		return 0
	}

	var exitErr *exitError
	if errors.As(err, &exitErr) {
		return exitErr.code
	}
	var usageErr *usageError
	if errors.As(err, &usageErr) {
		fmt.Fprintf(stderr, "参数错误: %v\n", usageErr)
		return 2
	}
	if isCLIUsageError(err) {
		fmt.Fprintf(stderr, "参数错误: %v\n", err)
		return 2
	}
	fmt.Fprintf(stderr, "错误: %v\n", err)
	return 1
}

// isCLIUsageError 识别 urfave/cli 产生的参数解析错误。
// 框架没有导出错误类型，只能按消息前缀匹配。
func isCLIUsageError(err error) bool {
	msg := err.Error()
	for _, prefix := range []string{
		"flag provided but not defined",
		"invalid value",
		"No help topic for",
		"flag needs an argument",
	} {
		if strings.HasPrefix(msg, prefix) {
			return true
		}
	}
	return false
}

// setupSignalHandler 第一次信号优雅取消，第二次信号强制退出（退出码 130）。
func setupSignalHandler(cancel context.CancelFunc) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()

		<-sigCh
		signal.Stop(sigCh)
		os.Exit(130)
	}()
}
