package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omeyang/agecache/pkg/storage/xagecache"
)

// syncBuffer 并发安全的输出缓冲。
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func runCLI(t *testing.T, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	var out, errOut syncBuffer
	code = run(context.Background(), append([]string{"agecachectl"}, args...), &out, &errOut)
	return code, out.String(), errOut.String()
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "agecache.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// =============================================================================
// scenario
// =============================================================================

func TestScenario(t *testing.T) {
	code, out, _ := runCLI(t, "scenario")
	require.Equal(t, 0, code, out)
	assert.Contains(t, out, "请求容量: 10 -> 实际容量: 32")
	assert.Contains(t, out, "被淘汰: key0")
	assert.Contains(t, out, "全部通过")
	assert.NotContains(t, out, "FAIL")
}

func TestScenario_Request(t *testing.T) {
	code, out, _ := runCLI(t, "scenario", "--request", "20")
	require.Equal(t, 0, code, out)
	assert.Contains(t, out, "请求容量: 20 -> 实际容量: 20")
}

// =============================================================================
// bench
// =============================================================================

func TestBench(t *testing.T) {
	code, out, stderr := runCLI(t, "--capacity", "32", "--name", "bench",
		"bench", "-w", "4", "-n", "500", "-k", "128", "--seed", "42", "--metrics")
	require.Equal(t, 0, code, stderr)

	assert.Contains(t, out, "seed: 42  workers: 4")
	assert.Contains(t, out, "操作: 2,000")
	assert.Contains(t, out, "缓存: bench")
	assert.Contains(t, out, "最大大小: 32")
	assert.Contains(t, out, "agecache.cache.capacity{cache=bench} 32")
	assert.Contains(t, stderr, "bench finished")
}

func TestBench_ConfigFile(t *testing.T) {
	path := writeConfig(t, `
cache:
  name: fromfile
  capacity: 64
log:
  level: warn
workload:
  workers: 2
  ops: 100
  keys: 32
  hot_keys: 8
`)
	code, out, stderr := runCLI(t, "-c", path, "bench")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, out, "缓存: fromfile")
	assert.Contains(t, out, "最大大小: 64")
	assert.Contains(t, out, "操作: 200")
	assert.NotContains(t, stderr, "bench finished", "info suppressed at warn level")
}

func TestBench_InvalidArgs(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"zero workers", []string{"bench", "-w", "0"}},
		{"bad log level", []string{"--log-level", "loud", "bench"}},
		{"missing config", []string{"-c", "/nonexistent/agecache.yaml", "bench"}},
		{"unknown flag", []string{"bench", "--bogus"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, stderr := runCLI(t, tt.args...)
			assert.Equal(t, 2, code, stderr)
		})
	}
}

func TestBench_InvalidConfigValue(t *testing.T) {
	path := writeConfig(t, "workload:\n  read_percent: 150\n")
	code, _, stderr := runCLI(t, "-c", path, "bench")
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "read_percent")
}

// =============================================================================
// soak
// =============================================================================

func TestSoak(t *testing.T) {
	code, out, stderr := runCLI(t, "--capacity", "16", "soak", "-d", "200ms", "-r", "1s", "-w", "2")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, out, "操作:")
	assert.Contains(t, out, "最大大小: 16")
	assert.Contains(t, stderr, "soak started")
}

func TestSoak_InvalidArgs(t *testing.T) {
	code, _, _ := runCLI(t, "soak", "-r", "10ms")
	assert.Equal(t, 2, code)

	code, _, _ = runCLI(t, "soak", "-d", "0s")
	assert.Equal(t, 2, code)
}

func TestSoak_ReportsAndReloadsLogLevel(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping slow soak test in short mode")
	}
	path := writeConfig(t, "log:\n  level: info\n")

	var out, errOut syncBuffer
	done := make(chan int, 1)
	go func() {
		done <- run(context.Background(),
			[]string{"agecachectl", "-c", path, "soak", "-d", "1500ms", "-r", "1s", "-w", "2"},
			&out, &errOut)
	}()

	time.Sleep(300 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: debug\n"), 0o600))

	select {
	case code := <-done:
		require.Equal(t, 0, code, errOut.String())
	case <-time.After(10 * time.Second):
		t.Fatal("soak did not finish")
	}
	assert.Contains(t, errOut.String(), "log level reloaded")
	assert.Contains(t, out.String(), "缓存列表:")
}

// =============================================================================
// memo
// =============================================================================

func TestMemo(t *testing.T) {
	mr := miniredis.RunT(t)
	require.NoError(t, mr.Set("user:u3", "carol"))

	code, out, stderr := runCLI(t, "memo",
		"--redis-addr", mr.Addr(), "--prefix", "user:",
		"--set", "u1=alice", "u1", "u2", "u3")
	require.Equal(t, 0, code, stderr)

	assert.Contains(t, out, "u1 = alice")
	assert.Contains(t, out, "u2: 不存在")
	assert.Contains(t, out, "u3 = carol")
	// 第二轮 u1/u3 命中缓存，u2 再次回源
	assert.Contains(t, out, "回源: 4  合并: 0  失败: 0")

	v, err := mr.Get("user:u1")
	require.NoError(t, err)
	assert.Equal(t, "alice", v)
}

func TestMemo_InvalidArgs(t *testing.T) {
	mr := miniredis.RunT(t)
	tests := []struct {
		name string
		args []string
	}{
		{"no keys", []string{"memo", "--redis-addr", mr.Addr()}},
		{"bad pair", []string{"memo", "--redis-addr", mr.Addr(), "--set", "novalue", "k"}},
		{"zero rounds", []string{"memo", "--redis-addr", mr.Addr(), "--rounds", "0", "k"}},
		{"empty addr", []string{"memo", "--redis-addr", " ", "k"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, stderr := runCLI(t, tt.args...)
			assert.Equal(t, 2, code, stderr)
		})
	}
}

func TestMemo_BackendDown(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	path := writeConfig(t, fmt.Sprintf(`
loader:
  attempts: 1
  timeout: 200ms
redis:
  addrs: [%q]
  dial_timeout: 100ms
`, addr))
	code, out, stderr := runCLI(t, "-c", path, "memo", "--rounds", "1", "k")
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "k: 错误:")
	assert.Contains(t, stderr, "load failed")
}

// =============================================================================
// 辅助函数
// =============================================================================

func TestParsePairs(t *testing.T) {
	got, err := parsePairs([]string{"a=1", "b=", "c=x=y"})
	require.NoError(t, err)
	assert.Equal(t, [][2]string{{"a", "1"}, {"b", ""}, {"c", "x=y"}}, got)

	_, err = parsePairs([]string{"=v"})
	var usageErr *usageError
	assert.ErrorAs(t, err, &usageErr)
}

func TestIsCLIUsageError(t *testing.T) {
	assert.True(t, isCLIUsageError(fmt.Errorf("flag provided but not defined: -x")))
	assert.True(t, isCLIUsageError(fmt.Errorf(`invalid value "a" for flag -capacity`)))
	assert.False(t, isCLIUsageError(fmt.Errorf("connection refused")))
}

func TestFormatStats(t *testing.T) {
	out := formatStats(xagecache.Stats{Name: "users", Capacity: 32, Len: 8, Hits: 4, Misses: 1, Adds: 9, Evictions: 2})
	assert.Contains(t, out, "缓存: users")
	assert.Contains(t, out, "命中率:   80.0%")
	assert.Contains(t, out, "淘汰:     2")
}

func TestFormatRegistry(t *testing.T) {
	r := xagecache.NewRegistry()
	assert.Equal(t, "没有注册的缓存\n", formatRegistry(r))

	c := xagecache.New[string, int](16, xagecache.WithName[string, int]("users"))
	require.NoError(t, r.Register(c.Name(), c))
	out := formatRegistry(r)
	assert.True(t, strings.HasPrefix(out, "缓存列表:\n"))
	assert.Contains(t, out, "len=0/16")
}

func TestFormatThroughput(t *testing.T) {
	assert.Equal(t, "操作: 12,344  耗时: 2s  吞吐: 6,172 ops/s\n", formatThroughput(12344, 2*time.Second))
	assert.Contains(t, formatThroughput(0, 0), "吞吐: 0 ops/s")
}

func TestVersion(t *testing.T) {
	code, out, _ := runCLI(t, "--version")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, Version)
}

func TestExitError(t *testing.T) {
	assert.Equal(t, "exit status 3", (&exitError{code: 3}).Error())
}
