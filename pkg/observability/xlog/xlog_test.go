package xlog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferLogger(t *testing.T, format string, level Level) (LoggerWithLevel, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	logger, cleanup, err := New().SetOutput(&buf).SetFormat(format).SetLevel(level).Build()
	require.NoError(t, err)
	t.Cleanup(func() { _ = cleanup() })
	return logger, &buf
}

// =============================================================================
// Builder 测试
// =============================================================================

func TestBuilder_Defaults(t *testing.T) {
	logger, cleanup, err := New().Build()
	require.NoError(t, err)
	defer func() { _ = cleanup() }()

	assert.Equal(t, LevelInfo, logger.GetLevel())
	assert.False(t, logger.Enabled(context.Background(), LevelDebug))
	assert.True(t, logger.Enabled(context.Background(), LevelInfo))
}

func TestBuilder_FirstErrorWins(t *testing.T) {
	_, _, err := New().
		SetLevelString("verbose").
		SetFormat("xml").
		Build()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown level")
}

func TestBuilder_UnknownFormat(t *testing.T) {
	_, _, err := New().SetFormat("xml").Build()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown format")
}

func TestBuilder_EmptyFormatIsText(t *testing.T) {
	logger, buf := newBufferLogger(t, "", LevelInfo)
	logger.Info(context.Background(), "hello")
	assert.Contains(t, buf.String(), "msg=hello")
}

func TestBuilder_Rotation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agecache.log")

	logger, cleanup, err := New().
		SetRotation(path, WithMaxSize(1), WithMaxBackups(1), WithCompress(false)).
		SetFormat("json").
		Build()
	require.NoError(t, err)

	logger.Info(context.Background(), "rotated", Count(3))
	require.NoError(t, cleanup())
	require.NoError(t, cleanup(), "cleanup 可重复调用")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"rotated"`)
}

func TestBuilder_EmptyRotationFilename(t *testing.T) {
	_, _, err := New().SetRotation("  ").Build()
	assert.ErrorIs(t, err, ErrEmptyFilename)
}

// =============================================================================
// Logger 测试
// =============================================================================

func TestLogger_JSONAttrs(t *testing.T) {
	logger, buf := newBufferLogger(t, "json", LevelDebug)

	logger.Debug(context.Background(), "xagecache: entry evicted",
		Component("users"), Slot(3), Age(42))

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "DEBUG", record["level"])
	assert.Equal(t, "users", record[KeyComponent])
	assert.EqualValues(t, 3, record[KeySlot])
	assert.EqualValues(t, 42, record[KeyAge])
}

func TestLogger_LevelFiltering(t *testing.T) {
	logger, buf := newBufferLogger(t, "text", LevelWarn)
	ctx := context.Background()

	logger.Info(ctx, "dropped")
	assert.Empty(t, buf.String())

	logger.Warn(ctx, "kept")
	assert.Contains(t, buf.String(), "kept")

	logger.SetLevel(LevelError)
	buf.Reset()
	logger.Warn(ctx, "dropped again")
	assert.Empty(t, buf.String())
}

func TestLogger_WithSharesLevel(t *testing.T) {
	logger, buf := newBufferLogger(t, "text", LevelInfo)
	child := logger.With(Component("loader"))

	child.Debug(context.Background(), "hidden")
	assert.Empty(t, buf.String())

	logger.SetLevel(LevelDebug)
	child.Debug(context.Background(), "visible")
	assert.Contains(t, buf.String(), "component=loader")
	assert.Same(t, logger, logger.With())
}

func TestLogger_NilContext(t *testing.T) {
	logger, buf := newBufferLogger(t, "text", LevelInfo)
	//nolint:staticcheck // 测试 nil ctx 兜底
	logger.Error(nil, "boom", Err(errors.New("x")))
	assert.Contains(t, buf.String(), "error=x")
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestLogger_HandlerErrorCounted(t *testing.T) {
	logger, cleanup, err := New().SetOutput(failingWriter{}).Build()
	require.NoError(t, err)
	defer func() { _ = cleanup() }()

	logger.Info(context.Background(), "lost")
	xl, ok := logger.(*xlogger)
	require.True(t, ok)
	assert.Equal(t, uint64(1), xl.ErrorCount())
}

// =============================================================================
// Level / Attrs 测试
// =============================================================================

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
		ok   bool
	}{
		{"debug", LevelDebug, true},
		{" INFO ", LevelInfo, true},
		{"warning", LevelWarn, true},
		{"error", LevelError, true},
		{"trace", LevelInfo, false},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		assert.Equal(t, tt.ok, err == nil, tt.in)
	}
}

func TestLevel_String(t *testing.T) {
	assert.Equal(t, "DEBUG", LevelDebug.String())
	assert.Equal(t, "WARN", LevelWarn.String())
	assert.Equal(t, "INFO+2", Level(2).String())
}

func TestAttrs(t *testing.T) {
	assert.Equal(t, slog.Attr{}, Err(nil))
	assert.Equal(t, slog.String(KeyDuration, "1.5s"), Duration(1500*time.Millisecond))
	assert.Equal(t, slog.Int64(KeyCount, 7), Count(7))
	assert.Equal(t, slog.String(KeyOperation, "load"), Operation("load"))
	assert.Equal(t, slog.String(KeyRunID, "r1"), RunID("r1"))
}

// =============================================================================
// 全局 Logger 测试
// =============================================================================

func TestGlobal_SetDefault(t *testing.T) {
	prev := Default()
	t.Cleanup(func() { SetDefault(prev) })

	logger, buf := newBufferLogger(t, "text", LevelDebug)
	SetDefault(logger)
	SetDefault(nil)

	ctx := context.Background()
	Debug(ctx, "d")
	Info(ctx, "i")
	Warn(ctx, "w")
	Error(ctx, "e")

	out := buf.String()
	for _, msg := range []string{"msg=d", "msg=i", "msg=w", "msg=e"} {
		assert.Contains(t, out, msg)
	}
}
