package xmetrics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

type ctxKey struct{}

type nilSpanObserver struct{}

func (nilSpanObserver) Start(context.Context, SpanOptions) (context.Context, Span) {
	return nil, nil
}

func TestStart_NilObserver(t *testing.T) {
	ctx, span := Start(context.Background(), nil, SpanOptions{Component: "xagecache"})
	assert.NotNil(t, ctx)
	assert.IsType(t, NoopSpan{}, span)
	span.End(Result{})
}

func TestStart_NilContext(t *testing.T) {
	//nolint:staticcheck // 测试 nil ctx 兜底
	ctx, span := Start(nil, NoopObserver{}, SpanOptions{})
	assert.NotNil(t, ctx)
	assert.NotNil(t, span)
}

func TestStart_ObserverReturnsNil(t *testing.T) {
	parent := context.WithValue(context.Background(), ctxKey{}, "v")
	ctx, span := Start(parent, nilSpanObserver{}, SpanOptions{})
	assert.Equal(t, parent, ctx)
	assert.IsType(t, NoopSpan{}, span)
}

func TestAttrs(t *testing.T) {
	assert.Equal(t, Attr{Key: "k", Value: "v"}, String("k", "v"))
	assert.Equal(t, Attr{Key: "hit", Value: true}, Bool("hit", true))
	assert.Equal(t, Attr{Key: "n", Value: 3}, Int("n", 3))
	assert.Equal(t, Attr{Key: "u", Value: uint64(7)}, Uint64("u", 7))
}
