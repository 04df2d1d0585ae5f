package main

import (
	"context"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/omeyang/agecache/pkg/storage/xagecache"
)

// formatStats 以 xdbg cache 命令的格式输出单个缓存统计。
func formatStats(s xagecache.Stats) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "缓存: %s\n", s.Name)
	fmt.Fprintf(&sb, "  类型:     %s\n", "agecache")
	fmt.Fprintf(&sb, "  命中:     %d\n", s.Hits)
	fmt.Fprintf(&sb, "  未命中:   %d\n", s.Misses)
	fmt.Fprintf(&sb, "  命中率:   %.1f%%\n", s.HitRatio()*100)
	fmt.Fprintf(&sb, "  写入:     %d\n", s.Adds)
	fmt.Fprintf(&sb, "  淘汰:     %d\n", s.Evictions)
	fmt.Fprintf(&sb, "  当前大小: %d\n", s.Len)
	fmt.Fprintf(&sb, "  最大大小: %d\n", s.Capacity)
	return sb.String()
}

// formatRegistry 输出 registry 中全部缓存的一行摘要。
func formatRegistry(r *xagecache.Registry) string {
	names := r.List()
	if len(names) == 0 {
		return "没有注册的缓存\n"
	}

	var sb strings.Builder
	sb.WriteString("缓存列表:\n")
	for _, name := range names {
		s, ok := r.Get(name)
		if !ok {
			continue
		}
		fmt.Fprintf(&sb, "  %-20s [agecache] hits=%d misses=%d hitRate=%.1f%% len=%d/%d\n",
			s.Name, s.Hits, s.Misses, s.HitRatio()*100, s.Len, s.Capacity)
	}
	return sb.String()
}

func formatThroughput(ops uint64, elapsed time.Duration) string {
	rate := float64(0)
	if elapsed > 0 {
		rate = float64(ops) / elapsed.Seconds()
	}
	return fmt.Sprintf("操作: %s  耗时: %s  吞吐: %s ops/s\n",
		humanize.Comma(clampOps(ops)), elapsed.Round(time.Millisecond), humanize.CommafWithDigits(rate, 0))
}

func clampOps(v uint64) int64 {
	if v > math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(v)
}

// writeMetrics 采集 reader 中的指标并逐行输出 name{attrs} value。
func writeMetrics(ctx context.Context, w io.Writer, reader *sdkmetric.ManualReader) error {
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		return fmt.Errorf("collect metrics: %w", err)
	}

	enc := attribute.DefaultEncoder()
	fmt.Fprintln(w, "指标:")
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				for _, dp := range data.DataPoints {
					fmt.Fprintf(w, "  %s{%s} %d\n", m.Name, dp.Attributes.Encoded(enc), dp.Value)
				}
			case metricdata.Gauge[int64]:
				for _, dp := range data.DataPoints {
					fmt.Fprintf(w, "  %s{%s} %d\n", m.Name, dp.Attributes.Encoded(enc), dp.Value)
				}
			}
		}
	}
	return nil
}
