package xrotate

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// 指标名称常量
const (
	metricNameRollovers   = "xrotate.chunk.rollovers"
	metricNameLockBusy    = "xrotate.chunk.lock_busy"
	metricNamePruned      = "xrotate.chunk.pruned"
	metricNamePruneErrors = "xrotate.chunk.prune_errors"
	metricNameOpenErrors  = "xrotate.chunk.open_errors"

	// attrFile 分块基础文件名（不含目录），基数受控
	attrFile = "file"
)

// chunkMetrics 分块轮转指标。nil 接收者上的方法均为空操作。
type chunkMetrics struct {
	rollovers   metric.Int64Counter
	lockBusy    metric.Int64Counter
	pruned      metric.Int64Counter
	pruneErrors metric.Int64Counter
	openErrors  metric.Int64Counter
	attrs       metric.MeasurementOption
}

// newChunkMetrics 创建指标收集器，mp 为 nil 时返回 nil
func newChunkMetrics(mp metric.MeterProvider, baseName string) (*chunkMetrics, error) {
	if mp == nil {
		return nil, nil
	}
	meter := mp.Meter("xrotate", metric.WithInstrumentationVersion("1.0.0"))

	m := &chunkMetrics{
		attrs: metric.WithAttributes(attribute.String(attrFile, baseName)),
	}
	var err error
	if m.rollovers, err = meter.Int64Counter(metricNameRollovers,
		metric.WithDescription("完成的分块轮转次数"),
		metric.WithUnit("{rollover}"),
	); err != nil {
		return nil, err
	}
	if m.lockBusy, err = meter.Int64Counter(metricNameLockBusy,
		metric.WithDescription("锁被占用而放弃轮转或无锁打开的次数"),
		metric.WithUnit("{attempt}"),
	); err != nil {
		return nil, err
	}
	if m.pruned, err = meter.Int64Counter(metricNamePruned,
		metric.WithDescription("清理删除的分块文件数"),
		metric.WithUnit("{file}"),
	); err != nil {
		return nil, err
	}
	if m.pruneErrors, err = meter.Int64Counter(metricNamePruneErrors,
		metric.WithDescription("清理时删除失败的分块文件数"),
		metric.WithUnit("{file}"),
	); err != nil {
		return nil, err
	}
	if m.openErrors, err = meter.Int64Counter(metricNameOpenErrors,
		metric.WithDescription("分块文件打开失败次数"),
		metric.WithUnit("{error}"),
	); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *chunkMetrics) add(counter metric.Int64Counter, n int64) {
	if m == nil || n == 0 {
		return
	}
	counter.Add(context.Background(), n, m.attrs)
}

func (m *chunkMetrics) recordRollover() {
	if m != nil {
		m.add(m.rollovers, 1)
	}
}

func (m *chunkMetrics) recordLockBusy() {
	if m != nil {
		m.add(m.lockBusy, 1)
	}
}

func (m *chunkMetrics) recordPrune(deleted, failed int) {
	if m != nil {
		m.add(m.pruned, int64(deleted))
		m.add(m.pruneErrors, int64(failed))
	}
}

func (m *chunkMetrics) recordOpenError() {
	if m != nil {
		m.add(m.openErrors, 1)
	}
}
