// Package timeseries 实时图表使用的衰减信号缓冲
package timeseries

import (
	"fmt"
	"time"

	"firesafe-engine/internal/models"
	"firesafe-engine/internal/sensor"
)

const (
	// DefaultCapacity 保留最近 120 个采样点（1 Hz 即 2 分钟）
	DefaultCapacity = 120
	// DefaultDecay 每个 tick 的峰值衰减系数
	DefaultDecay = 0.9
)

// Buffer 滚动采样缓冲；只由事件循环访问
type Buffer struct {
	capacity int
	decay    float64
	samples  []models.SeriesSample
	spike    float64

	raw        float64
	rawReading *models.SensorReading
	pending    *models.SeriesEvent
}

// NewBuffer 创建缓冲；非法参数使用默认值
func NewBuffer(capacity int, decay float64) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if decay <= 0 || decay >= 1 {
		decay = DefaultDecay
	}
	return &Buffer{
		capacity: capacity,
		decay:    decay,
		samples:  make([]models.SeriesSample, 0, capacity),
	}
}

// Observe 记录最新读数的严重度；危险读数挂起一个事件标记
func (b *Buffer) Observe(r models.SensorReading) {
	reading := r
	b.raw = sensor.SeverityScore(r)
	b.rawReading = &reading

	if r.Status == models.SensorDanger {
		b.pending = &models.SeriesEvent{
			ReadingID: r.ID,
			Status:    r.Status,
			Label:     fmt.Sprintf("Danger: %.1f°C, smoke %.1f%%, gas %.0f ppm", r.TemperatureC, r.SmokePercent, r.GasPpm),
		}
	}
}

// OnReading 作为总线订阅者
func (b *Buffer) OnReading(r models.SensorReading) error {
	b.Observe(r)
	return nil
}

// Tick 生成一个采样点
func (b *Buffer) Tick(now time.Time) models.SeriesSample {
	value := b.spike * b.decay
	if b.raw > value {
		value = b.raw
	}
	b.spike = value

	sample := models.SeriesSample{
		Time:       now,
		Value:      value,
		Event:      b.pending,
		SensorData: b.rawReading,
	}
	b.raw = 0
	b.rawReading = nil
	b.pending = nil

	if len(b.samples) == b.capacity {
		copy(b.samples, b.samples[1:])
		b.samples = b.samples[:b.capacity-1]
	}
	b.samples = append(b.samples, sample)
	return sample
}

// Samples 副本，按时间先后
func (b *Buffer) Samples() []models.SeriesSample {
	out := make([]models.SeriesSample, len(b.samples))
	copy(out, b.samples)
	return out
}

// Len 当前采样点数
func (b *Buffer) Len() int { return len(b.samples) }
