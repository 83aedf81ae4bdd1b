package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"firesafe-engine/internal/models"
	"firesafe-engine/internal/store"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const (
	// DefaultReadingsStream 读数镜像的 Stream
	DefaultReadingsStream = "sensor:readings:stream"
	// DefaultStreamMaxLen Stream 近似长度上限
	DefaultStreamMaxLen = 10000

	mirrorQueueSize = 256
	publishTimeout  = 3 * time.Second
)

// StreamMirror 把读数镜像到 Redis Streams，供外部系统消费
// OnReading 在事件循环内执行，只入队；Run 在独立 goroutine 写 Redis
type StreamMirror struct {
	client *redis.Client
	stream string
	maxLen int64
	queue  chan models.SensorReading
	logger *zap.Logger
}

// NewStreamMirror 创建镜像
func NewStreamMirror(client *redis.Client, stream string, maxLen int64, logger *zap.Logger) *StreamMirror {
	if stream == "" {
		stream = DefaultReadingsStream
	}
	return &StreamMirror{
		client: client,
		stream: stream,
		maxLen: maxLen,
		queue:  make(chan models.SensorReading, mirrorQueueSize),
		logger: logger,
	}
}

// OnReading 作为总线订阅者；队列满时丢弃并记录
func (m *StreamMirror) OnReading(r models.SensorReading) error {
	select {
	case m.queue <- r:
	default:
		m.logger.Warn("Stream mirror queue full, dropping reading", zap.String("reading_id", r.ID))
	}
	return nil
}

// Run 持续写入直到 ctx 结束
func (m *StreamMirror) Run(ctx context.Context) error {
	m.logger.Info("Stream mirror started", zap.String("stream", m.stream))
	for {
		select {
		case <-ctx.Done():
			m.logger.Info("Stream mirror stopped")
			return nil
		case r := <-m.queue:
			if err := m.publish(ctx, r); err != nil {
				m.logger.Error("Failed to mirror reading",
					zap.String("reading_id", r.ID),
					zap.Error(err),
				)
				// 继续处理，不中断
			}
		}
	}
}

// Recent 从 Stream 读取最近 count 条读数（新的在前），无法解析的消息跳过
func (m *StreamMirror) Recent(ctx context.Context, count int64) ([]models.SensorReading, error) {
	msgs, err := store.ReadLatest(ctx, m.client, m.stream, count)
	if err != nil {
		return nil, fmt.Errorf("failed to read stream %s: %w", m.stream, err)
	}

	readings := make([]models.SensorReading, 0, len(msgs))
	for _, msg := range msgs {
		data, _ := msg.Values["data"].(string)
		var r models.SensorReading
		if err := json.Unmarshal([]byte(data), &r); err != nil {
			m.logger.Warn("Skipping malformed stream message", zap.String("message_id", msg.ID), zap.Error(err))
			continue
		}
		readings = append(readings, r)
	}
	return readings, nil
}

func (m *StreamMirror) publish(ctx context.Context, r models.SensorReading) error {
	data, err := json.Marshal(r)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	_, err = store.PublishToStream(ctx, m.client, m.stream, m.maxLen, map[string]interface{}{
		"reading_id":    r.ID,
		"status":        string(r.Status),
		"temperature_c": r.TemperatureC,
		"smoke_percent": r.SmokePercent,
		"gas_ppm":       r.GasPpm,
		"timestamp":     r.Timestamp.Unix(),
		"data":          data,
	})
	return err
}
