package service

import (
	"context"
	"time"

	"firesafe-engine/internal/alerting"
	"firesafe-engine/internal/auth"
	"firesafe-engine/internal/bus"
	"firesafe-engine/internal/loop"
	"firesafe-engine/internal/models"
	"firesafe-engine/internal/sensor"
	"firesafe-engine/internal/timeseries"

	"go.uber.org/zap"
)

// SensorService 传感器入口：所有状态都在事件循环内读写
type SensorService struct {
	loop       *loop.Loop
	ingestor   *sensor.Ingestor
	bus        *bus.EventBus
	series     *timeseries.Buffer
	dispatcher *alerting.Dispatcher
	logger     *zap.Logger
}

// NewSensorService 创建传感器服务
func NewSensorService(
	l *loop.Loop,
	ingestor *sensor.Ingestor,
	eventBus *bus.EventBus,
	series *timeseries.Buffer,
	dispatcher *alerting.Dispatcher,
	logger *zap.Logger,
) *SensorService {
	return &SensorService{
		loop:       l,
		ingestor:   ingestor,
		bus:        eventBus,
		series:     series,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// AddReading 录入一条读数；调用方必须具备 admin 能力
func (s *SensorService) AddReading(ctx context.Context, in models.SensorInput) (models.SensorReading, error) {
	if err := s.authorize(ctx, "add_reading"); err != nil {
		return models.SensorReading{}, err
	}

	var reading models.SensorReading
	err := s.loop.Call(ctx, func() error {
		var err error
		reading, err = s.ingestor.AddReading(in)
		return err
	})
	return reading, err
}

// authorize 传感器管理入口统一的 admin 检查，先于任何状态访问
func (s *SensorService) authorize(ctx context.Context, operation string) error {
	principal := auth.FromContext(ctx)
	if err := auth.Require(principal, auth.CapabilityAdmin); err != nil {
		s.logger.Warn("Sensor operation rejected: missing capability",
			zap.String("operation", operation),
			zap.String("subject", principal.Subject),
		)
		return err
	}
	return nil
}

// Restore 回放历史读数（不触发订阅者）
func (s *SensorService) Restore(ctx context.Context, readings []models.SensorReading) (int, error) {
	if err := s.authorize(ctx, "restore"); err != nil {
		return 0, err
	}
	var restored int
	err := s.loop.Call(ctx, func() error {
		restored = s.ingestor.Restore(readings)
		return nil
	})
	return restored, err
}

// Subscribe 订阅读数流，返回取消函数
func (s *SensorService) Subscribe(sub bus.Subscriber) func() {
	return s.bus.Subscribe(sub)
}

// History 最近的读数（最新在前）
func (s *SensorService) History(ctx context.Context) ([]models.SensorReading, error) {
	if err := s.authorize(ctx, "history"); err != nil {
		return nil, err
	}
	var out []models.SensorReading
	err := s.loop.Call(ctx, func() error {
		out = s.ingestor.History()
		return nil
	})
	return out, err
}

// Alerts 民防通知历史（最新在前）
func (s *SensorService) Alerts(ctx context.Context) ([]models.AlertHistoryEntry, error) {
	if err := s.authorize(ctx, "alerts"); err != nil {
		return nil, err
	}
	var out []models.AlertHistoryEntry
	err := s.loop.Call(ctx, func() error {
		out = s.dispatcher.History()
		return nil
	})
	return out, err
}

// DispatchState 通知调度器当前状态
func (s *SensorService) DispatchState(ctx context.Context) (alerting.State, error) {
	if err := s.authorize(ctx, "dispatch_state"); err != nil {
		return "", err
	}
	var state alerting.State
	err := s.loop.Call(ctx, func() error {
		state = s.dispatcher.State()
		return nil
	})
	return state, err
}

// Series 可视化时间序列（最旧在前）
func (s *SensorService) Series(ctx context.Context) ([]models.SeriesSample, error) {
	if err := s.authorize(ctx, "series"); err != nil {
		return nil, err
	}
	var out []models.SeriesSample
	err := s.loop.Call(ctx, func() error {
		out = s.series.Samples()
		return nil
	})
	return out, err
}

// tick 采样一次时间序列；在事件循环内调用
func (s *SensorService) tick(now time.Time) {
	sample := s.series.Tick(now)
	if sample.Event != nil {
		s.logger.Debug("Series event sampled",
			zap.String("reading_id", sample.Event.ReadingID),
			zap.Float64("value", sample.Value),
		)
	}
}
