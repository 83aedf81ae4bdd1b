package sensor

import (
	"time"

	"firesafe-engine/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Publisher 读数发布（事件总线）
type Publisher interface {
	Publish(reading models.SensorReading)
}

// Ingestor 读数录入：校验 → 分级 → 写历史 → 发布
type Ingestor struct {
	history   *History
	publisher Publisher
	now       func() time.Time
	newID     func() string
	logger    *zap.Logger
}

// NewIngestor 创建录入器
func NewIngestor(history *History, publisher Publisher, logger *zap.Logger) *Ingestor {
	return &Ingestor{
		history:   history,
		publisher: publisher,
		now:       time.Now,
		newID:     uuid.NewString,
		logger:    logger,
	}
}

// AddReading 录入一条读数；必须在事件循环内调用
func (i *Ingestor) AddReading(in models.SensorInput) (models.SensorReading, error) {
	if err := Validate(in); err != nil {
		i.logger.Warn("Rejected sensor reading", zap.Error(err))
		return models.SensorReading{}, err
	}

	reading := models.SensorReading{
		ID:              i.newID(),
		TemperatureC:    in.TemperatureC,
		SmokePercent:    in.SmokePercent,
		GasPpm:          in.GasPpm,
		HumidityPercent: copyFloat(in.HumidityPercent),
		Status:          Classify(in.TemperatureC, in.SmokePercent, in.GasPpm),
		Timestamp:       i.now().UTC(),
	}

	i.history.Add(reading)

	i.logger.Debug("Sensor reading ingested",
		zap.String("reading_id", reading.ID),
		zap.String("status", string(reading.Status)),
		zap.Float64("temperature_c", reading.TemperatureC),
		zap.Float64("smoke_percent", reading.SmokePercent),
		zap.Float64("gas_ppm", reading.GasPpm),
	)

	if i.publisher != nil {
		i.publisher.Publish(reading)
	}
	return reading, nil
}

// Restore 回放已持久化的读数（新的在前），只写历史不发布
func (i *Ingestor) Restore(readings []models.SensorReading) int {
	restored := 0
	for idx := len(readings) - 1; idx >= 0; idx-- {
		r := readings[idx]
		if r.ID == "" {
			continue
		}
		i.history.Add(r)
		restored++
	}
	return restored
}

// History 当前历史（副本）
func (i *Ingestor) History() []models.SensorReading {
	return i.history.List()
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
