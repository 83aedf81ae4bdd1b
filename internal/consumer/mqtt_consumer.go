package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"firesafe-engine/internal/auth"
	"firesafe-engine/internal/common/mqtt"
	"firesafe-engine/internal/models"

	"go.uber.org/zap"
)

// DefaultSensorTopic 传感器上报主题（+ 为设备 ID）
const DefaultSensorTopic = "sensors/+/readings"

const ingestTimeout = 5 * time.Second

// Ingester 读数录入入口
type Ingester interface {
	AddReading(ctx context.Context, in models.SensorInput) (models.SensorReading, error)
}

// Subscriber MQTT 订阅能力（common/mqtt.Client 实现）
type Subscriber interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Unsubscribe(topics ...string) error
}

// sensorPayload 设备上报格式
type sensorPayload struct {
	TemperatureC    *float64 `json:"temperature_c"`
	SmokePercent    *float64 `json:"smoke_percent"`
	GasPpm          *float64 `json:"gas_ppm"`
	HumidityPercent *float64 `json:"humidity_percent,omitempty"`
}

// MQTTConsumer 订阅设备上报并以系统管理员身份录入
type MQTTConsumer struct {
	client   Subscriber
	ingester Ingester
	topic    string
	qos      byte
	logger   *zap.Logger
}

// NewMQTTConsumer 创建 MQTT 消费者
func NewMQTTConsumer(client Subscriber, ingester Ingester, topic string, qos byte, logger *zap.Logger) *MQTTConsumer {
	if topic == "" {
		topic = DefaultSensorTopic
	}
	return &MQTTConsumer{
		client:   client,
		ingester: ingester,
		topic:    topic,
		qos:      qos,
		logger:   logger,
	}
}

// Start 订阅主题
func (c *MQTTConsumer) Start() error {
	if err := c.client.Subscribe(c.topic, c.qos, c.HandleMessage); err != nil {
		return err
	}
	c.logger.Info("MQTT sensor consumer started", zap.String("topic", c.topic))
	return nil
}

// Stop 取消订阅
func (c *MQTTConsumer) Stop() error {
	return c.client.Unsubscribe(c.topic)
}

// HandleMessage 解析并录入一条上报
func (c *MQTTConsumer) HandleMessage(topic string, payload []byte) error {
	var p sensorPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return fmt.Errorf("failed to unmarshal sensor payload: %w", err)
	}
	if p.TemperatureC == nil || p.SmokePercent == nil || p.GasPpm == nil {
		return fmt.Errorf("sensor payload missing required fields")
	}

	ctx, cancel := context.WithTimeout(auth.WithPrincipal(context.Background(), auth.SystemAdmin), ingestTimeout)
	defer cancel()

	reading, err := c.ingester.AddReading(ctx, models.SensorInput{
		TemperatureC:    *p.TemperatureC,
		SmokePercent:    *p.SmokePercent,
		GasPpm:          *p.GasPpm,
		HumidityPercent: p.HumidityPercent,
	})
	if err != nil {
		return fmt.Errorf("failed to ingest reading from %s: %w", deviceFromTopic(topic), err)
	}

	c.logger.Debug("Sensor reading received via MQTT",
		zap.String("device_id", deviceFromTopic(topic)),
		zap.String("reading_id", reading.ID),
		zap.String("status", string(reading.Status)),
	)
	return nil
}

// deviceFromTopic sensors/{device}/readings → device
func deviceFromTopic(topic string) string {
	parts := strings.Split(topic, "/")
	if len(parts) >= 3 && parts[0] == "sensors" {
		return parts[1]
	}
	return topic
}
