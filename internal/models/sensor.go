package models

import "time"

// SensorStatus 读数状态
type SensorStatus string

const (
	SensorNormal  SensorStatus = "normal"
	SensorWarning SensorStatus = "warning"
	SensorDanger  SensorStatus = "danger"
)

// SensorInput 原始录入数据
type SensorInput struct {
	TemperatureC    float64  `json:"temperature_c"`
	SmokePercent    float64  `json:"smoke_percent"`
	GasPpm          float64  `json:"gas_ppm"`
	HumidityPercent *float64 `json:"humidity_percent,omitempty"`
}

// SensorReading 一条带状态的传感器读数（创建后不可变）
type SensorReading struct {
	ID              string       `json:"id"`
	TemperatureC    float64      `json:"temperature_c"`
	SmokePercent    float64      `json:"smoke_percent"`
	GasPpm          float64      `json:"gas_ppm"`
	HumidityPercent *float64     `json:"humidity_percent,omitempty"`
	Status          SensorStatus `json:"status"`
	Timestamp       time.Time    `json:"timestamp"`
}

// RiskLevel 通知中的风险等级
type RiskLevel string

const (
	RiskHigh   RiskLevel = "High"
	RiskMedium RiskLevel = "Medium"
	RiskLow    RiskLevel = "Low"
)

// AlertStatus 通知发送结果
type AlertStatus string

const (
	AlertSent   AlertStatus = "sent"
	AlertFailed AlertStatus = "failed"
)

// AlertHistoryEntry 民防通知记录
type AlertHistoryEntry struct {
	ID             string        `json:"id"`
	Timestamp      time.Time     `json:"timestamp"`
	ProjectName    string        `json:"project_name"`
	RiskLevel      RiskLevel     `json:"risk_level"`
	SensorReadings SensorReading `json:"sensor_readings"`
	Status         AlertStatus   `json:"status"`
	Error          string        `json:"error,omitempty"`
}

// SeriesEvent 图表上标记的报警点
type SeriesEvent struct {
	ReadingID string       `json:"reading_id"`
	Status    SensorStatus `json:"status"`
	Label     string       `json:"label"`
}

// SeriesSample 可视化时间序列中的一个采样点
type SeriesSample struct {
	Time       time.Time      `json:"time"`
	Value      float64        `json:"value"`
	Event      *SeriesEvent   `json:"event,omitempty"`
	SensorData *SensorReading `json:"sensor_data,omitempty"`
}
