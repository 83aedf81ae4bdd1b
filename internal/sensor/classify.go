// Package sensor 传感器读数的校验、分级与历史记录
package sensor

import (
	"math"

	"firesafe-engine/internal/models"
)

// 状态阈值（严格大于）
const (
	DangerTemperatureC = 60.0
	DangerSmokePercent = 30.0
	DangerGasPpm       = 200.0

	WarningTemperatureC = 45.0
	WarningSmokePercent = 15.0
	WarningGasPpm       = 100.0
)

// Classify 根据温度/烟雾/燃气判定状态
func Classify(temperatureC, smokePercent, gasPpm float64) models.SensorStatus {
	if temperatureC > DangerTemperatureC || smokePercent > DangerSmokePercent || gasPpm > DangerGasPpm {
		return models.SensorDanger
	}
	if temperatureC > WarningTemperatureC || smokePercent > WarningSmokePercent || gasPpm > WarningGasPpm {
		return models.SensorWarning
	}
	return models.SensorNormal
}

// SeverityScore 0-100 的严重度，危险阈值处为 50
func SeverityScore(r models.SensorReading) float64 {
	ratio := math.Max(r.TemperatureC/DangerTemperatureC,
		math.Max(r.SmokePercent/DangerSmokePercent, r.GasPpm/DangerGasPpm))
	score := 50 * ratio
	if score < 0 || math.IsNaN(score) {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// 风险分档下限；危险读数的严重度必然超过 50，因此最低为 Medium
const (
	RiskHighScore   = 75.0
	RiskMediumScore = 50.0
)

// RiskLevel 严重度分档
func RiskLevel(score float64) models.RiskLevel {
	switch {
	case score >= RiskHighScore:
		return models.RiskHigh
	case score >= RiskMediumScore:
		return models.RiskMedium
	default:
		return models.RiskLow
	}
}
