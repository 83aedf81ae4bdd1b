package sensor

import (
	"math"

	"firesafe-engine/internal/apperr"
	"firesafe-engine/internal/models"
)

type bounds struct {
	min, max float64
	unit     string
}

var (
	temperatureBounds = bounds{-50, 200, "°C"}
	smokeBounds       = bounds{0, 100, "%"}
	gasBounds         = bounds{0, 10000, "ppm"}
	humidityBounds    = bounds{0, 100, "%"}
)

// Validate 范围检查，超范围直接拒绝（不截断）
func Validate(in models.SensorInput) error {
	if err := check("temperature_c", in.TemperatureC, temperatureBounds); err != nil {
		return err
	}
	if err := check("smoke_percent", in.SmokePercent, smokeBounds); err != nil {
		return err
	}
	if err := check("gas_ppm", in.GasPpm, gasBounds); err != nil {
		return err
	}
	if in.HumidityPercent != nil {
		if err := check("humidity_percent", *in.HumidityPercent, humidityBounds); err != nil {
			return err
		}
	}
	return nil
}

func check(field string, v float64, b bounds) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return apperr.NewValidation(field, "must be a finite number")
	}
	if v < b.min || v > b.max {
		return apperr.NewValidation(field, "must be between %g and %g %s, got %g", b.min, b.max, b.unit, v)
	}
	return nil
}
