package sensor

import (
	"math/rand"

	"firesafe-engine/internal/models"

	"go.uber.org/zap"
)

// Simulator 模拟模式下周期性生成随机读数
type Simulator struct {
	ingestor   *Ingestor
	rnd        *rand.Rand
	dangerRate float64
	logger     *zap.Logger
}

// NewSimulator 创建模拟器；dangerRate 为生成危险读数的概率
func NewSimulator(ingestor *Ingestor, seed int64, dangerRate float64, logger *zap.Logger) *Simulator {
	return &Simulator{
		ingestor:   ingestor,
		rnd:        rand.New(rand.NewSource(seed)),
		dangerRate: dangerRate,
		logger:     logger,
	}
}

// Generate 生成一条随机输入（都在合法范围内）
func (s *Simulator) Generate() models.SensorInput {
	humidity := round1(30 + s.rnd.Float64()*40)
	if s.rnd.Float64() < s.dangerRate {
		return models.SensorInput{
			TemperatureC:    round1(61 + s.rnd.Float64()*40),
			SmokePercent:    round1(20 + s.rnd.Float64()*40),
			GasPpm:          round1(150 + s.rnd.Float64()*250),
			HumidityPercent: &humidity,
		}
	}
	return models.SensorInput{
		TemperatureC:    round1(20 + s.rnd.Float64()*30),
		SmokePercent:    round1(s.rnd.Float64() * 18),
		GasPpm:          round1(s.rnd.Float64() * 120),
		HumidityPercent: &humidity,
	}
}

// Step 生成并录入一条读数；必须在事件循环内调用
func (s *Simulator) Step() {
	if _, err := s.ingestor.AddReading(s.Generate()); err != nil {
		s.logger.Error("Simulated reading rejected", zap.Error(err))
	}
}

func round1(v float64) float64 {
	return float64(int(v*10+0.5)) / 10
}
