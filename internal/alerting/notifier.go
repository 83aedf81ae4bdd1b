// Package alerting 危险读数的民防通知与通知历史
package alerting

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"firesafe-engine/internal/models"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Notification 发送给民防的通知内容
type Notification struct {
	AlertID       string               `json:"alert_id"`
	ProjectName   string               `json:"project_name"`
	RiskLevel     models.RiskLevel     `json:"risk_level"`
	SeverityScore float64              `json:"severity_score"`
	Reading       models.SensorReading `json:"sensor_readings"`
	Message       string               `json:"message"`
	IssuedAt      time.Time            `json:"issued_at"`
}

// Notifier 通知发送
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// CivilDefenseNotifier 通过 HTTP 推送到民防接口（不重试）
type CivilDefenseNotifier struct {
	httpClient *resty.Client
	path       string
	logger     *zap.Logger
}

// NewCivilDefenseNotifier 创建民防接口客户端
func NewCivilDefenseNotifier(baseURL, path, apiKey string, timeout time.Duration, logger *zap.Logger) *CivilDefenseNotifier {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if apiKey != "" {
		client.SetHeader("X-API-Key", apiKey)
	}

	return &CivilDefenseNotifier{
		httpClient: client,
		path:       path,
		logger:     logger,
	}
}

// Notify 发送通知，非 2xx 视为失败
func (c *CivilDefenseNotifier) Notify(ctx context.Context, n Notification) error {
	c.logger.Info("Sending civil defense notification",
		zap.String("alert_id", n.AlertID),
		zap.String("project_name", n.ProjectName),
		zap.String("risk_level", string(n.RiskLevel)),
	)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(n).
		Post(c.path)
	if err != nil {
		return fmt.Errorf("failed to call civil defense API: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("civil defense API returned status %d", resp.StatusCode())
	}
	return nil
}

// ErrSimulatedFailure 模拟发送失败
var ErrSimulatedFailure = errors.New("simulated network failure")

// SimulatedNotifier 无真实接口时使用，按 failureRate 随机失败
type SimulatedNotifier struct {
	mu          sync.Mutex
	rnd         *rand.Rand
	failureRate float64
	logger      *zap.Logger
}

// NewSimulatedNotifier 创建模拟通知器
func NewSimulatedNotifier(seed int64, failureRate float64, logger *zap.Logger) *SimulatedNotifier {
	return &SimulatedNotifier{
		rnd:         rand.New(rand.NewSource(seed)),
		failureRate: failureRate,
		logger:      logger,
	}
}

// Notify 实现 Notifier
func (s *SimulatedNotifier) Notify(ctx context.Context, n Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	fail := s.rnd.Float64() < s.failureRate
	s.mu.Unlock()

	if fail {
		return ErrSimulatedFailure
	}
	s.logger.Info("Simulated civil defense notification delivered",
		zap.String("alert_id", n.AlertID),
		zap.String("risk_level", string(n.RiskLevel)),
	)
	return nil
}
