package alerting

import (
	"context"
	"fmt"
	"time"

	"firesafe-engine/internal/apperr"
	"firesafe-engine/internal/models"
	"firesafe-engine/internal/sensor"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultProjectName 未配置项目时使用的名称
const DefaultProjectName = "Sensor Simulation"

// State 通知状态机
type State string

const (
	StateIdle        State = "IDLE"
	StateDispatching State = "DISPATCHING"
	StateSent        State = "SENT"
	StateFailed      State = "FAILED"
)

const (
	seenCapacity  = 512
	notifyTimeout = 15 * time.Second
)

// AlertListener 通知结果的接收方（看板、日志）
type AlertListener interface {
	OnAlert(entry models.AlertHistoryEntry)
}

// AlertListenerFunc 函数适配器
type AlertListenerFunc func(entry models.AlertHistoryEntry)

// OnAlert 实现 AlertListener
func (f AlertListenerFunc) OnAlert(entry models.AlertHistoryEntry) { f(entry) }

// Dispatcher 监听读数流，危险读数触发一次民防通知
// OnReading 与完成回调都在事件循环内执行
type Dispatcher struct {
	projectName string
	notifier    Notifier
	history     *HistoryStore
	delay       time.Duration
	listeners   []AlertListener

	// async 在循环外执行发送；post 把完成回调投递回循环
	async func(func())
	post  func(func())

	ctx    context.Context
	cancel context.CancelFunc

	seen     map[string]struct{}
	seenFIFO []string
	inFlight int
	state    State

	now    func() time.Time
	newID  func() string
	logger *zap.Logger
}

// NewDispatcher 创建通知调度器；post 为事件循环的投递函数
func NewDispatcher(projectName string, notifier Notifier, history *HistoryStore, delay time.Duration, post func(func()), logger *zap.Logger) *Dispatcher {
	if projectName == "" {
		projectName = DefaultProjectName
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		projectName: projectName,
		notifier:    notifier,
		history:     history,
		delay:       delay,
		async:       func(f func()) { go f() },
		post:        post,
		ctx:         ctx,
		cancel:      cancel,
		seen:        make(map[string]struct{}),
		state:       StateIdle,
		now:         time.Now,
		newID:       uuid.NewString,
		logger:      logger,
	}
}

// AddListener 注册结果接收方
func (d *Dispatcher) AddListener(l AlertListener) {
	d.listeners = append(d.listeners, l)
}

// Stop 取消尚未完成的发送（记录为 failed）
func (d *Dispatcher) Stop() {
	d.cancel()
}

// State 当前状态
func (d *Dispatcher) State() State { return d.state }

// History 通知历史
func (d *Dispatcher) History() []models.AlertHistoryEntry { return d.history.List() }

// OnReading 作为总线订阅者；非危险读数和重复投递的读数直接忽略
func (d *Dispatcher) OnReading(r models.SensorReading) error {
	if r.Status != models.SensorDanger {
		return nil
	}
	if _, dup := d.seen[r.ID]; dup {
		d.logger.Debug("Danger reading already dispatched", zap.String("reading_id", r.ID))
		return nil
	}
	d.markSeen(r.ID)

	score := sensor.SeverityScore(r)
	n := Notification{
		AlertID:       d.newID(),
		ProjectName:   d.projectName,
		RiskLevel:     sensor.RiskLevel(score),
		SeverityScore: score,
		Reading:       r,
		Message: fmt.Sprintf("Fire danger detected at %s: temperature %.1f°C, smoke %.1f%%, gas %.0f ppm",
			d.projectName, r.TemperatureC, r.SmokePercent, r.GasPpm),
		IssuedAt: d.now().UTC(),
	}

	d.inFlight++
	d.state = StateDispatching
	d.logger.Warn("Danger reading observed, dispatching civil defense notification",
		zap.String("alert_id", n.AlertID),
		zap.String("reading_id", r.ID),
		zap.String("risk_level", string(n.RiskLevel)),
	)

	d.async(func() {
		err := d.send(n)
		d.post(func() { d.complete(n, err) })
	})
	return nil
}

// send 模拟网络延迟后发送；在循环外执行
func (d *Dispatcher) send(n Notification) error {
	if d.delay > 0 {
		timer := time.NewTimer(d.delay)
		select {
		case <-timer.C:
		case <-d.ctx.Done():
			timer.Stop()
			return d.ctx.Err()
		}
	}
	ctx, cancel := context.WithTimeout(d.ctx, notifyTimeout)
	defer cancel()
	return d.notifier.Notify(ctx, n)
}

func (d *Dispatcher) complete(n Notification, sendErr error) {
	entry := models.AlertHistoryEntry{
		ID:             n.AlertID,
		Timestamp:      n.IssuedAt,
		ProjectName:    n.ProjectName,
		RiskLevel:      n.RiskLevel,
		SensorReadings: n.Reading,
		Status:         models.AlertSent,
	}
	d.state = StateSent
	if sendErr != nil {
		failure := &apperr.DispatchFailure{AlertID: n.AlertID, Cause: sendErr}
		entry.Status = models.AlertFailed
		entry.Error = sendErr.Error()
		d.state = StateFailed
		d.logger.Error("Civil defense notification failed", zap.Error(failure))
	} else {
		d.logger.Info("Civil defense notification sent", zap.String("alert_id", n.AlertID))
	}

	d.history.Append(entry)

	for _, l := range d.listeners {
		l.OnAlert(entry)
	}

	d.inFlight--
	if d.inFlight == 0 {
		d.state = StateIdle
	}
}

func (d *Dispatcher) markSeen(id string) {
	if len(d.seenFIFO) >= seenCapacity {
		oldest := d.seenFIFO[0]
		d.seenFIFO = d.seenFIFO[1:]
		delete(d.seen, oldest)
	}
	d.seen[id] = struct{}{}
	d.seenFIFO = append(d.seenFIFO, id)
}

// LogListener 把通知结果写日志
type LogListener struct {
	logger *zap.Logger
}

// NewLogListener 创建日志接收方
func NewLogListener(logger *zap.Logger) *LogListener {
	return &LogListener{logger: logger}
}

// OnAlert 实现 AlertListener
func (l *LogListener) OnAlert(entry models.AlertHistoryEntry) {
	l.logger.Info("Alert confirmation",
		zap.String("alert_id", entry.ID),
		zap.String("status", string(entry.Status)),
		zap.String("risk_level", string(entry.RiskLevel)),
		zap.String("project_name", entry.ProjectName),
	)
}
