// Package bus 进程内读数发布/订阅
package bus

import (
	"fmt"
	"sync"

	"firesafe-engine/internal/models"

	"go.uber.org/zap"
)

// Subscriber 读数订阅者
type Subscriber interface {
	OnReading(reading models.SensorReading) error
}

// SubscriberFunc 函数适配器
type SubscriberFunc func(reading models.SensorReading) error

// OnReading 实现 Subscriber
func (f SubscriberFunc) OnReading(reading models.SensorReading) error {
	return f(reading)
}

type registration struct {
	id  uint64
	sub Subscriber
}

// EventBus 同步扇出，按注册顺序投递；单个订阅者出错/panic 不影响其他订阅者
type EventBus struct {
	mu     sync.Mutex
	nextID uint64
	subs   []registration
	logger *zap.Logger
}

// NewEventBus 创建事件总线
func NewEventBus(logger *zap.Logger) *EventBus {
	return &EventBus{logger: logger}
}

// Subscribe 注册订阅者，返回幂等的取消函数
func (b *EventBus) Subscribe(sub Subscriber) (unsubscribe func()) {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, registration{id: id, sub: sub})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(id) })
	}
}

func (b *EventBus) remove(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, r := range b.subs {
		if r.id == id {
			// 新建切片，正在进行的 Publish 仍使用旧快照
			next := make([]registration, 0, len(b.subs)-1)
			next = append(next, b.subs[:i]...)
			b.subs = append(next, b.subs[i+1:]...)
			return
		}
	}
}

// Publish 投递读数给当前全部订阅者
func (b *EventBus) Publish(reading models.SensorReading) {
	b.mu.Lock()
	snapshot := b.subs
	b.mu.Unlock()

	for _, r := range snapshot {
		if err := b.deliver(r.sub, reading); err != nil {
			b.logger.Error("Subscriber failed to handle reading",
				zap.Uint64("subscriber_id", r.id),
				zap.String("reading_id", reading.ID),
				zap.Error(err),
			)
		}
	}
}

// Len 订阅者数量
func (b *EventBus) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

func (b *EventBus) deliver(sub Subscriber, reading models.SensorReading) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("subscriber panic: %v", r)
		}
	}()
	return sub.OnReading(reading)
}
