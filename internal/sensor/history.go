package sensor

import "firesafe-engine/internal/models"

// DefaultHistoryCapacity 默认保留的读数条数
const DefaultHistoryCapacity = 100

// History 最近读数（新的在前），超出容量淘汰最旧的
// 只由事件循环访问，不加锁
type History struct {
	capacity int
	items    []models.SensorReading
}

// NewHistory 创建历史缓冲；capacity <= 0 时使用默认值
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultHistoryCapacity
	}
	return &History{capacity: capacity, items: make([]models.SensorReading, 0, capacity)}
}

// Add 插入到最前
func (h *History) Add(r models.SensorReading) {
	if len(h.items) < h.capacity {
		h.items = append(h.items, models.SensorReading{})
	}
	copy(h.items[1:], h.items[:len(h.items)-1])
	h.items[0] = r
}

// List 副本，新的在前
func (h *History) List() []models.SensorReading {
	out := make([]models.SensorReading, len(h.items))
	copy(out, h.items)
	return out
}

// Len 当前条数
func (h *History) Len() int { return len(h.items) }

// Capacity 容量
func (h *History) Capacity() int { return h.capacity }
