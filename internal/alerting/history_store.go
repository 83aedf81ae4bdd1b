package alerting

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"firesafe-engine/internal/models"
	"firesafe-engine/internal/store"

	"go.uber.org/zap"
)

const (
	// DefaultHistoryKey 通知历史的固定 key
	DefaultHistoryKey = "firesafe:alerts:history"
	// DefaultHistoryCapacity 最多保留 20 条
	DefaultHistoryCapacity = 20

	persistTimeout = 5 * time.Second
)

// HistoryStore 通知历史（新的在前），每次追加整值重写
// entries 只由事件循环访问；写入 KV 由 Run 的协程完成，循环不等待 I/O
type HistoryStore struct {
	kv       store.KV
	key      string
	capacity int
	entries  []models.AlertHistoryEntry
	// 待写入的整值快照，只保留最新一份
	pending chan string
	logger  *zap.Logger
}

// NewHistoryStore 创建历史存储
func NewHistoryStore(kv store.KV, key string, capacity int, logger *zap.Logger) *HistoryStore {
	if key == "" {
		key = DefaultHistoryKey
	}
	if capacity <= 0 {
		capacity = DefaultHistoryCapacity
	}
	return &HistoryStore{
		kv:       kv,
		key:      key,
		capacity: capacity,
		pending:  make(chan string, 1),
		logger:   logger,
	}
}

// Load 启动时读取已持久化的历史
func (h *HistoryStore) Load(ctx context.Context) error {
	raw, err := h.kv.Get(ctx, h.key)
	if err != nil {
		if errors.Is(err, store.ErrMiss) {
			h.entries = nil
			return nil
		}
		return fmt.Errorf("failed to load alert history: %w", err)
	}

	var entries []models.AlertHistoryEntry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return fmt.Errorf("failed to unmarshal alert history: %w", err)
	}
	if len(entries) > h.capacity {
		entries = entries[:h.capacity]
	}
	h.entries = entries

	h.logger.Info("Alert history loaded",
		zap.String("key", h.key),
		zap.Int("entries", len(entries)),
	)
	return nil
}

// Append 插入到最前并排队整值重写；不阻塞调用方
func (h *HistoryStore) Append(entry models.AlertHistoryEntry) {
	next := make([]models.AlertHistoryEntry, 0, h.capacity)
	next = append(next, entry)
	next = append(next, h.entries...)
	if len(next) > h.capacity {
		next = next[:h.capacity]
	}
	h.entries = next

	data, err := json.Marshal(next)
	if err != nil {
		h.logger.Error("Failed to marshal alert history", zap.String("alert_id", entry.ID), zap.Error(err))
		return
	}
	h.enqueue(string(data))
}

// enqueue 单生产者（事件循环）；旧快照被新快照替换
func (h *HistoryStore) enqueue(snapshot string) {
	for {
		select {
		case h.pending <- snapshot:
			return
		default:
		}
		select {
		case <-h.pending:
		default:
		}
	}
}

// Run 持久化协程，ctx 取消后写完最后一份快照再退出
func (h *HistoryStore) Run(ctx context.Context) {
	for {
		select {
		case snapshot := <-h.pending:
			h.persist(snapshot)
		case <-ctx.Done():
			select {
			case snapshot := <-h.pending:
				h.persist(snapshot)
			default:
			}
			return
		}
	}
}

// persist 单次写入有超时上限，不随 Run 的 ctx 取消
func (h *HistoryStore) persist(snapshot string) {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := h.kv.Set(ctx, h.key, snapshot, 0); err != nil {
		h.logger.Error("Failed to persist alert history", zap.String("key", h.key), zap.Error(err))
	}
}

// List 副本，新的在前
func (h *HistoryStore) List() []models.AlertHistoryEntry {
	out := make([]models.AlertHistoryEntry, len(h.entries))
	copy(out, h.entries)
	return out
}

// Capacity 容量
func (h *HistoryStore) Capacity() int { return h.capacity }
