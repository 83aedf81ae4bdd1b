package evaluator

import (
	"math/rand"
	"sync"
)

// RandSource 概率检查使用的随机源（可注入，测试可强制两种分支）
type RandSource interface {
	Float64() float64
}

// Splitter 可按调用顺序派生独立子随机流的随机源
// 并发评估时每张图纸使用自己的子流，结果与调度顺序无关
type Splitter interface {
	Split() RandSource
}

// LockedRand 并发安全的带种子随机源
type LockedRand struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewLockedRand 创建随机源
func NewLockedRand(seed int64) *LockedRand {
	return &LockedRand{rnd: rand.New(rand.NewSource(seed))}
}

// Float64 返回 [0,1) 随机数
func (r *LockedRand) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rnd.Float64()
}

// Split 从父流取一个种子生成子流；子流只供单个 goroutine 使用
func (r *LockedRand) Split() RandSource {
	r.mu.Lock()
	seed := r.rnd.Int63()
	r.mu.Unlock()
	return rand.New(rand.NewSource(seed))
}

// FixedRand 始终返回同一个值
type FixedRand float64

// Float64 实现 RandSource
func (f FixedRand) Float64() float64 { return float64(f) }
