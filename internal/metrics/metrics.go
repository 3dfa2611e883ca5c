package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Metrics 性能指标收集器
type Metrics struct {
	// 流水线请求指标
	Requests      int64 // 总请求数
	Success       int64 // 成功请求数
	Errors        int64 // 失败请求数
	TotalLatency  int64 // 总延迟(纳秒)
	MaxLatency    int64 // 最大延迟(纳秒)
	MinLatency    int64 // 最小延迟(纳秒)
	ChunksTotal   int64 // 合成片段总数
	UploadedBytes int64 // 已上传音频字节数

	// 合成后端指标
	SynthesisCalls  int64 // 合成调用次数
	SynthesisErrors int64 // 合成失败次数

	// 缓存相关指标
	CacheHits   int64 // 缓存命中次数
	CacheMisses int64 // 缓存未命中次数

	mu           sync.RWMutex     // 用于 min/max 与按类别计数
	errorsByKind map[string]int64 // 按错误类别统计的失败次数
}

// GlobalMetrics 全局指标实例
var GlobalMetrics = New()

// New 创建一个空的指标收集器
func New() *Metrics {
	return &Metrics{
		MinLatency:   1<<63 - 1, // 最大 int64
		errorsByKind: make(map[string]int64),
	}
}

// RecordRequest 记录一次流水线请求，kind 为空表示成功
func (m *Metrics) RecordRequest(latency time.Duration, chunks int, kind string) {
	atomic.AddInt64(&m.Requests, 1)

	latencyNs := latency.Nanoseconds()
	atomic.AddInt64(&m.TotalLatency, latencyNs)
	atomic.AddInt64(&m.ChunksTotal, int64(chunks))

	m.mu.Lock()
	defer m.mu.Unlock()
	if kind != "" {
		atomic.AddInt64(&m.Errors, 1)
		m.errorsByKind[kind]++
	} else {
		atomic.AddInt64(&m.Success, 1)
	}

	// 更新 max/min 延迟
	if latencyNs > m.MaxLatency {
		m.MaxLatency = latencyNs
	}
	if latencyNs < m.MinLatency {
		m.MinLatency = latencyNs
	}
}

// RecordSynthesisCall 记录一次合成后端调用
func (m *Metrics) RecordSynthesisCall(err error) {
	atomic.AddInt64(&m.SynthesisCalls, 1)
	if err != nil {
		atomic.AddInt64(&m.SynthesisErrors, 1)
	}
}

// RecordUpload 记录一次上传
func (m *Metrics) RecordUpload(size int) {
	atomic.AddInt64(&m.UploadedBytes, int64(size))
}

// RecordCacheHit 记录缓存命中
func (m *Metrics) RecordCacheHit() {
	atomic.AddInt64(&m.CacheHits, 1)
}

// RecordCacheMiss 记录缓存未命中
func (m *Metrics) RecordCacheMiss() {
	atomic.AddInt64(&m.CacheMisses, 1)
}

// GetSnapshot 获取指标快照
func (m *Metrics) GetSnapshot() MetricsSnapshot {
	requests := atomic.LoadInt64(&m.Requests)
	success := atomic.LoadInt64(&m.Success)
	totalLatency := atomic.LoadInt64(&m.TotalLatency)
	cacheHits := atomic.LoadInt64(&m.CacheHits)
	cacheMisses := atomic.LoadInt64(&m.CacheMisses)

	m.mu.RLock()
	maxLatency := m.MaxLatency
	minLatency := m.MinLatency
	byKind := make(map[string]int64, len(m.errorsByKind))
	for k, v := range m.errorsByKind {
		byKind[k] = v
	}
	m.mu.RUnlock()

	// 如果没有请求,设置 min 为 0
	if requests == 0 {
		minLatency = 0
	}

	avgLatency := int64(0)
	if requests > 0 {
		avgLatency = totalLatency / requests
	}

	cacheHitRate := 0.0
	totalCacheOps := cacheHits + cacheMisses
	if totalCacheOps > 0 {
		cacheHitRate = float64(cacheHits) / float64(totalCacheOps) * 100
	}

	successRate := 0.0
	if requests > 0 {
		successRate = float64(success) / float64(requests) * 100
	}

	return MetricsSnapshot{
		Requests:        requests,
		Success:         success,
		Errors:          atomic.LoadInt64(&m.Errors),
		ErrorsByKind:    byKind,
		SuccessRate:     successRate,
		AvgLatency:      time.Duration(avgLatency),
		MaxLatency:      time.Duration(maxLatency),
		MinLatency:      time.Duration(minLatency),
		ChunksTotal:     atomic.LoadInt64(&m.ChunksTotal),
		UploadedBytes:   atomic.LoadInt64(&m.UploadedBytes),
		SynthesisCalls:  atomic.LoadInt64(&m.SynthesisCalls),
		SynthesisErrors: atomic.LoadInt64(&m.SynthesisErrors),
		CacheHits:       cacheHits,
		CacheMisses:     cacheMisses,
		CacheHitRate:    cacheHitRate,
		Timestamp:       time.Now(),
	}
}

// MetricsSnapshot 指标快照
type MetricsSnapshot struct {
	Requests        int64            `json:"requests"`
	Success         int64            `json:"success"`
	Errors          int64            `json:"errors"`
	ErrorsByKind    map[string]int64 `json:"errors_by_kind"`
	SuccessRate     float64          `json:"success_rate"`
	AvgLatency      time.Duration    `json:"avg_latency"`
	MaxLatency      time.Duration    `json:"max_latency"`
	MinLatency      time.Duration    `json:"min_latency"`
	ChunksTotal     int64            `json:"chunks_total"`
	UploadedBytes   int64            `json:"uploaded_bytes"`
	SynthesisCalls  int64            `json:"synthesis_calls"`
	SynthesisErrors int64            `json:"synthesis_errors"`
	CacheHits       int64            `json:"cache_hits"`
	CacheMisses     int64            `json:"cache_misses"`
	CacheHitRate    float64          `json:"cache_hit_rate"`
	Timestamp       time.Time        `json:"timestamp"`
}

// Reset 重置所有指标
func (m *Metrics) Reset() {
	atomic.StoreInt64(&m.Requests, 0)
	atomic.StoreInt64(&m.Success, 0)
	atomic.StoreInt64(&m.Errors, 0)
	atomic.StoreInt64(&m.TotalLatency, 0)
	atomic.StoreInt64(&m.ChunksTotal, 0)
	atomic.StoreInt64(&m.UploadedBytes, 0)
	atomic.StoreInt64(&m.SynthesisCalls, 0)
	atomic.StoreInt64(&m.SynthesisErrors, 0)
	atomic.StoreInt64(&m.CacheHits, 0)
	atomic.StoreInt64(&m.CacheMisses, 0)

	m.mu.Lock()
	m.MaxLatency = 0
	m.MinLatency = 1<<63 - 1 // 重置为 int64 最大值
	m.errorsByKind = make(map[string]int64)
	m.mu.Unlock()
}
