package tts

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync/atomic"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"cloudtts/internal/metrics"
)

// CacheStats 缓存统计信息
type CacheStats struct {
	Hits      int64   `json:"hits"`
	Misses    int64   `json:"misses"`
	HitRate   float64 `json:"hit_rate"`
	ItemCount int     `json:"item_count"`
	TotalSize int64   `json:"total_size_bytes"`
}

// CachingSynthesizer 为 Synthesizer 增加按片段的音频缓存
type CachingSynthesizer struct {
	next         Synthesizer
	cache        *cache.Cache
	hits         int64 // 缓存命中次数
	misses       int64 // 缓存未命中次数
	totalSize    int64 // 缓存总大小(字节)
	maxTotalSize int64 // 缓存最大总大小限制(字节)，0表示不限制
}

// NewCachingSynthesizer 创建带缓存的合成器
// maxTotalSize 为 0 表示不限制缓存大小
func NewCachingSynthesizer(next Synthesizer, defaultExpiration, cleanupInterval time.Duration, maxTotalSize int64) *CachingSynthesizer {
	c := &CachingSynthesizer{
		next:         next,
		cache:        cache.New(defaultExpiration, cleanupInterval),
		maxTotalSize: maxTotalSize,
	}

	// 设置缓存项被删除时的回调函数，用于更新总大小统计
	c.cache.OnEvicted(func(key string, value interface{}) {
		if audio, ok := value.([]byte); ok {
			atomic.AddInt64(&c.totalSize, -int64(len(audio)))
		}
	})

	return c
}

// Synthesize 优先返回缓存中的音频，未命中时调用下游并缓存结果
func (s *CachingSynthesizer) Synthesize(ctx context.Context, text, voiceID string) ([]byte, error) {
	key := s.generateCacheKey(text, voiceID)

	if audio, found := s.cache.Get(key); found {
		atomic.AddInt64(&s.hits, 1)
		metrics.GlobalMetrics.RecordCacheHit()
		logrus.WithField("key", key).Debug("Cache hit")
		return audio.([]byte), nil
	}

	atomic.AddInt64(&s.misses, 1)
	metrics.GlobalMetrics.RecordCacheMiss()
	logrus.WithField("key", key).Debug("Cache miss")

	audio, err := s.next.Synthesize(ctx, text, voiceID)
	if err != nil {
		return nil, err
	}

	// 如果设置了最大限制且添加此项会超过限制，则不缓存
	currentSize := atomic.LoadInt64(&s.totalSize)
	size := int64(len(audio))
	if s.maxTotalSize > 0 && currentSize+size > s.maxTotalSize {
		logrus.WithFields(logrus.Fields{
			"key":          key,
			"current_size": currentSize,
			"audio_size":   size,
			"max_size":     s.maxTotalSize,
		}).Debug("Skipping cache due to size limit")
		return audio, nil
	}

	s.cache.Set(key, audio, cache.DefaultExpiration)
	atomic.AddInt64(&s.totalSize, size)

	return audio, nil
}

// generateCacheKey 根据语音和文本生成 SHA256 缓存键
func (s *CachingSynthesizer) generateCacheKey(text, voiceID string) string {
	hash := sha256.New()
	hash.Write([]byte("voice:"))
	hash.Write([]byte(voiceID))
	hash.Write([]byte("|text:"))
	hash.Write([]byte(text))
	return hex.EncodeToString(hash.Sum(nil))
}

// GetStats 获取缓存统计信息
func (s *CachingSynthesizer) GetStats() CacheStats {
	hits := atomic.LoadInt64(&s.hits)
	misses := atomic.LoadInt64(&s.misses)
	total := hits + misses

	hitRate := 0.0
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}

	return CacheStats{
		Hits:      hits,
		Misses:    misses,
		HitRate:   hitRate,
		ItemCount: s.cache.ItemCount(),
		TotalSize: atomic.LoadInt64(&s.totalSize),
	}
}

// ClearCache 清空缓存
func (s *CachingSynthesizer) ClearCache() {
	s.cache.Flush()
	atomic.StoreInt64(&s.totalSize, 0)
	logrus.Info("Cache cleared")
}
