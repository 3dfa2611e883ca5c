package tts

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingSynthesizer 记录调用次数并返回固定大小的音频
type countingSynthesizer struct {
	calls int
	size  int
	err   error
}

func (c *countingSynthesizer) Synthesize(ctx context.Context, text, voiceID string) ([]byte, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	size := c.size
	if text == "large" {
		size *= 5
	}
	return make([]byte, size), nil
}

// TestGenerateCacheKey 测试缓存键包含语音与文本
func TestGenerateCacheKey(t *testing.T) {
	s := NewCachingSynthesizer(&countingSynthesizer{}, time.Minute, time.Minute, 0)

	base := s.generateCacheKey("Hello world", "Joanna")
	assert.Equal(t, base, s.generateCacheKey("Hello world", "Joanna"), "相同参数应该生成相同的缓存键")
	assert.NotEqual(t, base, s.generateCacheKey("Hello world", "Matthew"), "不同语音应该生成不同的缓存键")
	assert.NotEqual(t, base, s.generateCacheKey("Hello  world", "Joanna"), "空白不同也应该生成不同的缓存键")
	assert.NotEqual(t, s.generateCacheKey("ab", "c"), s.generateCacheKey("a", "bc"))
}

func TestCachingSynthesizer_HitAndMiss(t *testing.T) {
	next := &countingSynthesizer{size: 100}
	s := NewCachingSynthesizer(next, time.Minute, time.Minute, 0)
	ctx := context.Background()

	audio, err := s.Synthesize(ctx, "chunk one", "Joanna")
	require.NoError(t, err)
	assert.Len(t, audio, 100)

	_, err = s.Synthesize(ctx, "chunk one", "Joanna")
	require.NoError(t, err)
	_, err = s.Synthesize(ctx, "chunk one", "Matthew")
	require.NoError(t, err)

	assert.Equal(t, 2, next.calls)
	stats := s.GetStats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(2), stats.Misses)
	assert.Equal(t, 2, stats.ItemCount)
	assert.Equal(t, int64(200), stats.TotalSize)
}

func TestCachingSynthesizer_ErrorNotCached(t *testing.T) {
	next := &countingSynthesizer{err: errors.New("throttled")}
	s := NewCachingSynthesizer(next, time.Minute, time.Minute, 0)

	_, err := s.Synthesize(context.Background(), "x", "Joanna")
	require.Error(t, err)
	assert.Zero(t, s.GetStats().ItemCount)
}

// TestCachingSynthesizer_SizeLimit 测试超过总大小限制的音频不会被缓存
func TestCachingSynthesizer_SizeLimit(t *testing.T) {
	next := &countingSynthesizer{size: 1000}
	s := NewCachingSynthesizer(next, time.Minute, time.Minute, 3000)
	ctx := context.Background()

	for _, text := range []string{"test1", "test2", "test3"} {
		_, err := s.Synthesize(ctx, text, "Joanna")
		require.NoError(t, err)
	}
	stats := s.GetStats()
	assert.Equal(t, 3, stats.ItemCount)
	assert.Equal(t, int64(3000), stats.TotalSize)

	audio, err := s.Synthesize(ctx, "large", "Joanna")
	require.NoError(t, err)
	assert.Len(t, audio, 5000)
	assert.Equal(t, 3, s.GetStats().ItemCount)

	s.ClearCache()
	stats = s.GetStats()
	assert.Zero(t, stats.ItemCount)
	assert.Zero(t, stats.TotalSize)
}

// TestCachingSynthesizer_Expiration 测试过期清理会更新总大小
func TestCachingSynthesizer_Expiration(t *testing.T) {
	next := &countingSynthesizer{size: 10}
	s := NewCachingSynthesizer(next, 20*time.Millisecond, 10*time.Millisecond, 0)

	_, err := s.Synthesize(context.Background(), "short lived", "Joanna")
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return s.GetStats().TotalSize == 0
	}, time.Second, 10*time.Millisecond)
}
