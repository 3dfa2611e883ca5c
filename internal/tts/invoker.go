package tts

import (
	"context"
	"strings"
	"sync"

	"github.com/panjf2000/ants/v2"

	apperrors "cloudtts/internal/errors"
	"cloudtts/internal/metrics"
)

// Invoker 对每个片段调用合成后端，结果顺序与输入片段一致
type Invoker struct {
	synth Synthesizer
	pool  *ants.Pool // 为 nil 时逐个顺序调用
}

// NewInvoker 创建调用器；pool 为 nil 时严格顺序执行
func NewInvoker(synth Synthesizer, pool *ants.Pool) *Invoker {
	return &Invoker{synth: synth, pool: pool}
}

// Invoke 合成所有非空白片段，任何一个片段失败都会使整个请求失败
func (i *Invoker) Invoke(ctx context.Context, chunks []string, voiceID string) ([][]byte, error) {
	var texts []string
	for _, chunk := range chunks {
		if strings.TrimSpace(chunk) == "" {
			continue
		}
		texts = append(texts, chunk)
	}

	var segments [][]byte
	var err error
	if i.pool == nil || len(texts) <= 1 {
		segments, err = i.invokeSequential(ctx, texts, voiceID)
	} else {
		segments, err = i.invokeParallel(ctx, texts, voiceID)
	}
	if err != nil {
		return nil, err
	}

	if len(segments) == 0 {
		return nil, apperrors.ErrNoAudioGenerated
	}
	return segments, nil
}

func (i *Invoker) invokeSequential(ctx context.Context, texts []string, voiceID string) ([][]byte, error) {
	segments := make([][]byte, 0, len(texts))
	for _, text := range texts {
		audio, err := i.synth.Synthesize(ctx, text, voiceID)
		metrics.GlobalMetrics.RecordSynthesisCall(err)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.KindSynthesisBackend, err)
		}
		segments = append(segments, audio)
	}
	return segments, nil
}

// invokeParallel 通过共享的 ants 池并发合成，按下标回填结果以保持顺序
func (i *Invoker) invokeParallel(ctx context.Context, texts []string, voiceID string) ([][]byte, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	segments := make([][]byte, len(texts))
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	fail := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
			cancel()
		}
		mu.Unlock()
	}

	for idx, text := range texts {
		idx, text := idx, text
		wg.Add(1)
		submitErr := i.pool.Submit(func() {
			defer wg.Done()
			if ctx.Err() != nil {
				return
			}
			audio, err := i.synth.Synthesize(ctx, text, voiceID)
			metrics.GlobalMetrics.RecordSynthesisCall(err)
			if err != nil {
				fail(apperrors.Wrap(apperrors.KindSynthesisBackend, err))
				return
			}
			segments[idx] = audio
		})
		if submitErr != nil {
			wg.Done()
			fail(apperrors.Wrap(apperrors.KindInternal, submitErr))
			break
		}
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.KindSynthesisBackend, err)
	}
	return segments, nil
}
