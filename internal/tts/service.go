package tts

import (
	"context"

	"cloudtts/internal/models"
)

// Synthesizer 把一段文本合成为压缩音频
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voiceID string) ([]byte, error)
}

// Service 定义语音后端提供的全部能力
type Service interface {
	Synthesizer
	ListVoices(ctx context.Context, language string) ([]models.Voice, error)
}
