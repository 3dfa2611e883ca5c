package tts

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	apperrors "cloudtts/internal/errors"
	"cloudtts/internal/extract"
	"cloudtts/internal/metrics"
	"cloudtts/internal/models"
	"cloudtts/internal/storage"
	"cloudtts/internal/tts/audio"
)

// State 表示流水线所处的阶段
type State string

const (
	StateReceived      State = "received"
	StateExtracting    State = "extracting"
	StateChunking      State = "chunking"
	StateSynthesizing  State = "synthesizing"
	StateConcatenating State = "concatenating"
	StateUploading     State = "uploading"
	StateCompleted     State = "completed"
	StateFailed        State = "failed"
)

const chunkPreviewLength = 500

// Pipeline 把一次合成请求从文本提取一路执行到上传
type Pipeline struct {
	extractors *extract.Registry
	segmenter  SegmentationStrategy
	invoker    *Invoker
	merger     audio.Merger
	publisher  storage.Publisher
	maxLen     int
}

// PipelineConfig 汇总流水线依赖
type PipelineConfig struct {
	Extractors     *extract.Registry
	Segmenter      SegmentationStrategy
	Invoker        *Invoker
	Merger         audio.Merger
	Publisher      storage.Publisher
	MaxChunkLength int
}

// NewPipeline 创建合成流水线
func NewPipeline(cfg PipelineConfig) *Pipeline {
	if cfg.Extractors == nil {
		cfg.Extractors = extract.NewRegistry()
	}
	if cfg.Segmenter == nil {
		cfg.Segmenter = NewWordWrapSegmenter()
	}
	if cfg.MaxChunkLength <= 0 {
		cfg.MaxChunkLength = MaxChunkLength
	}
	return &Pipeline{
		extractors: cfg.Extractors,
		segmenter:  cfg.Segmenter,
		invoker:    cfg.Invoker,
		merger:     cfg.Merger,
		publisher:  cfg.Publisher,
		maxLen:     cfg.MaxChunkLength,
	}
}

// run 保存一次请求的执行状态
type run struct {
	logger *logrus.Entry
	state  State
	start  time.Time
	chunks int
}

func (r *run) enter(state State) {
	r.logger.WithFields(logrus.Fields{
		"from": r.state,
		"to":   state,
	}).Debug("流水线状态变更")
	r.state = state
}

func (r *run) fail(err error) error {
	e := apperrors.AsError(err)
	r.logger.WithFields(logrus.Fields{
		"state": r.state,
		"kind":  e.Kind,
	}).WithError(err).Warn("流水线失败")
	r.state = StateFailed
	metrics.GlobalMetrics.RecordRequest(time.Since(r.start), r.chunks, string(e.Kind))
	return e
}

// Run 执行整个流水线，成功时返回音频的公开地址
// 返回的错误总是 *apperrors.Error
func (p *Pipeline) Run(ctx context.Context, req models.SynthesisRequest, logger *logrus.Entry) (string, error) {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	r := &run{logger: logger, state: StateReceived, start: time.Now()}

	if !req.HasFile() && req.RawText == nil {
		return "", r.fail(apperrors.ErrNoInputProvided)
	}
	if req.VoiceID == "" {
		return "", r.fail(apperrors.ErrMissingVoice)
	}

	r.enter(StateExtracting)
	doc, err := p.extract(req)
	if err != nil {
		return "", r.fail(err)
	}

	r.enter(StateChunking)
	chunks, err := ChunkDocument(doc, p.segmenter, p.maxLen)
	if err != nil {
		return "", r.fail(err)
	}
	r.chunks = len(chunks)
	logger.WithFields(logrus.Fields{
		"chunks":  len(chunks),
		"preview": preview(chunks[0], chunkPreviewLength),
	}).Debug("文本分段完成")

	r.enter(StateSynthesizing)
	synthStart := time.Now()
	segments, err := p.invoker.Invoke(ctx, chunks, req.VoiceID)
	if err != nil {
		return "", r.fail(err)
	}
	synthTime := time.Since(synthStart)

	r.enter(StateConcatenating)
	merged, err := p.merger.Merge(ctx, segments)
	if err != nil {
		return "", r.fail(err)
	}

	r.enter(StateUploading)
	url, err := p.publisher.Publish(ctx, merged)
	if err != nil {
		var appErr *apperrors.Error
		if !errors.As(err, &appErr) {
			err = apperrors.Wrap(apperrors.KindStorageUpload, err)
		}
		return "", r.fail(err)
	}

	r.enter(StateCompleted)
	metrics.GlobalMetrics.RecordRequest(time.Since(r.start), r.chunks, "")
	logger.WithFields(logrus.Fields{
		"chunks":     len(chunks),
		"segments":   len(segments),
		"synth_time": synthTime,
		"total_time": time.Since(r.start),
		"audio_size": formatFileSize(len(merged)),
		"audio_url":  url,
	}).Info("合成完成")
	return url, nil
}

// extract 根据请求类型提取文本
func (p *Pipeline) extract(req models.SynthesisRequest) (extract.Document, error) {
	if req.HasFile() {
		doc, _, err := p.extractors.Extract(req.FileName, req.FileBytes)
		return doc, err
	}
	return extract.PlainText(*req.RawText), nil
}

// preview 截取文本开头用于日志显示
func preview(text string, maxLength int) string {
	if utf8.RuneCountInString(text) <= maxLength {
		return text
	}
	return string([]rune(text)[:maxLength])
}

// formatFileSize 格式化文件大小
func formatFileSize(size int) string {
	switch {
	case size < 1024:
		return fmt.Sprintf("%d B", size)
	case size < 1024*1024:
		return fmt.Sprintf("%.2f KB", float64(size)/1024.0)
	default:
		return fmt.Sprintf("%.2f MB", float64(size)/(1024.0*1024.0))
	}
}
