package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/tcolgate/mp3"
)

// ErrNoSegments 表示没有可合并的音频片段
var ErrNoSegments = errors.New("no segments to merge")

// Merger 音频合并器接口
// 只有一个片段时必须原样返回，不做重新编码
type Merger interface {
	Merge(ctx context.Context, segments [][]byte) ([]byte, error)
}

// FFmpegMerger 使用 FFmpeg 拼接并重新编码为 MP3
type FFmpegMerger struct {
	ffmpegPath string
	tmpDir     string
	fallback   Merger
	logger     zerolog.Logger
}

// NewFFmpegMerger 创建 FFmpeg 合并器，FFmpeg 不可用时回退到按帧拼接
func NewFFmpegMerger(ffmpegPath string, logger zerolog.Logger) *FFmpegMerger {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg" // 使用 PATH 中的 ffmpeg
	}

	return &FFmpegMerger{
		ffmpegPath: ffmpegPath,
		tmpDir:     os.TempDir(),
		fallback:   NewFrameMerger(logger),
		logger:     logger,
	}
}

// Merge 使用 FFmpeg concat demuxer 合并音频片段，输出采用 libmp3lame 默认码率
func (m *FFmpegMerger) Merge(ctx context.Context, segments [][]byte) ([]byte, error) {
	if len(segments) == 0 {
		return nil, ErrNoSegments
	}

	// 如果只有一个片段，直接返回
	if len(segments) == 1 {
		return segments[0], nil
	}

	// 检查 ffmpeg 是否可用
	if err := m.checkFFmpeg(ctx); err != nil {
		m.logger.Warn().Err(err).Msg("FFmpeg not available, falling back to frame merge")
		return m.fallback.Merge(ctx, segments)
	}

	// 创建临时工作目录
	workDir, err := os.MkdirTemp(m.tmpDir, "tts_merge_*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	// 写入音频片段到临时文件
	var concatList bytes.Buffer
	for i, seg := range segments {
		tmpFile := filepath.Join(workDir, fmt.Sprintf("seg_%03d.mp3", i))
		if err := os.WriteFile(tmpFile, seg, 0644); err != nil {
			return nil, fmt.Errorf("failed to write segment %d: %w", i, err)
		}

		// 写入 concat 列表（使用相对路径避免路径问题）
		fmt.Fprintf(&concatList, "file '%s'\n", filepath.Base(tmpFile))
	}

	concatFile := filepath.Join(workDir, "concat.txt")
	if err := os.WriteFile(concatFile, concatList.Bytes(), 0644); err != nil {
		return nil, fmt.Errorf("failed to write concat file: %w", err)
	}

	outputFile := filepath.Join(workDir, "output.mp3")
	cmd := exec.CommandContext(ctx,
		m.ffmpegPath,
		"-f", "concat",
		"-safe", "0",
		"-i", "concat.txt",
		"-c:a", "libmp3lame",
		"-f", "mp3",
		"-y",
		outputFile,
	)
	cmd.Dir = workDir

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		m.logger.Error().
			Err(err).
			Str("stderr", stderr.String()).
			Msg("FFmpeg merge failed")
		return m.fallback.Merge(ctx, segments)
	}

	merged, err := os.ReadFile(outputFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read merged file: %w", err)
	}

	m.logger.Info().Int("segments", len(segments)).Int("bytes", len(merged)).Msg("Merged audio segments using FFmpeg")
	return merged, nil
}

// checkFFmpeg 检查 FFmpeg 是否可用
func (m *FFmpegMerger) checkFFmpeg(ctx context.Context) error {
	return exec.CommandContext(ctx, m.ffmpegPath, "-version").Run()
}

// FrameMerger 按 MPEG 音频帧拼接片段，不重新编码
// 每个片段的 ID3 标签与 Xing/Info 头帧会被移除，总时长等于各片段时长之和
type FrameMerger struct {
	logger zerolog.Logger
}

// NewFrameMerger 创建按帧合并器
func NewFrameMerger(logger zerolog.Logger) *FrameMerger {
	return &FrameMerger{logger: logger}
}

// Merge 逐帧解析并拼接所有片段
func (f *FrameMerger) Merge(ctx context.Context, segments [][]byte) ([]byte, error) {
	if len(segments) == 0 {
		return nil, ErrNoSegments
	}

	if len(segments) == 1 {
		return segments[0], nil
	}

	var merged bytes.Buffer
	var total time.Duration
	for i, seg := range segments {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		d, err := forEachFrame(seg, func(frame []byte) {
			merged.Write(frame)
		})
		if err != nil {
			return nil, fmt.Errorf("segment %d: %w", i, err)
		}
		total += d
	}

	f.logger.Debug().
		Int("segments", len(segments)).
		Dur("duration", total).
		Msg("Merged audio segments frame by frame")
	return merged.Bytes(), nil
}

// Duration 返回一段 MP3 数据的播放时长
func Duration(data []byte) (time.Duration, error) {
	return forEachFrame(data, func([]byte) {})
}

// forEachFrame 对每个音频帧调用 fn，返回所有帧的总时长
func forEachFrame(data []byte, fn func(frame []byte)) (time.Duration, error) {
	decoder := mp3.NewDecoder(bytes.NewReader(removeID3Tags(data)))

	var (
		frame    mp3.Frame
		skipped  int
		total    time.Duration
		frames   int
		frameBuf bytes.Buffer
	)
	for {
		err := decoder.Decode(&frame, &skipped)
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			break
		}
		if err != nil {
			if frames > 0 {
				// 末尾的 ID3v1 等非音频数据
				break
			}
			return 0, fmt.Errorf("decode mp3 frame: %w", err)
		}

		frameBuf.Reset()
		if _, err := io.Copy(&frameBuf, frame.Reader()); err != nil {
			return 0, err
		}
		if frames == 0 && isInfoFrame(frameBuf.Bytes()) {
			frames++
			continue
		}

		fn(frameBuf.Bytes())
		total += frame.Duration()
		frames++
	}

	if frames == 0 {
		return 0, errors.New("no mp3 frames found")
	}
	return total, nil
}

// isInfoFrame 判断是否为编码器写入的 Xing/Info 头帧
func isInfoFrame(frame []byte) bool {
	end := 48
	if len(frame) < end {
		end = len(frame)
	}
	head := frame[:end]
	return bytes.Contains(head, []byte("Xing")) || bytes.Contains(head, []byte("Info"))
}

// removeID3Tags 移除 MP3 的 ID3v2 标签
func removeID3Tags(data []byte) []byte {
	if len(data) < 10 {
		return data
	}

	// 检查 ID3v2 标签头 "ID3"
	if data[0] == 'I' && data[1] == 'D' && data[2] == '3' {
		// ID3v2 标签大小在字节 6-9（使用同步安全整数编码）
		size := int(data[6])<<21 | int(data[7])<<14 | int(data[8])<<7 | int(data[9])
		tagSize := size + 10 // 加上 10 字节的头部

		if tagSize < len(data) {
			return data[tagSize:]
		}
	}

	return data
}
