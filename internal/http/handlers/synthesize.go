package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"cloudtts/internal/config"
	apperrors "cloudtts/internal/errors"
	"cloudtts/internal/models"
)

// Runner 执行一次完整的合成流水线
type Runner interface {
	Run(ctx context.Context, req models.SynthesisRequest, logger *logrus.Entry) (string, error)
}

// getLoggerWithTraceID 从 Gin 上下文中获取带有 trace_id 的日志记录器
func getLoggerWithTraceID(c *gin.Context) *logrus.Entry {
	traceID, exists := c.Get("trace_id")
	if !exists {
		traceID = "unknown"
	}
	return logrus.WithField("trace_id", traceID)
}

// SynthesizeHandler 处理 /synthesize 请求
type SynthesizeHandler struct {
	pipeline       Runner
	maxUploadBytes int64
}

// NewSynthesizeHandler 创建合成处理器
func NewSynthesizeHandler(pipeline Runner, cfg *config.Config) *SynthesizeHandler {
	return &SynthesizeHandler{
		pipeline:       pipeline,
		maxUploadBytes: cfg.Upload.MaxFileSizeMB << 20,
	}
}

// HandleSynthesize 接收上传文件或 JSON 文本，返回合成音频的公开地址
func (h *SynthesizeHandler) HandleSynthesize(c *gin.Context) {
	logger := getLoggerWithTraceID(c)

	req, err := h.parseRequest(c)
	if err != nil {
		logger.WithError(err).Warn("解析请求失败")
		_ = c.Error(err)
		return
	}

	logger.WithFields(logrus.Fields{
		"voice":     req.VoiceID,
		"file":      req.FileName,
		"file_size": len(req.FileBytes),
		"has_text":  req.RawText != nil,
	}).Info("收到合成请求")

	url, err := h.pipeline.Run(c.Request.Context(), req, logger)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, models.SynthesisResponse{AudioURL: url})
}

// parseRequest 按内容类型把请求转换为 SynthesisRequest
// 既没有文件也没有 text 字段时返回空请求，由流水线报告 NoInputProvided
func (h *SynthesizeHandler) parseRequest(c *gin.Context) (models.SynthesisRequest, error) {
	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		return h.parseMultipart(c)
	}

	var body models.TextRequest
	if err := c.ShouldBindJSON(&body); err != nil || body.Text == nil {
		return models.SynthesisRequest{}, nil
	}
	return models.SynthesisRequest{
		RawText: body.Text,
		VoiceID: body.Voice,
	}, nil
}

func (h *SynthesizeHandler) parseMultipart(c *gin.Context) (models.SynthesisRequest, error) {
	if h.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return models.SynthesisRequest{}, apperrors.Newf(apperrors.KindInvalidInput,
				"Uploaded file exceeds %d MB", h.maxUploadBytes>>20)
		case errors.Is(err, http.ErrMissingFile):
			return models.SynthesisRequest{}, nil
		default:
			return models.SynthesisRequest{}, apperrors.Wrap(apperrors.KindInvalidInput, err)
		}
	}

	file, err := fileHeader.Open()
	if err != nil {
		return models.SynthesisRequest{}, apperrors.Wrap(apperrors.KindInternal, err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return models.SynthesisRequest{}, apperrors.Wrap(apperrors.KindInternal, err)
	}

	return models.SynthesisRequest{
		FileBytes: data,
		FileName:  fileHeader.Filename,
		VoiceID:   c.PostForm("voice"),
	}, nil
}
