package handlers

import (
	"context"
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"

	apperrors "cloudtts/internal/errors"
	"cloudtts/internal/models"
)

// VoiceLister 列出后端可用的语音
type VoiceLister interface {
	ListVoices(ctx context.Context, language string) ([]models.Voice, error)
}

// VoicesHandler 处理语音列表请求
type VoicesHandler struct {
	lister VoiceLister
}

// NewVoicesHandler 创建一个新的语音列表处理器
func NewVoicesHandler(lister VoiceLister) *VoicesHandler {
	return &VoicesHandler{
		lister: lister,
	}
}

// HandleVoices 处理语音列表请求
func (h *VoicesHandler) HandleVoices(c *gin.Context) {
	// 从查询参数中获取语言筛选，例如 en-US
	language := c.Query("language")

	voices, err := h.lister.ListVoices(c.Request.Context(), language)
	if err != nil {
		getLoggerWithTraceID(c).WithError(err).Error("获取语音列表失败")
		_ = c.Error(apperrors.Wrap(apperrors.KindSynthesisBackend, err))
		return
	}

	// 按语言分组，同语言按名称排序
	sort.Slice(voices, func(i, j int) bool {
		if voices[i].LanguageCode != voices[j].LanguageCode {
			return voices[i].LanguageCode < voices[j].LanguageCode
		}
		return voices[i].Name < voices[j].Name
	})

	c.JSON(http.StatusOK, gin.H{
		"voices": voices,
		"count":  len(voices),
	})
}
