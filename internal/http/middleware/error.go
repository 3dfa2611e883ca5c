package middleware

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	apperrors "cloudtts/internal/errors"
	"cloudtts/internal/models"
)

// traceIDFrom 读取 Logger 中间件写入的 trace_id
func traceIDFrom(c *gin.Context) string {
	if v, ok := c.Get("trace_id"); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return "unknown"
}

// ErrorHandler 是一个处理错误的 Gin 中间件
// 客户端输入导致的错误返回 400，其余返回 500，响应体包含错误消息与类别
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next() // 先执行后续的处理函数

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		appErr := apperrors.AsError(err)

		httpStatus := http.StatusInternalServerError
		if errors.Is(appErr, apperrors.ErrInvalidInput) {
			httpStatus = http.StatusBadRequest
		}

		log := getLogger().With().Str("trace_id", traceIDFrom(c)).Logger()
		var event *zerolog.Event
		if httpStatus >= http.StatusInternalServerError {
			event = log.Error()
		} else {
			event = log.Warn()
		}
		event.Err(err).Str("kind", string(appErr.Kind)).Int("status", httpStatus).Msg("请求处理时发生错误")

		// 如果响应尚未提交，则发送JSON错误响应
		if !c.Writer.Written() {
			c.AbortWithStatusJSON(httpStatus, models.ErrorResponse{
				Error: appErr.Message,
				Kind:  string(appErr.Kind),
			})
		}
	}
}

// Recovery 捕获处理过程中的 panic 并返回 500 InternalError
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		log := getLogger()
		log.Error().
			Str("trace_id", traceIDFrom(c)).
			Interface("panic", recovered).
			Msg("请求处理时发生 panic")
		c.AbortWithStatusJSON(http.StatusInternalServerError, models.ErrorResponse{
			Error: fmt.Sprint(recovered),
			Kind:  string(apperrors.KindInternal),
		})
	})
}
