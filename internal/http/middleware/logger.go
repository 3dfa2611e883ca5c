package middleware

import (
	"io"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"

	"cloudtts/internal/config"
)

// 全局 zerolog 实例，使用惰性初始化
var (
	logger      zerolog.Logger
	initialized bool
)

// LogOutput 返回日志输出目标；配置了 log.file 时同时写入标准输出与滚动文件
// 同一进程内只应调用一次，返回的 Writer 由 logrus 与 zerolog 共用
func LogOutput(logConfig *config.LogConfig) io.Writer {
	if logConfig.File == "" {
		return os.Stdout
	}
	return io.MultiWriter(os.Stdout, &lumberjack.Logger{
		Filename:   logConfig.File,
		MaxSize:    logConfig.MaxSizeMB,
		MaxBackups: logConfig.MaxBackups,
		MaxAge:     logConfig.MaxAgeDays,
		Compress:   true,
	})
}

// InitZerologWithConfig 使用配置初始化 zerolog 实例
func InitZerologWithConfig(logConfig *config.LogConfig, out io.Writer) {
	// 设置日志级别
	zerologLevel, err := zerolog.ParseLevel(logConfig.Level)
	if err != nil || logConfig.Level == "" {
		zerologLevel = zerolog.InfoLevel
	}

	// 配置 zerolog 输出
	if logConfig.Format == "json" {
		logger = zerolog.New(out).Level(zerologLevel).With().Timestamp().Logger()
	} else {
		// 控制台友好格式输出，写文件时关闭颜色
		output := zerolog.ConsoleWriter{Out: out, NoColor: logConfig.File != ""}
		logger = zerolog.New(output).Level(zerologLevel).With().Timestamp().Logger()
	}

	initialized = true
}

// initZerolog 初始化 zerolog 实例（惰性初始化，使用默认配置）
func initZerolog() {
	output := zerolog.ConsoleWriter{Out: os.Stdout}
	logger = zerolog.New(output).Level(zerolog.InfoLevel).With().Timestamp().Logger()
	initialized = true
}

// getLogger 获取 zerolog 实例（惰性初始化）
func getLogger() zerolog.Logger {
	if !initialized {
		initZerolog()
	}
	return logger
}

// GetLogger 返回中间件使用的 zerolog 实例，供音频合并等组件共用
func GetLogger() zerolog.Logger {
	return getLogger()
}

// Logger 是一个HTTP中间件，记录请求的详细信息
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		// 为每个请求创建一个trace_id
		traceID := uuid.New().String()
		c.Set("trace_id", traceID)
		c.Header("X-Trace-Id", traceID)

		// 处理请求
		c.Next()

		duration := time.Since(start)

		log := getLogger()
		event := log.Info().
			Str("trace_id", traceID).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Str("ip", c.ClientIP()).
			Int("status", c.Writer.Status()).
			Dur("duration", duration).
			Str("user_agent", c.Request.UserAgent())

		if len(c.Errors) > 0 {
			event.Err(c.Errors.Last()).Msg("request completed with errors")
		} else {
			event.Msg("request completed")
		}
	}
}
