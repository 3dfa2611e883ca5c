package routes

import (
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/gin-gonic/gin"
	"github.com/panjf2000/ants/v2"
	"github.com/sirupsen/logrus"

	"cloudtts/internal/config"
	"cloudtts/internal/http/handlers"
	"cloudtts/internal/http/middleware"
	"cloudtts/internal/storage"
	"cloudtts/internal/tts"
	"cloudtts/internal/tts/audio"
	"cloudtts/internal/tts/polly"
)

// Services 汇总启动时创建一次的后端组件
type Services struct {
	Pipeline *tts.Pipeline
	Voices   handlers.VoiceLister
	Pool     *ants.Pool // max_concurrent <= 1 时为 nil
}

// Close 释放后台资源
func (s *Services) Close() {
	if s.Pool != nil {
		s.Pool.Release()
	}
}

// SetupRoutes 配置所有API路由
func SetupRoutes(cfg *config.Config, services *Services) (*gin.Engine, error) {
	router := gin.New()

	synthesizeHandler := handlers.NewSynthesizeHandler(services.Pipeline, cfg)
	voicesHandler := handlers.NewVoicesHandler(services.Voices)
	metricsHandler := handlers.NewMetricsHandler()

	pagesHandler, err := handlers.NewPagesHandler(cfg)
	if err != nil {
		return nil, err
	}

	// 应用中间件
	router.Use(middleware.Logger())       // 日志中间件
	router.Use(middleware.Recovery())     // panic 恢复
	router.Use(middleware.ErrorHandler()) // 错误处理中间件

	// 应用基础路径前缀
	var baseRouter gin.IRoutes
	if cfg.Server.BasePath != "" {
		baseRouter = router.Group(cfg.Server.BasePath)
	} else {
		baseRouter = router
	}

	baseRouter.GET("/", pagesHandler.HandleIndex)
	baseRouter.POST("/synthesize", synthesizeHandler.HandleSynthesize)
	baseRouter.GET("/voices", voicesHandler.HandleVoices)

	baseRouter.GET("/metrics", metricsHandler.GetMetrics)
	baseRouter.POST("/metrics/reset", metricsHandler.ResetMetrics)
	baseRouter.GET("/health", metricsHandler.HealthCheck)

	return router, nil
}

// InitializeServices 初始化所有服务
func InitializeServices(cfg *config.Config) (*Services, error) {
	sess, err := session.NewSession(aws.NewConfig().WithRegion(cfg.Storage.Region))
	if err != nil {
		return nil, fmt.Errorf("创建 AWS 会话失败: %w", err)
	}

	pollyClient := polly.NewClient(sess, cfg)
	publisher := storage.NewS3Publisher(sess, cfg.Storage)

	return BuildServices(cfg, pollyClient, publisher)
}

// BuildServices 用给定的后端组装流水线
func BuildServices(cfg *config.Config, backend tts.Service, publisher storage.Publisher) (*Services, error) {
	var synth tts.Synthesizer = backend

	// 如果启用了缓存，则包装原始合成器
	if cfg.Cache.Enabled {
		logrus.Info("启用分段音频缓存")
		synth = tts.NewCachingSynthesizer(
			synth,
			time.Duration(cfg.Cache.ExpirationMinutes)*time.Minute,
			time.Duration(cfg.Cache.CleanupIntervalMinutes)*time.Minute,
			cfg.Cache.MaxTotalSizeMB<<20,
		)
	}

	var pool *ants.Pool
	if cfg.TTS.MaxConcurrent > 1 {
		p, err := ants.NewPool(cfg.TTS.MaxConcurrent)
		if err != nil {
			return nil, fmt.Errorf("创建合成协程池失败: %w", err)
		}
		pool = p
		logrus.WithField("size", cfg.TTS.MaxConcurrent).Info("启用并发合成")
	}

	var merger audio.Merger
	zl := middleware.GetLogger()
	switch cfg.Audio.Merger {
	case "frame":
		merger = audio.NewFrameMerger(zl)
	default:
		merger = audio.NewFFmpegMerger(cfg.Audio.FFmpegPath, zl)
	}

	pipeline := tts.NewPipeline(tts.PipelineConfig{
		Invoker:        tts.NewInvoker(synth, pool),
		Merger:         merger,
		Publisher:      publisher,
		MaxChunkLength: cfg.TTS.MaxChunkLength,
	})

	return &Services{
		Pipeline: pipeline,
		Voices:   backend,
		Pool:     pool,
	}, nil
}
