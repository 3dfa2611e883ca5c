package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"cloudtts/internal/config"
	"cloudtts/internal/http/routes"
)

// App 表示整个语音合成应用程序
type App struct {
	server   *Server
	cfg      *config.Config
	services *routes.Services
}

// NewApp 创建一个新的应用程序实例
func NewApp(cfg *config.Config) (*App, error) {
	services, err := routes.InitializeServices(cfg)
	if err != nil {
		return nil, fmt.Errorf("初始化服务失败: %w", err)
	}

	router, err := routes.SetupRoutes(cfg, services)
	if err != nil {
		services.Close()
		return nil, fmt.Errorf("设置路由失败: %w", err)
	}

	return &App{
		server:   New(cfg, router),
		cfg:      cfg,
		services: services,
	}, nil
}

// Start 启动应用程序，收到退出信号后优雅关闭
func (a *App) Start() error {
	errChan := make(chan error, 1)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logrus.WithFields(logrus.Fields{
			"port":   a.cfg.Server.Port,
			"bucket": a.cfg.Storage.Bucket,
			"region": a.cfg.Storage.Region,
		}).Info("启动语音合成服务")
		errChan <- a.server.Start()
	}()

	select {
	case err := <-errChan:
		a.services.Close()
		return err
	case <-quit:
		// 等待进行中的合成请求完成
		timeout := time.Duration(a.cfg.Server.WriteTimeout) * time.Second
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if err := a.server.Shutdown(ctx); err != nil {
			logrus.Errorf("服务器关闭出错: %v", err)
		}

		logrus.Info("正在释放合成协程池...")
		a.services.Close()

		logrus.Info("服务器已优雅关闭")
		return nil
	}
}
