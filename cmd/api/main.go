package main

import (
	"flag"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"cloudtts/internal/config"
	"cloudtts/internal/http/middleware"
	"cloudtts/internal/http/server"
)

// initLog 初始化 logrus 与 zerolog，两者共用同一个输出
func initLog(logConfig *config.LogConfig) {
	out := middleware.LogOutput(logConfig)

	// 设置日志格式
	if logConfig.Format == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
			DisableColors: logConfig.File != "",
		})
	}

	// 设置日志级别
	level, err := logrus.ParseLevel(logConfig.Level)
	if err != nil {
		logrus.WithError(err).Warnf("无效的日志级别 '%s'，回退到 'info'", logConfig.Level)
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
	logrus.SetOutput(out)

	middleware.InitZerologWithConfig(logConfig, out)
}

// findConfig 在默认位置查找配置文件，找不到时返回空字符串
func findConfig() string {
	possiblePaths := []string{
		"./configs/config.yaml",
		"../configs/config.yaml",
		"/etc/cloudtts/config.yaml",
	}
	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

func main() {
	configPath := flag.String("config", "", "配置文件路径")
	flag.Parse()

	if *configPath == "" {
		*configPath = findConfig()
	}

	if *configPath != "" {
		absConfigPath, err := filepath.Abs(*configPath)
		if err != nil {
			logrus.Fatalf("无法获取配置文件的绝对路径: %v", err)
		}
		*configPath = absConfigPath
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.Fatalf("无法加载配置: %v", err)
	}

	initLog(&cfg.Log)

	if *configPath != "" {
		logrus.Infof("使用配置文件: %s", *configPath)
	} else {
		logrus.Info("未找到配置文件，使用默认值与环境变量")
	}

	app, err := server.NewApp(cfg)
	if err != nil {
		logrus.Fatalf("初始化应用失败: %v", err)
	}

	if err := app.Start(); err != nil {
		logrus.Fatalf("应用运行出错: %v", err)
	}
}
