package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// Config 包含应用程序的所有配置
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Storage StorageConfig `mapstructure:"storage"`
	Polly   PollyConfig   `mapstructure:"polly"`
	TTS     TTSConfig     `mapstructure:"tts"`
	Audio   AudioConfig   `mapstructure:"audio"`
	Upload  UploadConfig  `mapstructure:"upload"`
	Log     LogConfig     `mapstructure:"log"`
	Cache   CacheConfig   `mapstructure:"cache"`
}

// LogConfig 包含日志配置
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	File       string `mapstructure:"file"` // 为空时只输出到标准输出
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// CacheConfig 包含分段音频缓存配置
type CacheConfig struct {
	Enabled                bool  `mapstructure:"enabled"`
	ExpirationMinutes      int   `mapstructure:"expiration_minutes"`
	CleanupIntervalMinutes int   `mapstructure:"cleanup_interval_minutes"`
	MaxTotalSizeMB         int64 `mapstructure:"max_total_size_mb"`
}

// ServerConfig 包含HTTP服务器配置
type ServerConfig struct {
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
	BasePath     string `mapstructure:"base_path"`
}

// StorageConfig 包含 S3 存储配置
type StorageConfig struct {
	Bucket   string `mapstructure:"bucket"`
	Region   string `mapstructure:"region"`
	Endpoint string `mapstructure:"endpoint"` // 可选，用于兼容 S3 的本地服务
}

// PollyConfig 包含 Amazon Polly 配置
type PollyConfig struct {
	Region       string `mapstructure:"region"` // 为空时沿用存储区域
	Engine       string `mapstructure:"engine"`
	OutputFormat string `mapstructure:"output_format"`
}

// TTSConfig 包含分段与合成调度配置
type TTSConfig struct {
	MaxChunkLength int `mapstructure:"max_chunk_length"`
	MaxConcurrent  int `mapstructure:"max_concurrent"`
}

// AudioConfig 包含音频合并配置
type AudioConfig struct {
	FFmpegPath string `mapstructure:"ffmpeg_path"`
	Merger     string `mapstructure:"merger"` // ffmpeg 或 frame
}

// UploadConfig 包含上传文件限制
type UploadConfig struct {
	MaxFileSizeMB int64 `mapstructure:"max_file_size_mb"`
}

const (
	DefaultBucket         = "cloud-tts-21092025"
	DefaultRegion         = "us-east-1"
	DefaultMaxChunkLength = 4900
)

// setDefaults 设置默认值
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.read_timeout", 60)
	v.SetDefault("server.write_timeout", 300)
	v.SetDefault("storage.bucket", DefaultBucket)
	v.SetDefault("storage.region", DefaultRegion)
	v.SetDefault("polly.output_format", "mp3")
	v.SetDefault("tts.max_chunk_length", DefaultMaxChunkLength)
	v.SetDefault("tts.max_concurrent", 1)
	v.SetDefault("audio.ffmpeg_path", "ffmpeg")
	v.SetDefault("audio.merger", "ffmpeg")
	v.SetDefault("upload.max_file_size_mb", 32)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)
	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.expiration_minutes", 60)
	v.SetDefault("cache.cleanup_interval_minutes", 10)
}

// Load 从指定路径加载配置文件，路径为空时只使用默认值和环境变量
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// 配置 Viper
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv() // 自动绑定环境变量
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("加载配置文件失败: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	// 从环境变量覆盖配置（优先级最高）
	loadFromEnvironment(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate 检查必填配置
func (c *Config) Validate() error {
	if c.Storage.Bucket == "" {
		return errors.New("storage.bucket 不能为空")
	}
	if c.Storage.Region == "" {
		return errors.New("storage.region 不能为空")
	}
	if c.TTS.MaxChunkLength <= 0 || c.TTS.MaxChunkLength > DefaultMaxChunkLength {
		return fmt.Errorf("tts.max_chunk_length 必须在 1 到 %d 之间，当前为 %d",
			DefaultMaxChunkLength, c.TTS.MaxChunkLength)
	}
	switch c.Audio.Merger {
	case "", "ffmpeg", "frame":
	default:
		return fmt.Errorf("未知的 audio.merger: %q", c.Audio.Merger)
	}
	return nil
}

// PollyRegion 返回语音服务区域，未单独配置时与存储区域一致
func (c *Config) PollyRegion() string {
	if c.Polly.Region != "" {
		return c.Polly.Region
	}
	return c.Storage.Region
}

// loadFromEnvironment 从环境变量加载并覆盖配置
func loadFromEnvironment(cfg *Config) {
	// 服务器配置
	if port := os.Getenv("TTS_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = p
		}
	}
	if basePath := os.Getenv("TTS_SERVER_BASE_PATH"); basePath != "" {
		cfg.Server.BasePath = basePath
	}

	// 存储配置
	if bucket := os.Getenv("TTS_S3_BUCKET"); bucket != "" {
		cfg.Storage.Bucket = bucket
	}
	if region := os.Getenv("TTS_S3_REGION"); region != "" {
		cfg.Storage.Region = region
	}
	if endpoint := os.Getenv("TTS_S3_ENDPOINT"); endpoint != "" {
		cfg.Storage.Endpoint = endpoint
	}

	// Polly 配置
	if region := os.Getenv("TTS_POLLY_REGION"); region != "" {
		cfg.Polly.Region = region
	}
	if engine := os.Getenv("TTS_POLLY_ENGINE"); engine != "" {
		cfg.Polly.Engine = engine
	}

	// 分段配置
	if maxChunk := os.Getenv("TTS_MAX_CHUNK_LENGTH"); maxChunk != "" {
		if m, err := strconv.Atoi(maxChunk); err == nil {
			cfg.TTS.MaxChunkLength = m
		}
	}
	if maxConcurrent := os.Getenv("TTS_MAX_CONCURRENT"); maxConcurrent != "" {
		if m, err := strconv.Atoi(maxConcurrent); err == nil {
			cfg.TTS.MaxConcurrent = m
		}
	}

	// 音频配置
	if ffmpegPath := os.Getenv("TTS_FFMPEG_PATH"); ffmpegPath != "" {
		cfg.Audio.FFmpegPath = ffmpegPath
	}
	if merger := os.Getenv("TTS_AUDIO_MERGER"); merger != "" {
		cfg.Audio.Merger = merger
	}

	// 日志配置
	if logLevel := os.Getenv("TTS_LOG_LEVEL"); logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if logFormat := os.Getenv("TTS_LOG_FORMAT"); logFormat != "" {
		cfg.Log.Format = logFormat
	}
	if logFile := os.Getenv("TTS_LOG_FILE"); logFile != "" {
		cfg.Log.File = logFile
	}

	// 缓存配置
	if cacheEnabled := os.Getenv("TTS_CACHE_ENABLED"); cacheEnabled != "" {
		cfg.Cache.Enabled = strings.ToLower(cacheEnabled) == "true"
	}
}
