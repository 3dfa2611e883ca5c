package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, DefaultBucket, cfg.Storage.Bucket)
	assert.Equal(t, DefaultRegion, cfg.Storage.Region)
	assert.Equal(t, DefaultMaxChunkLength, cfg.TTS.MaxChunkLength)
	assert.Equal(t, 1, cfg.TTS.MaxConcurrent)
	assert.Equal(t, "mp3", cfg.Polly.OutputFormat)
	assert.Equal(t, DefaultRegion, cfg.PollyRegion())
	assert.False(t, cfg.Cache.Enabled)
}

func TestLoadFromFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: 8080
storage:
  bucket: my-bucket
  region: eu-west-1
polly:
  region: us-west-2
tts:
  max_concurrent: 4
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	t.Setenv("TTS_S3_BUCKET", "env-bucket")
	t.Setenv("TTS_CACHE_ENABLED", "TRUE")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "env-bucket", cfg.Storage.Bucket)
	assert.Equal(t, "eu-west-1", cfg.Storage.Region)
	assert.Equal(t, "us-west-2", cfg.PollyRegion())
	assert.Equal(t, 4, cfg.TTS.MaxConcurrent)
	assert.True(t, cfg.Cache.Enabled)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"有效配置", func(c *Config) {}, false},
		{"缺少存储桶", func(c *Config) { c.Storage.Bucket = "" }, true},
		{"缺少区域", func(c *Config) { c.Storage.Region = "" }, true},
		{"分段长度非法", func(c *Config) { c.TTS.MaxChunkLength = 0 }, true},
		{"分段长度超过上限", func(c *Config) { c.TTS.MaxChunkLength = 6000 }, true},
		{"分段长度等于上限", func(c *Config) { c.TTS.MaxChunkLength = DefaultMaxChunkLength }, false},
		{"未知合并器", func(c *Config) { c.Audio.Merger = "sox" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				Storage: StorageConfig{Bucket: DefaultBucket, Region: DefaultRegion},
				TTS:     TTSConfig{MaxChunkLength: DefaultMaxChunkLength},
				Audio:   AudioConfig{Merger: "ffmpeg"},
			}
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadRejectsOversizedChunkLength(t *testing.T) {
	t.Setenv("TTS_MAX_CHUNK_LENGTH", "6000")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tts.max_chunk_length")
}
