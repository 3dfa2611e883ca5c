package polly

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/polly"
	"github.com/aws/aws-sdk-go/service/polly/pollyiface"
	"github.com/sirupsen/logrus"

	"cloudtts/internal/config"
	"cloudtts/internal/models"
)

// Client 是 Amazon Polly 语音合成客户端
type Client struct {
	api          pollyiface.PollyAPI
	engine       string
	outputFormat string
}

// NewClient 使用独立的区域配置创建 Polly 客户端
func NewClient(sess *session.Session, cfg *config.Config) *Client {
	api := polly.New(sess, aws.NewConfig().WithRegion(cfg.PollyRegion()))
	return NewClientWithAPI(api, cfg.Polly)
}

// NewClientWithAPI 使用给定的 API 实现创建客户端
func NewClientWithAPI(api pollyiface.PollyAPI, cfg config.PollyConfig) *Client {
	format := cfg.OutputFormat
	if format == "" {
		format = polly.OutputFormatMp3
	}
	return &Client{
		api:          api,
		engine:       cfg.Engine,
		outputFormat: format,
	}
}

// Synthesize 合成一段文本并返回完整的音频字节
func (c *Client) Synthesize(ctx context.Context, text, voiceID string) ([]byte, error) {
	input := &polly.SynthesizeSpeechInput{
		OutputFormat: aws.String(c.outputFormat),
		Text:         aws.String(text),
		VoiceId:      aws.String(voiceID),
	}
	if c.engine != "" {
		input.Engine = aws.String(c.engine)
	}

	output, err := c.api.SynthesizeSpeechWithContext(ctx, input)
	if err != nil {
		return nil, err
	}
	defer output.AudioStream.Close()

	audio, err := io.ReadAll(output.AudioStream)
	if err != nil {
		return nil, fmt.Errorf("读取音频流失败: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"voice":      voiceID,
		"characters": aws.Int64Value(output.RequestCharacters),
		"bytes":      len(audio),
	}).Debug("Polly合成完成")
	return audio, nil
}

// ListVoices 列出可用的语音，language 为空时返回全部
func (c *Client) ListVoices(ctx context.Context, language string) ([]models.Voice, error) {
	input := &polly.DescribeVoicesInput{}
	if language != "" {
		input.LanguageCode = aws.String(language)
	}
	if c.engine != "" {
		input.Engine = aws.String(c.engine)
	}

	var voices []models.Voice
	for {
		output, err := c.api.DescribeVoicesWithContext(ctx, input)
		if err != nil {
			return nil, err
		}
		for _, v := range output.Voices {
			voices = append(voices, models.Voice{
				ID:               aws.StringValue(v.Id),
				Name:             aws.StringValue(v.Name),
				Gender:           aws.StringValue(v.Gender),
				LanguageCode:     aws.StringValue(v.LanguageCode),
				LanguageName:     aws.StringValue(v.LanguageName),
				SupportedEngines: aws.StringValueSlice(v.SupportedEngines),
			})
		}
		if aws.StringValue(output.NextToken) == "" {
			break
		}
		input.NextToken = output.NextToken
	}
	return voices, nil
}
