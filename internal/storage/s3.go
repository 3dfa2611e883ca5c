package storage

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"cloudtts/internal/config"
	apperrors "cloudtts/internal/errors"
	"cloudtts/internal/metrics"
)

const (
	audioExtension   = ".mp3"
	audioContentType = "audio/mpeg"
)

// Publisher 把最终音频上传到对象存储并返回公开地址
type Publisher interface {
	Publish(ctx context.Context, audio []byte) (string, error)
}

type s3Publisher struct {
	s3Svc    s3iface.S3API
	s3Config config.StorageConfig
	newName  func() string
}

// NewS3Publisher 使用存储配置中的区域创建 S3 发布器
func NewS3Publisher(sess *session.Session, s3Config config.StorageConfig) Publisher {
	awsConfig := aws.NewConfig().WithRegion(s3Config.Region)
	if s3Config.Endpoint != "" {
		awsConfig = awsConfig.WithEndpoint(s3Config.Endpoint).WithS3ForcePathStyle(true)
	}
	return NewS3PublisherWithAPI(s3.New(sess, awsConfig), s3Config)
}

// NewS3PublisherWithAPI 使用给定的 S3 API 实现创建发布器
func NewS3PublisherWithAPI(s3Svc s3iface.S3API, s3Config config.StorageConfig) Publisher {
	return &s3Publisher{
		s3Svc:    s3Svc,
		s3Config: s3Config,
		newName:  ObjectName,
	}
}

// ObjectName 生成全局唯一的对象名
func ObjectName() string {
	return uuid.NewString() + audioExtension
}

// PublicURL 根据存储桶、区域和对象名构造公开地址
func PublicURL(bucket, region, objectName string) string {
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", bucket, region, objectName)
}

func (s *s3Publisher) Publish(ctx context.Context, audio []byte) (string, error) {
	objectName := s.newName()

	putInput := &s3.PutObjectInput{
		Bucket:        aws.String(s.s3Config.Bucket),
		Key:           aws.String(objectName),
		Body:          bytes.NewReader(audio),
		ContentLength: aws.Int64(int64(len(audio))),
		ContentType:   aws.String(audioContentType),
	}

	_, err := s.s3Svc.PutObjectWithContext(ctx, putInput)
	if err != nil {
		log.Error().
			Err(err).
			Str("bucket", s.s3Config.Bucket).
			Str("key", objectName).
			Msg("Failed to upload object to S3")
		return "", apperrors.Wrap(apperrors.KindStorageUpload, err)
	}
	metrics.GlobalMetrics.RecordUpload(len(audio))

	s3Url := PublicURL(s.s3Config.Bucket, s.s3Config.Region, objectName)
	log.Debug().
		Str("s3Url", s3Url).
		Int("bytes", len(audio)).
		Msg("Successfully uploaded object to S3")

	return s3Url, nil
}
