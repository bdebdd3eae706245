package infra

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"sipndash/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ObjectStorage stores public assets such as product images.
type ObjectStorage interface {
	// Put uploads body under key and returns the URL clients should use.
	Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error)
}

// S3Storage implements ObjectStorage on any S3-compatible backend (AWS S3, MinIO, R2).
type S3Storage struct {
	client        *s3.Client
	bucket        string
	publicBaseURL string
}

var _ ObjectStorage = (*S3Storage)(nil)

func NewS3Storage(ctx context.Context, cfg *config.Config) (*S3Storage, error) {
	if cfg.S3Bucket == "" {
		return nil, errors.New("storage: bucket is required")
	}
	if cfg.S3AccessKey == "" || cfg.S3SecretKey == "" {
		return nil, errors.New("storage: access key and secret key are required")
	}
	region := cfg.S3Region
	if region == "" {
		region = "us-east-1"
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3AccessKey, cfg.S3SecretKey, "",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("storage: load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.S3UsePathStyle
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
		}
	})

	return &S3Storage{
		client:        client,
		bucket:        cfg.S3Bucket,
		publicBaseURL: publicBaseURL(cfg),
	}, nil
}

func (s *S3Storage) Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error) {
	if key == "" {
		return "", errors.New("storage: key is required")
	}
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
	})
	if err != nil {
		return "", fmt.Errorf("storage: put %s: %w", key, err)
	}
	return s.publicBaseURL + "/" + key, nil
}

// publicBaseURL prefers the configured CDN/public URL, then the path-style
// endpoint URL, then the AWS virtual-hosted URL.
func publicBaseURL(cfg *config.Config) string {
	if cfg.S3PublicBaseURL != "" {
		return strings.TrimRight(cfg.S3PublicBaseURL, "/")
	}
	if cfg.S3Endpoint != "" {
		return strings.TrimRight(cfg.S3Endpoint, "/") + "/" + cfg.S3Bucket
	}
	region := cfg.S3Region
	if region == "" {
		region = "us-east-1"
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.S3Bucket, region)
}
