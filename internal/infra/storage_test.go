package infra

import (
	"context"
	"testing"

	"sipndash/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewS3Storage_Validation(t *testing.T) {
	_, err := NewS3Storage(context.Background(), &config.Config{S3AccessKey: "a", S3SecretKey: "b"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bucket is required")

	_, err = NewS3Storage(context.Background(), &config.Config{S3Bucket: "img"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access key")

	s, err := NewS3Storage(context.Background(), &config.Config{
		S3Bucket: "img", S3AccessKey: "a", S3SecretKey: "b",
		S3Endpoint: "http://localhost:9000", S3UsePathStyle: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9000/img", s.publicBaseURL)
}

func TestPublicBaseURL(t *testing.T) {
	assert.Equal(t, "https://cdn.example.com",
		publicBaseURL(&config.Config{S3PublicBaseURL: "https://cdn.example.com/", S3Bucket: "img"}))
	assert.Equal(t, "https://img.s3.eu-west-1.amazonaws.com",
		publicBaseURL(&config.Config{S3Bucket: "img", S3Region: "eu-west-1"}))
}
