// Package storage resolves avatar object keys stored in an S3-compatible bucket
// (MinIO in development) into time-limited download URLs.
package storage

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Service defines the avatar storage operations
type Service interface {
	// GeneratePresignedDownloadURL creates a time-limited URL for downloading an object
	GeneratePresignedDownloadURL(ctx context.Context, key string, ttl time.Duration) (string, error)

	// Health checks if the bucket is reachable
	Health(ctx context.Context) error
}

// Config holds the bucket connection settings
type Config struct {
	Endpoint       string
	PublicEndpoint string
	AccessKey      string
	SecretKey      string
	BucketName     string
	UseSSL         bool
	Region         string
}

// LoadConfig reads S3_* environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Endpoint:       os.Getenv("S3_ENDPOINT"),
		PublicEndpoint: os.Getenv("S3_PUBLIC_ENDPOINT"),
		AccessKey:      os.Getenv("S3_ACCESS_KEY"),
		SecretKey:      os.Getenv("S3_SECRET_KEY"),
		BucketName:     os.Getenv("S3_BUCKET_NAME"),
		UseSSL:         os.Getenv("S3_USE_SSL") == "true",
		Region:         os.Getenv("S3_REGION"),
	}

	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("S3_ENDPOINT environment variable is required")
	}
	if cfg.AccessKey == "" {
		return nil, fmt.Errorf("S3_ACCESS_KEY environment variable is required")
	}
	if cfg.SecretKey == "" {
		return nil, fmt.Errorf("S3_SECRET_KEY environment variable is required")
	}
	if cfg.BucketName == "" {
		return nil, fmt.Errorf("S3_BUCKET_NAME environment variable is required")
	}
	if cfg.PublicEndpoint == "" {
		cfg.PublicEndpoint = cfg.Endpoint
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}

	return cfg, nil
}

func (c *Config) url(endpoint string) string {
	protocol := "http"
	if c.UseSSL {
		protocol = "https"
	}
	return fmt.Sprintf("%s://%s", protocol, endpoint)
}

type service struct {
	client     *s3.Client
	presigner  *s3.PresignClient
	bucketName string
}

// New creates a storage service for cfg. Download URLs are signed against the
// public endpoint so browsers outside the cluster can follow them.
func New(ctx context.Context, cfg *Config) (Service, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	// Path-style addressing is required for MinIO
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.url(cfg.Endpoint))
		o.UsePathStyle = true
	})

	publicClient := client
	if cfg.PublicEndpoint != cfg.Endpoint {
		log.Printf("[Storage] Using public endpoint for presigned URLs: %s", cfg.PublicEndpoint)
		publicClient = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.url(cfg.PublicEndpoint))
			o.UsePathStyle = true
		})
	}

	return &service{
		client:     client,
		presigner:  s3.NewPresignClient(publicClient),
		bucketName: cfg.BucketName,
	}, nil
}

// GeneratePresignedDownloadURL creates a presigned URL for downloading
func (s *service) GeneratePresignedDownloadURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if key == "" {
		return "", fmt.Errorf("file key cannot be empty")
	}
	if ttl <= 0 {
		return "", fmt.Errorf("TTL must be positive")
	}

	request, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = ttl
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned download URL for key %s: %w", key, err)
	}

	return request.URL, nil
}

// Health checks if the storage service is accessible
func (s *service) Health(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucketName),
	})
	if err != nil {
		return fmt.Errorf("storage health check failed: %w", err)
	}
	return nil
}
