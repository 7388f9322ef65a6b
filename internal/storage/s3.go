package storage

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/frahmantamala/rbac-service/internal"
)

// S3ImageStore uploads profile images to an S3 compatible bucket.
type S3ImageStore struct {
	client        *s3.Client
	bucket        string
	publicBaseURL string
}

// NewS3ImageStore builds the client from storage config. Static keys are used when both are set,
// otherwise the default AWS credential chain applies.
func NewS3ImageStore(ctx context.Context, cfg internal.StorageConfig) (*S3ImageStore, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.S3Region)}
	if cfg.S3AccessKey != "" && cfg.S3SecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, ""),
		))
	}

	awsConfig, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
		}
		o.UsePathStyle = cfg.S3UsePathStyle
		// MinIO and friends reject the default trailing checksums.
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
	})

	return &S3ImageStore{
		client:        client,
		bucket:        cfg.S3Bucket,
		publicBaseURL: publicBaseURL(cfg),
	}, nil
}

// Store puts the object under key and returns the URL it is served from.
func (s *S3ImageStore) Store(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s to s3: %w", key, err)
	}
	return s.publicBaseURL + "/" + key, nil
}

func publicBaseURL(cfg internal.StorageConfig) string {
	if cfg.PublicBaseURL != "" {
		return strings.TrimRight(cfg.PublicBaseURL, "/")
	}
	if cfg.S3Endpoint != "" {
		base := strings.TrimRight(cfg.S3Endpoint, "/")
		if cfg.S3UsePathStyle {
			return base + "/" + url.PathEscape(cfg.S3Bucket)
		}
		if u, err := url.Parse(base); err == nil && u.Host != "" {
			u.Host = cfg.S3Bucket + "." + u.Host
			return u.String()
		}
		return base + "/" + url.PathEscape(cfg.S3Bucket)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.S3Bucket, cfg.S3Region)
}
