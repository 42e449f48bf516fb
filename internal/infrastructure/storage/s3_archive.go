// Package storage archives exported reports in S3-compatible object storage.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/smartspace/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// ErrEmptyKey is returned for operations without an object key
var ErrEmptyKey = errors.New("storage key is required")

// S3ReportArchive stores report files and hands out presigned download links.
// It works with AWS S3 as well as MinIO and other S3-compatible servers.
type S3ReportArchive struct {
	client        *s3.Client
	presignClient *s3.PresignClient
	bucket        string
	presignExpiry time.Duration
	logger        *zap.Logger
}

// Option configures an S3ReportArchive
type Option func(*S3ReportArchive)

// WithLogger sets the archive logger
func WithLogger(logger *zap.Logger) Option {
	return func(a *S3ReportArchive) {
		a.logger = logger
	}
}

// WithPresignExpiry overrides how long download links stay valid
func WithPresignExpiry(d time.Duration) Option {
	return func(a *S3ReportArchive) {
		a.presignExpiry = d
	}
}

// NewS3ReportArchive builds the S3 client from cfg with static credentials
func NewS3ReportArchive(ctx context.Context, cfg config.StorageConfig, opts ...Option) (*S3ReportArchive, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("storage bucket is required")
	}
	if cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" {
		return nil, errors.New("storage credentials are required")
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = "http://localhost:9000"
	}
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		endpoint = "http://" + endpoint
	}
	if _, err := url.Parse(endpoint); err != nil {
		return nil, fmt.Errorf("invalid storage endpoint: %w", err)
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		o.BaseEndpoint = aws.String(endpoint)
	})

	a := &S3ReportArchive{
		client:        client,
		presignClient: s3.NewPresignClient(client),
		bucket:        cfg.Bucket,
		presignExpiry: cfg.PresignExpiry,
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.presignExpiry <= 0 {
		a.presignExpiry = 15 * time.Minute
	}
	return a, nil
}

// EnsureBucket creates the bucket when it does not exist yet
func (a *S3ReportArchive) EnsureBucket(ctx context.Context) error {
	_, err := a.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(a.bucket)})
	if err == nil {
		return nil
	}
	var notFound *types.NotFound
	var noSuchBucket *types.NoSuchBucket
	if !errors.As(err, &notFound) && !errors.As(err, &noSuchBucket) {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	a.logger.Info("Creating report bucket", zap.String("bucket", a.bucket))
	_, err = a.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(a.bucket)})
	if err != nil {
		var owned *types.BucketAlreadyOwnedByYou
		if errors.As(err, &owned) {
			return nil
		}
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

// Archive uploads data under key and returns a presigned download URL
func (a *S3ReportArchive) Archive(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if key == "" {
		return "", ErrEmptyKey
	}
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(a.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload report: %w", err)
	}
	a.logger.Debug("Report archived", zap.String("key", key), zap.Int("bytes", len(data)))
	return a.DownloadURL(ctx, key)
}

// DownloadURL presigns a GET for key
func (a *S3ReportArchive) DownloadURL(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", ErrEmptyKey
	}
	req, err := a.presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(a.presignExpiry))
	if err != nil {
		return "", fmt.Errorf("failed to presign download: %w", err)
	}
	return req.URL, nil
}

// Bucket returns the bucket name
func (a *S3ReportArchive) Bucket() string {
	return a.bucket
}
