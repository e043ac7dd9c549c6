package destination

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	s3config "github.com/aws/aws-sdk-go-v2/config"

	"github.com/SMExDigital/SMExDigital.VSTS.TestCaseCleanup/config"
)

var _ DestinationProvider = (*S3Destination)(nil)

// S3API is the part of the S3 client used for uploads, so tests can provide a custom implementation
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type S3Destination struct {
	client  S3API
	config  *config.S3Config
	timeout time.Duration
}

func NewS3Destination(ctx context.Context, cfg *config.S3Config, report *config.ReportConfig) (*S3Destination, error) {
	if cfg == nil {
		return nil, fmt.Errorf("s3 configuration is required")
	}
	report.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid s3 config: %w", err)
	}

	// For S3-compatible storage, region is often just a placeholder
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	s3cfg, err := s3config.LoadDefaultConfig(
		ctx,
		s3config.WithRegion(region),
		s3config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")),
		s3config.WithRetryMaxAttempts(report.MaxRetries),
		// Suppress AWS SDK logging warnings about missing checksums
		s3config.WithClientLogMode(0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	client := s3.NewFromConfig(s3cfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			// Use path-style addressing for S3-compatible storage
			o.UsePathStyle = true
		}
	})

	return newS3DestinationWithClient(client, cfg, report), nil
}

func newS3DestinationWithClient(client S3API, cfg *config.S3Config, report *config.ReportConfig) *S3Destination {
	return &S3Destination{
		client:  client,
		config:  cfg,
		timeout: time.Duration(report.TimeoutSeconds) * time.Second,
	}
}

// Upload writes content to <prefix>/<path> in the bucket
func (d *S3Destination) Upload(ctx context.Context, filePath string, content io.Reader) error {
	data, err := io.ReadAll(content)
	if err != nil {
		return fmt.Errorf("reading upload content: %w", err)
	}

	key := path.Join(d.config.Prefix, filePath)

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	_, err = d.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(d.config.Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType(key)),
	})
	if err != nil {
		return fmt.Errorf("failed to put object %s: %w", key, err)
	}
	return nil
}

func contentType(key string) string {
	switch path.Ext(key) {
	case ".json":
		return "application/json"
	case ".txt", ".log":
		return "text/plain; charset=utf-8"
	default:
		return "application/octet-stream"
	}
}

func (d *S3Destination) Close() error {
	return nil
}
