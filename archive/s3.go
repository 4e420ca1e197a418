package archive

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/logshard/logshard/shard"
)

// contentType marks uploaded targets as gzip streams.
const contentType = "application/gzip"

// S3Config holds configuration for the S3 uploader.
type S3Config struct {
	// Bucket is the S3 bucket name (required).
	Bucket string
	// Prefix is the key prefix within the bucket (optional).
	Prefix string
	// Region is the AWS region (optional, uses default chain if empty).
	Region string
	// Endpoint is a custom S3 endpoint URL for S3-compatible providers
	// (e.g. Cloudflare R2, MinIO). Empty uses the default AWS endpoint.
	Endpoint string
	// UsePathStyle forces path-style addressing (bucket in path, not subdomain).
	// Required by most S3-compatible providers (R2, MinIO, etc.).
	UsePathStyle bool
}

// Validate checks that required S3 configuration is present.
func (c *S3Config) Validate() error {
	if c.Bucket == "" {
		return errors.New("S3 bucket is required")
	}
	return nil
}

// s3API is the slice of the S3 client the uploader uses.
type s3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Uploader stores target files in S3-compatible object storage.
type S3Uploader struct {
	client s3API
	cfg    S3Config
}

// NewS3Uploader creates an uploader for the configured bucket.
// Uses AWS SDK default credential chain (env vars, shared config, IAM role).
func NewS3Uploader(ctx context.Context, cfg S3Config) (*S3Uploader, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var opts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}
	awsConfig, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		endpoint := cfg.Endpoint
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = &endpoint
		})
	}
	if cfg.UsePathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}

	return &S3Uploader{
		client: s3.NewFromConfig(awsConfig, s3Opts...),
		cfg:    cfg,
	}, nil
}

// Upload puts one target file under the day partition.
func (u *S3Uploader) Upload(ctx context.Context, day, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return shard.WrapReadError(err, path)
	}
	defer f.Close()

	_, err = u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.cfg.Bucket),
		Key:         aws.String(Key(u.cfg.Prefix, day, path)),
		Body:        f,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return shard.WrapUploadError(err, path)
	}
	return nil
}

// Close releases uploader resources.
func (u *S3Uploader) Close() error {
	return nil
}

// Verify S3Uploader implements Uploader.
var _ Uploader = (*S3Uploader)(nil)
