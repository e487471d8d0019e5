package depcache

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// NewS3Backend creates a backend storing cache archives in an S3 bucket so
// entries survive the ephemeral worker and are shared across runs.
func NewS3Backend(ctx context.Context, bucket string, region string) (Backend, error) {
	if bucket == "" {
		return nil, fmt.Errorf("no cache bucket configured")
	}
	opts := []func(*awsconfig.LoadOptions) error{}
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration (%w)", err)
	}
	return &s3Backend{
		client: s3.NewFromConfig(cfg),
		bucket: bucket,
	}, nil
}

type s3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type s3Backend struct {
	client s3API
	bucket string
}

func (b *s3Backend) Fetch(ctx context.Context, key string) (io.ReadCloser, bool, error) {
	output, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key + archiveSuffix),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to fetch cache entry %s from s3://%s (%w)", key, b.bucket, err)
	}
	return output.Body, true, nil
}

func (b *s3Backend) Store(ctx context.Context, key string, body io.Reader) error {
	_, err := b.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key + archiveSuffix),
		Body:   body,
	})
	if err != nil {
		return fmt.Errorf("failed to store cache entry %s in s3://%s (%w)", key, b.bucket, err)
	}
	return nil
}
