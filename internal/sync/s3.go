package sync

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// The export is a JSONL feed overwritten in place each pass, so
// downstream pollers must revalidate instead of serving a cached copy.
const (
	exportContentType  = "application/x-ndjson"
	exportCacheControl = "no-cache"
)

// S3Destination publishes the federation export to one object in an
// S3-compatible bucket. Every pass overwrites the same key; consumers
// that want history should enable bucket versioning.
type S3Destination struct {
	client *s3.Client
	bucket string
	key    string
}

var _ Destination = (*S3Destination)(nil)

// NewS3Destination builds a destination from the ambient AWS credential
// chain. A non-empty endpoint switches to path-style addressing so
// MinIO-style servers work without virtual-host DNS.
func NewS3Destination(ctx context.Context, bucket, key, region, endpoint string) (*S3Destination, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Destination{client: client, bucket: bucket, key: key}, nil
}

// Write uploads the export under the configured key.
func (d *S3Destination) Write(ctx context.Context, data []byte) error {
	_, err := d.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(d.bucket),
		Key:          aws.String(d.key),
		Body:         bytes.NewReader(data),
		ContentType:  aws.String(exportContentType),
		CacheControl: aws.String(exportCacheControl),
	})
	if err != nil {
		return fmt.Errorf("s3 put object %s/%s: %w", d.bucket, d.key, err)
	}
	return nil
}
