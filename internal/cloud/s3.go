package cloud

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/elektroprotokolle/pruefprotokoll/internal/domain"
	"github.com/elektroprotokolle/pruefprotokoll/internal/export"
)

// S3Client stores exported protocol documents in a bucket.
type S3Client struct {
	svc    *s3.Client
	bucket string
}

func NewS3Client(ctx context.Context, region, bucket string) (*S3Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}

	return &S3Client{
		svc:    s3.NewFromConfig(cfg),
		bucket: bucket,
	}, nil
}

// ExportKey places exports under the protocol id so revisions of one protocol
// overwrite each other.
func ExportKey(p domain.Protocol) string {
	return fmt.Sprintf("protocols/%s/%s", p.ID(), export.Filename(p))
}

// UploadExport uploads the document and returns a presigned download URL.
func (c *S3Client) UploadExport(ctx context.Context, key string, data []byte) (string, error) {
	input := &s3.PutObjectInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(export.ContentType),
		Metadata: map[string]string{
			"uploaded-at": time.Now().Format(time.RFC3339),
		},
	}

	if _, err := c.svc.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	presignClient := s3.NewPresignClient(c.svc)
	presignResult, err := presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = 1 * time.Hour
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}

	return presignResult.URL, nil
}

// ListExports lists stored export keys below prefix.
func (c *S3Client) ListExports(ctx context.Context, prefix string) ([]string, error) {
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(c.bucket),
		Prefix: aws.String(prefix),
	}

	var keys []string
	paginator := s3.NewListObjectsV2Paginator(c.svc, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", err)
		}
		for _, obj := range page.Contents {
			keys = append(keys, aws.ToString(obj.Key))
		}
	}

	return keys, nil
}

// DeleteExports removes every stored export of a protocol.
func (c *S3Client) DeleteExports(ctx context.Context, protocolID string) error {
	keys, err := c.ListExports(ctx, "protocols/"+protocolID+"/")
	if err != nil {
		return err
	}
	for _, key := range keys {
		_, err := c.svc.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(c.bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			return fmt.Errorf("failed to delete from S3: %w", err)
		}
	}
	return nil
}

// Committed is a no-op; exports are uploaded on request only.
func (c *S3Client) Committed(ctx context.Context, p domain.Protocol, created bool) error { return nil }

// Removed drops the exports of a deleted protocol.
func (c *S3Client) Removed(ctx context.Context, id string) error {
	return c.DeleteExports(ctx, id)
}
