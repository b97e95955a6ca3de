package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/ecamli/bskydigest/internal/models"
)

// Archive writes generated digests to S3-compatible object storage
// (Cloudflare R2) as dated JSON objects. It is best-effort: callers log
// failures and move on.
type Archive struct {
	client *s3.Client
	bucket string
}

// NewArchive builds an archive against a custom S3 endpoint.
func NewArchive(ctx context.Context, endpoint, accessKey, secretKey, bucket string) (*Archive, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion("auto"),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	})

	return &Archive{client: client, bucket: bucket}, nil
}

// SaveDigest stores the record under digests/YYYY/MM/DD/{type}.json, keyed
// by its own generation date so reruns of the same day overwrite.
func (a *Archive) SaveDigest(ctx context.Context, record *models.DigestRecord) error {
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal digest: %w", err)
	}

	key := fmt.Sprintf("digests/%s/%s.json",
		record.Meta.GeneratedAt.UTC().Format("2006/01/02"), record.Meta.DigestType)

	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("put digest object: %w", err)
	}

	return nil
}
