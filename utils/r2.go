// utils/r2.go
package utils

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"cuemaster/config"
	"cuemaster/services"
)

// ObjectPutter is the slice of the S3 API the archiver uses.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// NewR2Client builds an S3 client pointed at the account's R2 endpoint.
func NewR2Client(ctx context.Context, cfg config.R2Config) (*s3.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion("auto"),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID, cfg.AccessKeySecret, "",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load R2 config: %w", err)
	}

	endpoint := fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.AccountID)
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
	}), nil
}

// R2Archiver writes leaderboard snapshots as JSON objects.
type R2Archiver struct {
	client ObjectPutter
	bucket string
	prefix string
}

func NewR2Archiver(client ObjectPutter, bucket, prefix string) *R2Archiver {
	return &R2Archiver{client: client, bucket: bucket, prefix: prefix}
}

// SnapshotKey is <prefix>/YYYY/MM/DD/<snapshot id>.json
func (a *R2Archiver) SnapshotKey(snap *services.Snapshot) string {
	return path.Join(a.prefix, snap.CapturedAt.UTC().Format("2006/01/02"), snap.ID+".json")
}

// Archive uploads snap and returns the object key.
func (a *R2Archiver) Archive(ctx context.Context, snap *services.Snapshot) (string, error) {
	body, err := json.Marshal(snap)
	if err != nil {
		return "", fmt.Errorf("failed to encode snapshot: %w", err)
	}

	key := a.SnapshotKey(snap)
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to R2: %w", err)
	}
	return key, nil
}
