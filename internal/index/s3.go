package index

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// S3Config configures the S3 index backend.
type S3Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// S3 keeps the index in an S3-compatible bucket.
type S3 struct {
	client *minio.Client
	bucket string
}

// NewS3 creates an S3 index backend.
func NewS3(cfg S3Config) (*S3, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("s3 endpoint is required")
	}
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(strings.TrimSpace(cfg.AccessKey), strings.TrimSpace(cfg.SecretKey), ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("init s3 client: %w", err)
	}
	return &S3{client: client, bucket: bucket}, nil
}

// FindTaskID implements Lookup.
func (s *S3) FindTaskID(ctx context.Context, path string) (string, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, objectKey(path), minio.GetObjectOptions{})
	if err != nil {
		return "", s.lookupError(path, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return "", s.lookupError(path, err)
	}
	id := strings.TrimSpace(string(data))
	if id == "" {
		return "", fmt.Errorf("index lookup %s: empty object", path)
	}
	return id, nil
}

// InsertTask implements Recorder.
func (s *S3) InsertTask(ctx context.Context, path, taskID string) error {
	body := []byte(taskID)
	_, err := s.client.PutObject(ctx, s.bucket, objectKey(path), bytes.NewReader(body), int64(len(body)), minio.PutObjectOptions{
		ContentType: "text/plain",
	})
	if err != nil {
		return fmt.Errorf("index insert %s: %w", path, err)
	}
	return nil
}

func (s *S3) lookupError(path string, err error) error {
	// A missing bucket is misconfiguration, not a missing entry.
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	return fmt.Errorf("index lookup %s: %w", path, err)
}

// objectKey maps a dotted index path onto an object key.
func objectKey(path string) string {
	return "index/" + strings.TrimSpace(path)
}
