package storage

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/genbyt/genbyt-backend/pkg/logger"
	"github.com/google/uuid"
)

const s3KeyPrefix = "listings"

// S3Storage keeps media bytes in an S3 bucket.
type S3Storage struct {
	client  *s3.Client
	bucket  string
	baseURL string
}

func NewS3Storage(region, bucket, accessKeyID, secretAccessKey, baseURL string) *S3Storage {
	var cfg aws.Config
	var err error

	// If credentials are provided, use them. Otherwise, use default credential chain
	if accessKeyID != "" && secretAccessKey != "" {
		cfg = aws.Config{
			Region: region,
			Credentials: credentials.NewStaticCredentialsProvider(
				accessKeyID,
				secretAccessKey,
				"",
			),
		}
	} else {
		cfg, err = awsconfig.LoadDefaultConfig(context.TODO(),
			awsconfig.WithRegion(region),
		)
		if err != nil {
			cfg = aws.Config{
				Region: region,
			}
		}
	}

	return &S3Storage{
		client:  s3.NewFromConfig(cfg),
		bucket:  bucket,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}
}

func (s *S3Storage) ValidateAndSave(ctx context.Context, files []Upload, opts SaveOptions) ([]string, error) {
	if len(files) == 0 {
		return nil, nil
	}
	if err := validateBatch(files, opts); err != nil {
		return nil, err
	}

	saved := make([]string, 0, len(files))
	for _, file := range files {
		key := fmt.Sprintf("%s/%s%s", s3KeyPrefix, uuid.New().String(), strings.ToLower(filepath.Ext(file.Filename)))

		_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(s.bucket),
			Key:         aws.String(key),
			Body:        bytes.NewReader(file.Data),
			ContentType: aws.String(file.ContentType),
		})
		if err != nil {
			// Remove objects written for earlier files so a failed batch
			// leaves nothing behind.
			s.Delete(ctx, saved)
			return nil, fmt.Errorf("failed to upload %q to S3: %w", file.Filename, err)
		}
		saved = append(saved, s.objectURL(key))
	}

	logger.Debug("Media files saved to S3", map[string]interface{}{
		"count":  len(saved),
		"bucket": s.bucket,
	})
	return saved, nil
}

func (s *S3Storage) Delete(ctx context.Context, urls []string) {
	for _, url := range urls {
		key, ok := s.objectKey(url)
		if !ok {
			logger.Warn("Skipping S3 delete for unrecognized URL", map[string]interface{}{
				"url": url,
			})
			continue
		}
		_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			logger.Warn("Failed to delete media object from S3", map[string]interface{}{
				"url":   url,
				"key":   key,
				"error": err.Error(),
			})
		}
	}
}

func (s *S3Storage) objectURL(key string) string {
	if s.baseURL != "" {
		return fmt.Sprintf("%s/%s", s.baseURL, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.client.Options().Region, key)
}

// objectKey recovers the bucket key from a URL produced by objectURL.
func (s *S3Storage) objectKey(url string) (string, bool) {
	if s.baseURL != "" && strings.HasPrefix(url, s.baseURL+"/") {
		return strings.TrimPrefix(url, s.baseURL+"/"), true
	}
	if idx := strings.Index(url, ".amazonaws.com/"); idx >= 0 {
		return url[idx+len(".amazonaws.com/"):], true
	}
	if strings.HasPrefix(url, s3KeyPrefix+"/") {
		return url, true
	}
	return "", false
}
