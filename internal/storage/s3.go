package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/vadim/neo-threads/internal/domain/thread/entity"
)

// ErrUnsupportedMediaType is returned for content types Threads can't attach
var ErrUnsupportedMediaType = errors.New("unsupported media type")

// S3Config holds S3/MinIO configuration
type S3Config struct {
	Endpoint        string // e.g., "http://localhost:9000" for MinIO
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	Region          string
	PublicURL       string // must be reachable by the Threads servers
}

// ObjectPutter is the part of the S3 client used for uploads
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Storage hosts attachment media so Threads can fetch it by URL
type S3Storage struct {
	client    ObjectPutter
	bucket    string
	publicURL string
}

// NewS3Storage creates a new S3 storage client
func NewS3Storage(cfg S3Config) *S3Storage {
	client := s3.New(s3.Options{
		Region:       cfg.Region,
		BaseEndpoint: aws.String(cfg.Endpoint),
		Credentials: credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		),
		UsePathStyle: true, // Required for MinIO
	})

	return NewS3StorageWithClient(client, cfg.Bucket, cfg.PublicURL)
}

// NewS3StorageWithClient creates storage over an existing client
func NewS3StorageWithClient(client ObjectPutter, bucket, publicURL string) *S3Storage {
	return &S3Storage{
		client:    client,
		bucket:    bucket,
		publicURL: strings.TrimRight(publicURL, "/"),
	}
}

// UploadInput represents input for uploading a file
type UploadInput struct {
	Reader      io.Reader
	ContentType string
	Size        int64
	Filename    string
}

// UploadOutput describes a hosted attachment
type UploadOutput struct {
	Key        string                `json:"key"`
	URL        string                `json:"url"`
	Type       entity.AttachmentType `json:"type"`
	Size       int64                 `json:"size"`
	UploadedAt time.Time             `json:"uploaded_at"`
}

// Upload stores the file and returns its public URL along with the
// attachment type it can be published as
func (s *S3Storage) Upload(ctx context.Context, in UploadInput) (*UploadOutput, error) {
	attachmentType, ext, ok := classify(in.ContentType)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedMediaType, in.ContentType)
	}
	if e := path.Ext(in.Filename); e != "" {
		ext = strings.ToLower(e)
	}

	now := time.Now()
	key := fmt.Sprintf("threads/%s/%s%s", now.Format("2006/01/02"), uuid.New().String(), ext)

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          in.Reader,
		ContentType:   aws.String(in.ContentType),
		ContentLength: aws.Int64(in.Size),
	})
	if err != nil {
		return nil, fmt.Errorf("uploading to s3: %w", err)
	}

	return &UploadOutput{
		Key:        key,
		URL:        s.publicURL + "/" + key,
		Type:       attachmentType,
		Size:       in.Size,
		UploadedAt: now,
	}, nil
}

// classify maps a content type to its attachment type and file extension
func classify(contentType string) (entity.AttachmentType, string, bool) {
	switch strings.ToLower(contentType) {
	case "image/jpeg":
		return entity.AttachmentImage, ".jpg", true
	case "image/png":
		return entity.AttachmentImage, ".png", true
	case "image/gif":
		return entity.AttachmentImage, ".gif", true
	case "image/webp":
		return entity.AttachmentImage, ".webp", true
	case "video/mp4":
		return entity.AttachmentVideo, ".mp4", true
	case "video/quicktime":
		return entity.AttachmentVideo, ".mov", true
	default:
		return "", "", false
	}
}
