package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
)

// MaxAttachmentSize caps message attachments and voice notes.
const MaxAttachmentSize = 10 << 20 // 10 MB

// MaxAvatarSize caps user and group avatars.
const MaxAvatarSize = 5 << 20 // 5 MB

var ErrAttachmentTooLarge = errors.New("attachment exceeds 10MB limit")

type S3Storage struct {
	client   *s3.Client
	bucket   string
	cdnURL   string // Public URL prefix for serving files
	endpoint string
}

type Config struct {
	Endpoint        string
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	CDNURL          string // Optional CDN URL, defaults to endpoint/bucket
}

func NewS3Storage(cfg Config) (*S3Storage, error) {
	client := s3.New(s3.Options{
		Region:       cfg.Region,
		BaseEndpoint: aws.String(cfg.Endpoint),
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		UsePathStyle: true, // Required for most S3-compatible services
	})

	cdnURL := cfg.CDNURL
	if cdnURL == "" {
		cdnURL = fmt.Sprintf("%s/%s", cfg.Endpoint, cfg.Bucket)
	}

	return &S3Storage{
		client:   client,
		bucket:   cfg.Bucket,
		cdnURL:   cdnURL,
		endpoint: cfg.Endpoint,
	}, nil
}

// Upload uploads a file and returns the public URL
func (s *S3Storage) Upload(ctx context.Context, folder string, filename string, contentType string, reader io.Reader) (string, error) {
	// Generate unique filename to avoid collisions
	ext := path.Ext(filename)
	uniqueName := fmt.Sprintf("%s/%s%s", folder, uuid.New().String(), ext)

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(uniqueName),
		Body:        reader,
		ContentType: aws.String(contentType),
		ACL:         types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload file: %w", err)
	}

	// Return public URL
	publicURL := fmt.Sprintf("%s/%s", strings.TrimSuffix(s.cdnURL, "/"), uniqueName)
	return publicURL, nil
}

// UploadAttachment uploads a message attachment under the uploader's folder.
func (s *S3Storage) UploadAttachment(ctx context.Context, uploaderID uuid.UUID, filename string, contentType string, size int64, reader io.Reader) (string, error) {
	if size > MaxAttachmentSize {
		return "", ErrAttachmentTooLarge
	}

	folder := fmt.Sprintf("attachments/%s", uploaderID.String())
	return s.Upload(ctx, folder, filename, contentType, reader)
}

// UploadAvatar uploads an avatar image
func (s *S3Storage) UploadAvatar(ctx context.Context, userID uuid.UUID, filename string, contentType string, reader io.Reader) (string, error) {
	if !IsImageType(contentType) {
		return "", fmt.Errorf("invalid image type: %s", contentType)
	}

	folder := fmt.Sprintf("avatars/%s", userID.String())
	return s.Upload(ctx, folder, filename, contentType, reader)
}

// Delete deletes a file by its URL
func (s *S3Storage) Delete(ctx context.Context, fileURL string) error {
	// Extract key from URL
	key := strings.TrimPrefix(fileURL, s.cdnURL+"/")
	if key == fileURL {
		// Try alternative format
		key = strings.TrimPrefix(fileURL, fmt.Sprintf("%s/%s/", s.endpoint, s.bucket))
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	return err
}

// AttachmentKind maps a MIME content type to the attachment category used for
// message kinds and notification summaries.
func AttachmentKind(contentType string) string {
	switch {
	case IsImageType(contentType):
		return "image"
	case strings.HasPrefix(contentType, "audio/"):
		return "audio"
	case strings.HasPrefix(contentType, "video/"):
		return "video"
	}
	return "file"
}

func IsImageType(contentType string) bool {
	switch contentType {
	case "image/jpeg", "image/png", "image/gif", "image/webp":
		return true
	}
	return false
}
