// internal/services/storage_service.go
package services

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/google/uuid"

	"github.com/myfitlabs/myfit-backend/internal/config"
)

// UploadCategory selects the storage policy (folder, size cap, accepted
// formats) for an image upload.
type UploadCategory string

const (
	UploadCategoryCover   UploadCategory = "cover"
	UploadCategoryPreview UploadCategory = "preview"
	UploadCategoryAvatar  UploadCategory = "avatar"
)

type uploadPolicy struct {
	folder     string
	maxSize    int64
	extensions []string
}

var uploadPolicies = map[UploadCategory]uploadPolicy{
	UploadCategoryCover: {
		folder:     "template-covers",
		maxSize:    5 * 1024 * 1024,
		extensions: []string{".jpg", ".jpeg", ".png", ".webp"},
	},
	UploadCategoryPreview: {
		folder:     "template-previews",
		maxSize:    5 * 1024 * 1024,
		extensions: []string{".jpg", ".jpeg", ".png", ".webp"},
	},
	UploadCategoryAvatar: {
		folder:     "avatars",
		maxSize:    2 * 1024 * 1024,
		extensions: []string{".jpg", ".jpeg", ".png"},
	},
}

// StorageService stores template cover art and user avatars on S3. Without
// AWS credentials it degrades to URL stubs so local development does not need
// a bucket.
type StorageService struct {
	s3Client *s3.S3
	config   *config.Config
}

type UploadResult struct {
	URL      string `json:"url"`
	Key      string `json:"key"`
	Size     int64  `json:"size"`
	MimeType string `json:"mime_type"`
}

func NewStorageService(config *config.Config) (*StorageService, error) {
	if config.AWS.AccessKeyID == "" {
		return &StorageService{config: config}, nil
	}

	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(config.AWS.Region),
		Credentials: credentials.NewStaticCredentials(
			config.AWS.AccessKeyID,
			config.AWS.SecretAccessKey,
			"",
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return &StorageService{
		s3Client: s3.New(sess),
		config:   config,
	}, nil
}

// UploadImage validates the file against the category's policy and stores it.
// The content type is sniffed from the file bytes, never trusted from the
// client header.
func (s *StorageService) UploadImage(file multipart.File, header *multipart.FileHeader, category UploadCategory) (*UploadResult, error) {
	policy, ok := uploadPolicies[category]
	if !ok {
		return nil, fmt.Errorf("unknown upload category %q", category)
	}

	if header.Size > policy.maxSize {
		return nil, fmt.Errorf("file size %d bytes exceeds maximum of %d bytes", header.Size, policy.maxSize)
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !containsString(policy.extensions, ext) {
		return nil, fmt.Errorf("file type %s is not allowed", ext)
	}

	fileBytes, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	contentType := sniffImageType(fileBytes)
	if contentType == "" {
		return nil, fmt.Errorf("file is not a valid image")
	}

	key := s.objectKey(policy.folder, ext)
	url, err := s.store(fileBytes, key, contentType)
	if err != nil {
		return nil, err
	}

	return &UploadResult{
		URL:      url,
		Key:      key,
		Size:     int64(len(fileBytes)),
		MimeType: contentType,
	}, nil
}

func (s *StorageService) store(fileBytes []byte, key, contentType string) (string, error) {
	if s.s3Client == nil {
		return fmt.Sprintf("http://localhost:%s/uploads/%s", s.config.Server.Port, key), nil
	}

	_, err := s.s3Client.PutObject(&s3.PutObjectInput{
		Bucket:        aws.String(s.config.AWS.S3Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(fileBytes),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(fileBytes))),
		ACL:           aws.String("public-read"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	return s.publicURL(key), nil
}

func (s *StorageService) DeleteFile(key string) error {
	if s.s3Client == nil {
		return nil
	}

	_, err := s.s3Client.DeleteObject(&s3.DeleteObjectInput{
		Bucket: aws.String(s.config.AWS.S3Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete file from S3: %w", err)
	}

	return nil
}

func (s *StorageService) objectKey(folder, ext string) string {
	name := fmt.Sprintf("%s_%s%s", time.Now().Format("20060102"), uuid.NewString()[:8], ext)
	if folder == "" {
		return name
	}
	return folder + "/" + name
}

func (s *StorageService) publicURL(key string) string {
	if s.config.AWS.CloudFrontURL != "" {
		return fmt.Sprintf("%s/%s", s.config.AWS.CloudFrontURL, key)
	}

	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s",
		s.config.AWS.S3Bucket, s.config.AWS.Region, key)
}

// sniffImageType returns the MIME type for the formats the platform accepts,
// or "" when the bytes are not a recognized image.
func sniffImageType(buffer []byte) string {
	switch {
	case len(buffer) >= 3 && buffer[0] == 0xFF && buffer[1] == 0xD8 && buffer[2] == 0xFF:
		return "image/jpeg"
	case len(buffer) >= 8 && bytes.Equal(buffer[0:4], []byte{0x89, 'P', 'N', 'G'}):
		return "image/png"
	case len(buffer) >= 12 && string(buffer[0:4]) == "RIFF" && string(buffer[8:12]) == "WEBP":
		return "image/webp"
	default:
		return ""
	}
}

func containsString(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}
