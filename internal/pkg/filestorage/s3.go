package filestorage

import (
	"context"
	"fmt"
	"mime/multipart"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/yigit/attendance/internal/pkg/logger"
)

const s3Timeout = 30 * time.Second

// S3Config configures an S3 compatible backend (MinIO, AWS S3, R2).
type S3Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	// PublicURL is the prefix objects are served from, usually the bucket URL or a CDN
	PublicURL string
}

// S3Storage keeps uploads in a bucket.
type S3Storage struct {
	client  *minio.Client
	bucket  string
	baseURL string
}

// NewS3Storage creates the client and makes sure the bucket exists.
func NewS3Storage(ctx context.Context, cfg S3Config) (*S3Storage, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("s3 endpoint is required")
	}
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create s3 client: %w", err)
	}

	s := newS3Storage(client, cfg)
	if err := s.ensureBucket(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func newS3Storage(client *minio.Client, cfg S3Config) *S3Storage {
	baseURL := strings.TrimRight(cfg.PublicURL, "/")
	if baseURL == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		baseURL = scheme + "://" + cfg.Endpoint + "/" + strings.TrimSpace(cfg.Bucket)
	}
	return &S3Storage{
		client:  client,
		bucket:  strings.TrimSpace(cfg.Bucket),
		baseURL: baseURL,
	}
}

func (s *S3Storage) ensureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check s3 bucket %q: %w", s.bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create s3 bucket %q: %w", s.bucket, err)
	}
	logger.Info().Str("bucket", s.bucket).Msg("S3 bucket created")
	return nil
}

// Save uploads the file under subDir with a collision free key.
func (s *S3Storage) Save(fileHeader *multipart.FileHeader, subDir string) (*StoredFile, error) {
	if fileHeader == nil || fileHeader.Size == 0 {
		return nil, ErrEmptyFile
	}
	if s.client == nil {
		return nil, fmt.Errorf("s3 client is nil")
	}

	src, err := fileHeader.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	key := path.Join(cleanRelative(subDir), uuid.New().String()+strings.ToLower(filepath.Ext(fileHeader.Filename)))
	contentType := fileHeader.Header.Get("Content-Type")

	ctx, cancel := context.WithTimeout(context.Background(), s3Timeout)
	defer cancel()

	info, err := s.client.PutObject(ctx, s.bucket, key, src, fileHeader.Size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return nil, fmt.Errorf("put object to s3: %w", err)
	}
	logger.Info().Str("filename", fileHeader.Filename).Str("key", key).Msg("File uploaded to s3")

	return &StoredFile{
		Path:     key,
		URL:      s.URLFor(key),
		Filename: fileHeader.Filename,
		Size:     info.Size,
		MimeType: contentType,
	}, nil
}

// Delete removes an object. Missing objects are not an error.
func (s *S3Storage) Delete(relPath string) error {
	key := cleanRelative(relPath)
	if s.client == nil || key == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), s3Timeout)
	defer cancel()

	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}

// URLFor returns the public URL of an object
func (s *S3Storage) URLFor(relPath string) string {
	return s.baseURL + "/" + cleanRelative(relPath)
}
