package storage

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"time"

	"Tracksmith/config"
	"Tracksmith/logger"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type ObjectInfo struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"lastModified"`
	ContentType  string    `json:"contentType"`
	ETag         string    `json:"etag"`
}

// ExportStore publishes exported mixes to a MinIO bucket.
type ExportStore struct {
	client *minio.Client
	bucket string
	prefix string
}

// NewExportStore connects to MinIO and makes sure the export bucket exists.
func NewExportStore(ctx context.Context, cfg *config.Config) (*ExportStore, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
		Region: cfg.MinioRegion,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %s: %w", cfg.MinioBucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{Region: cfg.MinioRegion}); err != nil {
			return nil, fmt.Errorf("failed to create bucket %s: %w", cfg.MinioBucket, err)
		}
		logger.Info("created export bucket", logger.String("bucket", cfg.MinioBucket))
	}

	return &ExportStore{client: client, bucket: cfg.MinioBucket, prefix: cfg.MinioPrefix}, nil
}

// ObjectKey is the key a file exported at t is stored under, e.g.
//
//	exports/20261014-093000-finalAudio.wav
//
// The UTC timestamp keeps repeated exports of the same name apart and makes
// a plain prefix listing come back in export order.
func ObjectKey(prefix, file string, t time.Time) string {
	return path.Join(prefix, t.UTC().Format("20060102-150405")+"-"+filepath.Base(file))
}

// Upload stores the file at localPath and returns its object info.
func (s *ExportStore) Upload(ctx context.Context, localPath string) (ObjectInfo, error) {
	key := ObjectKey(s.prefix, localPath, time.Now())
	info, err := s.client.FPutObject(ctx, s.bucket, key, localPath, minio.PutObjectOptions{
		ContentType: contentType(localPath),
	})
	if err != nil {
		return ObjectInfo{}, fmt.Errorf("failed to upload %s: %w", localPath, err)
	}
	logger.Info("export uploaded",
		logger.String("bucket", s.bucket),
		logger.String("key", key),
		logger.String("size", FormatSize(info.Size)))
	return ObjectInfo{Key: key, Size: info.Size, LastModified: info.LastModified, ContentType: contentType(localPath), ETag: info.ETag}, nil
}

func (s *ExportStore) List(ctx context.Context) ([]ObjectInfo, error) {
	var objects []ObjectInfo
	for object := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    s.prefix + "/",
		Recursive: true,
	}) {
		if object.Err != nil {
			return nil, fmt.Errorf("failed to list exports: %w", object.Err)
		}
		objects = append(objects, ObjectInfo{
			Key:          object.Key,
			Size:         object.Size,
			LastModified: object.LastModified,
			ContentType:  object.ContentType,
			ETag:         object.ETag,
		})
	}
	return objects, nil
}

func contentType(file string) string {
	switch strings.ToLower(filepath.Ext(file)) {
	case ".wav":
		return "audio/wav"
	case ".mp3":
		return "audio/mpeg"
	case ".flac":
		return "audio/flac"
	}
	return "application/octet-stream"
}

// FormatSize renders a byte count for humans.
func FormatSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}
