package storage

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"social_chat/internal/config"
	"social_chat/internal/domain"
	apperrors "social_chat/pkg/errors"
	"social_chat/pkg/logger"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

//go:generate mockgen -destination=../mocks/storage_mock.go -package=mocks social_chat/internal/storage BlobStore

// BlobStore сохраняет вложения и возвращает ссылку на них
type BlobStore interface {
	Put(ctx context.Context, img *domain.Image) (string, error)
	Delete(ctx context.Context, ref string) error
}

type MinioStore struct {
	client  *minio.Client
	bucket  string
	baseURL string
	maxSize int64
	log     logger.Logger
}

func New(cfg config.StorageConfig, log logger.Logger) (*MinioStore, error) {
	host, secure := endpointHost(cfg.Endpoint)
	client, err := minio.New(host, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL || secure,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &MinioStore{
		client:  client,
		bucket:  cfg.Bucket,
		baseURL: publicBaseURL(cfg),
		maxSize: cfg.MaxImageBytes,
		log:     log,
	}, nil
}

func publicBaseURL(cfg config.StorageConfig) string {
	if cfg.PublicURL != "" {
		return strings.TrimRight(cfg.PublicURL, "/")
	}
	host, secure := endpointHost(cfg.Endpoint)
	scheme := "http"
	if cfg.UseSSL || secure {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s", scheme, host, cfg.Bucket)
}

// endpointHost принимает endpoint как host:port или как URL со схемой
func endpointHost(endpoint string) (string, bool) {
	if !strings.Contains(endpoint, "://") {
		return strings.TrimRight(endpoint, "/"), false
	}
	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" {
		return endpoint, false
	}
	return u.Host, u.Scheme == "https"
}

func (s *MinioStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return err
	}
	if !exists {
		s.log.Info("Creating bucket", "bucket", s.bucket)
		return s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{})
	}
	return nil
}

func (s *MinioStore) Put(ctx context.Context, img *domain.Image) (string, error) {
	key, contentType, err := objectFor(img, s.maxSize, time.Now())
	if err != nil {
		return "", err
	}

	_, err = s.client.PutObject(ctx, s.bucket, key,
		bytes.NewReader(img.Data), int64(len(img.Data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		s.log.Error("Failed to upload image", "error", err, "key", key)
		return "", fmt.Errorf("failed to upload image: %w", err)
	}

	return s.baseURL + "/" + key, nil
}

// Delete удаляет объект по ссылке, которую вернул Put
func (s *MinioStore) Delete(ctx context.Context, ref string) error {
	key, err := objectKey(s.baseURL, ref)
	if err != nil {
		return err
	}
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		s.log.Error("Failed to remove image", "error", err, "key", key)
		return fmt.Errorf("failed to remove image: %w", err)
	}
	return nil
}

func objectKey(baseURL, ref string) (string, error) {
	key, ok := strings.CutPrefix(ref, baseURL+"/")
	if !ok || key == "" {
		return "", fmt.Errorf("image ref %q is outside of %s", ref, baseURL)
	}
	return key, nil
}

// objectFor проверяет вложение и строит ключ объекта по содержимому, имя файла не используется
func objectFor(img *domain.Image, maxSize int64, now time.Time) (string, string, error) {
	if img == nil || len(img.Data) == 0 {
		return "", "", apperrors.NewFieldError(apperrors.ErrValidation, "image is empty", "image")
	}
	if maxSize > 0 && int64(len(img.Data)) > maxSize {
		return "", "", apperrors.NewFieldError(apperrors.ErrValidation,
			fmt.Sprintf("image exceeds %d bytes", maxSize), "image")
	}

	mtype := mimetype.Detect(img.Data)
	if !strings.HasPrefix(mtype.String(), "image/") {
		return "", "", fmt.Errorf("%w: %s", apperrors.ErrUnsupportedMedia, mtype.String())
	}

	key := fmt.Sprintf("messages/%s/%s%s", now.UTC().Format("2006/01/02"), uuid.NewString(), mtype.Extension())
	return key, mtype.String(), nil
}
