// Package media загружает аватары, постеры и видео лекций в S3-совместимое
// хранилище и удаляет их.
package media

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/magabrotheeeer/course-seller/internal/config"
	"github.com/magabrotheeeer/course-seller/internal/models"
)

// Каталоги бакета.
const (
	FolderAvatars = "avatars"
	FolderPosters = "posters"
	FolderVideos  = "videos"
)

// File загружаемый файл из multipart-формы.
type File struct {
	Name        string
	ContentType string
	Body        io.Reader
}

// Uploader интерфейс медиа-хранилища для сервисов.
type Uploader interface {
	Upload(ctx context.Context, folder string, body io.Reader, filename, contentType string) (models.Asset, error)
	Delete(ctx context.Context, publicID string) error
}

// ObjectAPI подмножество клиента S3.
type ObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Storage хранилище файлов в бакете S3.
type Storage struct {
	client    ObjectAPI
	bucket    string
	publicURL string
}

// New создаёт клиент S3 по настройкам. Endpoint задаётся для MinIO и других
// S3-совместимых хранилищ.
func New(ctx context.Context, cfg config.Media) (*Storage, error) {
	const op = "media.New"

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	return NewWithClient(client, cfg.Bucket, publicBaseURL(cfg)), nil
}

// NewWithClient создаёт хранилище поверх готового клиента.
func NewWithClient(client ObjectAPI, bucket, publicURL string) *Storage {
	return &Storage{
		client:    client,
		bucket:    bucket,
		publicURL: strings.TrimRight(publicURL, "/"),
	}
}

func publicBaseURL(cfg config.Media) string {
	switch {
	case cfg.PublicURL != "":
		return cfg.PublicURL
	case cfg.Endpoint != "":
		return strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Bucket
	default:
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
	}
}

// ObjectKey формирует уникальный ключ объекта с расширением исходного файла.
func ObjectKey(folder, filename string) string {
	return folder + "/" + uuid.NewString() + strings.ToLower(path.Ext(filename))
}

// Upload сохраняет файл и возвращает его ключ и публичный URL.
func (s *Storage) Upload(ctx context.Context, folder string, body io.Reader, filename, contentType string) (models.Asset, error) {
	const op = "media.Upload"

	data, err := io.ReadAll(body)
	if err != nil {
		return models.Asset{}, fmt.Errorf("%s: read file: %w", op, err)
	}

	key := ObjectKey(folder, filename)
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return models.Asset{}, fmt.Errorf("%s: %w", op, err)
	}

	return models.Asset{PublicID: key, URL: s.publicURL + "/" + key}, nil
}

// Delete удаляет объект. Пустой publicID игнорируется.
func (s *Storage) Delete(ctx context.Context, publicID string) error {
	const op = "media.Delete"
	if publicID == "" {
		return nil
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(publicID),
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Discard принимает файлы без сохранения. Используется, когда бакет не настроен.
type Discard struct{}

func (Discard) Upload(_ context.Context, folder string, body io.Reader, filename, _ string) (models.Asset, error) {
	if _, err := io.Copy(io.Discard, body); err != nil {
		return models.Asset{}, fmt.Errorf("media.Discard.Upload: %w", err)
	}
	return models.Asset{PublicID: ObjectKey(folder, filename)}, nil
}

func (Discard) Delete(context.Context, string) error { return nil }
