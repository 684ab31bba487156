package services

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"socketWhiteboard/configs"
	"socketWhiteboard/internal/enums"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/sirupsen/logrus"
)

const uploadTimeout = 30 * time.Second

// MinioService stores whiteboard exports in an S3 compatible bucket.
type MinioService struct {
	client           *minio.Client
	externalEndpoint string
	secure           bool
	presignExpiry    time.Duration
}

// NewMinioService connects and makes sure the exports bucket exists.
func NewMinioService(ctx context.Context, config *configs.Config) (*MinioService, error) {
	secure := config.Viper.GetBool("minio.use_ssl")
	client, err := minio.New(config.Viper.GetString("minio.endpoint"), &minio.Options{
		Creds: credentials.NewStaticV4(
			config.Viper.GetString("minio.access_key_id"),
			config.Viper.GetString("minio.secret_access_key"),
			"",
		),
		Secure: secure,
	})
	if err != nil {
		return nil, err
	}

	ms := &MinioService{
		client:           client,
		externalEndpoint: config.Viper.GetString("minio.external_endpoint"),
		secure:           secure,
		presignExpiry:    time.Duration(config.Viper.GetInt("minio.presign_expiry_seconds")) * time.Second,
	}
	if err := ms.ensureBucket(ctx, enums.FILE_BUCKET_WHITEBOARD_EXPORTS); err != nil {
		return nil, err
	}
	return ms, nil
}

func (ms *MinioService) ensureBucket(ctx context.Context, bucketName string) error {
	exists, err := ms.client.BucketExists(ctx, bucketName)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", bucketName, err)
	}
	if exists {
		logrus.WithField("bucket", bucketName).Debug("bucket already exists")
		return nil
	}
	if err := ms.client.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create bucket %s: %w", bucketName, err)
	}
	logrus.WithField("bucket", bucketName).Info("created bucket")
	return nil
}

// UploadFile stores the object and returns a URL for it: presigned when an expiry is
// configured, otherwise the public path on the external endpoint.
func (ms *MinioService) UploadFile(fileName string, file io.Reader, fileSize int64, contentType string, bucketName string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), uploadTimeout)
	defer cancel()

	info, err := ms.client.PutObject(ctx, bucketName, fileName, file, fileSize, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("upload %s/%s: %w", bucketName, fileName, err)
	}

	if ms.presignExpiry > 0 {
		presigned, err := ms.client.PresignedGetObject(ctx, bucketName, info.Key, ms.presignExpiry, nil)
		if err != nil {
			return "", fmt.Errorf("presign %s/%s: %w", bucketName, info.Key, err)
		}
		return presigned.String(), nil
	}
	return ms.publicFileURL(bucketName, info.Key), nil
}

func (ms *MinioService) publicFileURL(bucketName, fileKey string) string {
	scheme := "http"
	if ms.secure {
		scheme = "https"
	}
	u := url.URL{Scheme: scheme, Host: ms.externalEndpoint, Path: "/" + bucketName + "/" + fileKey}
	return u.String()
}
