package services

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// CallbackArchive keeps the raw gateway callback bodies for audit and replay.
type CallbackArchive interface {
	Store(ctx context.Context, checkoutRequestID string, payload []byte) (string, error)
	EnsureBucketExists(ctx context.Context) error
}

type minioArchive struct {
	client *minio.Client
	bucket string
	now    func() time.Time
}

func NewMinioCallbackArchive(endpoint, accessKey, secretKey, bucket string, useSSL bool) (CallbackArchive, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, err
	}
	return &minioArchive{client: client, bucket: bucket, now: time.Now}, nil
}

// callbackObjectName partitions objects by UTC day.
func callbackObjectName(checkoutRequestID string, at time.Time) string {
	at = at.UTC()
	if checkoutRequestID == "" {
		checkoutRequestID = "unknown"
	}
	return fmt.Sprintf("callbacks/%s/%s-%d.json", at.Format("2006/01/02"), checkoutRequestID, at.UnixNano())
}

func (m *minioArchive) Store(ctx context.Context, checkoutRequestID string, payload []byte) (string, error) {
	objectName := callbackObjectName(checkoutRequestID, m.now())
	_, err := m.client.PutObject(ctx, m.bucket, objectName, bytes.NewReader(payload), int64(len(payload)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("archive callback %s: %w", checkoutRequestID, err)
	}
	return objectName, nil
}

func (m *minioArchive) EnsureBucketExists(ctx context.Context) error {
	found, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return err
	}
	if !found {
		return m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{})
	}
	return nil
}
