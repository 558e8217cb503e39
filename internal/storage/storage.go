package storage

import (
	"context"
	"io"
	"time"
)

// PutOptions describes a single object upload.
type PutOptions struct {
	Bucket      string
	Key         string
	ContentType string
	Size        int64
}

// Service stores post attachments in remote object storage.
type Service interface {
	Put(ctx context.Context, body io.Reader, opts PutOptions) error
	DeletePrefix(ctx context.Context, bucket, prefix string) error
	GetObjectURL(ctx context.Context, bucket, key string, expires time.Duration) (string, error)
}
