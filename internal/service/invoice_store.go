package service

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
)

// InvoiceStore persists a rendered invoice and returns a URL for it.
type InvoiceStore interface {
	Save(ctx context.Context, key string, body []byte) (string, error)
}

type S3InvoiceStore struct {
	uploader *s3manager.Uploader
	bucket   string
}

func NewS3InvoiceStore(region, accessKey, secretKey, bucket string) (*S3InvoiceStore, error) {
	sess, err := session.NewSession(&aws.Config{
		Region:      aws.String(region),
		Credentials: credentials.NewStaticCredentials(accessKey, secretKey, ""),
	})
	if err != nil {
		return nil, fmt.Errorf("creating AWS session: %w", err)
	}
	return &S3InvoiceStore{
		uploader: s3manager.NewUploader(sess),
		bucket:   bucket,
	}, nil
}

func (s *S3InvoiceStore) Save(ctx context.Context, key string, body []byte) (string, error) {
	out, err := s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("text/html; charset=utf-8"),
	})
	if err != nil {
		return "", fmt.Errorf("uploading invoice %s to s3: %w", key, err)
	}
	return out.Location, nil
}

// LocalInvoiceStore writes invoices below dir and builds URLs from baseURL.
type LocalInvoiceStore struct {
	dir     string
	baseURL string
}

func NewLocalInvoiceStore(dir, baseURL string) *LocalInvoiceStore {
	return &LocalInvoiceStore{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}
}

func (s *LocalInvoiceStore) Save(ctx context.Context, key string, body []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	path := filepath.Join(s.dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("creating invoice directory: %w", err)
	}
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return "", fmt.Errorf("writing invoice %s: %w", key, err)
	}
	return s.baseURL + "/invoices/" + key, nil
}
