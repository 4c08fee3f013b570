package repositories

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/rohits-web03/reciperater/internal/config"
)

// ErrBlobExists is returned by Upload when overwrite is off and the key is taken.
var ErrBlobExists = errors.New("blob already exists")

// Photo kinds used in blob paths.
const (
	PhotoFull  = "full"
	PhotoThumb = "thumb"
)

// PhotoPath names a photo blob: photos/{ownerId}/{kind}_{uniqueId}.jpg.
func PhotoPath(ownerID, kind, uniqueID string) string {
	return fmt.Sprintf("photos/%s/%s_%s.jpg", ownerID, kind, uniqueID)
}

// BlobStore keeps meal photos in an S3-compatible bucket (Cloudflare R2 by default).
type BlobStore struct {
	client        *s3.Client
	presigner     *s3.PresignClient
	bucket        string
	publicBaseURL string
}

// NewR2BlobStore builds the client from static credentials and the
// account's R2 endpoint, or cfg.Endpoint when set.
func NewR2BlobStore(cfg config.R2Config) (*BlobStore, error) {
	if cfg.BucketName == "" {
		return nil, fmt.Errorf("r2: bucket name is empty")
	}
	endpoint := cfg.Endpoint
	if endpoint == "" {
		if cfg.AccountID == "" {
			return nil, fmt.Errorf("r2: account id or endpoint is required")
		}
		endpoint = fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.AccountID)
	}

	awsCfg := aws.Config{
		Credentials: credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Region:      cfg.Region,
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
		o.ResponseChecksumValidation = aws.ResponseChecksumValidationWhenRequired
	})

	publicBase := cfg.PublicBaseURL
	if publicBase == "" {
		publicBase = endpoint + "/" + cfg.BucketName
	}

	return NewBlobStore(client, cfg.BucketName, publicBase), nil
}

func NewBlobStore(client *s3.Client, bucket, publicBaseURL string) *BlobStore {
	return &BlobStore{
		client:        client,
		presigner:     s3.NewPresignClient(client),
		bucket:        bucket,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}
}

// Upload stores data at path and returns its public URL.
func (b *BlobStore) Upload(ctx context.Context, path string, data []byte, overwrite bool) (string, error) {
	if !overwrite {
		exists, err := b.Exists(ctx, path)
		if err != nil {
			return "", fmt.Errorf("upload %s: %w", path, err)
		}
		if exists {
			return "", fmt.Errorf("upload %s: %w", path, ErrBlobExists)
		}
	}

	_, err := b.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(b.bucket),
		Key:           aws.String(path),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String("image/jpeg"),
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", path, err)
	}
	return b.URL(path), nil
}

// Delete removes the object at path. Deleting a missing object is not an error.
func (b *BlobStore) Delete(ctx context.Context, path string) error {
	_, err := b.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(path),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == "NoSuchKey" {
			return nil
		}
		return fmt.Errorf("delete %s: %w", path, err)
	}
	return nil
}

// Exists checks if a given object key exists in the bucket.
func (b *BlobStore) Exists(ctx context.Context, path string) (bool, error) {
	_, err := b.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(path),
	})
	if err != nil {
		var nf *s3types.NotFound
		if errors.As(err, &nf) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// URL is the public locator of path.
func (b *BlobStore) URL(path string) string {
	return b.publicBaseURL + "/" + path
}

// KeyFromURL strips the public URL prefix, giving back the blob path.
func (b *BlobStore) KeyFromURL(url string) (string, bool) {
	key, ok := strings.CutPrefix(url, b.publicBaseURL+"/")
	if !ok || key == "" {
		return "", false
	}
	return key, true
}

// PresignGet creates a temporary download URL for path.
func (b *BlobStore) PresignGet(ctx context.Context, path string, expires time.Duration) (string, error) {
	req, err := b.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(path),
	}, s3.WithPresignExpires(expires))
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", path, err)
	}
	return req.URL, nil
}
