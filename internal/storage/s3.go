package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// S3Store implements Presigner and ObjectReader over one bucket.
type S3Store struct {
	cfg     Config
	client  *s3.Client
	presign *s3.PresignClient
}

// NewS3Store builds a store from a resolved AWS config. endpoint, when set,
// points the client at an S3-compatible service.
func NewS3Store(awsCfg aws.Config, cfg Config, endpoint string) (*S3Store, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("storage bucket is required")
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.Retryer = aws.NopRetryer{}
		if ep := strings.TrimSpace(endpoint); ep != "" {
			o.BaseEndpoint = aws.String(ep)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})
	return &S3Store{cfg: cfg, client: client, presign: s3.NewPresignClient(client)}, nil
}

// Bucket returns the configured bucket name.
func (s *S3Store) Bucket() string {
	return s.cfg.Bucket
}

// PresignUpload issues a write credential for a fresh key.
func (s *S3Store) PresignUpload(ctx context.Context, contentType string) (*UploadGrant, error) {
	contentType = strings.TrimSpace(contentType)
	if contentType == "" {
		contentType = DefaultContentType
	}
	ext, err := ExtensionFor(contentType, s.cfg.UnknownTypePolicy)
	if err != nil {
		return nil, err
	}

	key := NewUploadKey(s.cfg.UploadPrefix, ext)
	expiry := s.cfg.expiry()
	grant := &UploadGrant{
		Key:         key,
		FileURL:     s.PublicURL(key),
		ContentType: contentType,
		ExpiresIn:   expiry,
	}

	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.Bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}

	if s.cfg.uploadMode() == UploadModePut {
		req, err := s.presign.PresignPutObject(ctx, input, s3.WithPresignExpires(expiry))
		if err != nil {
			return nil, fmt.Errorf("presign put %s: %w", key, err)
		}
		grant.Method = req.Method
		grant.URL = req.URL
		return grant, nil
	}

	req, err := s.presign.PresignPostObject(ctx, input, func(o *s3.PresignPostOptions) {
		o.Expires = expiry
		o.Conditions = []interface{}{map[string]string{"Content-Type": contentType}}
	})
	if err != nil {
		return nil, fmt.Errorf("presign post %s: %w", key, err)
	}

	fields := make(map[string]string, len(req.Values)+1)
	for k, v := range req.Values {
		fields[k] = v
	}
	fields["Content-Type"] = contentType

	grant.Method = "POST"
	grant.URL = req.URL
	grant.Fields = fields
	return grant, nil
}

// PresignDownload issues a read credential. The object is not checked.
func (s *S3Store) PresignDownload(ctx context.Context, key string) (*DownloadURL, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	expiry := s.cfg.expiry()
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(strings.TrimSpace(key)),
	}, s3.WithPresignExpires(expiry))
	if err != nil {
		return nil, fmt.Errorf("presign get %s: %w", key, err)
	}
	return &DownloadURL{URL: req.URL, ExpiresIn: expiry}, nil
}

// Get opens the object at key.
func (s *S3Store) Get(ctx context.Context, key string) (*Object, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(strings.TrimSpace(key)),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, fmt.Errorf("get %s: %w", key, err)
	}

	size := int64(-1)
	if out.ContentLength != nil {
		size = *out.ContentLength
	}
	return &Object{
		Body:        out.Body,
		ContentType: aws.ToString(out.ContentType),
		Size:        size,
	}, nil
}

// HeadBucket checks that the bucket exists and is reachable.
func (s *S3Store) HeadBucket(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.cfg.Bucket)})
	if err != nil {
		return fmt.Errorf("head bucket %s: %w", s.cfg.Bucket, err)
	}
	return nil
}

// CheckHealth lets the bucket take part in health probes.
func (s *S3Store) CheckHealth(ctx context.Context) error {
	return s.HeadBucket(ctx)
}

// PublicURL returns the unsigned object URL for key.
func (s *S3Store) PublicURL(key string) string {
	base := strings.TrimRight(strings.TrimSpace(s.cfg.PublicBaseURL), "/")
	if base == "" {
		base = "https://" + s.cfg.Bucket + ".s3.amazonaws.com"
	}
	return base + "/" + strings.TrimPrefix(key, "/")
}

func isNotFound(err error) bool {
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	return false
}
