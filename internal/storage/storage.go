// Package storage issues presigned object-store credentials and reads stored
// objects by key.
package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// MaxPresignExpiry bounds every credential the service hands out.
const MaxPresignExpiry = 15 * time.Minute

// Upload modes.
const (
	UploadModePost = "post"
	UploadModePut  = "put"
)

var (
	// ErrNotFound is returned when a key has no object.
	ErrNotFound = errors.New("object not found")
	// ErrUnsupportedType is returned when a content type has no extension
	// and the reject policy is active.
	ErrUnsupportedType = errors.New("unsupported content type")
	// ErrInvalidKey is returned for empty or malformed keys.
	ErrInvalidKey = errors.New("invalid object key")
)

// UploadGrant authorizes one client-side write to Key.
type UploadGrant struct {
	// Method is POST for a policy upload and PUT for a presigned URL.
	Method      string
	URL         string
	Fields      map[string]string
	Key         string
	FileURL     string
	ContentType string
	ExpiresIn   time.Duration
}

// DownloadURL is a time-limited read credential for one key.
type DownloadURL struct {
	URL       string
	ExpiresIn time.Duration
}

// Object is an opened stored object. Callers must close Body.
type Object struct {
	Body        io.ReadCloser
	ContentType string
	// Size is -1 when the store did not report a length.
	Size int64
}

// Presigner issues upload and download credentials.
type Presigner interface {
	PresignUpload(ctx context.Context, contentType string) (*UploadGrant, error)
	PresignDownload(ctx context.Context, key string) (*DownloadURL, error)
}

// ObjectReader opens stored objects by key.
type ObjectReader interface {
	Get(ctx context.Context, key string) (*Object, error)
}
