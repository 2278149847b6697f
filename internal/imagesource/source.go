// Package imagesource turns an image reference (inline bytes, remote URL or
// storage key) into image bytes with a media type.
package imagesource

import (
	"errors"
	"strings"
)

// Kind identifies where an image comes from.
type Kind int

const (
	KindInline Kind = iota + 1
	KindRemoteURL
	KindStorageKey
)

func (k Kind) String() string {
	switch k {
	case KindInline:
		return "inline"
	case KindRemoteURL:
		return "remote_url"
	case KindStorageKey:
		return "storage_key"
	default:
		return "unknown"
	}
}

// Source is one image reference.
type Source struct {
	Kind      Kind
	Data      []byte
	MediaType string
	URL       string
	Key       string
}

// Inline wraps bytes already in hand, such as a multipart upload.
func Inline(data []byte, mediaType string) Source {
	return Source{Kind: KindInline, Data: data, MediaType: mediaType}
}

// RemoteURL references an image fetched over HTTP(S).
func RemoteURL(url string) Source {
	return Source{Kind: KindRemoteURL, URL: strings.TrimSpace(url)}
}

// StorageKey references an object in the configured bucket.
func StorageKey(key string) Source {
	return Source{Kind: KindStorageKey, Key: strings.TrimSpace(key)}
}

// Ref returns the human-readable reference for logs and errors.
func (s Source) Ref() string {
	switch s.Kind {
	case KindRemoteURL:
		return s.URL
	case KindStorageKey:
		return s.Key
	default:
		return s.Kind.String()
	}
}

// Image is a resolved image.
type Image struct {
	MediaType string
	Data      []byte
}

var (
	// ErrUnresolvable marks failures caused by the reference itself: missing
	// objects, non-2xx responses, blocked hosts, oversize or non-image data.
	ErrUnresolvable = errors.New("image unresolvable")
	// ErrBlockedHost is returned when a URL resolves to a private address.
	ErrBlockedHost = errors.New("host resolves to a non-public address")
	// ErrTooLarge is returned when an image exceeds the size cap.
	ErrTooLarge = errors.New("image exceeds size limit")
	// ErrNotImage is returned when the bytes are not a recognized image.
	ErrNotImage = errors.New("content is not an image")
)
