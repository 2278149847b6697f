package storage

import (
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
)

// DefaultUploadPrefix is where client uploads land.
const DefaultUploadPrefix = "uploads/"

// NewUploadKey returns "<prefix><uuid-v4>.<ext>".
func NewUploadKey(prefix, ext string) string {
	return normalizePrefix(prefix) + uuid.NewString() + "." + strings.TrimPrefix(ext, ".")
}

// ValidateKey rejects keys that are empty, absolute or escape their prefix.
func ValidateKey(key string) error {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return fmt.Errorf("%w: key is empty", ErrInvalidKey)
	}
	if strings.HasPrefix(trimmed, "/") {
		return fmt.Errorf("%w: key must be relative", ErrInvalidKey)
	}
	for _, part := range strings.Split(trimmed, "/") {
		if part == ".." {
			return fmt.Errorf("%w: key must not contain '..'", ErrInvalidKey)
		}
	}
	return nil
}

func normalizePrefix(prefix string) string {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return DefaultUploadPrefix
	}
	prefix = path.Clean(strings.TrimPrefix(prefix, "/"))
	if prefix == "." {
		return ""
	}
	return prefix + "/"
}
