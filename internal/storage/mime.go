package storage

import (
	"fmt"
	"strings"

	"github.com/areaoforigin/narrator/internal/ailink/content"
)

// Policies for content types missing from the extension table.
const (
	UnknownTypeDefault = "default"
	UnknownTypeReject  = "reject"
)

// DefaultContentType is assumed when an upload request names none.
const DefaultContentType = "image/jpeg"

const fallbackExtension = "png"

var extensions = map[string]string{
	"image/jpeg":  "jpg",
	"image/jpg":   "jpg",
	"image/pjpeg": "jpg",
	"image/png":   "png",
}

// ExtensionFor maps a content type to a key extension. Any type mentioning
// jpeg maps to jpg. Unknown types fall back to png, or fail with
// ErrUnsupportedType under the reject policy.
func ExtensionFor(contentType, policy string) (string, error) {
	normalized := content.NormalizeMediaType(contentType)
	if ext, ok := extensions[normalized]; ok {
		return ext, nil
	}
	if strings.Contains(normalized, "jpeg") {
		return "jpg", nil
	}
	if strings.EqualFold(strings.TrimSpace(policy), UnknownTypeReject) {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, contentType)
	}
	return fallbackExtension, nil
}
