package content

import (
	"errors"
	"mime"
	"strings"
)

// ContentType represents supported content types using IANA media types.
type ContentType string

const (
	ContentTypeText  ContentType = "text/plain"
	ContentTypeJSON  ContentType = "application/json"
	ContentTypeImage ContentType = "image/*"
)

// RoleUser is the only role the narrative operations send.
const RoleUser = "user"

// ContentBlock represents a single piece of content.
//
// Image blocks carry raw bytes plus the declared media type; Format is the
// media subtype ("png", "jpeg") expected by converse-style APIs.
type ContentBlock struct {
	Type      ContentType `json:"type"`
	Text      string      `json:"text,omitempty"`
	MediaType string      `json:"media_type,omitempty"`
	Format    string      `json:"format,omitempty"`
	Data      []byte      `json:"data,omitempty"`
}

// Message represents a chat message.
type Message struct {
	Role    string         `json:"role"`
	Content []ContentBlock `json:"content"`
}

var (
	ErrEmptyMessage   = errors.New("message has no content blocks")
	ErrMissingText    = errors.New("message must end with a text block")
	ErrImageAfterText = errors.New("image blocks must precede the text block")
)

// TextBlock builds a text block.
func TextBlock(text string) ContentBlock {
	return ContentBlock{Type: ContentTypeText, Text: text}
}

// ImageBlock builds an image block from raw bytes and a media type such as
// "image/png".
func ImageBlock(mediaType string, data []byte) ContentBlock {
	mediaType = NormalizeMediaType(mediaType)
	return ContentBlock{
		Type:      ContentTypeImage,
		MediaType: mediaType,
		Format:    FormatFromMediaType(mediaType),
		Data:      data,
	}
}

// UserMessage builds a single-turn user message.
func UserMessage(blocks ...ContentBlock) Message {
	return Message{Role: RoleUser, Content: blocks}
}

// IsImage reports whether the block carries image bytes.
func (b ContentBlock) IsImage() bool {
	return b.Type == ContentTypeImage
}

// NormalizeMediaType lowercases a media type and drops any parameters.
func NormalizeMediaType(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	if parsed, _, err := mime.ParseMediaType(value); err == nil {
		return strings.ToLower(parsed)
	}
	if idx := strings.Index(value, ";"); idx >= 0 {
		value = value[:idx]
	}
	return strings.ToLower(strings.TrimSpace(value))
}

// FormatFromMediaType returns the subtype of a media type: "image/png" -> "png".
func FormatFromMediaType(mediaType string) string {
	mediaType = NormalizeMediaType(mediaType)
	if idx := strings.LastIndex(mediaType, "/"); idx >= 0 {
		return mediaType[idx+1:]
	}
	return mediaType
}

// ImageCount returns the number of image blocks in the message.
func (m Message) ImageCount() int {
	n := 0
	for _, block := range m.Content {
		if block.IsImage() {
			n++
		}
	}
	return n
}

// Text concatenates the text blocks of the message.
func (m Message) Text() string {
	var b strings.Builder
	for _, block := range m.Content {
		if block.Type == ContentTypeText || block.Type == ContentTypeJSON {
			b.WriteString(block.Text)
		}
	}
	return b.String()
}

// Validate checks the multimodal layout: at least one block, images first,
// exactly one trailing text block.
func (m Message) Validate() error {
	if len(m.Content) == 0 {
		return ErrEmptyMessage
	}
	last := m.Content[len(m.Content)-1]
	if last.IsImage() {
		return ErrMissingText
	}
	for _, block := range m.Content[:len(m.Content)-1] {
		if !block.IsImage() {
			return ErrImageAfterText
		}
	}
	return nil
}
