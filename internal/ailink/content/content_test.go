package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatFromMediaType(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"image/png", "png"},
		{"image/jpeg", "jpeg"},
		{"IMAGE/WEBP", "webp"},
		{"image/png; charset=binary", "png"},
		{"png", "png"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatFromMediaType(tt.in))
		})
	}
}

func TestImageBlockCarriesFormat(t *testing.T) {
	block := ImageBlock("image/png", []byte{1, 2, 3})
	assert.True(t, block.IsImage())
	assert.Equal(t, "png", block.Format)
	assert.Equal(t, "image/png", block.MediaType)
	assert.Equal(t, []byte{1, 2, 3}, block.Data)
}

func TestMessageValidate(t *testing.T) {
	img := ImageBlock("image/jpeg", []byte{0xff})

	require.NoError(t, UserMessage(TextBlock("hi")).Validate())
	require.NoError(t, UserMessage(img, img, TextBlock("hi")).Validate())

	assert.ErrorIs(t, UserMessage().Validate(), ErrEmptyMessage)
	assert.ErrorIs(t, UserMessage(TextBlock("a"), img).Validate(), ErrMissingText)
	assert.ErrorIs(t, UserMessage(TextBlock("a"), TextBlock("b")).Validate(), ErrImageAfterText)
}

func TestMessageHelpers(t *testing.T) {
	msg := UserMessage(ImageBlock("image/png", nil), ImageBlock("image/png", nil), TextBlock("describe"))
	assert.Equal(t, 2, msg.ImageCount())
	assert.Equal(t, "describe", msg.Text())
	assert.Equal(t, RoleUser, msg.Role)
}
