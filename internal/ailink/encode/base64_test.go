package encode

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBase64RoundTrip(t *testing.T) {
	original := []byte("hello")
	encoded := EncodeBase64String(original)
	decoded, err := DecodeBase64String(encoded)
	require.NoError(t, err)
	require.Equal(t, original, decoded)
}

func TestDataURLRoundTrip(t *testing.T) {
	url := DataURL("image/png", []byte{0x89, 'P', 'N', 'G'})
	require.Equal(t, "data:image/png;base64,iVBORw==", url)

	mediaType, data, err := ParseDataURL(url)
	require.NoError(t, err)
	require.Equal(t, "image/png", mediaType)
	require.Equal(t, []byte{0x89, 'P', 'N', 'G'}, data)
}

func TestParseDataURLRejectsPlainURLs(t *testing.T) {
	_, _, err := ParseDataURL("https://example.com/a.png")
	require.Error(t, err)

	_, _, err = ParseDataURL("data:text/plain,hello")
	require.Error(t, err)
}
