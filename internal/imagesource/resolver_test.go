package imagesource

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shouni/go-http-kit/pkg/httpkit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/areaoforigin/narrator/internal/storage"
)

type memObjects map[string][]byte

func (m memObjects) Get(_ context.Context, key string) (*storage.Object, error) {
	data, ok := m[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &storage.Object{Body: io.NopCloser(bytes.NewReader(data)), ContentType: "binary/octet-stream", Size: int64(len(data))}, nil
}

type failingObjects struct{}

func (failingObjects) Get(context.Context, string) (*storage.Object, error) {
	return nil, errors.New("access denied")
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func imageServer(t *testing.T, payload []byte) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/scene.png":
			_, _ = w.Write(payload)
		case "/notes.txt":
			_, _ = w.Write([]byte("just some text"))
		case "/big.png":
			_, _ = w.Write(bytes.Repeat([]byte{0x89}, 2048))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestResolveInlineKeepsDeclaredType(t *testing.T) {
	r := NewResolver(Config{}, nil)
	img, err := r.Resolve(context.Background(), Inline(pngBytes(t, 2, 2), "image/png"))
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.MediaType)
}

func TestResolveInlineRejectsNonImage(t *testing.T) {
	r := NewResolver(Config{}, nil)
	_, err := r.Resolve(context.Background(), Inline([]byte("hello"), "text/plain"))
	require.ErrorIs(t, err, ErrUnresolvable)
	require.ErrorIs(t, err, ErrNotImage)
}

func TestResolveRemoteURL(t *testing.T) {
	payload := pngBytes(t, 4, 4)
	srv := imageServer(t, payload)
	r := NewResolver(Config{AllowPrivateNetworks: true, MaxBytes: 1024}, nil)

	img, err := r.Resolve(context.Background(), RemoteURL(srv.URL+"/scene.png"))
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.MediaType)
	assert.Equal(t, payload, img.Data)

	for _, path := range []string{"/missing.png", "/notes.txt", "/big.png"} {
		_, err := r.Resolve(context.Background(), RemoteURL(srv.URL+path))
		require.ErrorIs(t, err, ErrUnresolvable, path)
	}

	_, err = r.Resolve(context.Background(), RemoteURL("ftp://example.com/a.png"))
	require.ErrorIs(t, err, ErrUnresolvable)
}

func TestResolveRemoteURLBlocksPrivateHosts(t *testing.T) {
	srv := imageServer(t, pngBytes(t, 1, 1))
	r := NewResolver(Config{}, nil)

	_, err := r.Resolve(context.Background(), RemoteURL(srv.URL+"/scene.png"))
	require.ErrorIs(t, err, ErrUnresolvable)
	require.ErrorIs(t, err, ErrBlockedHost)
}

// stubClient answers the safety check and serves one payload; the rest of
// httpkit.ClientInterface is unused by the resolver.
type stubClient struct {
	httpkit.ClientInterface
	safe     bool
	payload  []byte
	requests []*http.Request
}

func (c *stubClient) IsSafeURL(string) (bool, error) {
	if !c.safe {
		return false, errors.New("private address")
	}
	return true, nil
}

func (c *stubClient) Do(req *http.Request) (*http.Response, error) {
	c.requests = append(c.requests, req)
	return &http.Response{
		StatusCode:    http.StatusOK,
		Header:        http.Header{"Content-Type": []string{"image/png"}},
		Body:          io.NopCloser(bytes.NewReader(c.payload)),
		ContentLength: int64(len(c.payload)),
	}, nil
}

func TestResolveRemoteURLUsesInjectedClient(t *testing.T) {
	payload := pngBytes(t, 2, 2)
	client := &stubClient{safe: true, payload: payload}
	r := NewResolver(Config{}, nil, WithHTTPClient(client))

	img, err := r.Resolve(context.Background(), RemoteURL("https://photos.example/scene.png"))
	require.NoError(t, err)
	assert.Equal(t, payload, img.Data)
	require.Len(t, client.requests, 1)
	assert.Equal(t, "image/*", client.requests[0].Header.Get("Accept"))
}

func TestResolveRemoteURLRejectsUnsafeHost(t *testing.T) {
	client := &stubClient{safe: false, payload: pngBytes(t, 1, 1)}
	r := NewResolver(Config{}, nil, WithHTTPClient(client))

	_, err := r.Resolve(context.Background(), RemoteURL("http://metadata.internal/latest"))
	require.ErrorIs(t, err, ErrUnresolvable)
	require.ErrorIs(t, err, ErrBlockedHost)
	assert.Empty(t, client.requests)

	// Allowing private networks skips the check.
	r = NewResolver(Config{AllowPrivateNetworks: true}, nil, WithHTTPClient(client))
	_, err = r.Resolve(context.Background(), RemoteURL("http://metadata.internal/scene.png"))
	require.NoError(t, err)
}

func TestResolveRemoteURLEnforcesDeclaredLength(t *testing.T) {
	client := &stubClient{safe: true, payload: pngBytes(t, 8, 8)}
	r := NewResolver(Config{MaxBytes: 16}, nil, WithHTTPClient(client))

	_, err := r.Resolve(context.Background(), RemoteURL("https://photos.example/scene.png"))
	require.ErrorIs(t, err, ErrUnresolvable)
	require.ErrorIs(t, err, ErrTooLarge)
}

func TestResolveStorageKey(t *testing.T) {
	payload := pngBytes(t, 3, 3)
	r := NewResolver(Config{}, memObjects{"uploads/a.png": payload, "uploads/empty.png": {}})

	img, err := r.Resolve(context.Background(), StorageKey("uploads/a.png"))
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.MediaType)

	_, err = r.Resolve(context.Background(), StorageKey("uploads/missing.png"))
	require.ErrorIs(t, err, ErrUnresolvable)

	_, err = r.Resolve(context.Background(), StorageKey("uploads/empty.png"))
	require.ErrorIs(t, err, ErrUnresolvable)
}

func TestResolveStorageFailureIsNotUnresolvable(t *testing.T) {
	r := NewResolver(Config{}, failingObjects{})
	_, err := r.Resolve(context.Background(), StorageKey("uploads/a.png"))
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrUnresolvable))
}

func TestResolveAllStopsAtFirstFailure(t *testing.T) {
	r := NewResolver(Config{}, memObjects{"a": pngBytes(t, 1, 1), "b": pngBytes(t, 2, 2)})

	images, err := r.ResolveAll(context.Background(), []Source{StorageKey("a"), StorageKey("b")})
	require.NoError(t, err)
	require.Len(t, images, 2)

	_, err = r.ResolveAll(context.Background(), []Source{StorageKey("a"), StorageKey("gone"), StorageKey("b")})
	require.ErrorIs(t, err, ErrUnresolvable)
	assert.Contains(t, err.Error(), "image 1")
}

func TestResolveDownscalesLargeImages(t *testing.T) {
	r := NewResolver(Config{MaxDimension: 20}, memObjects{"big": pngBytes(t, 100, 50)})

	img, err := r.Resolve(context.Background(), StorageKey("big"))
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.MediaType)

	cfg, _, err := image.DecodeConfig(bytes.NewReader(img.Data))
	require.NoError(t, err)
	assert.Equal(t, 20, cfg.Width)
	assert.Equal(t, 10, cfg.Height)
}
