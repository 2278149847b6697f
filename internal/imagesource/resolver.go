package imagesource

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shouni/go-http-kit/pkg/httpkit"

	"github.com/areaoforigin/narrator/internal/ailink/content"
	"github.com/areaoforigin/narrator/internal/metrics"
	"github.com/areaoforigin/narrator/internal/storage"
)

// DefaultMaxBytes caps an image when Config leaves MaxBytes zero.
const DefaultMaxBytes int64 = 10 << 20

// Config controls image resolution.
type Config struct {
	MaxBytes int64 `mapstructure:"max_bytes" validate:"gte=0"`
	// FetchTimeout bounds one remote fetch. Zero keeps the HTTP client default.
	FetchTimeout         time.Duration `mapstructure:"fetch_timeout" validate:"gte=0"`
	AllowPrivateNetworks bool          `mapstructure:"allow_private_networks"`
	// MaxDimension downsizes images whose longer side exceeds it; 0 disables.
	MaxDimension int `mapstructure:"max_dimension" validate:"gte=0"`
}

func (c Config) maxBytes() int64 {
	if c.MaxBytes <= 0 {
		return DefaultMaxBytes
	}
	return c.MaxBytes
}

// NewHTTPClient returns the client used for remote images. Unless
// cfg.AllowPrivateNetworks is set, it refuses private and loopback hosts.
func NewHTTPClient(cfg Config) *httpkit.Client {
	return httpkit.New(cfg.FetchTimeout, httpkit.WithSkipNetworkValidation(cfg.AllowPrivateNetworks))
}

// Resolver resolves Sources into Images.
type Resolver struct {
	cfg     Config
	client  httpkit.ClientInterface
	objects storage.ObjectReader
}

// Option customizes a Resolver.
type Option func(*Resolver)

// WithHTTPClient replaces the client built from Config.
func WithHTTPClient(client httpkit.ClientInterface) Option {
	return func(r *Resolver) { r.client = client }
}

// NewResolver builds a resolver. objects may be nil when storage keys are
// not used.
func NewResolver(cfg Config, objects storage.ObjectReader, opts ...Option) *Resolver {
	r := &Resolver{
		cfg:     cfg,
		objects: objects,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.client == nil {
		r.client = NewHTTPClient(cfg)
	}
	return r
}

// Resolve loads the bytes behind src. Failures caused by the reference wrap
// ErrUnresolvable; anything else is an internal failure.
func (r *Resolver) Resolve(ctx context.Context, src Source) (img *Image, err error) {
	defer func() {
		metrics.RecordImageResolution(src.Kind.String(), err == nil)
	}()

	var (
		data     []byte
		declared string
	)
	switch src.Kind {
	case KindInline:
		data, declared = src.Data, src.MediaType
		if int64(len(data)) > r.cfg.maxBytes() {
			return nil, unresolvable(src, ErrTooLarge)
		}
	case KindRemoteURL:
		data, declared, err = r.fetch(ctx, src.URL)
	case KindStorageKey:
		data, declared, err = r.read(ctx, src.Key)
	default:
		return nil, fmt.Errorf("unknown image source kind %d", src.Kind)
	}
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, unresolvable(src, errors.New("image is empty"))
	}

	mediaType, ok := detectMediaType(data, declared, src.Kind == KindInline)
	if !ok {
		return nil, unresolvable(src, ErrNotImage)
	}

	if r.cfg.MaxDimension > 0 {
		data, mediaType, err = downscale(data, mediaType, r.cfg.MaxDimension)
		if err != nil {
			return nil, fmt.Errorf("downscale %s: %w", src.Ref(), err)
		}
	}

	return &Image{MediaType: mediaType, Data: data}, nil
}

// ResolveAll resolves every source in order and stops at the first failure.
func (r *Resolver) ResolveAll(ctx context.Context, sources []Source) ([]*Image, error) {
	images := make([]*Image, 0, len(sources))
	for i, src := range sources {
		img, err := r.Resolve(ctx, src)
		if err != nil {
			return nil, fmt.Errorf("image %d: %w", i, err)
		}
		images = append(images, img)
	}
	return images, nil
}

func (r *Resolver) fetch(ctx context.Context, rawURL string) ([]byte, string, error) {
	src := RemoteURL(rawURL)
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, "", unresolvable(src, err)
	}
	if err := validateURL(u); err != nil {
		return nil, "", unresolvable(src, err)
	}
	if !r.cfg.AllowPrivateNetworks {
		if ok, err := r.client.IsSafeURL(u.String()); !ok {
			if err == nil {
				err = errors.New(u.Hostname())
			}
			return nil, "", unresolvable(src, fmt.Errorf("%w: %w", ErrBlockedHost, err))
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, "", unresolvable(src, err)
	}
	req.Header.Set("Accept", "image/*")
	req.Header.Set("User-Agent", httpkit.UserAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, "", ctxErr
		}
		return nil, "", unresolvable(src, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close() // nolint:errcheck
		return nil, "", unresolvable(src, fmt.Errorf("status %d", resp.StatusCode))
	}

	data, err := r.readCapped(resp)
	if err != nil {
		return nil, "", unresolvable(src, err)
	}
	return data, resp.Header.Get("Content-Type"), nil
}

func (r *Resolver) read(ctx context.Context, key string) ([]byte, string, error) {
	src := StorageKey(key)
	if r.objects == nil {
		return nil, "", fmt.Errorf("storage reader not configured")
	}

	obj, err := r.objects.Get(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrInvalidKey) {
			return nil, "", unresolvable(src, err)
		}
		return nil, "", fmt.Errorf("read %s: %w", key, err)
	}

	// Object bodies go through the same capped reader as HTTP responses.
	data, err := r.readCapped(&http.Response{Body: obj.Body, ContentLength: obj.Size})
	if err != nil {
		if errors.Is(err, ErrTooLarge) {
			return nil, "", unresolvable(src, err)
		}
		return nil, "", fmt.Errorf("read %s: %w", key, err)
	}
	return data, obj.ContentType, nil
}

// readCapped reads at most one byte past the limit so an oversized body is
// detected without buffering all of it. The body is always closed.
func (r *Resolver) readCapped(resp *http.Response) ([]byte, error) {
	limit := r.cfg.maxBytes()
	if resp.ContentLength > limit {
		resp.Body.Close() // nolint:errcheck
		return nil, ErrTooLarge
	}
	data, err := httpkit.HandleLimitedResponse(resp, limit+1)
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, ErrTooLarge
	}
	return data, nil
}

func validateURL(u *url.URL) error {
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return fmt.Errorf("unsupported url scheme %q", u.Scheme)
	}
	if u.Hostname() == "" {
		return fmt.Errorf("url has no host")
	}
	return nil
}

// detectMediaType picks an image/* type. Uploads trust the declared type;
// fetched data trusts the sniffed bytes first.
func detectMediaType(data []byte, declared string, preferDeclared bool) (string, bool) {
	declared = content.NormalizeMediaType(declared)
	if preferDeclared && strings.HasPrefix(declared, "image/") {
		return declared, true
	}
	sniffed := content.NormalizeMediaType(http.DetectContentType(data))
	if strings.HasPrefix(sniffed, "image/") {
		return sniffed, true
	}
	if strings.HasPrefix(declared, "image/") {
		return declared, true
	}
	return "", false
}

func unresolvable(src Source, cause error) error {
	return fmt.Errorf("%w: %s %s: %w", ErrUnresolvable, src.Kind, src.Ref(), cause)
}
