package compositor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	"image/png"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/patrickmn/go-cache"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/bardoun7894/basplast/internal/domain"
	"github.com/bardoun7894/basplast/internal/infra"
	"github.com/bardoun7894/basplast/internal/storage"
)

// Asset file names looked up in the assets directory.
const (
	LogoAsset  = "bp.png"
	BadgeAsset = "saudi_made.png"
)

const (
	defaultMaxDownloadBytes = 32 << 20
	defaultCacheTTL         = 30 * time.Minute
)

// Overlay carries the product caption for an ad. The caption itself is
// rendered by the model; the values are carried for logging.
type Overlay struct {
	ProductName string
	ProductID   string
}

type Options struct {
	AssetsDir        string
	Store            *storage.FileStore
	HTTPClient       *http.Client
	Logger           *infra.Logger
	MaxDownloadBytes int64
	CacheTTL         time.Duration
}

// Compositor stamps brand overlays onto generated images and stores the result.
type Compositor struct {
	assetsDir string
	store     *storage.FileStore
	client    *http.Client
	log       *infra.Logger
	maxBytes  int64
	badges    *cache.Cache
}

func New(opts Options) (*Compositor, error) {
	if opts.Store == nil {
		return nil, errors.New("compositor: store is required")
	}
	client := opts.HTTPClient
	if client == nil {
		client = infra.NewHTTPClient(0)
	}
	logger := opts.Logger
	if logger == nil {
		logger = infra.DiscardLogger()
	}
	maxBytes := opts.MaxDownloadBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxDownloadBytes
	}
	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &Compositor{
		assetsDir: opts.AssetsDir,
		store:     opts.Store,
		client:    client,
		log:       logger,
		maxBytes:  maxBytes,
		badges:    cache.New(ttl, 2*ttl),
	}, nil
}

// Composite downloads imageURL, draws the logo and badge overlays, stores the
// PNG as ad_<uuid>.png and returns its public URL. Every error wraps
// domain.ErrCompositingFailed.
func (c *Compositor) Composite(ctx context.Context, imageURL string, overlay Overlay) (string, error) {
	base, err := c.download(ctx, imageURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrCompositingFailed, err)
	}
	bounds := base.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	canvas := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(canvas, canvas.Bounds(), base, bounds.Min, draw.Src)

	logoSrc, logoOK := c.asset(LogoAsset)
	badgeSrc, badgeOK := c.asset(BadgeAsset)
	var logoSize, badgeSize image.Point
	if logoOK {
		logoSize = logoSrc.Bounds().Size()
	}
	if badgeOK {
		badgeSize = badgeSrc.Bounds().Size()
	}
	layout := ComputeLayout(width, height, logoSize, badgeSize)
	if logoOK {
		draw.Draw(canvas, layout.Logo, c.scaled(LogoAsset, logoSrc, layout.Logo.Size()), image.Point{}, draw.Over)
	}
	if badgeOK {
		draw.Draw(canvas, layout.Badge, c.scaled(BadgeAsset, badgeSrc, layout.Badge.Size()), image.Point{}, draw.Over)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, canvas); err != nil {
		return "", fmt.Errorf("%w: encode png: %v", domain.ErrCompositingFailed, err)
	}
	key, err := c.store.Save(ctx, "ad_", ".png", buf.Bytes())
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrCompositingFailed, err)
	}
	c.log.Debug().
		Str("product_name", overlay.ProductName).
		Str("product_id", overlay.ProductID).
		Int("width", width).
		Int("height", height).
		Str("key", key).
		Msg("compositor: ad image stored")
	return c.store.PublicURL(key), nil
}

func (c *Compositor) download(ctx context.Context, rawURL string) (image.Image, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid image url %q", rawURL)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("download: HTTP %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("download: %w", err)
	}
	if int64(len(data)) > c.maxBytes {
		return nil, fmt.Errorf("download: image exceeds %d bytes", c.maxBytes)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return img, nil
}

// asset loads an overlay asset. Missing or unreadable assets are skipped.
func (c *Compositor) asset(name string) (image.Image, bool) {
	if v, ok := c.badges.Get(name); ok {
		return v.(image.Image), true
	}
	path := filepath.Join(c.assetsDir, name)
	f, err := os.Open(path)
	if err != nil {
		c.log.Warn().Str("asset", path).Msg("compositor: overlay asset not found, skipping")
		return nil, false
	}
	defer func() {
		_ = f.Close()
	}()
	img, _, err := image.Decode(f)
	if err != nil {
		c.log.Warn().Err(err).Str("asset", path).Msg("compositor: overlay asset unreadable, skipping")
		return nil, false
	}
	c.badges.SetDefault(name, img)
	return img, true
}

func (c *Compositor) scaled(name string, src image.Image, size image.Point) image.Image {
	if size == src.Bounds().Size() {
		return src
	}
	key := fmt.Sprintf("%s@%dx%d", name, size.X, size.Y)
	if v, ok := c.badges.Get(key); ok {
		return v.(image.Image)
	}
	dst := image.NewRGBA(image.Rectangle{Max: size})
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	c.badges.SetDefault(key, dst)
	return dst
}
