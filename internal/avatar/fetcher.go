// Package avatar loads remote avatar images off the update path.
package avatar

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"  // register decoder
	_ "image/jpeg" // register decoder
	"image/png"
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/nfnt/resize"

	"github.com/watchfire-io/nearby/internal/buildinfo"
	"github.com/watchfire-io/nearby/internal/presence"
	"github.com/watchfire-io/nearby/internal/surface"
)

const (
	// DefaultTimeout bounds connect plus read for one fetch.
	DefaultTimeout = 3 * time.Second

	// TargetSize is the edge of the bounding box images are scaled into.
	TargetSize = 64

	maxBodyBytes = 4 << 20
)

// Fetcher downloads, decodes and scales avatars, caching the PNG result.
// Failed fetches are not cached and simply leave the avatar absent.
type Fetcher struct {
	client  *http.Client
	timeout time.Duration
	cache   *lru.Cache[string, []byte]
	onReady func(url string)

	mu       sync.Mutex
	inflight map[string]struct{}
}

// NewFetcher creates a fetcher. onReady, if set, is called from the fetch
// goroutine after an image lands in the cache.
func NewFetcher(timeout time.Duration, cacheSize int, onReady func(url string)) (*Fetcher, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if cacheSize <= 0 {
		cacheSize = 32
	}
	cache, err := lru.New[string, []byte](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create avatar cache: %w", err)
	}
	return &Fetcher{
		client:   &http.Client{Timeout: timeout},
		timeout:  timeout,
		cache:    cache,
		onReady:  onReady,
		inflight: make(map[string]struct{}),
	}, nil
}

// Lookup returns a cached avatar without blocking.
func (f *Fetcher) Lookup(url string) ([]byte, bool) {
	if url == "" {
		return nil, false
	}
	return f.cache.Get(url)
}

// Prefetch starts a background fetch for url unless it is cached or already
// in flight. It never blocks the caller.
func (f *Fetcher) Prefetch(url string) {
	if url == "" || f.cache.Contains(url) {
		return
	}
	f.mu.Lock()
	if _, busy := f.inflight[url]; busy {
		f.mu.Unlock()
		return
	}
	f.inflight[url] = struct{}{}
	f.mu.Unlock()

	go func() {
		defer func() {
			f.mu.Lock()
			delete(f.inflight, url)
			f.mu.Unlock()
		}()

		ctx, cancel := context.WithTimeout(context.Background(), f.timeout)
		defer cancel()

		data, err := f.Fetch(ctx, url)
		if err != nil {
			log.Printf("[avatar] No image for %s: %v", url, err)
			return
		}
		f.cache.Add(url, data)
		if f.onReady != nil {
			f.onReady(url)
		}
	}()
}

// Fetch downloads url and returns the scaled image encoded as PNG.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", buildinfo.UserAgent())
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch: unexpected status %d", resp.StatusCode)
	}

	img, _, err := image.Decode(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, Scale(img, TargetSize)); err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	return buf.Bytes(), nil
}

// Scale fits img into a size×size box, keeping its aspect ratio.
func Scale(img image.Image, size int) image.Image {
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return img
	}
	aspect := float64(b.Dx()) / float64(b.Dy())
	w, h := size, size
	if aspect > 1 {
		h = int(float64(size) / aspect)
	} else {
		w = int(float64(size) * aspect)
	}
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return resize.Resize(uint(w), uint(h), img, resize.Lanczos3)
}

// Decorate attaches the cached avatar for s to spec. A missing avatar leaves
// spec unchanged.
func (f *Fetcher) Decorate(spec *surface.NotificationSpec, s presence.State) error {
	if data, ok := f.Lookup(s.AvatarURL); ok {
		spec.LargeIcon = data
	}
	return nil
}
